// Package auth manages the Spotify OAuth2 token lifecycle: acquisition, caching, expiry, refresh and scope checks.
//
// # Tokens
//
// [Token] is immutable once issued. [Issue] validates a token-exchange response up front, so a missing access token
// or lifetime surfaces as a [MalformedResponseError] rather than at the point of use. A token without a refresh token
// cannot be renewed once it expires.
//
// # Flows
//
// [ClientCredentialsFlow] authenticates the application with no user. [AuthorizationCodeFlow] walks the
// user-consent states: unauthenticated, awaiting redirect, exchanging, authenticated, and refreshing from
// authenticated. Both authenticate to the token endpoint with HTTP Basic credentials and never retry.
//
// # Credential Stores
//
// A [CredentialStore] keeps one token per identifier: [FileStore] writes JSON files, [MemoryStore] keeps them in
// process, and repositories.CredentialRepository uses SQLite. A cache miss is a boolean, not an error.
//
// # Sessions
//
// [Session] is passed explicitly to API callers; there is no package-level auth state. [EstablishLocalSession]
// restores a cached token or drives a [Prompter] through the interactive authorization.
//
// Errors:
//   - [AuthorizationError] : non-success exchange, or a state mismatch on redirect (matches shared.ErrAuthFailed)
//   - [MalformedResponseError] : success response missing required fields (matches shared.ErrMalformedResponse)
//   - [CacheCorruptError] : stored credential unreadable (matches shared.ErrCacheCorrupt)
package auth
