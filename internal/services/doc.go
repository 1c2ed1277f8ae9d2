// Package services calls the Spotify Web API on behalf of an authorized session.
//
// # Authorization
//
// [SpotifyService] sends every request through an [oauth2.Transport] whose token source is usually
// auth.Session.TokenSource. The service never refreshes or re-authorizes; a 401 surfaces as an [APIError] that
// also matches [shared.ErrNotAuthenticated], and the caller decides whether to refresh the session and retry.
//
// # Market
//
// [WithMarket] adds a market parameter to every request, which restricts results to content playable in that
// country. "from_token" uses the country of the authorizing user.
//
// # Error Handling
//
// Non-2xx responses become [*APIError] with the status and the message from Spotify's error object. Transport
// failures wrap [shared.ErrAPIRequest]; undecodable bodies wrap [shared.ErrMalformedResponse].
package services
