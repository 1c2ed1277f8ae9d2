// Package repositories implements SQLite persistence for cached credentials.
//
// [CredentialRepository] satisfies [auth.CredentialStore], so flows can cache tokens in the same database the CLI
// migrates with `spotx setup database`. One row is kept per cache identifier; saving overwrites it.
//
// Issue times are stored as unix nanoseconds so a token read back has exactly the expiry it was issued with.
// Scope is stored space-joined, the same form the token endpoint returns it in.
package repositories
