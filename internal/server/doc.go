// Package server runs the short-lived local HTTP server that receives the authorization redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] implements it over
// [http.ServeMux]; [Middleware] added first wraps outermost. [RequestLogger] logs requests without their query
// strings.
//
// # Callback Prompter
//
// [CallbackPrompter] is the "server" prompt of `spotx auth login`. It listens on the configured host and port,
// opens the authorization page, and returns the full redirect URL once the provider calls back. The state and code
// are checked by the auth package, not here.
//
// [CallbackHandler] accepts a single callback. It renders a success page when the redirect carries a code and a
// failure page when it does not.
package server
