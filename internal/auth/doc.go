// Package auth implements the Spotify authorization-code + PKCE flow.
//
// # Provider
//
// [Provider] owns one login attempt's PKCE verifier/challenge pair, CSRF
// state token, loopback redirect port, and the resulting token pair. Its
// client moves through three phases:
//
//	Unauthenticated --authenticate--> Authenticating --success--> Authenticated
//
// The transient Authenticating phase makes concurrent exchange attempts fail
// fast instead of racing two token exchanges against the same verifier. Any
// exchange failure rolls the phase back to Unauthenticated so the provider
// can be retried.
//
// [Provider.Logout] never mutates the current instance; it returns a fresh
// provider with a new verifier, state token, and port.
//
// # Loopback server
//
// [Server] binds the provider's loopback address and waits for exactly one
// authorization redirect on /login, returning the captured code and state to
// the caller. Requests to other paths receive a 404 and the wait continues.
// The wait is cancellable through the caller's context.
package auth
