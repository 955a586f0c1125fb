// Package server provides HTTP routing, middleware, and the sign-in callback used by the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Sign-in Callback
//
// [CallbackHandler] receives the opaque session credential from the login page.
// It checks the state parameter (CSRF protection) and sends the credential through a channel.
// Nothing about the credential is validated locally.
//
// It only processes one callback to prevent replay attacks.
//
// # Usage
//
// "songdl auth login" starts a temporary server on the configured callback address,
// opens the login page, waits for the callback and shuts the server down.
// [AllowOrigin] lets the login page deliver the credential with a cross-origin POST.
package server
