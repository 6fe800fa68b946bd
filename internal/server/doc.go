// Package server runs the temporary localhost server used for Google sign-in.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] receives the redirect from Google's consent page. It checks the
// state parameter and hands the authorization code to the caller, which posts it
// to the narrate backend. The handler accepts one callback only.
//
// [CallbackServer] wraps the handler in a short-lived server: `narrate auth google`
// starts it on the redirect URI's host, opens the browser and waits for the code.
package server
