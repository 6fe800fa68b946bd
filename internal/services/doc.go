// Package services implements the HTTP client for the narrate backend.
//
// # Client
//
// [Client] wraps an [http.Client] with a per-request timeout, an optional
// [rate.Limiter], and debug logging. Privileged calls take the bearer token as
// an argument; the client does not hold session state. The refresh cookie is
// kept by the http.Client's cookie jar so [Client.Refresh] sends no
// Authorization header.
//
// # Endpoints
//
//   - Accounts: [Client.Login], [Client.Register], [Client.GoogleSignIn], [Client.Refresh], [Client.Logout]
//   - Format jobs: [Client.FormatEntitlement], [Client.UploadScript], [Client.FormatStatus], [Client.LatestScript], [Client.CancelFormat]
//   - Audio jobs: [Client.AudioEntitlement], [Client.SubmitAudio], [Client.AudioStatus], [Client.LatestAudio], [Client.CancelAudio]
//   - Account: [Client.Profile], [Client.UpdateProfile], [Client.ForgotPassword], [Client.ResetPassword], [Client.DeleteAccount]
//   - Voices and files: [Client.Voices], [Client.PreviewVoice], [Client.DeleteAudio], [Client.Download]
//   - Subscription: [Client.CurrentSubscription], [Client.CancelSubscription]
//
// # Error Handling
//
// Every non-2xx response becomes an [*APIError] whose Message is read once from
// the body's "error" field, falling back to "detail". Requests that never got a
// response become a [*TransportError]. Both wrap sentinels from the shared package:
//   - [shared.ErrAPIRequest] : backend answered with a failure status
//   - [shared.ErrNeedsSignIn] : backend answered 401
//   - [shared.ErrServiceUnavailable] : network failure, timeout, or undecodable body
package services
