// Package tasks drives long-running backend jobs with real-time progress reporting.
//
// # Workflows
//
// A [Workflow] runs one job kind through
//
//	Idle -> Submitting -> Polling -> Succeeded | Failed | Cancelled
//
// and is parameterized by a [Backend] that knows the endpoints and result
// shape of that kind. Two backends exist:
//
//  1. [FormatBackend] : upload a script, wait for formatting, fetch the script and its speakers
//  2. [AudioBackend] : submit script text with voice assignments, wait, fetch the audio link
//
// # Polling
//
// Status is requested every [DefaultPollInterval] by a [Repeater], one
// request at a time. The token is re-validated on every tick. A terminal
// status wins over a progress value in the same response.
//
// # Progress Reporting
//
// All state changes are sent as [ProgressUpdate] values on a non-blocking channel
//
// Updates use select with default to prevent blocking.
//
// # Resume
//
// The pending job id is written to the durable store on submission and
// removed when the job ends. [Workflow.Resume] finds a leftover id and polls
// it again without resubmitting.
//
// # Subscription
//
// [SubscriptionCache] holds the last known quota and is refreshed after each
// successful job.
package tasks
