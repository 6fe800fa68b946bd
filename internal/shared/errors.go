package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNeedsSignIn      = fmt.Errorf("sign in required")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrMissingExpiry    = fmt.Errorf("token has no expiry claim")
	ErrOAuthStateDenied = fmt.Errorf("oauth state mismatch")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrEntitlement        = fmt.Errorf("subscription does not allow this action")
	ErrNoResult           = fmt.Errorf("no completed result available")

	// Job workflow errors
	ErrJobActive      = fmt.Errorf("a job of this kind is already running")
	ErrNoActiveJob    = fmt.Errorf("no job is running")
	ErrInvalidState   = fmt.Errorf("invalid job state transition")
	ErrJobCancelled   = fmt.Errorf("job cancelled")
	ErrJobFailed      = fmt.Errorf("job failed")
	ErrNotFound       = fmt.Errorf("not found")
	ErrNoScript       = fmt.Errorf("no formatted script available")
	ErrUnassigned     = fmt.Errorf("speaker has no voice assigned")
	ErrUnknownVoice   = fmt.Errorf("unknown voice")
	ErrUnknownSpeaker = fmt.Errorf("unknown speaker")

	// Local storage errors
	ErrNoMigrations = fmt.Errorf("no applied migrations")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
	ErrFileTooLarge    = fmt.Errorf("file exceeds the upload size limit")
	ErrUnsupportedFile = fmt.Errorf("unsupported file type")
)
