// Package errs holds the error kinds shared across the bot.
//
// Components wrap these with fmt.Errorf("...: %w", errs.ErrX) and the
// transport layer maps them to fixed user-facing texts with errors.Is.
// Raw wrapped messages never reach end users.
package errs

import "errors"

// User flow errors.
var (
	// ErrSubscriptionCheck indicates the channel membership lookup failed.
	ErrSubscriptionCheck = errors.New("subscription check failed")

	// ErrQuotaExceeded indicates the daily request limit is used up.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrInvalidSelection indicates an unrecognized platform or dialect.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrBusy indicates another request of the same user is in flight.
	ErrBusy = errors.New("request already in progress")

	// ErrNoSession indicates there is no active generate flow for the user.
	ErrNoSession = errors.New("no active session")
)

// External collaborator errors.
var (
	// ErrGeneration indicates the text generator failed, timed out or
	// kept returning unusable output.
	ErrGeneration = errors.New("generation failed")

	// ErrStorage indicates the persistence layer is unavailable.
	ErrStorage = errors.New("storage unavailable")
)

// Admin errors.
var (
	// ErrAdminAuthorization indicates a non-admin invoked a privileged action.
	ErrAdminAuthorization = errors.New("admin authorization required")

	// ErrConfirmationExpired indicates a confirm token is unknown or expired.
	ErrConfirmationExpired = errors.New("confirmation expired")
)
