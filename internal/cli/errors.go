package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Garden errors
	ErrGardenNotFound = "GARDEN_NOT_FOUND"
	ErrConfigInvalid  = "CONFIG_INVALID"

	// Document errors
	ErrFileNotFound   = "FILE_NOT_FOUND"
	ErrIDCollision    = "ID_COLLISION"
	ErrDuplicateID    = "DUPLICATE_ID"
	ErrFileWriteError = "FILE_WRITE_ERROR"
	ErrPartialFailure = "PARTIAL_FAILURE"
	ErrTreeInvalid    = "TREE_INVALID"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// Confirmation
	ErrConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrCancelled            = "CANCELLED"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnDuplicateID  = "DUPLICATE_ID"
	WarnTreeInvalid  = "TREE_INVALID"
	WarnNotFound     = "NOT_FOUND"
	WarnUnreadable   = "FILE_READ_ERROR"
	WarnNothingToDo  = "NOTHING_TO_DO"
	WarnCascadeIssue = "CASCADE_WARNING"
)
