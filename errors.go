package alloc

import "errors"

// Access control errors. Their messages are part of the public contract.
var (
	ErrAccessDenied = errors.New("Access for Admin's only")
	ErrAlreadyAdmin = errors.New("Account already ADMIN")
	ErrSelfRemoval  = errors.New("You can't remove yourself")
	ErrNotAdmin     = errors.New("Account not ADMIN")
)

// Allocation rejections, in the order Allocate checks them.
var (
	ErrSaleDisabled          = errors.New("Sale with this ID is disabled")
	ErrInsufficientBalance   = errors.New("Not enough tokens to receive")
	ErrInsufficientAllowance = errors.New("You need to be allowed to use tokens to pay for this contract [We are wait approve]")
	ErrBelowThreshold        = errors.New("Amount must be more then LevelMin for this level")
	ErrTransferFailed        = errors.New("alloc: token transfer failed")
)

// ErrTransferUnconfirmed is returned by Allocate when the token transfer was
// submitted but its outcome is unknown. Nothing was recorded, yet the payer
// may have been charged; it is reported through OnJournalFailed.
var ErrTransferUnconfirmed = errors.New("alloc: token transfer unconfirmed")

// General errors
var (
	ErrNoCaller         = errors.New("alloc: no caller in context")
	ErrTokenUnavailable = errors.New("alloc: bound token unavailable")
	ErrNotFound         = errors.New("alloc: not found")
	ErrAlreadyExists    = errors.New("alloc: already exists")
	ErrInvalidInput     = errors.New("alloc: invalid input")
)

// Store errors
var (
	ErrStoreNotReady   = errors.New("alloc: store not ready")
	ErrMigrationFailed = errors.New("alloc: migration failed")
)

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessError returns true if the error comes from the administrator checks.
func IsAccessError(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrAlreadyAdmin) ||
		errors.Is(err, ErrSelfRemoval) ||
		errors.Is(err, ErrNotAdmin) ||
		errors.Is(err, ErrNoCaller)
}

// IsRejection returns true if Allocate refused the request without
// recording anything.
func IsRejection(err error) bool {
	return errors.Is(err, ErrSaleDisabled) ||
		errors.Is(err, ErrTokenUnavailable) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientAllowance) ||
		errors.Is(err, ErrBelowThreshold) ||
		errors.Is(err, ErrTransferFailed)
}

// IsRetryable returns true if the error is temporary and the operation can be
// retried. Domain rejections never are.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady)
}
