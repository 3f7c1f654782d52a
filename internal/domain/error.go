package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound                    = errors.New("entity not found")
	ErrNoActiveSubscription        = errors.New("no active subscription")
	ErrQuotaExhausted              = errors.New("quota exhausted")
	ErrContentLocked               = errors.New("content is locked")
	ErrInvalidArgument             = errors.New("invalid argument")
	ErrUnknownAmount               = errors.New("paid amount does not map to a plan tier")
	ErrDuplicateActiveSubscription = errors.New("an active subscription already exists for this scope")
	ErrAlreadyExists               = errors.New("entity already exists")

	// Persistence faults. These mean "unable to decide", never "denied".
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
