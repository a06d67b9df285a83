package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")

	// Settlement errors
	ErrLockHeld            = errors.New("activation already in progress")
	ErrSignatureMismatch   = errors.New("callback signature mismatch")
	ErrPaymentPendingExist = errors.New("transaction already has a pending payment")
	ErrTransactionExpired  = errors.New("transaction window has expired")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)

// TransitionError names the exact from/to pair of a rejected status change.
// Callers decide whether an illegal transition is a no-op or a bug.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: illegal status transition %s -> %s", e.Entity, e.From, e.To)
}

// LimitError carries the offending method limits so callers can surface them.
type LimitError struct {
	MethodCode string
	Amount     int64
	Min        int64
	Max        int64
	Currency   string
}

func (e *LimitError) Error() string {
	if e.Min == 0 && e.Max == 0 {
		return fmt.Sprintf("payment method %s: unknown method code, amount %d rejected", e.MethodCode, e.Amount)
	}
	return fmt.Sprintf("payment method %s: amount %d outside limits [%d, %d] %s",
		e.MethodCode, e.Amount, e.Min, e.Max, e.Currency)
}
