package conquest

import (
	"errors"
	"fmt"
)

// Rejection reasons. Every rejected command leaves the match unchanged.
var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoEligibleTarget  = errors.New("no eligible target")
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrMatchConcluded    = errors.New("match already concluded")
	ErrInvalidConfig     = errors.New("invalid match config")
)

// RejectedError carries a rejection reason plus a human-readable detail.
// It unwraps to one of the sentinel reasons above.
type RejectedError struct {
	Reason error
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *RejectedError) Unwrap() error {
	return e.Reason
}

func reject(reason error, format string, args ...any) error {
	return &RejectedError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
