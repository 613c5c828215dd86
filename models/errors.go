package models

import (
	"errors"
	"fmt"
)

// Conflict errors: rejected after a consistency check, before any side effect.
var (
	ErrAlreadyMember         = errors.New("already an active member of this group")
	ErrNotAMember            = errors.New("not an active member of this group")
	ErrInvalidCycle          = errors.New("invalid or completed cycle")
	ErrDuplicateContribution = errors.New("already contributed to this cycle")
)

// ErrCycleClosed is returned when a contribution settles after its cycle
// already closed, typically because the gateway charge was in flight while
// another member's contribution completed the cycle. The attempt stays on
// record and the collected funds are reconciled out of band.
var ErrCycleClosed = errors.New("cycle closed before the contribution settled")

// ErrAmountMismatch is rejected before any gateway call.
var ErrAmountMismatch = errors.New("contribution amount must equal the group amount per cycle")

// ErrNoEligibleRecipient indicates a cycle closed with zero active members.
// Completion requires at least one contributor, so reaching it means the
// engine's invariants were violated; callers treat it as fatal.
var ErrNoEligibleRecipient = errors.New("no eligible payout recipient")

// ErrGatewayTimeout indicates the payment gateway did not answer within the
// bounded retry budget.
var ErrGatewayTimeout = errors.New("payment gateway timed out")

// ValidationError rejects bad input before any persistence or gateway call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
