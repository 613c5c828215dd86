package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ContributionCompleted = "completed"
	ContributionFailed    = "failed"
)

// Contribution records a member's attempt to fund a cycle. Failed attempts
// are kept for auditability and do not block a later retry; at most one
// completed contribution exists per (cycle, user).
type Contribution struct {
	ID                   uuid.UUID `json:"id"`
	CycleID              uuid.UUID `json:"cycleId"`
	UserID               uuid.UUID `json:"userId"`
	Amount               float64   `json:"amount"`
	TransactionReference string    `json:"transactionReference"`
	Status               string    `json:"status"`
	ContributionDate     time.Time `json:"contributionDate"`

	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ContributionRequest is the payload for funding the current cycle.
type ContributionRequest struct {
	Amount float64 `json:"amount"`
}

// AmountTolerance is the maximum deviation accepted between a contribution
// and the group's amount per cycle, in currency units.
const AmountTolerance = 0.01
