package models

import (
	"time"

	"github.com/google/uuid"
)

// Cycle is one contribution-and-payout round of a group. At most one
// non-completed cycle exists per group at any time.
type Cycle struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"groupId"`
	CycleNumber int       `json:"cycleNumber"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsCompleted bool      `json:"isCompleted"`

	// Version guards the close transition: closing a cycle must win an
	// optimistic update against the version read in the same transaction.
	Version int `json:"-"`
}

// CycleProgress is the read projection for the current cycle of a group.
type CycleProgress struct {
	Cycle                  Cycle `json:"cycle"`
	ActiveMembers          int   `json:"activeMembers"`
	CompletedContributions int   `json:"completedContributions"`
}

// CompletedCycle is a history row: a closed cycle joined with its payout.
type CompletedCycle struct {
	Cycle
	RecipientID        uuid.UUID `json:"recipientId"`
	RecipientFirstName string    `json:"recipientFirstName"`
	RecipientLastName  string    `json:"recipientLastName"`
	PayoutAmount       float64   `json:"payoutAmount"`
	PayoutStatus       string    `json:"payoutStatus"`
}

// CycleCloseResult reports what a contribution settlement did to the cycle.
type CycleCloseResult struct {
	Closed    bool
	Payout    *Payout
	NextCycle *Cycle
}
