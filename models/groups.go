package models

import (
	"time"

	"github.com/google/uuid"
)

// CycleFrequency controls how long each contribution cycle stays open.
type CycleFrequency string

const (
	FrequencyDaily   CycleFrequency = "daily"
	FrequencyWeekly  CycleFrequency = "weekly"
	FrequencyMonthly CycleFrequency = "monthly"
)

// Valid reports whether the frequency is one of the supported values.
func (f CycleFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// NextEndDate derives a cycle end date from its start date.
func (f CycleFrequency) NextEndDate(start time.Time) time.Time {
	switch f {
	case FrequencyDaily:
		return start.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// Group is a savings circle: a set of members pooling a fixed contribution
// each cycle, with the pooled sum paid out to one member per cycle.
type Group struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	AmountPerCycle float64        `json:"amountPerCycle"`
	CycleFrequency CycleFrequency `json:"cycleFrequency"`
	CreatedBy      uuid.UUID      `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`

	// CurrentCycleID points at the single non-completed cycle. It is updated
	// in the same transaction that closes one cycle and opens the next.
	CurrentCycleID uuid.UUID `json:"currentCycleId"`

	MemberCount int `json:"memberCount,omitempty"`
}

// Membership links a user to a group. A user holds at most one active
// membership per group; leaving deactivates the row instead of deleting it.
type Membership struct {
	ID       uuid.UUID `json:"id"`
	GroupID  uuid.UUID `json:"groupId"`
	UserID   uuid.UUID `json:"userId"`
	IsActive bool      `json:"isActive"`
	JoinedAt time.Time `json:"joinedAt"`

	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// GroupRequest is the payload for creating a group.
type GroupRequest struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	AmountPerCycle float64        `json:"amountPerCycle"`
	CycleFrequency CycleFrequency `json:"cycleFrequency"`
}
