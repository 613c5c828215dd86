package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PayoutPending   = "pending"
	PayoutCompleted = "completed"
)

// Payout is the disbursement of a cycle's pooled contributions to one member.
// It is created pending the instant its cycle closes and marked completed
// only once the gateway confirms the transfer.
type Payout struct {
	ID                   uuid.UUID `json:"id"`
	CycleID              uuid.UUID `json:"cycleId"`
	UserID               uuid.UUID `json:"userId"`
	Amount               float64   `json:"amount"`
	Status               string    `json:"status"`
	PayoutDate           time.Time `json:"payoutDate"`
	TransactionReference string    `json:"transactionReference,omitempty"`

	CycleNumber int `json:"cycleNumber,omitempty"`
}
