// Package gateway talks to the mobile-money provider that moves real funds
// for contributions and payouts. Transfers are idempotent per reference, so
// callers generate a fresh unique reference for every logical attempt.
package gateway

import "context"

// Result is a confirmed transfer.
type Result struct {
	TransactionID string
	Reference     string
}

// Error is a definitive rejection from the provider, as opposed to a
// transport failure. It is reported to the user and recorded, not retried.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Client sends a mobile-money transfer and blocks until the provider
// answers or the context expires.
type Client interface {
	Send(ctx context.Context, phone string, amount float64, reference, narration string) (*Result, error)
}
