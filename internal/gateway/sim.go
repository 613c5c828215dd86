package gateway

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Simulated stands in for the Bitnob API in development and tests. It
// approves a configurable fraction of transfers and rejects the rest with
// the provider's usual decline message.
type Simulated struct {
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated gateway. Rates outside [0, 1] are clamped.
func NewSimulated(successRate float64, seed int64) *Simulated {
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}
	return &Simulated{
		successRate: successRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Send approves or declines the transfer according to the success rate.
func (s *Simulated) Send(ctx context.Context, phone string, amount float64, reference, narration string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ok := s.rng.Float64() < s.successRate
	s.mu.Unlock()

	if !ok {
		return nil, &Error{Reason: "Payment failed due to insufficient funds or network issues"}
	}
	return &Result{
		TransactionID: "MOCK-" + uuid.NewString(),
		Reference:     reference,
	}, nil
}
