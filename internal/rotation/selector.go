// Package rotation picks payout recipients for closing cycles. EligiblePool
// applies the fairness rule to a group's membership and Selector draws the
// recipient from the resulting pool.
package rotation

import (
	"math/rand"
	"sync"

	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
)

// Selector draws uniformly from a candidate pool. The RNG is injected so
// tests can pin the draw sequence.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a selector seeded deterministically.
func NewSelector(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// Pick returns one candidate chosen uniformly at random.
func (s *Selector) Pick(candidates []uuid.UUID) (uuid.UUID, error) {
	if len(candidates) == 0 {
		return uuid.Nil, models.ErrNoEligibleRecipient
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rng.Intn(len(candidates))], nil
}

// EligiblePool applies the rotation rule: active members never paid in the
// group form the pool, and only once every active member has been paid does
// the pool reset to all of them.
func EligiblePool(active []uuid.UUID, paid map[uuid.UUID]bool) []uuid.UUID {
	var pool []uuid.UUID
	for _, id := range active {
		if !paid[id] {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		return active
	}
	return pool
}
