package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cham-tech/SmartSave/models"
	"github.com/rs/zerolog"
)

// retryingClient retries transport failures with exponential backoff.
// Definitive gateway rejections (*Error) pass through untouched; retrying a
// declined payment would just decline again. Transfers are idempotent per
// reference, so re-sending the same reference after a timeout is safe.
type retryingClient struct {
	next        Client
	maxAttempts int
	backoff     time.Duration
	log         *zerolog.Logger
}

// WithRetry wraps a client with bounded retry. Exhausting the budget
// surfaces models.ErrGatewayTimeout.
func WithRetry(next Client, maxAttempts int, backoff time.Duration, log *zerolog.Logger) Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &retryingClient{next: next, maxAttempts: maxAttempts, backoff: backoff, log: log}
}

func (r *retryingClient) Send(ctx context.Context, phone string, amount float64, reference, narration string) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.next.Send(ctx, phone, amount, reference, narration)
		if err == nil {
			return result, nil
		}

		var gatewayErr *Error
		if errors.As(err, &gatewayErr) {
			return nil, err
		}

		lastErr = err
		if attempt < r.maxAttempts {
			r.log.Warn().Err(err).
				Str("reference", reference).
				Int("attempt", attempt).
				Int("max_attempts", r.maxAttempts).
				Msg("Gateway call failed, retrying")

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", models.ErrGatewayTimeout, ctx.Err())
			case <-time.After(r.backoff * time.Duration(1<<(attempt-1))):
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", models.ErrGatewayTimeout, lastErr)
}
