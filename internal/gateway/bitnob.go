package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// BitnobClient sends mobile-money transfers through the Bitnob API.
type BitnobClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zerolog.Logger
}

// NewBitnobClient creates a Bitnob client with a per-request timeout.
func NewBitnobClient(baseURL, apiKey string, timeout time.Duration, log *zerolog.Logger) *BitnobClient {
	return &BitnobClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type sendMoneyRequest struct {
	Phone     string  `json:"phone"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	Narration string  `json:"narration"`
}

type sendMoneyResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// Send posts a mobile-money transfer request and waits for the outcome.
func (c *BitnobClient) Send(ctx context.Context, phone string, amount float64, reference, narration string) (*Result, error) {
	payload, err := json.Marshal(sendMoneyRequest{
		Phone:     phone,
		Amount:    amount,
		Reference: reference,
		Narration: narration,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/mobile-money/send", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error building transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending transfer request: %w", err)
	}
	defer resp.Body.Close()

	var body sendMoneyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding transfer response: %w", err)
	}

	if resp.StatusCode >= 500 {
		// Provider-side trouble is retryable
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, body.Message)
	}
	if !body.Success {
		c.log.Warn().Str("reference", reference).Str("reason", body.Message).Msg("Transfer rejected by gateway")
		return nil, &Error{Reason: body.Message}
	}

	return &Result{TransactionID: body.TransactionID, Reference: reference}, nil
}
