package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cham-tech/SmartSave/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSimulatedAlwaysApproves(t *testing.T) {
	g := NewSimulated(1.0, 1)

	for i := 0; i < 50; i++ {
		result, err := g.Send(context.Background(), "+256700000001", 10000, "CONTRIB-x", "test")
		assert.NoError(t, err)
		assert.NotEmpty(t, result.TransactionID)
		assert.Equal(t, "CONTRIB-x", result.Reference)
	}
}

func TestSimulatedAlwaysDeclines(t *testing.T) {
	g := NewSimulated(0.0, 1)

	_, err := g.Send(context.Background(), "+256700000001", 10000, "CONTRIB-x", "test")
	var rejection *Error
	assert.ErrorAs(t, err, &rejection)
	assert.Contains(t, rejection.Reason, "Payment failed")
}

func TestSimulatedClampsRate(t *testing.T) {
	g := NewSimulated(7.5, 1)

	_, err := g.Send(context.Background(), "+256700000001", 10000, "CONTRIB-x", "test")
	assert.NoError(t, err)
}

type scriptedClient struct {
	calls   atomic.Int32
	results []error
}

func (s *scriptedClient) Send(ctx context.Context, phone string, amount float64, reference, narration string) (*Result, error) {
	n := int(s.calls.Add(1)) - 1
	if n >= len(s.results) {
		n = len(s.results) - 1
	}
	if err := s.results[n]; err != nil {
		return nil, err
	}
	return &Result{TransactionID: "TX", Reference: reference}, nil
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	logger := zerolog.Nop()
	next := &scriptedClient{results: []error{errors.New("connection reset"), nil}}
	client := WithRetry(next, 3, time.Millisecond, &logger)

	result, err := client.Send(context.Background(), "+256700000001", 10000, "PAYOUT-x", "test")
	assert.NoError(t, err)
	assert.Equal(t, "TX", result.TransactionID)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestRetryDoesNotRetryRejections(t *testing.T) {
	logger := zerolog.Nop()
	next := &scriptedClient{results: []error{&Error{Reason: "insufficient funds"}}}
	client := WithRetry(next, 3, time.Millisecond, &logger)

	_, err := client.Send(context.Background(), "+256700000001", 10000, "PAYOUT-x", "test")
	var rejection *Error
	assert.ErrorAs(t, err, &rejection)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestRetryExhaustionIsGatewayTimeout(t *testing.T) {
	logger := zerolog.Nop()
	transient := errors.New("i/o timeout")
	next := &scriptedClient{results: []error{transient, transient, transient}}
	client := WithRetry(next, 3, time.Millisecond, &logger)

	_, err := client.Send(context.Background(), "+256700000001", 10000, "PAYOUT-x", "test")
	assert.ErrorIs(t, err, models.ErrGatewayTimeout)
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	logger := zerolog.Nop()
	transient := errors.New("i/o timeout")
	next := &scriptedClient{results: []error{transient}}
	client := WithRetry(next, 5, time.Minute, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Send(ctx, "+256700000001", 10000, "PAYOUT-x", "test")
	assert.ErrorIs(t, err, models.ErrGatewayTimeout)
}

func TestBitnobSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mobile-money/send", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req sendMoneyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+256700000001", req.Phone)
		assert.Equal(t, 10000.0, req.Amount)

		json.NewEncoder(w).Encode(sendMoneyResponse{Success: true, TransactionID: "BT-1"})
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	client := NewBitnobClient(srv.URL, "test-key", time.Second, &logger)

	result, err := client.Send(context.Background(), "+256700000001", 10000, "CONTRIB-x", "test")
	assert.NoError(t, err)
	assert.Equal(t, "BT-1", result.TransactionID)
}

func TestBitnobSendDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(sendMoneyResponse{Success: false, Message: "insufficient funds"})
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	client := NewBitnobClient(srv.URL, "test-key", time.Second, &logger)

	_, err := client.Send(context.Background(), "+256700000001", 10000, "CONTRIB-x", "test")
	var rejection *Error
	assert.ErrorAs(t, err, &rejection)
	assert.Equal(t, "insufficient funds", rejection.Reason)
}

func TestBitnobServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(sendMoneyResponse{Success: false, Message: "upstream unavailable"})
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	client := NewBitnobClient(srv.URL, "test-key", time.Second, &logger)

	_, err := client.Send(context.Background(), "+256700000001", 10000, "CONTRIB-x", "test")
	assert.Error(t, err)
	var rejection *Error
	assert.False(t, errors.As(err, &rejection))
}
