package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dooto/internal/core"
	applog "dooto/internal/log"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("some other error"), false},
		{"validation error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue", logger: applog.Discard()}

	if client.isCircuitOpen() {
		t.Fatal("circuit should start closed")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit should open after max failures")
	}

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	if client.isCircuitOpen() {
		t.Error("circuit should half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Errorf("state = %d, want half-open", client.state)
	}

	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Error("a failure while half-open should reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Error("success should reset the breaker")
	}
}

func TestClient_PublishTransactionEvent_Guards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue", logger: applog.Discard()}
	ev := NewTransactionEvent(ActionCreated, core.Transaction{ID: 1, UserID: 2})

	t.Run("open circuit", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()
		err := client.PublishTransactionEvent(context.Background(), ev)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("err = %v, want ErrCircuitOpen", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		client.recordSuccess()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := client.PublishTransactionEvent(ctx, ev); err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("no channel counts as failure", func(t *testing.T) {
		client.recordSuccess()
		if err := client.PublishTransactionEvent(context.Background(), ev); err == nil {
			t.Fatal("expected error without a channel")
		}
		if atomic.LoadInt64(&client.failureCount) != 1 {
			t.Errorf("failureCount = %d, want 1", client.failureCount)
		}
	})
}

func TestTransactionEvent_JSONShape(t *testing.T) {
	tx := core.Transaction{ID: 7, UserID: 3, Category: "Food", Amount: decimal.NewFromInt(120000), Type: core.Expense, TransactionDate: "2024-05-02"}
	ev := NewTransactionEvent(ActionUpdated, tx)
	ev.OccurredAt = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"action", "transactionId", "userId", "transaction", "occurredAt"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, body)
		}
	}
	if raw["action"] != "updated" {
		t.Errorf("action = %v", raw["action"])
	}

	parsed, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON() error = %v", err)
	}
	if parsed.Transaction == nil || !parsed.Transaction.Amount.Equal(tx.Amount) {
		t.Errorf("parsed transaction = %+v", parsed.Transaction)
	}
}

func TestNewTransactionEvent_DeleteHasNoPayload(t *testing.T) {
	ev := NewTransactionEvent(ActionDeleted, core.Transaction{ID: 9, UserID: 1})
	if ev.Transaction != nil {
		t.Error("deleted events should not carry the transaction")
	}
	body, _ := ev.ToJSON()
	if strings.Contains(string(body), `"transaction"`) {
		t.Errorf("body = %s", body)
	}
}

func TestTransactionEventFromJSON_Invalid(t *testing.T) {
	for _, body := range []string{`{"action": 5}`, `{"action":"archived","transactionId":1}`, `not json`} {
		if _, err := TransactionEventFromJSON([]byte(body)); err == nil {
			t.Errorf("TransactionEventFromJSON(%s) should fail", body)
		}
	}
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestProcess_AckNack(t *testing.T) {
	good, _ := NewTransactionEvent(ActionCreated, core.Transaction{ID: 1}).ToJSON()
	logger := applog.Discard()

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		want       fakeAck
	}{
		{"handled", good, nil, fakeAck{acked: true}},
		{"bad json dropped", []byte("{"), nil, fakeAck{nacked: true}},
		{"handler error requeued", good, errors.New("sheets down"), fakeAck{nacked: true, requeued: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			process(context.Background(), logger, tt.body, ack, func(context.Context, *TransactionEvent) error {
				return tt.handlerErr
			})
			if *ack != tt.want {
				t.Errorf("ack = %+v, want %+v", *ack, tt.want)
			}
		})
	}
}
