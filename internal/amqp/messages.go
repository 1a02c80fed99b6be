package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"dooto/internal/core"
)

// EventAction names the change carried by a TransactionEvent.
type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionUpdated EventAction = "updated"
	ActionDeleted EventAction = "deleted"
)

func (a EventAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// TransactionEvent is published after a transaction write succeeded on the backend.
// Deletions carry no Transaction payload.
type TransactionEvent struct {
	Action        EventAction       `json:"action"`
	TransactionID int64             `json:"transactionId"`
	UserID        int64             `json:"userId"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// NewTransactionEvent stamps the event with the current time.
func NewTransactionEvent(action EventAction, tx core.Transaction) *TransactionEvent {
	ev := &TransactionEvent{
		Action:        action,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		OccurredAt:    time.Now().UTC(),
	}
	if action != ActionDeleted {
		ev.Transaction = &tx
	}
	return ev
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates a delivery body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Action.IsValid() {
		return nil, fmt.Errorf("unknown event action %q", ev.Action)
	}
	return &ev, nil
}
