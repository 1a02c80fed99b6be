package services

import (
	"context"
	"fmt"
	"strconv"

	"dooto/internal/amqp"
	"dooto/internal/api"
	"dooto/internal/cache"
	"dooto/internal/core"
	applog "dooto/internal/log"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionService writes through to the backend and announces every
// successful change on the event bus. A failed publish never fails the write.
type TransactionService struct {
	backend   api.Transactions
	publisher EventPublisher
	owners    cache.Cache[int64]
	logger    *applog.Logger
}

var _ api.Transactions = (*TransactionService)(nil)

// NewTransactionService wraps backend. publisher may be nil when AMQP is not
// configured. owners remembers which user a transaction id belongs to so that
// delete events can carry it.
func NewTransactionService(backend api.Transactions, publisher EventPublisher, owners cache.Cache[int64], logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &TransactionService{
		backend:   backend,
		publisher: publisher,
		owners:    owners,
		logger:    logger.WithComponent(applog.ComponentAPI),
	}
}

func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	txs, err := s.backend.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		s.remember(ctx, tx.ID, userID)
	}
	return txs, nil
}

func (s *TransactionService) Create(ctx context.Context, req core.TransactionRequest) (core.Transaction, error) {
	tx, err := s.backend.Create(ctx, req)
	if err != nil {
		return tx, fmt.Errorf("create transaction: %w", err)
	}
	if tx.UserID == 0 {
		tx.UserID = req.UserID
	}
	s.remember(ctx, tx.ID, tx.UserID)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, tx))
	return tx, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, req core.TransactionRequest) (core.Transaction, error) {
	tx, err := s.backend.Update(ctx, id, req)
	if err != nil {
		return tx, fmt.Errorf("update transaction %d: %w", id, err)
	}
	if tx.ID == 0 {
		tx.ID = id
	}
	if tx.UserID == 0 {
		tx.UserID = req.UserID
	}
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionUpdated, tx))
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	tx := core.Transaction{ID: id}
	if s.owners != nil {
		if owner, ok := s.owners.Get(ctx, key(id)); ok {
			tx.UserID = owner
			s.owners.Delete(ctx, key(id))
		}
	}
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionDeleted, tx))
	return nil
}

func (s *TransactionService) remember(ctx context.Context, id, userID int64) {
	if s.owners != nil && id != 0 && userID != 0 {
		s.owners.Set(ctx, key(id), userID)
	}
}

func (s *TransactionService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping event",
			applog.FieldAction, ev.Action,
			applog.FieldTransactionID, ev.TransactionID)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldError, err,
			applog.FieldAction, ev.Action,
			applog.FieldTransactionID, ev.TransactionID)
	}
}

func key(id int64) string { return strconv.FormatInt(id, 10) }
