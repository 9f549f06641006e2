package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"datagov-chat/internal/model"
)

// EventStore persists a consumed audit event.
type EventStore interface {
	SaveEvent(ctx context.Context, event *model.ConversationEvent) error
}

// EventLogWorker consumes conversation audit events from the broker and
// writes them to the event store.
type EventLogWorker struct {
	conn      *amqp.Connection
	store     EventStore
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEventLogWorker(conn *amqp.Connection, store EventStore, queueName string, logger *zap.Logger) *EventLogWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *EventLogWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var event model.ConversationEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					w.logger.Warn("worker decode event failed", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				if err := w.store.SaveEvent(workerCtx, &event); err != nil {
					w.logger.Warn("worker persist event failed",
						zap.String("session_id", event.SessionID),
						zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *EventLogWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
