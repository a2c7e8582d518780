package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Event is a domain event. Topic doubles as the broker routing key.
type Event interface {
	Topic() string
}

const TopicPartsRequestResolved = "parts_request.resolved"

// PartsRequestResolved is raised when a spare parts request stops blocking
// its work order (rejected or issued).
type PartsRequestResolved struct {
	EventID           string    `json:"event_id"`
	PartsRequestID    string    `json:"parts_request_id"`
	MaintenanceWorkID string    `json:"maintenance_work_id"`
	Outcome           string    `json:"outcome"`
	ActorID           string    `json:"actor_id"`
	OccurredAt        time.Time `json:"occurred_at"`
}

func NewPartsRequestResolved(partsRequestID, workID, outcome, actorID string) PartsRequestResolved {
	return PartsRequestResolved{
		EventID:           uuid.New().String(),
		PartsRequestID:    partsRequestID,
		MaintenanceWorkID: workID,
		Outcome:           outcome,
		ActorID:           actorID,
		OccurredAt:        time.Now(),
	}
}

func (PartsRequestResolved) Topic() string {
	return TopicPartsRequestResolved
}

// Handler reacts to an event inside the publishing transaction. A returned
// error rolls the transaction back.
type Handler func(ctx context.Context, tx *gorm.DB, event Event) error

// Publisher forwards committed events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// Bus dispatches events to in-process handlers and, after commit, to an
// optional broker.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[string][]Handler
	publisher Publisher
	logger    *zap.Logger
}

func NewBus(publisher Publisher, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers:  make(map[string][]Handler),
		publisher: publisher,
		logger:    logger,
	}
}

func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Dispatch runs the handlers for event in subscription order, stopping at the first error.
func (b *Bus) Dispatch(ctx context.Context, tx *gorm.DB, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Topic()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, tx, event); err != nil {
			return fmt.Errorf("handle %s: %w", event.Topic(), err)
		}
	}
	return nil
}

// Forward sends committed events to the broker. Failures are logged only.
func (b *Bus) Forward(ctx context.Context, evts ...Event) {
	if b.publisher == nil {
		return
	}
	for _, event := range evts {
		body, err := json.Marshal(event)
		if err != nil {
			b.logger.Error("encode event", zap.String("topic", event.Topic()), zap.Error(err))
			continue
		}
		if err := b.publisher.Publish(ctx, event.Topic(), body); err != nil {
			b.logger.Warn("forward event", zap.String("topic", event.Topic()), zap.Error(err))
		}
	}
}

// Fanout publishes to every publisher, joining their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, routingKey string, body []byte) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, routingKey, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
