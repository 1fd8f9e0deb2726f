// Package events fans order lifecycle notifications out to the websocket hub
// and, when configured, to RabbitMQ and Kafka.
package events

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	OrderNew           = "order.new"
	OrderStatusChanged = "order.status_changed"
	ItemStatusChanged  = "order.item_status_changed"
	PaymentCompleted   = "payment.completed"
	PaymentFailed      = "payment.failed"
	TimerUpdate        = "timer.update"
	CartUpdated        = "cart.updated"
	TableCleared       = "table.cleared"
	MenuUpdated        = "menu.updated"
)

// Event is a hint that something changed. Receivers refetch the
// authoritative state rather than trusting Payload.
type Event struct {
	Type     string    `json:"type"`
	TenantID uint      `json:"tenantId"`
	TableID  uint      `json:"tableId,omitempty"`
	OrderID  uint      `json:"orderId,omitempty"`
	Payload  any       `json:"payload,omitempty"`
	At       time.Time `json:"at"`
}

type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Bus delivers every event to all sinks concurrently.
type Bus struct {
	sinks   []Sink
	timeout time.Duration
}

func NewBus(sinks ...Sink) *Bus {
	b := &Bus{timeout: 5 * time.Second}
	for _, s := range sinks {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
	return b
}

// Publish never fails the caller; a sink that errors is logged and the
// state change that produced the event stands.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range b.sinks {
		s := s
		g.Go(func() error {
			if err := s.Publish(gctx, ev); err != nil {
				log.Printf("event %s: sink %T: %v", ev.Type, s, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Discard drops everything. Used in tests and when no sink is wired.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
