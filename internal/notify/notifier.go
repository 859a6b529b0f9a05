package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-pharma-stock/internal/events"
	kafkax "github.com/ariefcatur/go-pharma-stock/internal/kafka"
	"github.com/ariefcatur/go-pharma-stock/internal/redisx"
	"github.com/ariefcatur/go-pharma-stock/internal/settings"
)

type Notification struct {
	Kind  string    `json:"kind"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Ref   string    `json:"ref"` // item or order id
	At    time.Time `json:"at"`
}

type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// Notifier turns stock alerts and order events into notifications. It is
// installed as a consumer handler; every event is delivered at most once
// per notifier name.
type Notifier struct {
	Cache    *redisx.Cache
	Settings settings.Store
	Sink     Sink
	Name     string
}

func (n *Notifier) HandleStockAlert(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		return err
	}
	if env.EventType != events.EventStockAlertRaised {
		return nil
	}
	p, err := kafkax.UnwrapPayload[events.StockAlertPayload](env.Payload)
	if err != nil {
		return err
	}
	return n.deliver(ctx, env, StockAlert(p, env.OccurredAt))
}

func (n *Notifier) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		return err
	}
	if env.EventType != events.EventOrderCreated && env.EventType != events.EventOrderStatusChanged {
		return nil
	}
	p, err := kafkax.UnwrapPayload[events.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}
	return n.deliver(ctx, env, OrderUpdate(env.EventType, p, env.OccurredAt))
}

func (n *Notifier) deliver(ctx context.Context, env events.Envelope, note Notification) error {
	cfg := settings.Defaults()
	if n.Settings != nil {
		loaded, err := n.Settings.Get(ctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		cfg = loaded
	}
	if !cfg.Notifications {
		return nil
	}

	key := fmt.Sprintf(redisx.KeyDedup, n.Name, env.EventID)
	first, err := n.Cache.Once(ctx, key, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		return nil
	}
	if err := n.Sink.Send(ctx, note); err != nil {
		// release the claim so the consumer retry sends it again
		if derr := n.Cache.Del(ctx, key); derr != nil {
			log.Printf("notifier: release %s: %v", key, derr)
		}
		return fmt.Errorf("send %s: %w", note.Kind, err)
	}
	return nil
}

func StockAlert(p events.StockAlertPayload, at time.Time) Notification {
	note := Notification{Kind: p.Kind, Ref: p.ItemID, At: at}
	name := p.MedicineName
	if p.BatchID != "" {
		name = fmt.Sprintf("%s (batch %s)", p.MedicineName, p.BatchID)
	}
	switch p.Kind {
	case "expired":
		note.Title = "Expired stock"
		note.Body = fmt.Sprintf("%s expired %d days ago", name, -p.DaysLeft)
	case "expiring_soon":
		note.Title = "Expiring soon"
		note.Body = fmt.Sprintf("%s expires in %d days", name, p.DaysLeft)
	case "low_stock":
		note.Title = "Low stock"
		note.Body = fmt.Sprintf("%s has %d units left", name, p.Quantity)
	case "reorder":
		note.Title = "Reorder suggested"
		note.Body = fmt.Sprintf("%s is below the reorder level with %d units", name, p.Quantity)
	default:
		note.Title = "Stock alert"
		note.Body = name
	}
	return note
}

func OrderUpdate(eventType string, p events.OrderStatusChangedPayload, at time.Time) Notification {
	if eventType == events.EventOrderCreated {
		return Notification{
			Kind:  "order_created",
			Title: "New order",
			Body:  fmt.Sprintf("%s for %s", p.OrderNumber, p.PatientName),
			Ref:   p.OrderID,
			At:    at,
		}
	}
	return Notification{
		Kind:  "order_" + p.To,
		Title: "Order " + p.OrderNumber,
		Body:  fmt.Sprintf("%s for %s is now %s", p.OrderNumber, p.PatientName, p.To),
		Ref:   p.OrderID,
		At:    at,
	}
}
