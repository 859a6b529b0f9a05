package orders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ariefcatur/go-pharma-stock/internal/events"
	"github.com/ariefcatur/go-pharma-stock/internal/redisx"
	"github.com/ariefcatur/go-pharma-stock/internal/validation"
	"github.com/google/uuid"
)

type Publisher interface {
	PublishEvent(env events.Envelope) error
}

type Service struct {
	Store           Store
	Cache           *redisx.Cache
	Publisher       Publisher // order lifecycle events; nil disables
	DefaultCurrency string
	ServiceName     string
	Now             func() time.Time
}

// StatusSnapshot is the cached view served by the status endpoint.
type StatusSnapshot struct {
	OrderID     string   `json:"order_id"`
	Status      Status   `json:"status"`
	NextActions []Action `json:"next_actions"`
}

func snapshot(o Order) StatusSnapshot {
	next := NextActions(o.Status)
	if next == nil {
		next = []Action{}
	}
	return StatusSnapshot{OrderID: o.ID, Status: o.Status, NextActions: next}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) List(ctx context.Context, status Status) ([]Order, error) {
	if status != "" && !status.Valid() {
		return nil, validation.Violations{"status": "unknown"}.Err()
	}
	return s.Store.List(ctx, status)
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.Store.Get(ctx, id)
}

// Create stores a new pending order. Date defaults to today.
func (s *Service) Create(ctx context.Context, o Order, traceID string) (Order, error) {
	o.ID = uuid.NewString()
	o.Status = StatusPending
	o.PatientName = strings.TrimSpace(o.PatientName)
	if o.Date.IsZero() {
		y, m, d := s.now().Date()
		o.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if o.TotalAmount.Currency == "" {
		o.TotalAmount.Currency = s.DefaultCurrency
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}

	created, err := s.Store.Create(ctx, o)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	s.cacheStatus(ctx, created)
	s.publish(events.EventOrderCreated, created, "", "", traceID)
	return created, nil
}

// Act applies action to the order with id. Illegal actions fail with an
// error matching ErrInvalidTransition and leave the order untouched.
func (s *Service) Act(ctx context.Context, id string, action Action, traceID string) (Order, error) {
	if !action.Valid() {
		return Order{}, validation.Violations{"action": "unknown"}.Err()
	}
	o, from, err := s.Store.ApplyAction(ctx, id, action)
	if err != nil {
		return Order{}, err
	}
	log.Printf("order %s %s: %s -> %s", o.OrderNumber, action, from, o.Status)
	s.cacheStatus(ctx, o)
	s.publish(events.EventOrderStatusChanged, o, from, action, traceID)
	return o, nil
}

// Status serves from cache, falling back to the store.
func (s *Service) Status(ctx context.Context, id string) (StatusSnapshot, error) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	var snap StatusSnapshot
	if ok, err := s.Cache.GetJSON(ctx, key, &snap); err == nil && ok {
		return snap, nil
	}
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return StatusSnapshot{}, err
	}
	s.cacheStatus(ctx, o)
	return snapshot(o), nil
}

func (s *Service) cacheStatus(ctx context.Context, o Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	if err := s.Cache.SetJSON(ctx, key, snapshot(o), redisx.TTLStatusCache); err != nil {
		log.Printf("cache order status %s: %v", o.ID, err)
	}
}

// publish is best effort: the store is the source of truth.
func (s *Service) publish(eventType string, o Order, from Status, action Action, traceID string) {
	if s.Publisher == nil {
		return
	}
	env, err := events.New(eventType, s.ServiceName, o.ID, traceID, events.OrderStatusChangedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		PatientName: o.PatientName,
		From:        string(from),
		To:          string(o.Status),
		Action:      string(action),
	})
	if err == nil {
		err = s.Publisher.PublishEvent(env)
	}
	if err != nil {
		log.Printf("publish %s for order %s: %v", eventType, o.ID, err)
	}
}
