package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventStockAlertRaised   = "StockAlertRaised"
)

const (
	TopicOrderStatus    = "pharma.order.status"
	TopicInventoryAlert = "pharma.inventory.alert"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order or item id
	Payload       json.RawMessage `json:"payload"`
}

// New wraps payload in a v1 envelope stamped with a fresh event id.
func New(eventType, producer, correlationID, traceID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

type OrderStatusChangedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	PatientName string `json:"patient_name"`
	From        string `json:"from,omitempty"` // empty on creation
	To          string `json:"to"`
	Action      string `json:"action,omitempty"`
}

type StockAlertPayload struct {
	ItemID       string `json:"item_id"`
	MedicineName string `json:"medicine_name"`
	BatchID      string `json:"batch_id"`
	Kind         string `json:"kind"`
	Quantity     int    `json:"quantity"`
	DaysLeft     int    `json:"days_left"`
}

// Partition key is the aggregate id so events of one order or item keep order.
func PartitionKey(id string) []byte { return []byte(id) }
