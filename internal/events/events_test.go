package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	env, err := New(EventOrderStatusChanged, "pharma-api", "order-1", "req-9",
		OrderStatusChangedPayload{OrderID: "order-1", From: "pending", To: "processing", Action: "process"})
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "order-1", env.CorrelationID)
	assert.Equal(t, "req-9", env.TraceID)
	assert.False(t, env.OccurredAt.IsZero())

	var p OrderStatusChangedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "processing", p.To)
}

func TestNew_UnmarshalablePayload(t *testing.T) {
	_, err := New(EventStockAlertRaised, "x", "y", "", make(chan int))
	assert.Error(t, err)
}
