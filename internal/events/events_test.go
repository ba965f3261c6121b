package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventOrderShipped, "ord_1", OrderShippedPayload{OrderID: "ord_1", TrackingNumber: "1Z999"})
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "ord_1", env.CorrelationID)
	assert.False(t, env.OccurredAt.IsZero())

	var payload OrderShippedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "1Z999", payload.TrackingNumber)
}

func TestLogPublisher(t *testing.T) {
	env, err := NewEnvelope(EventOrderPaid, "ord_2", OrderPaidPayload{OrderID: "ord_2"})
	require.NoError(t, err)

	var p Publisher = LogPublisher{}
	assert.NoError(t, p.Publish(context.Background(), env))
	assert.NoError(t, p.Close())
}
