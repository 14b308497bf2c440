package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderCreatedTaskRoundTrip(t *testing.T) {
	task, err := NewOrderCreatedTask(OrderCreatedPayload{
		OrderID:     "ord-1",
		UserID:      "u-1",
		PaymentMode: "cod",
		Total:       1057.5,
	})
	require.NoError(t, err)
	require.Equal(t, TaskOrderCreated, task.Type())

	var p OrderCreatedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.Equal(t, "ord-1", p.OrderID)
	require.Equal(t, 1057.5, p.Total)
}

func TestShippingSyncTaskCarriesOrderID(t *testing.T) {
	task, err := NewShippingSyncTask(ShippingSyncPayload{OrderID: "ord-2"})
	require.NoError(t, err)
	require.Equal(t, TaskShippingSync, task.Type())

	var p ShippingSyncPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.Equal(t, "ord-2", p.OrderID)
}
