package events

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names routed through the asynq worker.
const (
	TaskOrderCreated = "order:created"
	TaskShippingSync = "shipping:sync"
)

// Queue names. Shipping sync is retried aggressively and lives on its
// own queue so a partner outage cannot starve order notifications.
const (
	QueueDefault  = "default"
	QueueShipping = "shipping"
)

// OrderCreatedPayload announces a freshly placed order.
type OrderCreatedPayload struct {
	OrderID     string  `json:"orderId"`
	UserID      string  `json:"userId"`
	PaymentMode string  `json:"paymentMode"`
	Total       float64 `json:"total"`
}

// ShippingSyncPayload asks the worker to push one order to the shipping
// partner.
type ShippingSyncPayload struct {
	OrderID string `json:"orderId"`
}

// NewOrderCreatedTask builds the asynq task for a placed order.
func NewOrderCreatedTask(p OrderCreatedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCreated, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewShippingSyncTask builds the asynq task for a shipping partner push.
func NewShippingSyncTask(p ShippingSyncPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShippingSync, payload, asynq.Queue(QueueShipping), asynq.MaxRetry(10)), nil
}
