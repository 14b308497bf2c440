package events

import (
	"context"

	"github.com/hibiken/asynq"
)

// Enqueuer wraps the asynq client with typed enqueue helpers.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer constructs an Enqueuer over the given Redis connection.
func NewEnqueuer(opt asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(opt)}
}

// Close releases the underlying client connection.
func (e *Enqueuer) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

// OrderCreated enqueues the order-created task.
func (e *Enqueuer) OrderCreated(ctx context.Context, p OrderCreatedPayload) error {
	task, err := NewOrderCreatedTask(p)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}

// ShippingSync enqueues a shipping partner push for one order. The task
// id pins deduplication to the order so webhook retries cannot fan out.
func (e *Enqueuer) ShippingSync(ctx context.Context, orderID string) error {
	task, err := NewShippingSyncTask(ShippingSyncPayload{OrderID: orderID})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.TaskID("shipping-sync:"+orderID))
	return err
}
