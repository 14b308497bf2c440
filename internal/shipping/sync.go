package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/mobigear/backend-parts/internal/events"
	"github.com/mobigear/backend-parts/internal/lock"
	"github.com/mobigear/backend-parts/internal/obs"
	"github.com/mobigear/backend-parts/internal/pricing"
	"github.com/mobigear/backend-parts/internal/store"
)

// Orders captures the order access the sync worker needs.
type Orders interface {
	Get(ctx context.Context, id string) (store.Doc[store.Order], error)
	SetTracking(ctx context.Context, id, trackingID string) error
}

// Syncer pushes paid orders to the shipping partner. It runs as a task
// handler on the worker, serialised per order by a Redis lock so a
// retried task can never create a duplicate shipment.
type Syncer struct {
	Orders   Orders
	Provider Provider
	Locker   lock.Locker
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

// HandleShippingSync is the asynq handler for shipping sync tasks.
func (s *Syncer) HandleShippingSync(ctx context.Context, task *asynq.Task) error {
	var p events.ShippingSyncPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode shipping sync payload: %w", err)
	}
	if p.OrderID == "" {
		return errors.New("shipping sync payload missing order id")
	}
	err := s.Locker.WithLock(ctx, "shipping:sync:"+p.OrderID, s.LockTTL, func(ctx context.Context) error {
		return s.sync(ctx, p.OrderID)
	})
	if obs.ShippingSyncTotal != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		obs.ShippingSyncTotal.WithLabelValues(outcome).Inc()
	}
	return err
}

func (s *Syncer) sync(ctx context.Context, orderID string) error {
	doc, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		// The order vanished; retrying will not bring it back.
		s.Logger.Warn().Str("order_id", orderID).Msg("shipping sync for missing order")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	order := doc.Data
	if order.TrackingID != "" {
		return nil
	}
	if order.Status == store.OrderStatusCancelled {
		return nil
	}
	cod := order.PaymentMode == pricing.PaymentCOD
	shipment, err := s.Provider.CreateShipment(ctx, ShipmentReq{
		OrderID:   orderID,
		Address:   order.Address,
		COD:       cod,
		CODAmount: codAmount(cod, order.Breakdown),
		Express:   order.DeliveryType == pricing.DeliveryExpress,
	})
	if err != nil {
		return fmt.Errorf("create shipment: %w", err)
	}
	if err := s.Orders.SetTracking(ctx, orderID, shipment.TrackingID); err != nil {
		return fmt.Errorf("record tracking id: %w", err)
	}
	s.Logger.Info().
		Str("order_id", orderID).
		Str("tracking_id", shipment.TrackingID).
		Str("courier", shipment.Courier).
		Msg("shipment created")
	return nil
}

// codAmount is what the courier collects on delivery: the remaining
// balance after the advance.
func codAmount(cod bool, b pricing.Breakdown) float64 {
	if !cod {
		return 0
	}
	return b.Remaining
}
