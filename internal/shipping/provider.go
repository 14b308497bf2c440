package shipping

import (
	"context"
	"fmt"

	"github.com/mobigear/backend-parts/internal/store"
)

// ShipmentReq describes a shipment creation request to the partner.
type ShipmentReq struct {
	OrderID   string
	Address   store.Address
	COD       bool
	CODAmount float64
	Express   bool
}

// Shipment is the partner's handle for a created shipment.
type Shipment struct {
	TrackingID string
	Courier    string
	LabelURL   string
}

// TrackEvent represents a single tracking event returned by the partner.
type TrackEvent struct {
	Status      string
	Description string
	Location    string
	OccurredAt  int64
}

// Provider models the shipping partner integration.
type Provider interface {
	CreateShipment(ctx context.Context, req ShipmentReq) (Shipment, error)
	Track(ctx context.Context, trackingID string) ([]TrackEvent, error)
}

// MockProvider returns deterministic shipments and is useful for testing
// and development.
type MockProvider struct{}

// CreateShipment derives the tracking id from the order id.
func (MockProvider) CreateShipment(_ context.Context, req ShipmentReq) (Shipment, error) {
	if req.OrderID == "" {
		return Shipment{}, fmt.Errorf("order id is required")
	}
	return Shipment{
		TrackingID: "TRK-" + req.OrderID,
		Courier:    "mock-courier",
	}, nil
}

// Track returns a single canned in-transit event.
func (MockProvider) Track(_ context.Context, trackingID string) ([]TrackEvent, error) {
	return []TrackEvent{{
		Status:      "in_transit",
		Description: "Shipment picked up",
		Location:    "Origin hub",
	}}, nil
}
