package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/store"
)

// MsgCancelTooLate is returned when a shipped order is cancelled.
const MsgCancelTooLate = "Order Can No Longer Be Cancelled"

// Repo captures the order persistence the service needs.
type Repo interface {
	Get(ctx context.Context, id string) (store.Doc[store.Order], error)
	ListForUser(ctx context.Context, userID string, limit int) ([]store.Doc[store.Order], error)
	SetStatus(ctx context.Context, id, status string) error
}

// Service serves the user-facing order history and the admin
// fulfillment state machine.
type Service struct {
	repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Item is one order in API responses.
type Item struct {
	ID string `json:"id"`
	store.Order
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Item, error) {
	docs, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]Item, 0, len(docs))
	for _, d := range docs {
		out = append(out, Item{ID: d.ID, Order: d.Data})
	}
	return out, nil
}

// Get returns one order, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID, id string) (Item, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if doc.Data.UserID != userID {
		return Item{}, common.NotFound("order not found")
	}
	return Item{ID: doc.ID, Order: doc.Data}, nil
}

// Cancel cancels the user's order. Orders that already left the
// warehouse cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, userID, id string) (Item, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if doc.Data.UserID != userID {
		return Item{}, common.NotFound("order not found")
	}
	switch doc.Data.Status {
	case store.OrderStatusShipped, store.OrderStatusDelivered:
		return Item{}, common.BadRequest(MsgCancelTooLate)
	case store.OrderStatusCancelled:
		return Item{ID: doc.ID, Order: doc.Data}, nil
	}
	if err := s.repo.SetStatus(ctx, id, store.OrderStatusCancelled); err != nil {
		return Item{}, fmt.Errorf("cancel order: %w", err)
	}
	doc.Data.Status = store.OrderStatusCancelled
	return Item{ID: doc.ID, Order: doc.Data}, nil
}

// transitions is the admin fulfillment state machine.
var transitions = map[string][]string{
	store.OrderStatusPending:   {store.OrderStatusConfirmed, store.OrderStatusCancelled},
	store.OrderStatusConfirmed: {store.OrderStatusPacked, store.OrderStatusCancelled},
	store.OrderStatusPacked:    {store.OrderStatusShipped, store.OrderStatusCancelled},
	store.OrderStatusShipped:   {store.OrderStatusDelivered},
}

// AdminSetStatus moves the order along the fulfillment state machine.
func (s *Service) AdminSetStatus(ctx context.Context, id, status string) (Item, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if !allowed(doc.Data.Status, status) {
		return Item{}, common.BadRequest(fmt.Sprintf("cannot move order from %s to %s", doc.Data.Status, status))
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return Item{}, fmt.Errorf("set order status: %w", err)
	}
	doc.Data.Status = status
	return Item{ID: doc.ID, Order: doc.Data}, nil
}

func (s *Service) load(ctx context.Context, id string) (store.Doc[store.Order], error) {
	doc, err := s.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Doc[store.Order]{}, common.NotFound("order not found")
	}
	if err != nil {
		return store.Doc[store.Order]{}, fmt.Errorf("get order: %w", err)
	}
	return doc, nil
}

func allowed(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
