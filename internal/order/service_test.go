package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobigear/backend-parts/internal/store"
)

type memRepo struct {
	orders map[string]store.Order
}

func (m *memRepo) Get(ctx context.Context, id string) (store.Doc[store.Order], error) {
	if o, ok := m.orders[id]; ok {
		return store.Doc[store.Order]{ID: id, Data: o}, nil
	}
	return store.Doc[store.Order]{}, store.ErrNotFound
}

func (m *memRepo) ListForUser(ctx context.Context, userID string, limit int) ([]store.Doc[store.Order], error) {
	var out []store.Doc[store.Order]
	for id, o := range m.orders {
		if o.UserID == userID {
			out = append(out, store.Doc[store.Order]{ID: id, Data: o})
		}
	}
	return out, nil
}

func (m *memRepo) SetStatus(ctx context.Context, id, status string) error {
	o := m.orders[id]
	o.Status = status
	m.orders[id] = o
	return nil
}

func testRepo() *memRepo {
	return &memRepo{orders: map[string]store.Order{
		"ord-1": {UserID: "u-1", Status: store.OrderStatusPending},
		"ord-2": {UserID: "u-1", Status: store.OrderStatusShipped},
		"ord-3": {UserID: "u-2", Status: store.OrderStatusConfirmed},
	}}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc := NewService(testRepo())

	item, err := svc.Get(context.Background(), "u-1", "ord-1")
	require.NoError(t, err)
	require.Equal(t, "ord-1", item.ID)

	_, err = svc.Get(context.Background(), "u-1", "ord-3")
	require.Error(t, err)
}

func TestListReturnsOnlyOwnOrders(t *testing.T) {
	svc := NewService(testRepo())
	items, err := svc.List(context.Background(), "u-1", 50)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestCancelPendingOrder(t *testing.T) {
	repo := testRepo()
	svc := NewService(repo)

	item, err := svc.Cancel(context.Background(), "u-1", "ord-1")
	require.NoError(t, err)
	require.Equal(t, store.OrderStatusCancelled, item.Status)
	require.Equal(t, store.OrderStatusCancelled, repo.orders["ord-1"].Status)
}

func TestCancelShippedOrderRejected(t *testing.T) {
	svc := NewService(testRepo())
	_, err := svc.Cancel(context.Background(), "u-1", "ord-2")
	require.Error(t, err)
}

func TestCancelIsIdempotent(t *testing.T) {
	repo := testRepo()
	svc := NewService(repo)
	_, err := svc.Cancel(context.Background(), "u-1", "ord-1")
	require.NoError(t, err)
	item, err := svc.Cancel(context.Background(), "u-1", "ord-1")
	require.NoError(t, err)
	require.Equal(t, store.OrderStatusCancelled, item.Status)
}

func TestAdminStatusTransitions(t *testing.T) {
	repo := testRepo()
	svc := NewService(repo)

	item, err := svc.AdminSetStatus(context.Background(), "ord-3", store.OrderStatusPacked)
	require.NoError(t, err)
	require.Equal(t, store.OrderStatusPacked, item.Status)

	item, err = svc.AdminSetStatus(context.Background(), "ord-3", store.OrderStatusShipped)
	require.NoError(t, err)
	require.Equal(t, store.OrderStatusShipped, item.Status)

	// Skipping states is not allowed.
	_, err = svc.AdminSetStatus(context.Background(), "ord-1", store.OrderStatusShipped)
	require.Error(t, err)

	// Delivered orders are terminal.
	_, err = svc.AdminSetStatus(context.Background(), "ord-3", store.OrderStatusDelivered)
	require.NoError(t, err)
	_, err = svc.AdminSetStatus(context.Background(), "ord-3", store.OrderStatusCancelled)
	require.Error(t, err)
}
