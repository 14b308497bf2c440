package shipping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobigear/backend-parts/internal/pricing"
)

type memSettings struct {
	saved *pricing.Settings
}

func (m *memSettings) Global(ctx context.Context) (pricing.Settings, error) {
	if m.saved == nil {
		return pricing.Settings{MinFreeDeliveryAmount: 499}, nil
	}
	return *m.saved, nil
}

func (m *memSettings) SaveGlobal(ctx context.Context, v pricing.Settings) error {
	m.saved = &v
	return nil
}

func TestSettingsGetReturnsDefaults(t *testing.T) {
	svc := NewSettingsService(&memSettings{})
	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 499.0, got.MinFreeDeliveryAmount)
	require.Zero(t, got.ShippingExtraCharges)
}

func TestSettingsUpdatePersists(t *testing.T) {
	st := &memSettings{}
	svc := NewSettingsService(st)
	got, err := svc.Update(context.Background(), pricing.Settings{
		MinFreeDeliveryAmount:    999,
		ShippingExtraCharges:     60,
		AirExpressDeliveryCharge: 120,
	})
	require.NoError(t, err)
	require.Equal(t, 999.0, got.MinFreeDeliveryAmount)
	require.NotNil(t, st.saved)
	require.Equal(t, 60.0, st.saved.ShippingExtraCharges)
}

func TestSettingsUpdateRejectsNegative(t *testing.T) {
	svc := NewSettingsService(&memSettings{})
	_, err := svc.Update(context.Background(), pricing.Settings{MinFreeDeliveryAmount: -1})
	require.Error(t, err)
}
