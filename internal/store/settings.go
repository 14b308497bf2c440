package store

import (
	"context"
	"errors"

	"github.com/mobigear/backend-parts/internal/pricing"
)

const (
	settingsCollection = "settings"

	// GlobalSettingsID is the fixed document id for the storefront-wide
	// shipping settings singleton.
	GlobalSettingsID = "global"
)

// DefaultSettings applies when the settings document is missing.
func DefaultSettings() pricing.Settings {
	return pricing.Settings{
		MinFreeDeliveryAmount:    499,
		ShippingExtraCharges:     0,
		AirExpressDeliveryCharge: 0,
	}
}

// SettingsStore reads and writes the shipping settings singleton.
type SettingsStore struct{ *Repo[pricing.Settings] }

// NewSettings binds the settings repository.
func NewSettings(c *Client) SettingsStore {
	return SettingsStore{NewRepo[pricing.Settings](c, settingsCollection)}
}

// Global returns the singleton settings, falling back to defaults when
// the document does not exist.
func (s SettingsStore) Global(ctx context.Context) (pricing.Settings, error) {
	doc, err := s.Get(ctx, GlobalSettingsID)
	if errors.Is(err, ErrNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return pricing.Settings{}, err
	}
	return doc.Data, nil
}

// SaveGlobal overwrites the singleton settings document.
func (s SettingsStore) SaveGlobal(ctx context.Context, v pricing.Settings) error {
	return s.Set(ctx, GlobalSettingsID, v)
}
