package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/pricing"
)

// SettingsStore captures the settings singleton persistence.
type SettingsStore interface {
	Global(ctx context.Context) (pricing.Settings, error)
	SaveGlobal(ctx context.Context, v pricing.Settings) error
}

// SettingsService reads and updates the storefront shipping settings.
type SettingsService struct {
	store SettingsStore
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the current settings with defaults applied.
func (s *SettingsService) Get(ctx context.Context) (pricing.Settings, error) {
	v, err := s.store.Global(ctx)
	if err != nil {
		return pricing.Settings{}, fmt.Errorf("load shipping settings: %w", err)
	}
	return v, nil
}

// Update replaces the settings singleton. Negative amounts are rejected
// here even though the engine would coerce them, so admins get a clear
// error instead of silently zeroed charges.
func (s *SettingsService) Update(ctx context.Context, v pricing.Settings) (pricing.Settings, error) {
	if v.MinFreeDeliveryAmount < 0 || v.ShippingExtraCharges < 0 || v.AirExpressDeliveryCharge < 0 {
		return pricing.Settings{}, common.BadRequest("shipping amounts must not be negative")
	}
	if err := s.store.SaveGlobal(ctx, v); err != nil {
		return pricing.Settings{}, fmt.Errorf("save shipping settings: %w", err)
	}
	return v, nil
}

// SettingsHandler exposes the settings endpoints.
type SettingsHandler struct {
	service *SettingsService
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(service *SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get handles GET /api/v1/shipping/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, v)
}

// Update handles PUT /api/v1/admin/shipping/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in pricing.Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	v, err := h.service.Update(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, v)
}
