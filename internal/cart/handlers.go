package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mobigear/backend-parts/internal/common"
)

// Handler exposes the per-user cart endpoints. Identity comes from the
// request context populated by the identity middleware.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), common.UserID(r.Context()))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in AddItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	view, err := h.service.AddItem(r.Context(), common.UserID(r.Context()), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// UpdateQty handles PATCH /api/v1/cart/items/{lineId}.
func (h *Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	view, err := h.service.UpdateQty(r.Context(), common.UserID(r.Context()), chi.URLParam(r, "lineId"), in.Qty)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// RemoveLine handles DELETE /api/v1/cart/items/{lineId}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveLine(r.Context(), common.UserID(r.Context()), chi.URLParam(r, "lineId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// ApplyCoupon handles POST /api/v1/cart/coupons.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	view, err := h.service.ApplyCoupon(r.Context(), common.UserID(r.Context()), in.Code)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// RemoveCoupon handles DELETE /api/v1/cart/coupons/{code}.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveCoupon(r.Context(), common.UserID(r.Context()), chi.URLParam(r, "code"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}

// SetOptions handles PUT /api/v1/cart/options.
func (h *Handler) SetOptions(w http.ResponseWriter, r *http.Request) {
	var in OptionsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	view, err := h.service.SetOptions(r.Context(), common.UserID(r.Context()), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, view)
}
