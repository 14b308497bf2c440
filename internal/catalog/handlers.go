package catalog

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mobigear/backend-parts/internal/common"
)

// Handler exposes public catalog endpoints plus admin product and
// taxonomy management.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListCategories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// Brands handles GET /api/v1/brands.
func (h *Handler) Brands(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListBrands(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// Series handles GET /api/v1/series.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListSeries(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// Models handles GET /api/v1/models.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListModels(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// Products handles GET /api/v1/products with an optional category filter.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 0)
	rows, err := h.service.ListProducts(r.Context(), category, limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

// ProductDetail handles GET /api/v1/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, item)
}

// CreateProduct handles POST /api/v1/admin/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	item, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, item)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	item, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, item)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory handles POST /api/v1/admin/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in TaxonomyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	cat, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, cat)
}

// CreateBrand handles POST /api/v1/admin/brands.
func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var in TaxonomyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	brand, err := h.service.CreateBrand(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, brand)
}
