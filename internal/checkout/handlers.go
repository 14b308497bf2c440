package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/mobigear/backend-parts/internal/common"
)

// Handler exposes checkout submission.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /api/v1/checkout.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	result, err := h.service.Submit(r.Context(), common.UserID(r.Context()), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, result)
}
