package review

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bookwell/bookwell/pkg/logging"
)

// Handler exposes review submission over HTTP.
type Handler struct {
	aggregator *Aggregator
	logger     *logging.Logger
}

// NewHandler creates a review HTTP handler.
func NewHandler(aggregator *Aggregator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{aggregator: aggregator, logger: logger}
}

// SubmitRequest is the review submission body.
type SubmitRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Submit handles POST /appointments/{appointmentID}/review. Only customers
// may review, and only their own completed appointments.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.Header.Get("X-Actor-Id"))
	if err != nil || r.Header.Get("X-Actor-Role") != "customer" {
		writeError(w, http.StatusUnauthorized, "customer identity required")
		return
	}
	appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment id must be a UUID")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rev, err := h.aggregator.Submit(r.Context(), SubmitInput{
		CustomerID:    customerID,
		AppointmentID: appointmentID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5 and the comment at least 5 characters")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrInvalidState):
		writeError(w, http.StatusConflict, "appointment is not completed yet")
	case errors.Is(err, ErrAlreadyReviewed):
		writeError(w, http.StatusConflict, "appointment has already been reviewed")
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusServiceUnavailable, "could not commit review, please retry")
	default:
		h.logger.Error("review handler error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
