package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bookwell/bookwell/internal/catalog"
	"github.com/bookwell/bookwell/pkg/logging"
)

// Handler provides the HTTP surface for booking and lifecycle operations.
//
// The identity layer upstream authenticates requests and stamps the actor
// onto X-Actor-Id / X-Actor-Role; this handler only authorizes.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates an appointment HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Cancel handles POST /appointments/{appointmentID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id uuid.UUID, actor Actor, _ string) (*Appointment, error) {
		return h.svc.Cancel(r.Context(), id, actor)
	})(w, r)
}

// Confirm handles POST /appointments/{appointmentID}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id uuid.UUID, actor Actor, notes string) (*Appointment, error) {
		return h.svc.Confirm(r.Context(), id, actor, notes)
	})(w, r)
}

// Reject handles POST /appointments/{appointmentID}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id uuid.UUID, actor Actor, notes string) (*Appointment, error) {
		return h.svc.Reject(r.Context(), id, actor, notes)
	})(w, r)
}

// Start handles POST /appointments/{appointmentID}/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id uuid.UUID, actor Actor, _ string) (*Appointment, error) {
		return h.svc.Start(r.Context(), id, actor)
	})(w, r)
}

// Complete handles POST /appointments/{appointmentID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id uuid.UUID, actor Actor, notes string) (*Appointment, error) {
		return h.svc.Complete(r.Context(), id, actor, notes)
	})(w, r)
}

// NoShow handles POST /appointments/{appointmentID}/no-show.
func (h *Handler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id uuid.UUID, actor Actor, notes string) (*Appointment, error) {
		return h.svc.NoShow(r.Context(), id, actor, notes)
	})(w, r)
}

// BookRequest is the booking request body.
type BookRequest struct {
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"` // YYYY-MM-DD
	Time          string `json:"time"` // e.g. "2:30 PM"
	Notes         string `json:"notes"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

// Book handles POST /appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if actor.Role != RoleCustomer {
		writeError(w, http.StatusForbidden, "only customers may book appointments")
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "service_id must be a UUID")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	a, err := h.svc.Book(r.Context(), BookInput{
		CustomerID:    actor.ID,
		ServiceID:     serviceID,
		Date:          date,
		TimeLabel:     req.Time,
		Notes:         req.Notes,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// Get handles GET /appointments/{appointmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Get(r.Context(), id, actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RescheduleRequest carries the new slot.
type RescheduleRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"`
}

// Reschedule handles POST /appointments/{appointmentID}/reschedule.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	a, err := h.svc.Reschedule(r.Context(), id, actor, date, req.Time)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListMine handles GET /customers/me/appointments and
// GET /providers/me/appointments depending on the actor role.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var (
		views []View
		err   error
	)
	switch actor.Role {
	case RoleCustomer:
		views, err = h.svc.ListForCustomer(r.Context(), actor.ID, 0)
	case RoleProvider:
		views, err = h.svc.ListForProvider(r.Context(), actor.ID, 0)
	default:
		writeError(w, http.StatusForbidden, "unknown actor role")
		return
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if views == nil {
		views = []View{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": views})
}

// transitionBody is the optional body accepted by transition endpoints.
type transitionBody struct {
	ProviderNotes string `json:"provider_notes"`
}

func (h *Handler) transition(fn func(r *http.Request, id uuid.UUID, actor Actor, notes string) (*Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		id, ok := h.appointmentID(w, r)
		if !ok {
			return
		}
		var body transitionBody
		_ = json.NewDecoder(r.Body).Decode(&body) // body is optional
		a, err := fn(r, id, actor, body.ProviderNotes)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Actor-Id"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "X-Actor-Id header required")
		return Actor{}, false
	}
	role := Role(r.Header.Get("X-Actor-Role"))
	switch role {
	case RoleCustomer, RoleProvider, RoleSystem:
	default:
		writeError(w, http.StatusUnauthorized, "X-Actor-Role must be customer, provider or system")
		return Actor{}, false
	}
	return Actor{ID: id, Role: role}, true
}

func (h *Handler) appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validation *ValidationError
		transition *TransitionError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, ErrSlotInPast):
		writeError(w, http.StatusConflict, "the requested slot is in the past")
	case errors.Is(err, ErrSlotTaken):
		writeError(w, http.StatusConflict, "the requested slot is already booked")
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, transition.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	default:
		h.logger.Error("appointment handler error", "error", err)
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
