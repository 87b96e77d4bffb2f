// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/field-booking/internal/model"
	"github.com/Shivanand-hulikatti/field-booking/internal/repository"
	"github.com/Shivanand-hulikatti/field-booking/internal/service"
)

// BookingHandler holds all HTTP handlers for the booking API.
type BookingHandler struct {
	svc    *service.BookingService
	logger *slog.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps the booking error taxonomy onto HTTP statuses.
// Business rejections are 4xx; only storage faults are 5xx.
func (h *BookingHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrInvalidInterval):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrScheduleConflict):
		writeError(w, http.StatusConflict, "the field is already booked for this time")
	case errors.Is(err, repository.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, "you have already joined this booking")
	case errors.Is(err, repository.ErrNotJoined):
		writeError(w, http.StatusConflict, "you have not joined this booking")
	case errors.Is(err, repository.ErrStorageUnavailable):
		h.logger.ErrorContext(r.Context(), "storage unavailable", "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		h.logger.ErrorContext(r.Context(), "unexpected error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// flexibleID accepts an id sent as a JSON string or number.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexibleID(n.String())
	return nil
}

type proposeBookingPayload struct {
	FieldID       flexibleID `json:"fieldId"`
	Keterangan    string     `json:"keterangan"`
	Description   string     `json:"description"`
	PlayDateStart string     `json:"play_date_start"`
	PlayDateEnd   string     `json:"play_date_end"`
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// ProposeBooking handles POST /api/v1/venues/{venueID}/bookings
// Reserves a field of the venue for the authenticated user.
func (h *BookingHandler) ProposeBooking(w http.ResponseWriter, r *http.Request) {
	var in proposeBookingPayload
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	description := in.Keterangan
	if description == "" {
		description = in.Description
	}

	res, err := h.svc.ProposeBooking(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "venueID"), model.ProposeBookingRequest{
		FieldID:     string(in.FieldID),
		Description: description,
		Start:       in.PlayDateStart,
		End:         in.PlayDateEnd,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.MessageResponse{Message: "booking created", Data: res})
}

// ListBookings handles GET /api/v1/bookings?userId=&fieldId=
// Both filters are optional and combine with AND.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookings, err := h.svc.ListBookings(r.Context(), model.BookingFilter{
		UserID:  q.Get("userId"),
		FieldID: q.Get("fieldId"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if bookings == nil {
		bookings = []model.Booking{}
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "bookings found", Data: bookings})
}

// GetBooking handles GET /api/v1/bookings/{id}
// Returns the booking with its players and player count.
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "booking found", Data: view})
}

// Join handles PUT /api/v1/bookings/{id}/join
func (h *BookingHandler) Join(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Join(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.MessageResponse{Message: "joined booking"})
}

// Unjoin handles PUT /api/v1/bookings/{id}/unjoin
func (h *BookingHandler) Unjoin(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unjoin(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "left booking"})
}

// MySchedule handles GET /api/v1/schedules
// Lists the bookings the authenticated user has joined, earliest first.
func (h *BookingHandler) MySchedule(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.MySchedule(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if entries == nil {
		entries = []model.ScheduleEntry{}
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "schedule found", Data: entries})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
