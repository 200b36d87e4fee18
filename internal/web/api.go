package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/calendar"
)

type apiError struct {
	Error   string            `json:"error"`
	Reason  booking.Reason    `json:"reason,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type bookingRequest struct {
	DNI            string `json:"dni"`
	Nombre         string `json:"nombre"`
	ObraSocial     string `json:"obra_social"`
	NumeroAsociado string `json:"numero_asociado"`
	Horario        string `json:"horario"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleAPICalendar lists events; patient names are only included for admins.
func (s *Server) handleAPICalendar(w http.ResponseWriter, r *http.Request) {
	slots, err := s.calendarSlots(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, apiError{Error: "store_unavailable", Message: msgLoadFailed})
		return
	}
	writeJSON(w, http.StatusOK, calendar.EventsFrom(slots, s.isAdmin(r)))
}

// handleAPIBook books without snapping: off-grid moments are rejected.
func (s *Server) handleAPIBook(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid_json", Message: err.Error()})
		return
	}
	f, err := booking.NewForm(req.DNI, req.Nombre, req.ObraSocial, req.NumeroAsociado, req.Horario, s.loc())
	var fe *booking.FormError
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid_form", Message: msgFormInvalid, Fields: fe.Fields})
		return
	}

	created, err := s.submit(r, f)
	if err != nil {
		var rej *booking.RejectedError
		switch {
		case errors.As(err, &rej):
			writeJSON(w, http.StatusConflict, apiError{Error: "rejected", Reason: rej.Reason, Message: rej.Message})
		case errors.Is(err, booking.ErrSubmitInFlight):
			writeJSON(w, http.StatusConflict, apiError{Error: "in_flight", Message: msgInFlight})
		case booking.IsRemoteFailure(err):
			writeJSON(w, http.StatusBadGateway, apiError{Error: "store_unavailable", Message: failureMessage(err)})
		default:
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal", Message: err.Error()})
		}
		return
	}

	s.refreshCalendar(r.Context())
	writeJSON(w, http.StatusCreated, created)
}
