package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/calendar"
)

func (s *Server) bookingPage(r *http.Request, form formValues) tmplData {
	return tmplData{
		Title: "Reservar turno",
		Admin: s.isAdmin(r),
		Form:  form,
		Hours: s.Hours.Describe(),
	}
}

// withWeek fills the calendar grid for the week of anchor. A store failure
// leaves the grid empty and says so.
func (s *Server) withWeek(r *http.Request, data tmplData, anchor time.Time) tmplData {
	slots, err := s.calendarSlots(r.Context())
	if err != nil {
		if data.Flash == "" {
			data.Flash, data.FlashKind = msgLoadFailed, "error"
		}
		slots = nil
	}
	data.Week = calendar.BuildWeek(anchor, s.Hours, slots, s.now())
	return data
}

func (s *Server) weekAnchor(r *http.Request) time.Time {
	if w := r.URL.Query().Get("semana"); w != "" {
		if t, err := time.ParseInLocation("2006-01-02", w, s.loc()); err == nil {
			return t
		}
	}
	return s.now()
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := s.bookingPage(r, formValues{})
	if booked := r.URL.Query().Get("reservado"); booked != "" {
		data.Flash, data.FlashKind = msgBooked, "ok"
		if t, err := time.ParseInLocation(booking.LocalLayout, booked, s.loc()); err == nil {
			data.Flash = msgBooked + " " + dayNames[t.Weekday()] + " " + t.Format("02/01 15:04") + "."
		}
	}
	anchor := s.weekAnchor(r)
	if picked, ok := s.pickedSlot(r); ok {
		data.Form.Horario = picked.In(s.loc()).Format(booking.LocalLayout)
		if r.URL.Query().Get("semana") == "" {
			anchor = picked
		}
	}
	s.render(w, http.StatusOK, "templates/booking.html", s.withWeek(r, data, anchor))
}

// pickedSlot is the calendar cell the user clicked, if ?horario= names a
// moment on the grid.
func (s *Server) pickedSlot(r *http.Request) (time.Time, bool) {
	h := r.URL.Query().Get("horario")
	if h == "" {
		return time.Time{}, false
	}
	t, err := booking.ParseMoment(h, s.loc())
	if err != nil {
		return time.Time{}, false
	}
	if _, changed := s.Hours.Snap(t); changed {
		return time.Time{}, false
	}
	return t, true
}

func formFromRequest(r *http.Request) formValues {
	return formValues{
		DNI:            strings.TrimSpace(r.FormValue("dni")),
		Nombre:         strings.TrimSpace(r.FormValue("nombre")),
		ObraSocial:     strings.TrimSpace(r.FormValue("obra_social")),
		NumeroAsociado: strings.TrimSpace(r.FormValue("numero_asociado")),
		Horario:        strings.TrimSpace(r.FormValue("horario")),
	}
}

// handleBook is the HTML booking flow. Off-grid minutes are snapped and sent
// back for confirmation instead of being booked. On success the browser is
// redirected so a reload does not post again.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	values := formFromRequest(r)
	data := s.bookingPage(r, values)

	f, err := booking.NewForm(values.DNI, values.Nombre, values.ObraSocial, values.NumeroAsociado, values.Horario, s.loc())
	var fe *booking.FormError
	if errors.As(err, &fe) {
		data.Errors = fe.Fields
		data.Flash, data.FlashKind = msgFormInvalid, "error"
		s.render(w, http.StatusBadRequest, "templates/booking.html", s.withWeek(r, data, s.now()))
		return
	}
	anchor := f.ScheduledAt

	if snapped, changed := s.Hours.Snap(f.ScheduledAt); changed {
		data.Form.Horario = snapped.In(s.loc()).Format(booking.LocalLayout)
		data.Flash = "El horario se ajustó a las " + snapped.In(s.loc()).Format("15:04") +
			". Revisalo y volvé a enviar para confirmar."
		data.FlashKind = "warn"
		s.render(w, http.StatusOK, "templates/booking.html", s.withWeek(r, data, anchor))
		return
	}

	created, err := s.submit(r, f)
	if err != nil {
		var rej *booking.RejectedError
		switch {
		case errors.As(err, &rej):
			data.Flash, data.FlashKind = rej.Message, "error"
			s.render(w, http.StatusConflict, "templates/booking.html", s.withWeek(r, data, anchor))
		case errors.Is(err, booking.ErrSubmitInFlight):
			data.Flash, data.FlashKind = msgInFlight, "warn"
			s.render(w, http.StatusConflict, "templates/booking.html", s.withWeek(r, data, anchor))
		case booking.IsRemoteFailure(err):
			data.Flash, data.FlashKind = failureMessage(err), "error"
			s.render(w, http.StatusBadGateway, "templates/booking.html", s.withWeek(r, data, anchor))
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.refreshCalendar(r.Context())
	at := created.ScheduledAt.In(s.loc())
	q := url.Values{
		"reservado": {at.Format(booking.LocalLayout)},
		"semana":    {calendar.MondayOf(at).Format("2006-01-02")},
	}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}
