package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/example/turnos/internal/auth"
	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/calendar"
	"github.com/example/turnos/internal/logger"
	"github.com/example/turnos/internal/metrics"
	"github.com/example/turnos/internal/patients"
	"github.com/example/turnos/internal/supabase"
)

//go:embed templates/*.html static/*
var fs embed.FS

const (
	msgBooked       = "Turno reservado con éxito."
	msgSaveFailed   = "Error al reservar el turno"
	msgInFlight     = "Ya hay una reserva en curso para este paciente. Esperá la confirmación."
	msgLoadFailed   = "Error al obtener los turnos."
	msgFormInvalid  = "Por favor, completa todos los campos del formulario."
	msgDeleted      = "Turno eliminado exitosamente."
	msgDeleteFailed = "Error al eliminar el turno."
	msgMissing      = "El turno ya no existe."
	msgBadLogin     = "Contraseña incorrecta."
	msgTooMany      = "Demasiados intentos. Esperá un minuto y volvé a probar."
	msgSearchFailed = "No se pudo realizar la búsqueda."
	msgNotesSaved   = "Historia clínica guardada."
)

type Server struct {
	Auth      *auth.Store
	Limiter   *auth.LoginLimiter
	Submitter *booking.Submitter
	Hours     booking.BusinessHours
	Feed      *calendar.Feed
	Patients  patients.Directory
	Metrics   *metrics.Collector
	Log       *logger.Logger

	BaseURL string
	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []string
	// Now defaults to time.Now.
	Now func() time.Time

	pending booking.Pending
}

type formValues struct {
	DNI            string
	Nombre         string
	ObraSocial     string
	NumeroAsociado string
	Horario        string
}

type tmplData struct {
	Title     string
	Admin     bool
	Flash     string
	FlashKind string

	Form   formValues
	Errors map[string]string
	Hours  string
	Week   calendar.Week
	Slots  []booking.Slot

	Next     string
	Query    string
	Patients []patients.Patient
	Patient  patients.Patient
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.FileServer(http.FS(fs)))

	s.handle(mux, "GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	s.handle(mux, "GET /{$}", http.HandlerFunc(s.handleHome))
	s.handle(mux, "POST /appointments", http.HandlerFunc(s.handleBook))
	s.handle(mux, "GET /api/calendar", http.HandlerFunc(s.handleAPICalendar))
	s.handle(mux, "POST /api/appointments", http.HandlerFunc(s.handleAPIBook))

	s.handle(mux, "GET /login", http.HandlerFunc(s.handleLoginForm))
	s.handle(mux, "POST /login", http.HandlerFunc(s.handleLogin))
	s.handle(mux, "POST /logout", http.HandlerFunc(s.handleLogout))

	s.handle(mux, "GET /admin", s.Auth.RequireAuth(http.HandlerFunc(s.handleAdmin)))
	s.handle(mux, "POST /admin/appointments/{id}/delete", s.Auth.RequireAuth(http.HandlerFunc(s.handleAdminDelete)))
	s.handle(mux, "GET /doctor", s.Auth.RequireAuth(http.HandlerFunc(s.handleDoctor)))
	s.handle(mux, "GET /doctor/patients/{dni}", s.Auth.RequireAuth(http.HandlerFunc(s.handlePatient)))
	s.handle(mux, "POST /doctor/patients/{dni}", s.Auth.RequireAuth(http.HandlerFunc(s.handlePatientUpdate)))

	return s.logRequests(mux)
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.Handler) {
	if s.Metrics != nil {
		h = s.Metrics.Instrument(pattern, h)
	}
	mux.Handle(pattern, h)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		if s.Log != nil {
			s.Log.HTTPRequest(r.Method, r.URL.Path, s.clientIP(r), sw.status, time.Since(start).Milliseconds())
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) loc() *time.Location {
	if s.Hours.Location == nil {
		return time.UTC
	}
	return s.Hours.Location
}

func (s *Server) clientIP(r *http.Request) string {
	return auth.ClientIP(r, s.TrustedProxies)
}

// submit books f for the client behind r. While one submission for a patient
// waits on the store, another from the same client gets ErrSubmitInFlight.
func (s *Server) submit(r *http.Request, f *booking.Form) (booking.Slot, error) {
	key := s.clientIP(r) + "|" + f.PatientID
	if !s.pending.Begin(key) {
		return booking.Slot{}, booking.ErrSubmitInFlight
	}
	defer s.pending.End(key)

	view, err := s.Submitter.Load(r.Context())
	if err != nil {
		return booking.Slot{}, err
	}
	return s.Submitter.Submit(r.Context(), f, view)
}

// failureMessage is what the user sees for a store failure: the generic
// text plus the store's own explanation.
func failureMessage(err error) string {
	msg := msgSaveFailed
	var rf *booking.RemoteFailure
	if errors.As(err, &rf) && rf.Op == "list" {
		msg = strings.TrimSuffix(msgLoadFailed, ".")
	}
	var api *supabase.APIError
	switch {
	case errors.As(err, &api) && api.Message != "":
		return msg + ": " + api.Message
	case rf != nil && rf.Cause != nil:
		return msg + ": " + rf.Cause.Error()
	}
	return msg + "."
}

func (s *Server) isAdmin(r *http.Request) bool {
	_, ok := s.Auth.GetSession(r)
	return ok
}

// refreshCalendar is called after the table changed. A failure only delays
// the calendar until the next tick.
func (s *Server) refreshCalendar(ctx context.Context) {
	if s.Feed == nil {
		return
	}
	if err := s.Feed.Refresh(ctx); err != nil && s.Log != nil {
		s.Log.WithComponent("web").WithError(err).Warn("calendar refresh after write failed")
	}
}

// calendarSlots serves the cached listing, filling it first if nothing has
// been loaded yet.
func (s *Server) calendarSlots(ctx context.Context) ([]booking.Slot, error) {
	if s.Feed == nil {
		v, err := s.Submitter.Load(ctx)
		if err != nil {
			return nil, err
		}
		return v.Slots(), nil
	}
	if refreshed, _ := s.Feed.Status(); refreshed.IsZero() {
		if err := s.Feed.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.Feed.Slots(), nil
}

var dayNames = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"local": func(t time.Time) string { return t.In(s.loc()).Format("02/01/2006 15:04") },
		"clock": func(t time.Time) string { return t.In(s.loc()).Format("15:04") },
		"day": func(t time.Time) string {
			lt := t.In(s.loc())
			return dayNames[lt.Weekday()] + " " + lt.Format("02/01")
		},
		"input": func(t time.Time) string { return t.In(s.loc()).Format(booking.LocalLayout) },
		"isoDate": func(t time.Time) string { return t.Format("2006-01-02") },
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data tmplData) {
	t, err := template.New("base").Funcs(s.funcs()).ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", data); err != nil && s.Log != nil {
		s.Log.WithComponent("web").WithError(err).Error("render failed")
	}
}

func Start(ctx context.Context, addr string, h http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.WithComponent("web").WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
