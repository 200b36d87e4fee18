package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/turnos/internal/auth"
	"github.com/example/turnos/internal/db"
)

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "templates/login.html", tmplData{
		Title: "Ingresar",
		Next:  auth.SafeNext(r.URL.Query().Get("next")),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	next := auth.SafeNext(r.FormValue("next"))
	data := tmplData{Title: "Ingresar", Next: next}

	if s.Limiter != nil && !s.Limiter.Allow(s.clientIP(r)) {
		s.loginResult("limited")
		data.Flash, data.FlashKind = msgTooMany, "error"
		s.render(w, http.StatusTooManyRequests, "templates/login.html", data)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	id, err := s.Auth.Authenticate(r.Context(), username, r.FormValue("password"))
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			status = http.StatusBadGateway
			if s.Log != nil {
				s.Log.WithComponent("auth").WithError(err).Error("admin lookup failed")
			}
		}
		s.loginResult("denied")
		data.Flash, data.FlashKind = msgBadLogin, "error"
		s.render(w, status, "templates/login.html", data)
		return
	}
	if err := s.Auth.SetSession(w, r, id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.loginResult("ok")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) loginResult(result string) {
	if s.Metrics != nil {
		s.Metrics.Login(result)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleAdmin lists every appointment straight from the store, oldest first.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	data := tmplData{Title: "Administración", Admin: true}
	switch r.URL.Query().Get("estado") {
	case "eliminado":
		data.Flash, data.FlashKind = msgDeleted, "ok"
	case "inexistente":
		data.Flash, data.FlashKind = msgMissing, "warn"
	case "error":
		data.Flash, data.FlashKind = msgDeleteFailed, "error"
	}

	view, err := s.Submitter.Load(r.Context())
	if err != nil {
		data.Flash, data.FlashKind = msgLoadFailed, "error"
		s.render(w, http.StatusBadGateway, "templates/admin.html", data)
		return
	}
	data.Slots = view.Slots()
	s.render(w, http.StatusOK, "templates/admin.html", data)
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.Submitter.Delete(r.Context(), id, nil)
	switch {
	case err == nil:
		s.refreshCalendar(r.Context())
		http.Redirect(w, r, "/admin?estado=eliminado", http.StatusSeeOther)
	case errors.Is(err, db.ErrNotFound):
		s.refreshCalendar(r.Context())
		http.Redirect(w, r, "/admin?estado=inexistente", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/admin?estado=error", http.StatusSeeOther)
	}
}
