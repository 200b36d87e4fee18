package web

import (
	"net/http"
	"net/url"

	"github.com/example/turnos/internal/db"
)

func (s *Server) handleDoctor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	data := tmplData{Title: "Pacientes", Admin: true, Query: q}

	found, err := s.Patients.Search(r.Context(), q)
	if err != nil {
		if s.Log != nil {
			s.Log.WithComponent("patients").WithError(err).Error("patient search failed")
		}
		data.Flash, data.FlashKind = msgSearchFailed, "error"
		s.render(w, http.StatusBadGateway, "templates/doctor.html", data)
		return
	}
	data.Patients = found
	s.render(w, http.StatusOK, "templates/doctor.html", data)
}

func (s *Server) handlePatient(w http.ResponseWriter, r *http.Request) {
	p, err := s.Patients.Get(r.Context(), r.PathValue("dni"))
	if err != nil {
		s.patientError(w, err)
		return
	}
	data := tmplData{Title: p.FullName(), Admin: true, Patient: p}
	if r.URL.Query().Get("guardado") != "" {
		data.Flash, data.FlashKind = msgNotesSaved, "ok"
	}
	s.render(w, http.StatusOK, "templates/patient.html", data)
}

func (s *Server) handlePatientUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dni := r.PathValue("dni")
	if _, err := s.Patients.UpdateNotes(r.Context(), dni, r.FormValue("historial_clinico"), r.FormValue("medicamentos")); err != nil {
		s.patientError(w, err)
		return
	}
	http.Redirect(w, r, "/doctor/patients/"+url.PathEscape(dni)+"?guardado=1", http.StatusSeeOther)
}

func (s *Server) patientError(w http.ResponseWriter, err error) {
	if db.IsNotFound(err) {
		http.Error(w, "paciente no encontrado", http.StatusNotFound)
		return
	}
	if s.Log != nil {
		s.Log.WithComponent("patients").WithError(err).Error("patient store failed")
	}
	http.Error(w, "error al acceder a la historia clínica", http.StatusBadGateway)
}
