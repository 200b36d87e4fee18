package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/turnos/internal/db"
	"github.com/example/turnos/internal/patients"
)

// Patients is the patients table seen through the same client.
type Patients struct{ c *Client }

func (c *Client) Patients() *Patients { return &Patients{c: c} }

type pacienteRow struct {
	DNI              string    `json:"dni"`
	Nombre           string    `json:"nombre"`
	Apellido         string    `json:"apellido"`
	ObraSocial       string    `json:"obra_social"`
	NumeroAsociado   string    `json:"numero_asociado"`
	HistorialClinico string    `json:"historial_clinico"`
	Medicamentos     string    `json:"medicamentos"`
	UpdatedAt        tableTime `json:"updated_at,omitempty"`
}

func (p *Patients) decode(b []byte) ([]patients.Patient, error) {
	var rows []pacienteRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, err
	}
	out := make([]patients.Patient, 0, len(rows))
	for _, r := range rows {
		updated, err := r.UpdatedAt.parse(p.c.Location)
		if err != nil {
			return nil, err
		}
		out = append(out, patients.Patient{
			DNI:               r.DNI,
			FirstName:         r.Nombre,
			LastName:          r.Apellido,
			InsuranceProvider: r.ObraSocial,
			MemberNumber:      r.NumeroAsociado,
			ClinicalHistory:   r.HistorialClinico,
			Medications:       r.Medicamentos,
			UpdatedAt:         updated,
		})
	}
	return out, nil
}

// Search runs an ilike over nombre and apellido.
func (p *Patients) Search(ctx context.Context, query string) ([]patients.Patient, error) {
	pat := "*" + sanitizeFilter(query) + "*"
	q := url.Values{
		"select": {"*"},
		"or":     {"(nombre.ilike." + pat + ",apellido.ilike." + pat + ")"},
		"order":  {"apellido.asc,nombre.asc"},
		"limit":  {"50"},
	}
	b, err := p.c.do(ctx, http.MethodGet, p.c.PatientsTable, q, nil, "")
	if err != nil {
		return nil, err
	}
	return p.decode(b)
}

func (p *Patients) Get(ctx context.Context, dni string) (patients.Patient, error) {
	q := url.Values{"select": {"*"}, "dni": {"eq." + dni}}
	b, err := p.c.do(ctx, http.MethodGet, p.c.PatientsTable, q, nil, "")
	if err != nil {
		return patients.Patient{}, err
	}
	found, err := p.decode(b)
	if err != nil {
		return patients.Patient{}, err
	}
	if len(found) == 0 {
		return patients.Patient{}, db.ErrNotFound
	}
	return found[0], nil
}

// Save upserts on dni.
func (p *Patients) Save(ctx context.Context, pt patients.Patient) (patients.Patient, error) {
	body := []pacienteRow{{
		DNI:              pt.DNI,
		Nombre:           pt.FirstName,
		Apellido:         pt.LastName,
		ObraSocial:       pt.InsuranceProvider,
		NumeroAsociado:   pt.MemberNumber,
		HistorialClinico: pt.ClinicalHistory,
		Medicamentos:     pt.Medications,
	}}
	q := url.Values{"on_conflict": {"dni"}}
	b, err := p.c.do(ctx, http.MethodPost, p.c.PatientsTable, q, body, "resolution=merge-duplicates,return=representation")
	if err != nil {
		return patients.Patient{}, err
	}
	saved, err := p.decode(b)
	if err != nil {
		return patients.Patient{}, err
	}
	if len(saved) == 0 {
		return pt, nil
	}
	return saved[0], nil
}

// sanitizeFilter strips characters with meaning inside a PostgREST or() list.
func sanitizeFilter(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '"', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
