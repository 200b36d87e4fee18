package patients

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Patient is a clinical record the doctor looks up and annotates.
type Patient struct {
	DNI               string    `json:"dni"`
	FirstName         string    `json:"nombre"`
	LastName          string    `json:"apellido"`
	InsuranceProvider string    `json:"obra_social"`
	MemberNumber      string    `json:"numero_asociado"`
	ClinicalHistory   string    `json:"historial_clinico"`
	Medications       string    `json:"medicamentos"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p Patient) Validate() error {
	if strings.TrimSpace(p.DNI) == "" {
		return fmt.Errorf("dni required")
	}
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("nombre required")
	}
	return nil
}

// Store is where patient records live. Search gets a trimmed, non-empty query.
type Store interface {
	Search(ctx context.Context, query string) ([]Patient, error)
	Get(ctx context.Context, dni string) (Patient, error)
	Save(ctx context.Context, p Patient) (Patient, error)
}

// Directory is what the doctor view talks to.
type Directory struct {
	Store Store
}

// Search matches query case-insensitively against first and last names.
// A blank query returns nothing without touching the store.
func (d Directory) Search(ctx context.Context, query string) ([]Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return d.Store.Search(ctx, query)
}

func (d Directory) Get(ctx context.Context, dni string) (Patient, error) {
	return d.Store.Get(ctx, strings.TrimSpace(dni))
}

// UpdateNotes replaces the clinical history and medications of an existing
// patient, leaving the identifying fields alone.
func (d Directory) UpdateNotes(ctx context.Context, dni, history, medications string) (Patient, error) {
	p, err := d.Get(ctx, dni)
	if err != nil {
		return Patient{}, err
	}
	p.ClinicalHistory = strings.TrimSpace(history)
	p.Medications = strings.TrimSpace(medications)
	return d.Store.Save(ctx, p)
}

func (d Directory) Add(ctx context.Context, p Patient) (Patient, error) {
	if err := p.Validate(); err != nil {
		return Patient{}, err
	}
	return d.Store.Save(ctx, p)
}

// Matches is the in-memory form of the name search.
func Matches(p Patient, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(p.FirstName), q) ||
		strings.Contains(strings.ToLower(p.LastName), q) ||
		strings.Contains(strings.ToLower(p.FullName()), q)
}
