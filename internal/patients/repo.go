package patients

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/turnos/internal/db"
)

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
	Query(ctx context.Context, sql string, args ...any) (db.Rows, error)
}

const patientColumns = `dni,nombre,apellido,obra_social,numero_asociado,historial_clinico,medicamentos,updated_at`

type Repo struct{ db Querier }

func NewRepo(d Querier) *Repo { return &Repo{db: d} }

func (r *Repo) Search(ctx context.Context, query string) ([]Patient, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := r.db.Query(ctx, `
SELECT `+patientColumns+`
FROM patients
WHERE lower(nombre) LIKE $1 OR lower(apellido) LIKE $1 OR lower(nombre || ' ' || apellido) LIKE $1
ORDER BY apellido, nombre
LIMIT 50`, pattern)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		var p Patient
		if err := scanPatient(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, dni string) (Patient, error) {
	var p Patient
	err := scanPatient(r.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE dni=$1`, dni), &p)
	if err != nil {
		return Patient{}, db.WrapNotFound(err)
	}
	return p, nil
}

func (r *Repo) Save(ctx context.Context, p Patient) (Patient, error) {
	err := scanPatient(r.db.QueryRow(ctx, `
INSERT INTO patients(dni,nombre,apellido,obra_social,numero_asociado,historial_clinico,medicamentos,updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,now())
ON CONFLICT (dni) DO UPDATE SET
	nombre=EXCLUDED.nombre, apellido=EXCLUDED.apellido, obra_social=EXCLUDED.obra_social,
	numero_asociado=EXCLUDED.numero_asociado, historial_clinico=EXCLUDED.historial_clinico,
	medicamentos=EXCLUDED.medicamentos, updated_at=now()
RETURNING `+patientColumns,
		p.DNI, p.FirstName, p.LastName, p.InsuranceProvider, p.MemberNumber, p.ClinicalHistory, p.Medications,
	), &p)
	if err != nil {
		return Patient{}, db.WrapNotFound(err)
	}
	return p, nil
}

func scanPatient(row db.Row, p *Patient) error {
	return row.Scan(&p.DNI, &p.FirstName, &p.LastName, &p.InsuranceProvider, &p.MemberNumber, &p.ClinicalHistory, &p.Medications, &p.UpdatedAt)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// MemoryStore keeps patients in process; used with STORE_BACKEND=memory and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	patients map[string]Patient
	searches int

	Now func() time.Time
}

func NewMemoryStore(seed ...Patient) *MemoryStore {
	m := &MemoryStore{patients: map[string]Patient{}}
	for _, p := range seed {
		m.patients[p.DNI] = p
	}
	return m
}

func (m *MemoryStore) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

func (m *MemoryStore) Search(_ context.Context, query string) ([]Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	var out []Patient
	for _, p := range m.patients {
		if Matches(p, query) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, dni string) (Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[dni]
	if !ok {
		return Patient{}, db.ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) Save(_ context.Context, p Patient) (Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Now != nil {
		p.UpdatedAt = m.Now()
	} else {
		p.UpdatedAt = time.Now().UTC()
	}
	m.patients[p.DNI] = p
	return p, nil
}
