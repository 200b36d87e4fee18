package appointments

import (
	"context"
	"time"

	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/db"
	"github.com/google/uuid"
)

// Querier is the part of *db.DB the repo uses.
type Querier interface {
	ExecCount(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
	Query(ctx context.Context, sql string, args ...any) (db.Rows, error)
}

// Repo keeps appointments in Postgres. It implements booking.Store.
type Repo struct{ db Querier }

func NewRepo(d Querier) *Repo { return &Repo{db: d} }

func (r *Repo) List(ctx context.Context) ([]booking.Slot, error) {
	rows, err := r.db.Query(ctx, `
SELECT id,dni,nombre,obra_social,numero_asociado,horario,created_at
FROM appointments
ORDER BY horario ASC`)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []booking.Slot
	for rows.Next() {
		var s booking.Slot
		var id uuid.UUID
		if err := rows.Scan(&id, &s.PatientID, &s.PatientName, &s.InsuranceProvider, &s.MemberNumber, &s.ScheduledAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.ID = id.String()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, s booking.Slot) (booking.Slot, error) {
	id := uuid.New()
	var createdAt time.Time
	err := r.db.QueryRow(ctx, `
INSERT INTO appointments(id,dni,nombre,obra_social,numero_asociado,horario)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING created_at`,
		id, s.PatientID, s.PatientName, s.InsuranceProvider, s.MemberNumber, s.ScheduledAt.UTC(),
	).Scan(&createdAt)
	if err != nil {
		return booking.Slot{}, db.WrapNotFound(err)
	}
	s.ID = id.String()
	s.CreatedAt = createdAt
	return s, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return db.ErrNotFound
	}
	n, err := r.db.ExecCount(ctx, `DELETE FROM appointments WHERE id=$1`, uid)
	if err != nil {
		return db.WrapNotFound(err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
