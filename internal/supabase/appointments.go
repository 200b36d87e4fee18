package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/db"
)

type turnoRow struct {
	ID             flexID    `json:"id"`
	DNI            string    `json:"dni"`
	Nombre         string    `json:"nombre"`
	ObraSocial     string    `json:"obra_social"`
	NumeroAsociado string    `json:"numero_asociado"`
	Horario        tableTime `json:"horario"`
	CreatedAt      tableTime `json:"created_at"`
}

type turnoInsert struct {
	DNI            string `json:"dni"`
	Nombre         string `json:"nombre"`
	ObraSocial     string `json:"obra_social"`
	NumeroAsociado string `json:"numero_asociado"`
	Horario        string `json:"horario"`
}

func (c *Client) toSlot(r turnoRow) (booking.Slot, error) {
	at, err := r.Horario.parse(c.Location)
	if err != nil {
		return booking.Slot{}, err
	}
	created, err := r.CreatedAt.parse(c.Location)
	if err != nil {
		return booking.Slot{}, err
	}
	return booking.Slot{
		ID:                string(r.ID),
		PatientID:         r.DNI,
		PatientName:       r.Nombre,
		InsuranceProvider: r.ObraSocial,
		MemberNumber:      r.NumeroAsociado,
		ScheduledAt:       at,
		CreatedAt:         created,
	}, nil
}

func (c *Client) decodeSlots(b []byte) ([]booking.Slot, error) {
	var rows []turnoRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, err
	}
	out := make([]booking.Slot, 0, len(rows))
	for _, r := range rows {
		s, err := c.toSlot(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// List returns every appointment. The whole table is fetched; callers filter.
func (c *Client) List(ctx context.Context) ([]booking.Slot, error) {
	q := url.Values{"select": {"*"}, "order": {"horario.asc"}}
	b, err := c.do(ctx, http.MethodGet, c.AppointmentsTable, q, nil, "")
	if err != nil {
		return nil, err
	}
	return c.decodeSlots(b)
}

// Insert posts one row and returns what the table stored. If the table hands
// back nothing the returned Slot is zero and callers fall back to their input.
func (c *Client) Insert(ctx context.Context, s booking.Slot) (booking.Slot, error) {
	body := []turnoInsert{{
		DNI:            s.PatientID,
		Nombre:         s.PatientName,
		ObraSocial:     s.InsuranceProvider,
		NumeroAsociado: s.MemberNumber,
		Horario:        s.ScheduledAt.UTC().Format(time.RFC3339),
	}}
	b, err := c.do(ctx, http.MethodPost, c.AppointmentsTable, nil, body, "return=representation")
	if err != nil {
		return booking.Slot{}, err
	}
	created, err := c.decodeSlots(b)
	if err != nil {
		return booking.Slot{}, err
	}
	if len(created) == 0 {
		return booking.Slot{}, nil
	}
	return created[0], nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	q := url.Values{"id": {"eq." + id}}
	b, err := c.do(ctx, http.MethodDelete, c.AppointmentsTable, q, nil, "return=representation")
	if err != nil {
		return err
	}
	var gone []json.RawMessage
	if err := json.Unmarshal(b, &gone); err == nil && len(gone) == 0 {
		return db.ErrNotFound
	}
	return nil
}
