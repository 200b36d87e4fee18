package booking

import (
	"context"
	"time"
)

// SlotDuration is how long each appointment occupies the calendar.
const SlotDuration = 15 * time.Minute

// Slot is one booked appointment. Records are created through Submitter and
// removed by an administrator; they are never edited in place.
type Slot struct {
	ID                string    `json:"id"`
	PatientID         string    `json:"dni"`
	PatientName       string    `json:"nombre"`
	InsuranceProvider string    `json:"obra_social"`
	MemberNumber      string    `json:"numero_asociado"`
	ScheduledAt       time.Time `json:"horario"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
}

func (s Slot) EndsAt() time.Time { return s.ScheduledAt.Add(SlotDuration) }

// Store is the remote table holding appointment records. It performs no
// filtering or conflict checks of its own: two clients that validate against
// the same snapshot can both insert the same moment.
type Store interface {
	List(ctx context.Context) ([]Slot, error)
	Insert(ctx context.Context, s Slot) (Slot, error)
	Delete(ctx context.Context, id string) error
}
