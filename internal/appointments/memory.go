package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/db"
	"github.com/google/uuid"
)

// MemoryStore is an in-process booking.Store. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.Mutex
	slots []booking.Slot
	fail  error
	calls map[string]int

	Now func() time.Time
}

func NewMemoryStore(seed ...booking.Slot) *MemoryStore {
	return &MemoryStore{slots: append([]booking.Slot(nil), seed...), calls: map[string]int{}}
}

// FailWith makes every following call return err until it is called with nil.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

// Calls reports how often op ("list", "insert", "delete") was invoked.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MemoryStore) List(_ context.Context) ([]booking.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["list"]++
	if m.fail != nil {
		return nil, m.fail
	}
	out := append([]booking.Slot(nil), m.slots...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (m *MemoryStore) Insert(_ context.Context, s booking.Slot) (booking.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["insert"]++
	if m.fail != nil {
		return booking.Slot{}, m.fail
	}
	s.ID = uuid.NewString()
	s.CreatedAt = m.now()
	m.slots = append(m.slots, s)
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["delete"]++
	if m.fail != nil {
		return m.fail
	}
	for i, s := range m.slots {
		if s.ID == id {
			m.slots = append(m.slots[:i], m.slots[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (m *MemoryStore) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}
