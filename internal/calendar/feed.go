package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/turnos/internal/booking"
	"github.com/example/turnos/internal/logger"
)

// Event is one appointment as the calendar draws it.
type Event struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BusyTitle replaces patient names on the public calendar.
const BusyTitle = "Ocupado"

// EventsFrom turns slots into events. Names are shown only when withNames is set.
func EventsFrom(slots []booking.Slot, withNames bool) []Event {
	out := make([]Event, 0, len(slots))
	for _, s := range slots {
		title := BusyTitle
		if withNames && s.PatientName != "" {
			title = s.PatientName
		}
		out = append(out, Event{ID: s.ID, Title: title, Start: s.ScheduledAt, End: s.EndsAt()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Source is what the feed reads from; any booking.Store will do.
type Source interface {
	List(ctx context.Context) ([]booking.Slot, error)
}

// Feed keeps the last listing of the appointment table so page renders do not
// each hit the store. Run refreshes it on a ticker; handlers call Refresh
// after they change the table.
type Feed struct {
	Source   Source
	Interval time.Duration
	Log      *logger.Logger

	mu        sync.RWMutex
	slots     []booking.Slot
	refreshed time.Time
	lastErr   error
}

func (f *Feed) Run(ctx context.Context) error {
	interval := f.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	// kick immediately
	f.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			f.tick(ctx)
		}
	}
}

func (f *Feed) tick(ctx context.Context) {
	if err := f.Refresh(ctx); err != nil && f.Log != nil {
		f.Log.WithComponent("calendar").WithError(err).Warn("calendar refresh failed")
	}
}

// Refresh replaces the cached listing. On error the previous listing is kept.
func (f *Feed) Refresh(ctx context.Context) error {
	slots, err := f.Source.List(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = err
	if err != nil {
		return err
	}
	f.slots = slots
	f.refreshed = time.Now()
	return nil
}

func (f *Feed) Slots() []booking.Slot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]booking.Slot(nil), f.slots...)
}

func (f *Feed) Events(withNames bool) []Event {
	return EventsFrom(f.Slots(), withNames)
}

// Status reports when the cache was last filled and the last refresh error.
func (f *Feed) Status() (time.Time, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.refreshed, f.lastErr
}
