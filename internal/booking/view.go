package booking

import (
	"sort"
	"sync"
	"time"
)

// View is one client's local copy of the booked slots, as last fetched from
// the store plus the client's own successful bookings. It also carries the
// in-flight flag that stands in for a disabled submit button.
type View struct {
	mu       sync.Mutex
	slots    []Slot
	inFlight bool
}

func NewView(slots []Slot) *View {
	v := &View{}
	v.Replace(slots)
	return v
}

// Replace swaps in a fresh snapshot from the store.
func (v *View) Replace(slots []Slot) {
	cp := make([]Slot, len(slots))
	copy(cp, slots)
	v.mu.Lock()
	v.slots = cp
	v.mu.Unlock()
}

// Slots returns a copy ordered by appointment time, earliest first.
func (v *View) Slots() []Slot {
	v.mu.Lock()
	out := make([]Slot, len(v.slots))
	copy(out, v.slots)
	v.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func (v *View) Moments() []time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]time.Time, len(v.slots))
	for i, s := range v.slots {
		out[i] = s.ScheduledAt
	}
	return out
}

func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.slots)
}

func (v *View) Submitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inFlight
}

func (v *View) add(s Slot) {
	v.mu.Lock()
	v.slots = append(v.slots, s)
	v.mu.Unlock()
}

func (v *View) remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.slots[:0]
	for _, s := range v.slots {
		if s.ID != id {
			out = append(out, s)
		}
	}
	v.slots = out
}

func (v *View) begin() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.inFlight {
		return false
	}
	v.inFlight = true
	return true
}

func (v *View) end() {
	v.mu.Lock()
	v.inFlight = false
	v.mu.Unlock()
}
