package calendar

import (
	"time"

	"github.com/example/turnos/internal/booking"
)

type CellState string

const (
	Free  CellState = "free"
	Taken CellState = "taken"
	Past  CellState = "past"
)

type Cell struct {
	Start time.Time
	State CellState
}

type Day struct {
	Date  time.Time
	Cells []Cell
}

// Week is the grid behind the booking page: one column per open business day,
// one row per slot start.
type Week struct {
	Start time.Time
	Prev  time.Time
	Next  time.Time
	Rows  []string
	Days  []Day
}

// MondayOf returns local midnight of the Monday on or before t.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// BuildWeek lays out the week containing anchor. A booked cell stays taken
// even after it has passed.
func BuildWeek(anchor time.Time, hours booking.BusinessHours, slots []booking.Slot, now time.Time) Week {
	monday := MondayOf(hours.In(anchor))
	taken := make(map[int64]struct{}, len(slots))
	for _, s := range slots {
		taken[s.ScheduledAt.UnixMilli()] = struct{}{}
	}

	w := Week{Start: monday, Prev: monday.AddDate(0, 0, -7), Next: monday.AddDate(0, 0, 7)}
	for i := 0; i < 7; i++ {
		date := monday.AddDate(0, 0, i)
		starts := hours.SlotStarts(date)
		if len(starts) == 0 {
			continue
		}
		day := Day{Date: date, Cells: make([]Cell, 0, len(starts))}
		for _, st := range starts {
			state := Free
			if _, ok := taken[st.UnixMilli()]; ok {
				state = Taken
			} else if st.Before(now) {
				state = Past
			}
			day.Cells = append(day.Cells, Cell{Start: st, State: state})
		}
		if w.Rows == nil {
			for _, c := range day.Cells {
				w.Rows = append(w.Rows, c.Start.Format("15:04"))
			}
		}
		w.Days = append(w.Days, day)
	}
	return w
}
