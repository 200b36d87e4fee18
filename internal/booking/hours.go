package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q (want HH:MM)", s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// BusinessHours is the fixed booking window of the practice. It is policy,
// never persisted.
//
// A slot start s is inside the window when Open <= s < Close, or
// Open <= s <= Close when CloseInclusive is set. With the defaults the last
// bookable slot of the evening is 20:45.
type BusinessHours struct {
	Days           []time.Weekday
	Open           Clock
	Close          Clock
	CloseInclusive bool
	Granularity    time.Duration
	Location       *time.Location
}

const DefaultTimezone = "America/Argentina/Buenos_Aires"

// DefaultHours is Monday to Friday, 17:00 to 21:00 (exclusive), quarter-hour slots.
func DefaultHours() BusinessHours {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return BusinessHours{
		Days:        []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Open:        17 * 60,
		Close:       21 * 60,
		Granularity: 15 * time.Minute,
		Location:    loc,
	}
}

func (h BusinessHours) Validate() error {
	if len(h.Days) == 0 {
		return fmt.Errorf("business hours: at least one day required")
	}
	if h.Close <= h.Open {
		return fmt.Errorf("business hours: close %s must be after open %s", h.Close, h.Open)
	}
	g := h.granularity()
	if g < time.Minute || g > time.Hour || time.Hour%g != 0 {
		return fmt.Errorf("business hours: granularity %s must divide an hour", g)
	}
	step := Clock(g / time.Minute)
	if h.Open%step != 0 || h.Close%step != 0 {
		return fmt.Errorf("business hours: open and close must sit on the %s grid", g)
	}
	return nil
}

func (h BusinessHours) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func (h BusinessHours) granularity() time.Duration {
	if h.Granularity <= 0 {
		return 15 * time.Minute
	}
	return h.Granularity
}

func (h BusinessHours) In(t time.Time) time.Time { return t.In(h.location()) }

func (h BusinessHours) IsOpenDay(d time.Weekday) bool {
	for _, od := range h.Days {
		if od == d {
			return true
		}
	}
	return false
}

// OnGrid reports whether t falls exactly on a slot boundary.
func (h BusinessHours) OnGrid(t time.Time) bool {
	lt := h.In(t)
	if lt.Second() != 0 || lt.Nanosecond() != 0 {
		return false
	}
	step := int(h.granularity() / time.Minute)
	return lt.Minute()%step == 0
}

// Contains reports whether t is a bookable slot start: an open day, inside
// the daily window, and on the grid.
func (h BusinessHours) Contains(t time.Time) bool {
	return h.IsOpenDay(h.In(t).Weekday()) && h.InWindow(t)
}

// InWindow checks time of day and grid only, ignoring the weekday.
func (h BusinessHours) InWindow(t time.Time) bool {
	lt := h.In(t)
	if !h.OnGrid(lt) {
		return false
	}
	c := Clock(lt.Hour()*60 + lt.Minute())
	if c < h.Open {
		return false
	}
	if h.CloseInclusive {
		return c <= h.Close
	}
	return c < h.Close
}

// Snap rounds t to the nearest grid point in the practice's timezone,
// dropping seconds. Halfway minutes round up, so 20:53 becomes 21:00.
// The second result reports whether t changed.
func (h BusinessHours) Snap(t time.Time) (time.Time, bool) {
	lt := h.In(t)
	step := int(h.granularity() / time.Minute)
	hour := time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), 0, 0, 0, lt.Location())
	m := (lt.Minute() + step/2) / step * step
	snapped := hour.Add(time.Duration(m) * time.Minute)
	return snapped, !snapped.Equal(t)
}

// SlotStarts lists every slot start of the day containing t.
func (h BusinessHours) SlotStarts(day time.Time) []time.Time {
	ld := h.In(day)
	if !h.IsOpenDay(ld.Weekday()) {
		return nil
	}
	midnight := time.Date(ld.Year(), ld.Month(), ld.Day(), 0, 0, 0, 0, ld.Location())
	step := h.granularity()
	last := time.Duration(h.Close) * time.Minute
	var out []time.Time
	for off := time.Duration(h.Open) * time.Minute; off < last || (h.CloseInclusive && off == last); off += step {
		out = append(out, midnight.Add(off))
	}
	return out
}

// Describe renders the window for user messages, e.g. "17:00 y las 21:00".
func (h BusinessHours) Describe() string {
	return fmt.Sprintf("%s y las %s", h.Open, h.Close)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays parses a comma-separated list like "mon,tue,wed" or "1,2,3"
// (0 = Sunday).
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if d, ok := weekdayNames[p[:min(3, len(p))]]; ok {
			out = append(out, d)
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", p)
		}
		out = append(out, time.Weekday(n))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no weekdays in %q", s)
	}
	return out, nil
}
