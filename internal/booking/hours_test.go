package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock(" 17:45 ")
	require.NoError(t, err)
	assert.Equal(t, Clock(17*60+45), c)
	assert.Equal(t, "17:45", c.String())

	_, err = ParseClock("5pm")
	assert.Error(t, err)
}

func TestSnap(t *testing.T) {
	h := utcHours()
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"2024-01-08T18:00", "2024-01-08T18:00", false},
		{"2024-01-08T18:07", "2024-01-08T18:00", true},
		{"2024-01-08T18:08", "2024-01-08T18:15", true},
		{"2024-01-08T18:22", "2024-01-08T18:15", true},
		{"2024-01-08T18:23", "2024-01-08T18:30", true},
		{"2024-01-08T20:53", "2024-01-08T21:00", true},
		{"2024-01-08T23:55", "2024-01-09T00:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed := h.Snap(at(tt.in))
			assert.Equal(t, at(tt.want), got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestSnap_DropsSeconds(t *testing.T) {
	h := utcHours()
	got, changed := h.Snap(at("2024-01-08T18:15").Add(40 * time.Second))
	assert.True(t, changed)
	assert.Equal(t, at("2024-01-08T18:15"), got)
	assert.True(t, h.OnGrid(got))
}

func TestSlotStarts(t *testing.T) {
	h := utcHours()
	starts := h.SlotStarts(at("2024-01-08T09:00"))
	require.Len(t, starts, 16)
	assert.Equal(t, at("2024-01-08T17:00"), starts[0])
	assert.Equal(t, at("2024-01-08T20:45"), starts[len(starts)-1])

	h.CloseInclusive = true
	starts = h.SlotStarts(at("2024-01-08T09:00"))
	require.Len(t, starts, 17)
	assert.Equal(t, at("2024-01-08T21:00"), starts[len(starts)-1])

	assert.Empty(t, h.SlotStarts(at("2024-01-13T09:00")), "saturday")
}

func TestBusinessHoursValidate(t *testing.T) {
	assert.NoError(t, DefaultHours().Validate())

	h := DefaultHours()
	h.Close = h.Open
	assert.Error(t, h.Validate())

	h = DefaultHours()
	h.Open = 17*60 + 10
	assert.Error(t, h.Validate())

	h = DefaultHours()
	h.Days = nil
	assert.Error(t, h.Validate())
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays("Mon, tue,wednesday,4,5")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, days)

	_, err = ParseWeekdays("mon,funday")
	assert.Error(t, err)
	_, err = ParseWeekdays(" , ")
	assert.Error(t, err)
}
