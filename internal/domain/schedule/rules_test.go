package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func intPtr(n int) *int { return &n }

func TestShouldScheduleOnDate_EveryDay(t *testing.T) {
	start := mustDate(t, "2025-01-01")
	for i := 0; i < 60; i++ {
		d := start.AddDate(0, 0, i)
		assert.True(t, ShouldScheduleOnDate(d, start, EveryDay, nil, nil), "day %d", i)
	}
}

func TestShouldScheduleOnDate_EveryOtherDay_Alternates(t *testing.T) {
	start := mustDate(t, "2025-01-01")
	want := []bool{true, false, true, false, true, false, true}

	got := make([]bool, 0, len(want))
	for i := range want {
		got = append(got, ShouldScheduleOnDate(start.AddDate(0, 0, i), start, EveryOtherDay, nil, nil))
	}
	assert.Equal(t, want, got)
}

func TestShouldScheduleOnDate_Weekly(t *testing.T) {
	start := mustDate(t, "2025-01-01")
	days := []int{1, 3}

	for i := 0; i < 14; i++ {
		d := start.AddDate(0, 0, i)
		wd := d.Weekday()
		want := wd == time.Monday || wd == time.Wednesday
		assert.Equal(t, want, ShouldScheduleOnDate(d, start, Weekly, nil, days), "date %s", FormatDate(d))
	}
}

func TestShouldScheduleOnDate_Weekly_EmptyDaysNeverSchedules(t *testing.T) {
	start := mustDate(t, "2025-01-01")
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		assert.False(t, ShouldScheduleOnDate(d, start, Weekly, nil, nil))
		assert.False(t, ShouldScheduleOnDate(d, start, Weekly, nil, []int{}))
	}
}

func TestShouldScheduleOnDate_CustomInterval(t *testing.T) {
	start := mustDate(t, "2025-01-01")
	for i := 0; i < 30; i++ {
		d := start.AddDate(0, 0, i)
		assert.Equal(t, i%3 == 0, ShouldScheduleOnDate(d, start, CustomInterval, intPtr(3), nil), "day %d", i)
	}
}

func TestShouldScheduleOnDate_InvalidConfigFailsSafe(t *testing.T) {
	start := mustDate(t, "2025-01-01")
	d := start.AddDate(0, 0, 3)

	tests := []struct {
		name     string
		freq     Frequency
		interval *int
		days     []int
	}{
		{name: "custom nil interval", freq: CustomInterval},
		{name: "custom zero interval", freq: CustomInterval, interval: intPtr(0)},
		{name: "custom negative interval", freq: CustomInterval, interval: intPtr(-3)},
		{name: "unknown frequency", freq: Frequency("MONTHLY"), interval: intPtr(3), days: []int{1}},
		{name: "empty frequency", freq: Frequency("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ShouldScheduleOnDate(start, start, tt.freq, tt.interval, tt.days))
			assert.False(t, ShouldScheduleOnDate(d, start, tt.freq, tt.interval, tt.days))
		})
	}
}

func TestDaysBetween_AcrossDSTTransition(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2025-03-09 es el cambio a horario de verano en Nueva York.
	before := time.Date(2025, 3, 8, 23, 30, 0, 0, ny)
	after := time.Date(2025, 3, 10, 0, 30, 0, 0, ny)

	assert.Equal(t, 2, DaysBetween(before, after))
	assert.Equal(t, -2, DaysBetween(after, before))
}

func TestFrequency_Valid(t *testing.T) {
	for _, f := range []Frequency{EveryDay, EveryOtherDay, Weekly, CustomInterval} {
		assert.True(t, f.Valid(), string(f))
	}
	assert.False(t, Frequency("DAILY").Valid())
}
