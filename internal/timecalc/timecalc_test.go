package timecalc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		now    time.Time
		paused time.Duration
		want   int
	}{
		{name: "no time passed", now: start, want: 0},
		{name: "partial minute floors", now: start.Add(59 * time.Second), want: 0},
		{name: "ninety minutes", now: start.Add(90 * time.Minute), want: 90},
		{name: "paused time excluded", now: start.Add(40 * time.Minute), paused: 15 * time.Minute, want: 25},
		{name: "clock went backwards", now: start.Add(-5 * time.Minute), want: 0},
		{name: "pause longer than session", now: start.Add(5 * time.Minute), paused: 10 * time.Minute, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ElapsedMinutes(start, tt.now, tt.paused))
		})
	}
}

func TestElapsedMinutesMonotonic(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	paused := 7 * time.Minute

	prev := ElapsedMinutes(start, start.Add(-time.Hour), paused)
	for s := -3600; s <= 4*3600; s += 17 {
		got := ElapsedMinutes(start, start.Add(time.Duration(s)*time.Second), paused)
		require.GreaterOrEqual(t, got, prev, "offset %ds", s)
		prev = got
	}
}

func TestRoundDuration(t *testing.T) {
	tests := []struct {
		minutes   int
		increment int
		want      int
	}{
		{37, 15, 45},
		{45, 15, 45},
		{0, 15, 0},
		{1, 5, 5},
		{25, 15, 30},
		{61, 30, 90},
		{37, 0, 37},
		{-4, 10, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundDuration(tt.minutes, tt.increment), "RoundDuration(%d, %d)", tt.minutes, tt.increment)
	}
}

func TestRoundDurationProperties(t *testing.T) {
	for _, inc := range []int{5, 10, 15, 30} {
		for m := 0; m <= 600; m++ {
			got := RoundDuration(m, inc)
			assert.GreaterOrEqual(t, got, m)
			assert.Zero(t, got%inc)
			assert.Less(t, got-m, inc)
		}
	}
	for m := 0; m <= 600; m++ {
		assert.Equal(t, m, RoundDuration(m, 0))
	}
}

func TestValidIncrement(t *testing.T) {
	for _, inc := range Increments {
		assert.True(t, ValidIncrement(inc))
	}
	assert.False(t, ValidIncrement(7))
	assert.False(t, ValidIncrement(60))
	assert.False(t, ValidIncrement(-5))
}

func TestComputeAmount(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		rate    string
		want    string
	}{
		{name: "ninety minutes at 60", minutes: 90, rate: "60", want: "90"},
		{name: "thirty minutes at 60", minutes: 30, rate: "60", want: "30"},
		{name: "zero duration", minutes: 0, rate: "120", want: "0"},
		{name: "one minute at 100", minutes: 1, rate: "100", want: "1.67"},
		{name: "seven minutes at 85.50", minutes: 7, rate: "85.50", want: "9.98"},
		{name: "half cent rounds up", minutes: 3, rate: "0.1", want: "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundCurrency(ComputeAmount(tt.minutes, decimal.RequireFromString(tt.rate)))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestComputeAmountKeepsPrecision(t *testing.T) {
	raw := ComputeAmount(1, decimal.NewFromInt(100))
	assert.False(t, raw.Equal(RoundCurrency(raw)), "unrounded amount should carry more than two places")
}

func TestCalendarHelpers(t *testing.T) {
	// Wednesday
	ts := time.Date(2025, 3, 12, 15, 4, 5, 6, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
	assert.Equal(t, time.Date(2025, 3, 12, 23, 59, 59, 999999999, time.UTC), EndOfDay(ts))

	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), StartOfWeek(ts, time.Sunday))
	assert.Equal(t, time.Date(2025, 3, 15, 23, 59, 59, 999999999, time.UTC), EndOfWeek(ts, time.Sunday))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartOfWeek(ts, time.Monday))
	assert.Equal(t, time.Date(2025, 3, 16, 23, 59, 59, 999999999, time.UTC), EndOfWeek(ts, time.Monday))

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(ts))
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 999999999, time.UTC), EndOfMonth(ts))
}

func TestStartOfWeekOnWeekStartDay(t *testing.T) {
	sunday := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, StartOfDay(sunday), StartOfWeek(sunday, time.Sunday))

	monday := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday, time.Monday).AddDate(0, 0, 6))
	assert.Equal(t, StartOfDay(monday), StartOfWeek(monday, time.Monday))
}

func TestEndOfMonthLeapYear(t *testing.T) {
	ts := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 29, EndOfMonth(ts).Day())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "45m", FormatDuration(45*time.Minute+10*time.Second))
	assert.Equal(t, "1h 05m", FormatDuration(65*time.Minute))
	assert.Equal(t, "0s", FormatDuration(-time.Minute))
	assert.Equal(t, "2h 00m", FormatMinutes(120))
}
