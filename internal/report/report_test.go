package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slouths/TimeTracker-sub001/internal/models"
)

// Wednesday 12 March 2025
var now = time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input     string
		weekStart time.Weekday
		from      time.Time
		to        time.Time
	}{
		{"week", time.Sunday, date(2025, 3, 9), date(2025, 3, 16)},
		{"", time.Monday, date(2025, 3, 10), date(2025, 3, 17)},
		{"last-week", time.Monday, date(2025, 3, 3), date(2025, 3, 10)},
		{"today", time.Sunday, date(2025, 3, 12), date(2025, 3, 13)},
		{"Yesterday", time.Sunday, date(2025, 3, 11), date(2025, 3, 12)},
		{"month", time.Sunday, date(2025, 3, 1), date(2025, 4, 1)},
		{"last-month", time.Sunday, date(2025, 2, 1), date(2025, 3, 1)},
		{"05/03/2025", time.Sunday, date(2025, 3, 5), date(2025, 3, 6)},
		{"01/03/2025-15/03/2025", time.Sunday, date(2025, 3, 1), date(2025, 3, 16)},
		{"01/03/2025 - 15/03/2025", time.Sunday, date(2025, 3, 1), date(2025, 3, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePeriod(tt.input, now, tt.weekStart)
			require.NoError(t, err)
			assert.Equal(t, tt.from, p.From)
			assert.Equal(t, tt.to.Add(-time.Nanosecond), p.To)
			assert.NotEmpty(t, p.Label)
		})
	}
}

func TestParsePeriodErrors(t *testing.T) {
	for _, input := range []string{"fortnight", "31/02/2025", "1/13/2025", "15/03/2025-01/03/2025", "01/03/2025-soon"} {
		_, err := ParsePeriod(input, now, time.Sunday)
		assert.Error(t, err, input)
	}
}

func entry(clientID, name string, start time.Time, minutes int, amount string) models.TimeEntry {
	return models.TimeEntry{
		ClientID:        clientID,
		Client:          models.Client{Name: name, Currency: "USD"},
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Amount:          decimal.RequireFromString(amount),
	}
}

func TestSummarize(t *testing.T) {
	entries := []models.TimeEntry{
		entry("a", "Acme", date(2025, 3, 10).Add(9*time.Hour), 90, "90.00"),
		entry("g", "Globex", date(2025, 3, 10).Add(13*time.Hour), 120, "150.00"),
		entry("a", "Acme", date(2025, 3, 11).Add(9*time.Hour), 45, "45.00"),
		entry("i", "", date(2025, 3, 11).Add(9*time.Hour), 15, "0.01"),
	}

	s := Summarize(Period{Label: "test"}, entries)
	require.Len(t, s.Clients, 3)

	assert.Equal(t, "Acme", s.Clients[0].ClientName)
	assert.Equal(t, 135, s.Clients[0].Minutes)
	assert.Equal(t, 2, s.Clients[0].Entries)
	assert.True(t, decimal.NewFromInt(135).Equal(s.Clients[0].Amount))

	assert.Equal(t, "Globex", s.Clients[1].ClientName)
	assert.Equal(t, "i", s.Clients[2].ClientName, "falls back to the id")

	assert.Equal(t, 270, s.TotalMinutes)
	require.Len(t, s.Totals, 1)
	assert.Equal(t, "USD", s.Totals[0].Currency)
	assert.Equal(t, 270, s.Totals[0].Minutes)
	assert.True(t, decimal.RequireFromString("285.01").Equal(s.Total("USD")))
}

func TestSummarizeKeepsCurrenciesApart(t *testing.T) {
	tokyo := entry("t", "Tokyo KK", date(2025, 3, 10).Add(10*time.Hour), 60, "15000")
	tokyo.Client.Currency = "JPY"
	entries := []models.TimeEntry{
		entry("a", "Acme", date(2025, 3, 10).Add(9*time.Hour), 60, "100.00"),
		tokyo,
	}

	s := Summarize(Period{Label: "test"}, entries)
	assert.Equal(t, 120, s.TotalMinutes)
	require.Len(t, s.Totals, 2)
	assert.Equal(t, "JPY", s.Totals[0].Currency)
	assert.Equal(t, "USD", s.Totals[1].Currency)
	assert.True(t, decimal.NewFromInt(100).Equal(s.Total("USD")))
	assert.True(t, decimal.NewFromInt(15000).Equal(s.Total("JPY")))
	assert.True(t, s.Total("EUR").IsZero())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(Period{}, nil)
	assert.Empty(t, s.Clients)
	assert.Zero(t, s.TotalMinutes)
	assert.Empty(t, s.Totals)
}

func TestBuildTimesheet(t *testing.T) {
	entries := []models.TimeEntry{
		entry("g", "Globex", date(2025, 3, 10).Add(9*time.Hour), 60, "60"),  // Monday
		entry("a", "Acme", date(2025, 3, 10).Add(14*time.Hour), 30, "30"),   // Monday
		entry("a", "Acme", date(2025, 3, 16).Add(10*time.Hour), 45, "45"),   // Sunday
		entry("a", "Acme", date(2025, 3, 17).Add(10*time.Hour), 999, "999"), // next week
	}

	sheet := BuildTimesheet(entries, now, time.Monday)
	assert.Equal(t, date(2025, 3, 10), sheet.WeekStart)
	assert.Equal(t, time.Monday, sheet.Days[0])
	assert.Equal(t, time.Sunday, sheet.Days[6])

	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Acme", sheet.Rows[0].ClientName)
	assert.Equal(t, 30, sheet.Rows[0].Minutes[0])
	assert.Equal(t, 45, sheet.Rows[0].Minutes[6])
	assert.Equal(t, 75, sheet.Rows[0].Total)
	assert.Equal(t, "Globex", sheet.Rows[1].ClientName)

	assert.Equal(t, 90, sheet.DayTotals[0])
	assert.Equal(t, 135, sheet.Total)

	// Same entries with Sunday-start weeks: the 16th opens the next week.
	sheet = BuildTimesheet(entries, now, time.Sunday)
	assert.Equal(t, date(2025, 3, 9), sheet.WeekStart)
	assert.Equal(t, 90, sheet.Total)
	assert.Equal(t, 90, sheet.DayTotals[1])
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
