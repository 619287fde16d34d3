package timecalc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Increments lists the rounding increments (in minutes) a user may pick.
// Zero disables rounding.
var Increments = []int{0, 5, 10, 15, 30}

var minutesPerHour = decimal.NewFromInt(60)

// ElapsedMinutes returns the whole minutes of active time between startedAt
// and now, excluding paused time. Never negative.
func ElapsedMinutes(startedAt, now time.Time, paused time.Duration) int {
	active := now.Sub(startedAt) - paused
	if active <= 0 {
		return 0
	}
	return int(active / time.Minute)
}

// RoundDuration rounds minutes up to the next multiple of increment.
// An increment of 0 (or less) leaves the value unchanged.
func RoundDuration(minutes, increment int) int {
	if minutes < 0 {
		minutes = 0
	}
	if increment <= 0 {
		return minutes
	}
	if rem := minutes % increment; rem != 0 {
		return minutes + increment - rem
	}
	return minutes
}

// ValidIncrement reports whether increment is one of Increments.
func ValidIncrement(increment int) bool {
	for _, inc := range Increments {
		if inc == increment {
			return true
		}
	}
	return false
}

// ComputeAmount returns the unrounded billable amount for minutes at hourlyRate.
func ComputeAmount(minutes int, hourlyRate decimal.Decimal) decimal.Decimal {
	if minutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(minutes)).Mul(hourlyRate).Div(minutesPerHour)
}

// RoundCurrency rounds half-up to cents. Only call this where an amount is
// stored or shown.
func RoundCurrency(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d >= time.Hour:
		return FormatMinutes(int(d / time.Minute))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
}

// FormatMinutes renders whole minutes as "1h 05m" or "45m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
