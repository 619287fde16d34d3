package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
)

// Period is an inclusive time range used to select entries.
type Period struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Label string    `json:"label"`
}

var (
	dateRegex  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	rangeRegex = regexp.MustCompile(`^(\S+)\s*-\s*(\S+)$`)
)

// ParsePeriod parses a period relative to now.
// Supported formats:
// - today, yesterday
// - week, last-week (weeks begin on weekStart)
// - month, last-month
// - dd/mm/yyyy (e.g., "15/12/2024")
// - dd/mm/yyyy-dd/mm/yyyy
func ParsePeriod(input string, now time.Time, weekStart time.Weekday) (Period, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "", "week", "this-week":
		from := timecalc.StartOfWeek(now, weekStart)
		return Period{From: from, To: timecalc.EndOfWeek(now, weekStart), Label: "Week of " + from.Format("Jan 2, 2006")}, nil
	case "last-week":
		prev := timecalc.StartOfWeek(now, weekStart).AddDate(0, 0, -1)
		from := timecalc.StartOfWeek(prev, weekStart)
		return Period{From: from, To: timecalc.EndOfWeek(prev, weekStart), Label: "Week of " + from.Format("Jan 2, 2006")}, nil
	case "today":
		return dayPeriod(now), nil
	case "yesterday":
		return dayPeriod(now.AddDate(0, 0, -1)), nil
	case "month", "this-month":
		return monthPeriod(now), nil
	case "last-month":
		return monthPeriod(timecalc.StartOfMonth(now).AddDate(0, 0, -1)), nil
	}

	// Try dd/mm/yyyy format first
	if day, err := parseDate(input, now.Location()); err == nil {
		return dayPeriod(day), nil
	}

	if matches := rangeRegex.FindStringSubmatch(input); len(matches) == 3 {
		from, err := parseDate(matches[1], now.Location())
		if err != nil {
			return Period{}, err
		}
		to, err := parseDate(matches[2], now.Location())
		if err != nil {
			return Period{}, err
		}
		if to.Before(from) {
			return Period{}, fmt.Errorf("period end %s is before start %s", matches[2], matches[1])
		}
		return Period{
			From:  timecalc.StartOfDay(from),
			To:    timecalc.EndOfDay(to),
			Label: fmt.Sprintf("%s to %s", from.Format("Jan 2"), to.Format("Jan 2, 2006")),
		}, nil
	}

	return Period{}, fmt.Errorf("invalid period. Use: today, yesterday, week, last-week, month, last-month, dd/mm/yyyy or dd/mm/yyyy-dd/mm/yyyy")
}

func dayPeriod(t time.Time) Period {
	return Period{From: timecalc.StartOfDay(t), To: timecalc.EndOfDay(t), Label: t.Format("Monday, 02 Jan 2006")}
}

func monthPeriod(t time.Time) Period {
	return Period{From: timecalc.StartOfMonth(t), To: timecalc.EndOfMonth(t), Label: t.Format("January 2006")}
}

// parseDate parses dd/mm/yyyy format
func parseDate(input string, loc *time.Location) (time.Time, error) {
	matches := dateRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return time.Time{}, fmt.Errorf("invalid date %q, use dd/mm/yyyy", input)
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	// Validate date ranges
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)

	// Check if date is valid (handles leap years, etc.)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date %q", input)
	}
	return date, nil
}
