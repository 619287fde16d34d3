package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Slouths/TimeTracker-sub001/internal/models"
	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
)

// ClientSummary totals one client's entries in a period.
type ClientSummary struct {
	ClientID   string          `json:"client_id"`
	ClientName string          `json:"client_name"`
	Currency   string          `json:"currency"`
	Entries    int             `json:"entries"`
	Minutes    int             `json:"minutes"`
	Amount     decimal.Decimal `json:"amount"`
}

// CurrencyTotal totals the entries billed in one currency.
type CurrencyTotal struct {
	Currency string          `json:"currency"`
	Minutes  int             `json:"minutes"`
	Amount   decimal.Decimal `json:"amount"`
}

type Summary struct {
	Period       Period          `json:"period"`
	Clients      []ClientSummary `json:"clients"`
	TotalMinutes int             `json:"total_minutes"`
	Totals       []CurrencyTotal `json:"totals"`
}

// Summarize groups entries by client, busiest client first. Amounts are
// summed from the stored (already rounded) entry amounts and only ever
// within one currency.
func Summarize(period Period, entries []models.TimeEntry) Summary {
	byClient := make(map[string]*ClientSummary)
	byCurrency := make(map[string]*CurrencyTotal)
	summary := Summary{Period: period, Totals: []CurrencyTotal{}}

	for _, entry := range entries {
		row, ok := byClient[entry.ClientID]
		if !ok {
			row = &ClientSummary{
				ClientID:   entry.ClientID,
				ClientName: clientName(entry),
				Currency:   entry.Client.Currency,
				Amount:     decimal.Zero,
			}
			byClient[entry.ClientID] = row
		}
		row.Entries++
		row.Minutes += entry.DurationMinutes
		row.Amount = row.Amount.Add(entry.Amount)

		total, ok := byCurrency[row.Currency]
		if !ok {
			total = &CurrencyTotal{Currency: row.Currency, Amount: decimal.Zero}
			byCurrency[row.Currency] = total
		}
		total.Minutes += entry.DurationMinutes
		total.Amount = total.Amount.Add(entry.Amount)

		summary.TotalMinutes += entry.DurationMinutes
	}

	for _, row := range byClient {
		row.Amount = timecalc.RoundCurrency(row.Amount)
		summary.Clients = append(summary.Clients, *row)
	}
	sort.Slice(summary.Clients, func(i, j int) bool {
		a, b := summary.Clients[i], summary.Clients[j]
		if a.Minutes != b.Minutes {
			return a.Minutes > b.Minutes
		}
		return a.ClientName < b.ClientName
	})

	for _, total := range byCurrency {
		total.Amount = timecalc.RoundCurrency(total.Amount)
		summary.Totals = append(summary.Totals, *total)
	}
	sort.Slice(summary.Totals, func(i, j int) bool {
		return summary.Totals[i].Currency < summary.Totals[j].Currency
	})
	return summary
}

// Total returns the amount billed in currency, zero when nothing was.
func (s Summary) Total(currency string) decimal.Decimal {
	for _, t := range s.Totals {
		if t.Currency == currency {
			return t.Amount
		}
	}
	return decimal.Zero
}

// TimesheetRow holds one client's minutes per day of the week.
type TimesheetRow struct {
	ClientName string
	Minutes    [7]int
	Total      int
}

// Timesheet is a week of tracked minutes, columns ordered from the week start.
type Timesheet struct {
	WeekStart time.Time
	Days      [7]time.Weekday
	Rows      []TimesheetRow
	DayTotals [7]int
	Total     int
}

// BuildTimesheet lays out entries of the week containing day. Entries
// starting outside that week are skipped.
func BuildTimesheet(entries []models.TimeEntry, day time.Time, weekStart time.Weekday) Timesheet {
	sheet := Timesheet{WeekStart: timecalc.StartOfWeek(day, weekStart)}
	weekEnd := timecalc.EndOfWeek(day, weekStart)
	for i := range sheet.Days {
		sheet.Days[i] = time.Weekday((int(weekStart) + i) % 7)
	}

	rows := make(map[string]*TimesheetRow)
	var order []string
	for _, entry := range entries {
		start := entry.StartTime.In(sheet.WeekStart.Location())
		if start.Before(sheet.WeekStart) || start.After(weekEnd) {
			continue
		}
		key := entry.ClientID
		row, ok := rows[key]
		if !ok {
			row = &TimesheetRow{ClientName: clientName(entry)}
			rows[key] = row
			order = append(order, key)
		}
		col := (int(start.Weekday()) - int(weekStart) + 7) % 7
		row.Minutes[col] += entry.DurationMinutes
		row.Total += entry.DurationMinutes
		sheet.DayTotals[col] += entry.DurationMinutes
		sheet.Total += entry.DurationMinutes
	}

	for _, key := range order {
		sheet.Rows = append(sheet.Rows, *rows[key])
	}
	sort.SliceStable(sheet.Rows, func(i, j int) bool {
		return sheet.Rows[i].ClientName < sheet.Rows[j].ClientName
	})
	return sheet
}

func clientName(entry models.TimeEntry) string {
	if entry.Client.Name != "" {
		return entry.Client.Name
	}
	if len(entry.ClientID) > 8 {
		return entry.ClientID[:8]
	}
	return entry.ClientID
}
