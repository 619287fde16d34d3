package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Slouths/TimeTracker-sub001/internal/db"
	"github.com/Slouths/TimeTracker-sub001/internal/report"
	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize billable time per client",
	Long: `Summarize tracked minutes and billable amounts per client for a period.

Examples:
  timetracker report
  timetracker report --period last-month --json`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		periodInput, _ := cmd.Flags().GetString("period")
		period, err := report.ParsePeriod(periodInput, time.Now(), env.cfg.WeekStart)
		if err != nil {
			return err
		}

		entries, err := env.store.ListEntries(cmd.Context(), db.EntryFilter{From: period.From, To: period.To})
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		summary := report.Summarize(period, entries)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(env.out, summary)
		}

		if len(summary.Clients) == 0 {
			fmt.Fprintf(env.out, "No time tracked for %s.\n", period.Label)
			return nil
		}

		rows := make([][]string, 0, len(summary.Clients)+1)
		for _, c := range summary.Clients {
			rows = append(rows, []string{
				c.ClientName,
				strconv.Itoa(c.Entries),
				timecalc.FormatMinutes(c.Minutes),
				c.Amount.StringFixed(2) + " " + c.Currency,
			})
		}
		for _, total := range summary.Totals {
			rows = append(rows, []string{
				"Total",
				"",
				timecalc.FormatMinutes(total.Minutes),
				total.Amount.StringFixed(2) + " " + total.Currency,
			})
		}

		fmt.Fprintln(env.out, period.Label)
		printTable(env.out, []string{"CLIENT", "ENTRIES", "TIME", "AMOUNT"}, rows, true)
		return nil
	}),
}

var timesheetCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Show this week's time per client and day",
	Long: `Show a weekly timesheet of tracked time grouped by client and day.

Example output:
  CLIENT   Sun  Mon    Tue    Wed  Thu  Fri  Sat  Total
  Acme     -    2h 00m 1h 30m -    -    -    -    3h 30m
  Total    -    2h 00m 1h 30m -    -    -    -    3h 30m`,
	Args: cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		day := time.Now()
		if input, _ := cmd.Flags().GetString("week"); input != "" {
			period, err := report.ParsePeriod(input, day, env.cfg.WeekStart)
			if err != nil {
				return err
			}
			day = period.From
		}

		weekStart := timecalc.StartOfWeek(day, env.cfg.WeekStart)
		entries, err := env.store.ListEntries(cmd.Context(), db.EntryFilter{
			From: weekStart,
			To:   timecalc.EndOfWeek(day, env.cfg.WeekStart),
		})
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		if len(entries) == 0 {
			fmt.Fprintln(env.out, "No time tracked this week.")
			return nil
		}

		sheet := report.BuildTimesheet(entries, day, env.cfg.WeekStart)
		headers := []string{"CLIENT"}
		for _, d := range sheet.Days {
			headers = append(headers, d.String()[:3])
		}
		headers = append(headers, "Total")

		rows := make([][]string, 0, len(sheet.Rows)+1)
		for _, r := range sheet.Rows {
			row := []string{truncate(r.ClientName, 30)}
			for _, m := range r.Minutes {
				row = append(row, sheetCell(m))
			}
			rows = append(rows, append(row, sheetCell(r.Total)))
		}
		total := []string{"Total"}
		for _, m := range sheet.DayTotals {
			total = append(total, sheetCell(m))
		}
		rows = append(rows, append(total, sheetCell(sheet.Total)))

		printTable(env.out, headers, rows, true)
		fmt.Fprintf(env.out, "Week of %s to %s\n",
			sheet.WeekStart.Format("Jan 2"),
			sheet.WeekStart.AddDate(0, 0, 6).Format("Jan 2, 2006"))
		return nil
	}),
}

func sheetCell(minutes int) string {
	if minutes == 0 {
		return "-"
	}
	return timecalc.FormatMinutes(minutes)
}

func init() {
	reportCmd.Flags().String("period", "week", "Period to summarize")
	reportCmd.Flags().Bool("json", false, "Print JSON")
	timesheetCmd.Flags().String("week", "", "Any period inside the week to show, e.g. last-week or 03/03/2025")
}
