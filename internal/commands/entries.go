package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/Slouths/TimeTracker-sub001/internal/db"
	"github.com/Slouths/TimeTracker-sub001/internal/models"
	"github.com/Slouths/TimeTracker-sub001/internal/report"
	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"log"},
	Short:   "List saved time entries",
	Long: `List saved time entries for a period, oldest first.

Periods: today, yesterday, week, last-week, month, last-month, dd/mm/yyyy
or dd/mm/yyyy-dd/mm/yyyy.

Examples:
  timetracker entries
  timetracker entries --period last-month --client Acme
  timetracker entries --period 01/03/2025-15/03/2025 --json`,
	Args: cobra.NoArgs,
	RunE: withDB(runEntries),
}

// entryOutput is the JSON shape of one listed entry.
type entryOutput struct {
	models.TimeEntry
	ClientName  string `json:"client_name"`
	ProjectName string `json:"project_name,omitempty"`
}

func runEntries(cmd *cobra.Command, args []string, env *environment) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	periodInput, _ := flags.GetString("period")
	period, err := report.ParsePeriod(periodInput, time.Now(), env.cfg.WeekStart)
	if err != nil {
		return err
	}

	filter := db.EntryFilter{From: period.From, To: period.To}
	filter.Limit, _ = flags.GetInt("limit")
	if ref, _ := flags.GetString("client"); ref != "" {
		client, err := env.store.FindClient(ctx, ref)
		if err != nil {
			return fmt.Errorf("client %q: %w", ref, err)
		}
		filter.ClientID = client.ID
	}

	entries, err := env.store.ListEntries(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		out := make([]entryOutput, 0, len(entries))
		for _, e := range entries {
			row := entryOutput{TimeEntry: e, ClientName: e.Client.Name}
			if e.Project != nil {
				row.ProjectName = e.Project.Name
			}
			out = append(out, row)
		}
		return writeJSON(env.out, out)
	}

	if len(entries) == 0 {
		fmt.Fprintf(env.out, "No time tracked for %s.\n", period.Label)
		return nil
	}

	rows := make([][]string, 0, len(entries)+1)
	for _, e := range entries {
		project := ""
		if e.Project != nil {
			project = e.Project.Name
		}
		rows = append(rows, []string{
			e.StartTime.Local().Format("Mon 02 Jan"),
			e.StartTime.Local().Format("15:04") + "-" + e.EndTime.Local().Format("15:04"),
			e.Client.Name,
			project,
			timecalc.FormatMinutes(e.DurationMinutes),
			e.Amount.StringFixed(2) + " " + e.Client.Currency,
			truncate(e.Notes, 30),
		})
	}
	for _, total := range report.Summarize(period, entries).Totals {
		rows = append(rows, []string{
			"Total", "", "", "",
			timecalc.FormatMinutes(total.Minutes),
			total.Amount.StringFixed(2) + " " + total.Currency,
			"",
		})
	}

	fmt.Fprintln(env.out, period.Label)
	printTable(env.out, []string{"DATE", "TIME", "CLIENT", "PROJECT", "DURATION", "AMOUNT", "NOTES"}, rows, true)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	entriesCmd.Flags().String("period", "week", "Period to list")
	entriesCmd.Flags().StringP("client", "c", "", "Only this client (id or name)")
	entriesCmd.Flags().Int("limit", 0, "Show only the latest N entries (0 = all)")
	entriesCmd.Flags().Bool("json", false, "Print JSON")
}
