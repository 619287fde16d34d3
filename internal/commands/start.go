package commands

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Slouths/TimeTracker-sub001/internal/db"
	"github.com/Slouths/TimeTracker-sub001/internal/idle"
	"github.com/Slouths/TimeTracker-sub001/internal/models"
	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
	"github.com/Slouths/TimeTracker-sub001/internal/timer"
	"github.com/Slouths/TimeTracker-sub001/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start <client>",
	Short: "Start the timer for a client",
	Long: `Start an interactive timer for a client (id, id prefix or name).

The session is billed at the project's rate, else the client's rate, else
default_rate. Stopping rounds the active minutes up to the rounding increment
and saves one time entry.

Examples:
  timetracker start Acme
  timetracker start Acme --project Website --round 15
  timetracker start 3f2a --rate 120 --notes "on-site workshop"`,
	Args: cobra.ExactArgs(1),
	RunE: withDB(runStart),
}

func runStart(cmd *cobra.Command, args []string, env *environment) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	client, err := env.store.FindClient(ctx, args[0])
	if err != nil {
		return fmt.Errorf("client %q: %w", args[0], err)
	}
	if client.Archived {
		return fmt.Errorf("client %q is archived", client.Name)
	}

	var project *models.Project
	if ref, _ := flags.GetString("project"); ref != "" {
		if project, err = env.store.FindProject(ctx, client.ID, ref); err != nil {
			return fmt.Errorf("project %q: %w", ref, err)
		}
	}

	rate := db.ResolveRate(client, project, env.cfg.DefaultRate)
	if flags.Changed("rate") {
		raw, _ := flags.GetString("rate")
		if rate, err = decimal.NewFromString(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("invalid --rate %q: %w", raw, err)
		}
	}
	if rate.IsNegative() {
		return fmt.Errorf("hourly rate must not be negative")
	}

	increment := env.cfg.RoundingIncrement
	if flags.Changed("round") {
		increment, _ = flags.GetInt("round")
	}
	if !timecalc.ValidIncrement(increment) {
		return fmt.Errorf("invalid --round %d, use one of %v", increment, timecalc.Increments)
	}

	// Log lines would corrupt the full-screen timer, so the session logs to
	// a file or nowhere.
	sessionLogger := log.New(io.Discard)
	if path, _ := flags.GetString("log-file"); path != "" {
		f, err := tea.LogToFile(path, "timer")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		sessionLogger = newLogger(f, env.cfg.LogLevel)
	}

	store := db.NewStore(env.db, env.cfg.OwnerID, sessionLogger)
	detector := idle.New(env.cfg.IdleThreshold)
	defer detector.Stop()

	session := timer.NewSession(timer.WithDetector(detector), timer.WithLogger(sessionLogger))
	projectID, projectName := "", ""
	if project != nil {
		projectID, projectName = project.ID, project.Name
	}
	if err := session.Start(client.ID, projectID); err != nil {
		return err
	}
	if notes, _ := flags.GetString("notes"); notes != "" {
		if err := session.SetNotes(strings.TrimSpace(notes)); err != nil {
			return err
		}
	}

	result, err := tui.RunTimerTUI(tui.TimerOptions{
		Session:     session,
		Detector:    detector,
		Committer:   db.NewEntryCommitter(store),
		ClientName:  client.Name,
		ProjectName: projectName,
		Currency:    client.Currency,
		Rate:        rate,
		Increment:   increment,
	})
	if err != nil {
		return err
	}

	return printTimerResult(env.out, client, result)
}

func printTimerResult(w io.Writer, client *models.Client, result tui.TimerResult) error {
	draft := result.Draft
	switch {
	case result.Committed:
		fmt.Fprintf(w, "⏹️  Saved %s for %s (entry %s)\n", timecalc.FormatMinutes(draft.DurationMinutes), client.Name, shortID(result.EntryID))
		fmt.Fprintf(w, "💰 %s %s at %s/h", draft.Amount.StringFixed(2), client.Currency, draft.HourlyRate.StringFixed(2))
		if draft.RoundingIncrement > 0 && draft.RawMinutes != draft.DurationMinutes {
			fmt.Fprintf(w, " (tracked %s, rounded to %d min)", timecalc.FormatMinutes(draft.RawMinutes), draft.RoundingIncrement)
		}
		fmt.Fprintln(w)
	case result.Discarded:
		fmt.Fprintf(w, "🗑️  Discarded unsaved entry for %s: %s to %s, %s, %s %s\n",
			client.Name,
			draft.StartTime.Format("15:04"), draft.EndTime.Format("15:04"),
			timecalc.FormatMinutes(draft.DurationMinutes),
			draft.Amount.StringFixed(2), client.Currency)
		if result.LastErr != nil {
			return fmt.Errorf("entry was not saved: %w", result.LastErr)
		}
	case result.Cancelled:
		fmt.Fprintln(w, "Timer cancelled, nothing was saved.")
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	startCmd.Flags().StringP("project", "p", "", "Project of the client (id or name)")
	startCmd.Flags().String("rate", "", "Hourly rate for this session, overrides the client's")
	startCmd.Flags().Int("round", 0, "Round up to 0, 5, 10, 15 or 30 minutes (default rounding_increment)")
	startCmd.Flags().StringP("notes", "n", "", "Notes for the entry")
	startCmd.Flags().String("log-file", "", "Write session logs to this file")
}
