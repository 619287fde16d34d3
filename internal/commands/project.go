package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage a client's projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <client> <name>",
	Short: "Add a project to a client",
	Long: `Add a project to a client. Without --rate the project bills at the
client's rate.

Example:
  timetracker project add Acme Website --rate 110`,
	Args: cobra.ExactArgs(2),
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		rate, err := parseRateFlag(cmd)
		if err != nil {
			return err
		}
		project, err := env.store.CreateProject(cmd.Context(), args[0], args[1], rate)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out, "✅ Added project %s (%s)\n", project.Name, shortID(project.ID))
		return nil
	}),
}

var projectListCmd = &cobra.Command{
	Use:     "ls <client>",
	Aliases: []string{"list"},
	Short:   "List a client's projects",
	Args:    cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		ctx := cmd.Context()
		client, err := env.store.FindClient(ctx, args[0])
		if err != nil {
			return fmt.Errorf("client %q: %w", args[0], err)
		}
		projects, err := env.store.ListProjects(ctx, client.ID)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		if len(projects) == 0 {
			fmt.Fprintf(env.out, "%s has no projects.\n", client.Name)
			return nil
		}

		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rate := "client rate"
			if p.HourlyRate.IsPositive() {
				rate = p.HourlyRate.StringFixed(2) + " " + client.Currency
			}
			rows = append(rows, []string{shortID(p.ID), p.Name, rate})
		}
		printTable(env.out, []string{"ID", "PROJECT", "RATE"}, rows, false)
		return nil
	}),
}

func init() {
	projectAddCmd.Flags().String("rate", "", "Hourly rate (default: the client's)")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
}
