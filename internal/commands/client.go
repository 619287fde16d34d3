package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Slouths/TimeTracker-sub001/internal/db"
)

var clientCmd = &cobra.Command{
	Use:     "client",
	Aliases: []string{"clients"},
	Short:   "Manage billing clients",
}

var clientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a client",
	Long: `Add a client with an optional hourly rate.

Examples:
  timetracker client add Acme --rate 90
  timetracker client add "Globex Corp" --rate 120 --currency EUR --email ap@globex.example`,
	Args: cobra.MinimumNArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		rate, err := parseRateFlag(cmd)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		currency, _ := cmd.Flags().GetString("currency")
		if currency == "" {
			currency = env.cfg.Currency
		}

		client, err := env.store.CreateClient(cmd.Context(), db.ClientInput{
			Name:       strings.Join(args, " "),
			Email:      email,
			HourlyRate: rate,
			Currency:   currency,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out, "✅ Added client %s (%s) at %s %s/h\n",
			client.Name, shortID(client.ID), client.HourlyRate.StringFixed(2), client.Currency)
		return nil
	}),
}

var clientListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List clients",
	Args:    cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		all, _ := cmd.Flags().GetBool("all")
		clients, err := env.store.ListClients(cmd.Context(), all)
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}
		if len(clients) == 0 {
			fmt.Fprintln(env.out, "No clients yet. Use 'timetracker client add <name>' to create one.")
			return nil
		}

		rows := make([][]string, 0, len(clients))
		for _, c := range clients {
			status := "active"
			if c.Archived {
				status = "archived"
			}
			rows = append(rows, []string{
				shortID(c.ID), c.Name, c.Email,
				c.HourlyRate.StringFixed(2) + " " + c.Currency, status,
			})
		}
		printTable(env.out, []string{"ID", "NAME", "EMAIL", "RATE", "STATUS"}, rows, false)
		return nil
	}),
}

var clientArchiveCmd = &cobra.Command{
	Use:   "archive <id|name>",
	Short: "Archive a client; its entries are kept",
	Args:  cobra.ExactArgs(1),
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		client, err := env.store.ArchiveClient(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("client %q: %w", args[0], err)
		}
		fmt.Fprintf(env.out, "🗃️  Archived client %s (%s)\n", client.Name, shortID(client.ID))
		return nil
	}),
}

// parseRateFlag reads --rate as a non-negative decimal. Unset means zero.
func parseRateFlag(cmd *cobra.Command) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString("rate")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --rate %q: %w", raw, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("hourly rate must not be negative")
	}
	return rate, nil
}

func init() {
	clientAddCmd.Flags().String("rate", "", "Hourly rate")
	clientAddCmd.Flags().String("email", "", "Billing email")
	clientAddCmd.Flags().String("currency", "", "Currency code (default from config)")
	clientListCmd.Flags().BoolP("all", "a", false, "Include archived clients")

	clientCmd.AddCommand(clientAddCmd)
	clientCmd.AddCommand(clientListCmd)
	clientCmd.AddCommand(clientArchiveCmd)
}
