package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Slouths/TimeTracker-sub001/internal/config"
	"github.com/Slouths/TimeTracker-sub001/internal/models"
	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		cfg := env.cfg
		effective := map[string]string{
			config.KeyDatabasePath:      cfg.DatabasePath,
			config.KeyOwnerID:           cfg.OwnerID,
			config.KeyIdleThreshold:     cfg.IdleThreshold.String(),
			config.KeyRoundingIncrement: strconv.Itoa(cfg.RoundingIncrement),
			config.KeyDefaultRate:       cfg.DefaultRate.StringFixed(2),
			config.KeyCurrency:          cfg.Currency,
			config.KeyWeekStart:         fmt.Sprintf("%d (%s)", int(cfg.WeekStart), cfg.WeekStart),
			config.KeyLogLevel:          cfg.LogLevel.String(),
		}

		fmt.Fprintf(env.out, "Config file: %s\n", env.manager.Path())
		rows := make([][]string, 0, len(effective))
		for _, key := range config.Keys() {
			rows = append(rows, []string{key, effective[key]})
		}
		printTable(env.out, []string{"KEY", "VALUE"}, rows, false)
		return nil
	}),
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration value",
	Long: `Change a configuration value in the config file, or with --user store it
as a setting of the current owner in the database.

Keys: ` + strings.Join(config.Keys(), ", ") + `

Examples:
  timetracker config set rounding_increment 15
  timetracker config set idle_threshold 10m --user`,
	Args: cobra.ExactArgs(2),
	RunE: withDB(func(cmd *cobra.Command, args []string, env *environment) error {
		key, value := args[0], strings.TrimSpace(args[1])

		if user, _ := cmd.Flags().GetBool("user"); user {
			settings, err := env.store.LoadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if err := applyUserSetting(settings, key, value); err != nil {
				return err
			}
			if err := env.store.SaveSettings(cmd.Context(), settings); err != nil {
				return fmt.Errorf("failed to save user settings: %w", err)
			}
			fmt.Fprintf(env.out, "✅ Set %s = %s for %s\n", key, value, env.store.Owner())
			return nil
		}

		if err := env.manager.Set(key, value); err != nil {
			return err
		}
		fmt.Fprintf(env.out, "✅ Set %s = %s in %s\n", key, value, env.manager.Path())
		return nil
	}),
}

// applyUserSetting validates value and stores it on settings. Only the keys
// a user may override are accepted.
func applyUserSetting(settings *models.UserSettings, key, value string) error {
	switch key {
	case config.KeyRoundingIncrement:
		inc, err := strconv.Atoi(value)
		if err != nil || !timecalc.ValidIncrement(inc) {
			return fmt.Errorf("%s must be one of %v", key, timecalc.Increments)
		}
		settings.RoundingIncrement = &inc
	case config.KeyIdleThreshold:
		d, err := time.ParseDuration(value)
		if err != nil || d < time.Second {
			return fmt.Errorf("%s must be a duration of at least 1s, e.g. 5m", key)
		}
		secs := int(d / time.Second)
		settings.IdleThresholdSecs = &secs
	case config.KeyDefaultRate:
		rate, err := decimal.NewFromString(value)
		if err != nil || rate.IsNegative() {
			return fmt.Errorf("%s must be a non-negative amount", key)
		}
		settings.DefaultRate = &rate
	case config.KeyWeekStart:
		day, err := strconv.Atoi(value)
		if err != nil || day < 0 || day > 6 {
			return fmt.Errorf("%s must be 0 (Sunday) to 6 (Saturday)", key)
		}
		settings.WeekStart = &day
	default:
		return fmt.Errorf("%s cannot be set per user", key)
	}
	return nil
}

func init() {
	configSetCmd.Flags().Bool("user", false, "Store as a per-user setting in the database")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
