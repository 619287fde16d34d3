package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Slouths/TimeTracker-sub001/internal/config"
	"github.com/Slouths/TimeTracker-sub001/internal/db"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	dbPath     string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "timetracker",
	Short: "Track billable time per client from the terminal",
	Long: `timetracker runs a timer against a client, handles pauses and idle time,
and saves each session as a billable time entry priced at the client's rate.

Examples:
  timetracker client add Acme --rate 90
  timetracker start Acme --round 15
  timetracker report --period last-week`,
	SilenceUsage: true,
}

// environment is what a command needs once config and database are open.
type environment struct {
	cfg     config.Config
	manager *config.Manager
	logger  *log.Logger
	db      *gorm.DB
	store   *db.Store
	out     io.Writer
}

func (e *environment) close() {
	if err := db.Close(e.db); err != nil {
		e.logger.Warn("closing database", "err", err)
	}
}

// loadConfig reads the config file named by --config (or the default one).
func loadConfig() (*config.Manager, config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, config.Config{}, err
		}
	}
	manager := config.NewManager(path)
	cfg, err := manager.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if debug {
		cfg.LogLevel = log.DebugLevel
	}
	return manager, cfg, nil
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "timetracker",
		ReportTimestamp: level <= log.DebugLevel,
	})
}

// withDB wraps a command function to load config and open the database
// first. Per-user settings stored in the database override the file.
func withDB(fn func(cmd *cobra.Command, args []string, env *environment) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		manager, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

		conn, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		env := &environment{
			manager: manager,
			logger:  logger,
			db:      conn,
			store:   db.NewStore(conn, cfg.OwnerID, logger),
			out:     cmd.OutOrStdout(),
		}
		defer env.close()

		settings, err := env.store.LoadSettings(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load user settings: %w", err)
		}
		env.cfg = cfg.WithOverrides(settings)
		logger.Debug("environment ready", "db", cfg.DatabasePath, "owner", cfg.OwnerID)

		return fn(cmd, args, env)
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "timetracker %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/timetracker/timetracker.yml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file, overrides database_path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(timesheetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
