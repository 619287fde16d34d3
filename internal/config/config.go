package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Slouths/TimeTracker-sub001/internal/models"
	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
)

const (
	appName    = "timetracker"
	envPrefix  = "TIMETRACKER"
	configType = "yaml"
)

// Keys accepted by the config file and `config set`.
const (
	KeyDatabasePath      = "database_path"
	KeyOwnerID           = "owner_id"
	KeyIdleThreshold     = "idle_threshold"
	KeyRoundingIncrement = "rounding_increment"
	KeyDefaultRate       = "default_rate"
	KeyCurrency          = "currency"
	KeyWeekStart         = "week_start"
	KeyLogLevel          = "log_level"
)

// Config is the validated runtime configuration.
type Config struct {
	DatabasePath      string
	OwnerID           string
	IdleThreshold     time.Duration
	RoundingIncrement int
	DefaultRate       decimal.Decimal
	Currency          string
	WeekStart         time.Weekday
	LogLevel          log.Level
}

// Manager reads and writes one config file through its own viper instance.
type Manager struct {
	v    *viper.Viper
	path string
}

// DefaultPath returns $XDG_CONFIG_HOME/timetracker/timetracker.yml, falling
// back to the platform config directory under the user's home.
func DefaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting user home directory: %w", err)
		}
		if runtime.GOOS == "windows" {
			configHome = filepath.Join(homeDir, "AppData", "Roaming")
		} else {
			configHome = filepath.Join(homeDir, ".config")
		}
	}
	return filepath.Join(configHome, appName, appName+".yml"), nil
}

// NewManager prepares a Manager for path. Values may be overridden with
// TIMETRACKER_* environment variables.
func NewManager(path string) *Manager {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataDir := filepath.Join(filepath.Dir(path), "data")
	v.SetDefault(KeyDatabasePath, filepath.Join(dataDir, appName+".db"))
	v.SetDefault(KeyOwnerID, "local")
	v.SetDefault(KeyIdleThreshold, "5m")
	v.SetDefault(KeyRoundingIncrement, 0)
	v.SetDefault(KeyDefaultRate, "0")
	v.SetDefault(KeyCurrency, "USD")
	v.SetDefault(KeyWeekStart, 0)
	v.SetDefault(KeyLogLevel, "info")

	return &Manager{v: v, path: path}
}

func (m *Manager) Path() string {
	return m.path
}

// Load reads the file, creating it with defaults when missing, and returns
// the validated configuration.
func (m *Manager) Load() (Config, error) {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return Config{}, fmt.Errorf("error creating config directory: %w", err)
	}

	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if err := m.v.WriteConfigAs(m.path); err != nil {
				return Config{}, fmt.Errorf("error creating config file: %w", err)
			}
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return m.decode()
}

func (m *Manager) decode() (Config, error) {
	cfg := Config{
		DatabasePath:      m.v.GetString(KeyDatabasePath),
		OwnerID:           strings.TrimSpace(m.v.GetString(KeyOwnerID)),
		RoundingIncrement: m.v.GetInt(KeyRoundingIncrement),
		Currency:          strings.ToUpper(strings.TrimSpace(m.v.GetString(KeyCurrency))),
	}

	if cfg.OwnerID == "" {
		return Config{}, fmt.Errorf("%s must not be empty", KeyOwnerID)
	}

	threshold, err := time.ParseDuration(m.v.GetString(KeyIdleThreshold))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyIdleThreshold, err)
	}
	if threshold <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", KeyIdleThreshold)
	}
	cfg.IdleThreshold = threshold

	if !timecalc.ValidIncrement(cfg.RoundingIncrement) {
		return Config{}, fmt.Errorf("%s must be one of %v", KeyRoundingIncrement, timecalc.Increments)
	}

	rate, err := decimal.NewFromString(m.v.GetString(KeyDefaultRate))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyDefaultRate, err)
	}
	if rate.IsNegative() {
		return Config{}, fmt.Errorf("%s must not be negative", KeyDefaultRate)
	}
	cfg.DefaultRate = rate

	weekStart := m.v.GetInt(KeyWeekStart)
	if weekStart < 0 || weekStart > 6 {
		return Config{}, fmt.Errorf("%s must be between 0 (Sunday) and 6 (Saturday)", KeyWeekStart)
	}
	cfg.WeekStart = time.Weekday(weekStart)

	level, err := log.ParseLevel(m.v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

// Set validates and persists a single key.
func (m *Manager) Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}

	previous := m.v.Get(key)
	m.v.Set(key, value)
	if _, err := m.decode(); err != nil {
		m.v.Set(key, previous)
		return err
	}
	if err := m.v.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Settings returns every key with its effective value, for display.
func (m *Manager) Settings() map[string]any {
	out := make(map[string]any, len(Keys()))
	for _, key := range Keys() {
		out[key] = m.v.Get(key)
	}
	return out
}

// Keys lists the supported config keys in sorted order.
func Keys() []string {
	keys := []string{
		KeyDatabasePath, KeyOwnerID, KeyIdleThreshold, KeyRoundingIncrement,
		KeyDefaultRate, KeyCurrency, KeyWeekStart, KeyLogLevel,
	}
	sort.Strings(keys)
	return keys
}

func isKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// WithOverrides applies a user's stored settings on top of the file values.
// Invalid stored values are ignored.
func (c Config) WithOverrides(s *models.UserSettings) Config {
	if s == nil {
		return c
	}
	if s.RoundingIncrement != nil && timecalc.ValidIncrement(*s.RoundingIncrement) {
		c.RoundingIncrement = *s.RoundingIncrement
	}
	if s.IdleThresholdSecs != nil && *s.IdleThresholdSecs > 0 {
		c.IdleThreshold = time.Duration(*s.IdleThresholdSecs) * time.Second
	}
	if s.DefaultRate != nil && !s.DefaultRate.IsNegative() {
		c.DefaultRate = *s.DefaultRate
	}
	if s.WeekStart != nil && *s.WeekStart >= 0 && *s.WeekStart <= 6 {
		c.WeekStart = time.Weekday(*s.WeekStart)
	}
	return c
}
