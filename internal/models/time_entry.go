package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry is one committed timer session. Rows are written once and not
// edited by the timer.
type TimeEntry struct {
	Record

	ClientID          string          `gorm:"index;not null;size:36" json:"client_id"`
	ProjectID         *string         `gorm:"index;size:36" json:"project_id,omitempty"`
	StartTime         time.Time       `gorm:"index;not null" json:"start_time"`
	EndTime           time.Time       `gorm:"not null" json:"end_time"`
	DurationMinutes   int             `gorm:"not null" json:"duration_minutes"`
	RoundingIncrement int             `json:"rounding_increment"`
	HourlyRate        decimal.Decimal `gorm:"type:decimal(12,2)" json:"hourly_rate"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Notes             string          `json:"notes,omitempty"`

	// Relationships
	Client  Client   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Project *Project `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
}

// UserSettings stores per-owner overrides of the file configuration.
// Nil fields fall back to the config file.
type UserSettings struct {
	OwnerID           string           `gorm:"primarykey" json:"owner_id"`
	UpdatedAt         time.Time        `json:"updated_at"`
	RoundingIncrement *int             `json:"rounding_increment,omitempty"`
	IdleThresholdSecs *int             `json:"idle_threshold_seconds,omitempty"`
	DefaultRate       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"default_rate,omitempty"`
	WeekStart         *int             `json:"week_start,omitempty"`
}
