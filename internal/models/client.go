package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Record holds the columns every owned row carries.
type Record struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	OwnerID   string    `gorm:"index;not null" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Client represents a billing client
type Client struct {
	Record
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name       string          `gorm:"not null" json:"name"`
	Email      string          `json:"email"`
	HourlyRate decimal.Decimal `gorm:"type:decimal(12,2)" json:"hourly_rate"`
	Currency   string          `gorm:"default:USD" json:"currency"`
	Archived   bool            `gorm:"default:false" json:"archived"`

	// Relationships
	Projects []Project `gorm:"foreignKey:ClientID" json:"projects,omitempty"`
}

// Project is an optional sub-division of a client's work. A zero rate
// inherits the client's rate.
type Project struct {
	Record
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClientID   string          `gorm:"index;not null;size:36" json:"client_id"`
	Name       string          `gorm:"not null" json:"name"`
	HourlyRate decimal.Decimal `gorm:"type:decimal(12,2)" json:"hourly_rate"`
	Archived   bool            `gorm:"default:false" json:"archived"`

	Client Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
