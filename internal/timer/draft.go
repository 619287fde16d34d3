package timer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is the computed, not yet persisted result of a finished session.
// It is passed by value so a retained draft cannot be changed by callers.
type Draft struct {
	ClientRef         string
	ProjectRef        string
	StartTime         time.Time
	EndTime           time.Time
	RawMinutes        int
	DurationMinutes   int
	RoundingIncrement int
	HourlyRate        decimal.Decimal
	// Amount is already rounded to cents.
	Amount decimal.Decimal
	Notes  string
}

// Committer persists a draft as a time entry and returns its id.
type Committer interface {
	Commit(ctx context.Context, draft Draft) (string, error)
}

// CommitterFunc adapts a function to Committer.
type CommitterFunc func(ctx context.Context, draft Draft) (string, error)

func (f CommitterFunc) Commit(ctx context.Context, draft Draft) (string, error) {
	return f(ctx, draft)
}
