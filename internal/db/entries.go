package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Slouths/TimeTracker-sub001/internal/models"
	"github.com/Slouths/TimeTracker-sub001/internal/timer"
)

// CreateEntry inserts one time entry for draft and returns its id. The
// client (and project, if any) must belong to the store's owner.
func (s *Store) CreateEntry(ctx context.Context, draft timer.Draft) (string, error) {
	client, err := s.GetClient(ctx, draft.ClientRef)
	if err != nil {
		return "", fmt.Errorf("client %s: %w", draft.ClientRef, err)
	}

	entry := models.TimeEntry{
		Record:            models.Record{OwnerID: s.owner},
		ClientID:          client.ID,
		StartTime:         draft.StartTime,
		EndTime:           draft.EndTime,
		DurationMinutes:   draft.DurationMinutes,
		RoundingIncrement: draft.RoundingIncrement,
		HourlyRate:        draft.HourlyRate,
		Amount:            draft.Amount,
		Notes:             draft.Notes,
	}

	if draft.ProjectRef != "" {
		project, err := findOwned[models.Project](ctx, s, draft.ProjectRef)
		if err != nil {
			return "", fmt.Errorf("project %s: %w", draft.ProjectRef, err)
		}
		if project.ClientID != client.ID {
			return "", fmt.Errorf("project %s does not belong to client %s", project.Name, client.Name)
		}
		entry.ProjectID = &project.ID
	}

	if err := s.db.WithContext(ctx).Omit("Client", "Project").Create(&entry).Error; err != nil {
		return "", fmt.Errorf("insert time entry: %w", err)
	}
	s.logger.Debug("time entry created", "id", entry.ID, "client", client.Name, "minutes", entry.DurationMinutes)
	return entry.ID, nil
}

// EntryCommitter persists timer drafts through a Store.
type EntryCommitter struct {
	store *Store
}

var _ timer.Committer = (*EntryCommitter)(nil)

func NewEntryCommitter(store *Store) *EntryCommitter {
	return &EntryCommitter{store: store}
}

// Commit writes exactly one entry per call. Ownership failures are reported
// as unauthorized, missing clients or projects as rejected, everything else
// as transient.
func (c *EntryCommitter) Commit(ctx context.Context, draft timer.Draft) (string, error) {
	id, err := c.store.CreateEntry(ctx, draft)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, ErrUnauthorized) {
		return "", timer.NewPersistError(timer.PersistUnauthorized, err)
	}
	if errors.Is(err, ErrNotFound) {
		return "", timer.NewPersistError(timer.PersistRejected, err)
	}
	return "", timer.NewPersistError(timer.PersistTransient, err)
}

// EntryFilter narrows ListEntries. Zero values do not filter.
type EntryFilter struct {
	From     time.Time
	To       time.Time
	ClientID string
	Limit    int
}

// ListEntries returns the owner's entries whose start falls in the filter
// range, oldest first. With a limit only the latest entries are kept.
func (s *Store) ListEntries(ctx context.Context, filter EntryFilter) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry

	q := s.scoped(ctx)
	if !filter.From.IsZero() {
		q = q.Where("start_time >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("start_time <= ?", filter.To)
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	order := "start_time ASC"
	if filter.Limit > 0 {
		order = "start_time DESC"
		q = q.Limit(filter.Limit)
	}

	err := q.Preload("Client").
		Preload("Project").
		Order(order).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	if filter.Limit > 0 {
		slices.Reverse(entries)
	}
	return entries, nil
}
