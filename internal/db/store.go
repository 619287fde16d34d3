package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Slouths/TimeTracker-sub001/internal/models"
)

// Store reads and writes the records of a single owner. Rows of other owners
// are reported as ErrUnauthorized, never returned.
type Store struct {
	db     *gorm.DB
	owner  string
	logger *log.Logger
}

// NewStore binds db to ownerID. A nil logger discards output.
func NewStore(db *gorm.DB, ownerID string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{db: db, owner: ownerID, logger: logger}
}

// Owner returns the id every query is scoped to.
func (s *Store) Owner() string {
	return s.owner
}

func (s *Store) scoped(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Where("owner_id = ?", s.owner)
}

// findOwned loads the row with id, telling a missing row apart from one
// owned by someone else.
func findOwned[T any](ctx context.Context, s *Store, id string) (*T, error) {
	var rec T
	err := s.scoped(ctx).Where("id = ?", id).First(&rec).Error
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUnauthorized
	}
	return nil, ErrNotFound
}

// ClientInput holds the data needed to create a new client
type ClientInput struct {
	Name       string
	Email      string
	HourlyRate decimal.Decimal
	Currency   string
}

// CreateClient creates a new client for the store's owner
func (s *Store) CreateClient(ctx context.Context, in ClientInput) (*models.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("client name is required")
	}
	if in.HourlyRate.IsNegative() {
		return nil, fmt.Errorf("hourly rate must not be negative")
	}

	if existing, err := s.findClientByName(ctx, name); err == nil {
		return nil, fmt.Errorf("client %q already exists (%s)", existing.Name, shortID(existing.ID))
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}
	client := models.Client{
		Record:     models.Record{OwnerID: s.owner},
		Name:       name,
		Email:      strings.TrimSpace(in.Email),
		HourlyRate: in.HourlyRate,
		Currency:   currency,
	}
	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}
	s.logger.Debug("client created", "id", client.ID, "name", client.Name)
	return &client, nil
}

// ListClients returns the owner's clients ordered by name
func (s *Store) ListClients(ctx context.Context, includeArchived bool) ([]models.Client, error) {
	var clients []models.Client
	q := s.scoped(ctx)
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	if err := q.Order("name ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	return findOwned[models.Client](ctx, s, id)
}

// FindClient resolves a client by id, id prefix or case-insensitive name.
func (s *Store) FindClient(ctx context.Context, ref string) (*models.Client, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}

	client, err := s.GetClient(ctx, ref)
	if err == nil || errors.Is(err, ErrUnauthorized) {
		return client, err
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if client, err := s.findClientByName(ctx, ref); !errors.Is(err, ErrNotFound) {
		return client, err
	}

	var matches []models.Client
	if err := s.scoped(ctx).Where("id LIKE ?", ref+"%").Limit(2).Find(&matches).Error; err != nil {
		return nil, err
	}
	switch len(matches) {
	case 1:
		return &matches[0], nil
	case 0:
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("client reference %q is ambiguous", ref)
}

func (s *Store) findClientByName(ctx context.Context, name string) (*models.Client, error) {
	var client models.Client
	err := s.scoped(ctx).Where("LOWER(name) = LOWER(?)", name).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// ArchiveClient hides a client from the default listing. Entries stay.
func (s *Store) ArchiveClient(ctx context.Context, ref string) (*models.Client, error) {
	client, err := s.FindClient(ctx, ref)
	if err != nil {
		return nil, err
	}
	if client.Archived {
		return nil, fmt.Errorf("client %q is already archived", client.Name)
	}
	client.Archived = true
	if err := s.db.WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

// CreateProject adds a project under clientRef. A zero rate inherits the client's.
func (s *Store) CreateProject(ctx context.Context, clientRef, name string, rate decimal.Decimal) (*models.Project, error) {
	client, err := s.FindClient(ctx, clientRef)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("hourly rate must not be negative")
	}
	if _, err := s.FindProject(ctx, client.ID, name); err == nil {
		return nil, fmt.Errorf("project %q already exists for %s", name, client.Name)
	}

	project := models.Project{
		Record:     models.Record{OwnerID: s.owner},
		ClientID:   client.ID,
		Name:       name,
		HourlyRate: rate,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Store) ListProjects(ctx context.Context, clientID string) ([]models.Project, error) {
	var projects []models.Project
	err := s.scoped(ctx).
		Where("client_id = ? AND archived = ?", clientID, false).
		Order("name ASC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// FindProject resolves a project of clientID by id or case-insensitive name.
func (s *Store) FindProject(ctx context.Context, clientID, ref string) (*models.Project, error) {
	project, err := findOwned[models.Project](ctx, s, ref)
	switch {
	case err == nil:
		if project.ClientID != clientID {
			return nil, fmt.Errorf("project %q does not belong to this client", project.Name)
		}
		return project, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	var byName models.Project
	err = s.scoped(ctx).
		Where("client_id = ? AND LOWER(name) = LOWER(?)", clientID, strings.TrimSpace(ref)).
		First(&byName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &byName, nil
}

// ResolveRate picks the billing rate: the project's if set, else the
// client's if set, else fallback.
func ResolveRate(client *models.Client, project *models.Project, fallback decimal.Decimal) decimal.Decimal {
	if project != nil && project.HourlyRate.IsPositive() {
		return project.HourlyRate
	}
	if client != nil && client.HourlyRate.IsPositive() {
		return client.HourlyRate
	}
	return fallback
}

// LoadSettings returns the owner's overrides, empty when none were saved.
func (s *Store) LoadSettings(ctx context.Context) (*models.UserSettings, error) {
	settings := models.UserSettings{OwnerID: s.owner}
	err := s.db.WithContext(ctx).Where("owner_id = ?", s.owner).First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *models.UserSettings) error {
	settings.OwnerID = s.owner
	return s.db.WithContext(ctx).Save(settings).Error
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
