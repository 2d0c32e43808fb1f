package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/sponsors/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	// Open database connection
	db, err := sqlx.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// Every connection to :memory: is a separate database
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// withForeignKeys appends the foreign key pragma to the DSN query string.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Sponsor Operations
// =============================================================================

// sponsorRow represents a sponsor row in the database.
type sponsorRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	CoopDuration string `db:"coop_duration"`
	ImageURL     string `db:"image_url"`
	WebsiteURL   string `db:"website_url"`
	SponsorClass string `db:"sponsor_class"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (s *SQLiteStore) CreateSponsor(ctx context.Context, sponsor *domain.Sponsor) error {
	query := `
		INSERT INTO sponsors (
			id, name, coop_duration, image_url, website_url, sponsor_class,
			created_at, updated_at
		) VALUES (
			:id, :name, :coop_duration, :image_url, :website_url, :sponsor_class,
			:created_at, :updated_at
		)`

	row := map[string]any{
		"id":            sponsor.ID,
		"name":          sponsor.Name,
		"coop_duration": string(sponsor.CoopDuration),
		"image_url":     sponsor.ImageURL,
		"website_url":   sponsor.WebsiteURL,
		"sponsor_class": string(sponsor.Class),
		"created_at":    sponsor.CreatedAt.Format(time.RFC3339),
		"updated_at":    sponsor.UpdatedAt.Format(time.RFC3339),
	}

	_, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: sponsors.name") {
			return NewStoreError("CreateSponsor", "sponsor", sponsor.Name, "sponsor with this name already exists", ErrDuplicateName)
		}
		if strings.Contains(err.Error(), "CHECK constraint failed") {
			return NewStoreError("CreateSponsor", "sponsor", sponsor.Name, err.Error(), ErrInvalidData)
		}
		return NewStoreError("CreateSponsor", "sponsor", sponsor.Name, err.Error(), err)
	}

	return nil
}

func (s *SQLiteStore) GetSponsorByName(ctx context.Context, name string) (*domain.Sponsor, error) {
	query := `SELECT * FROM sponsors WHERE name = ?`

	var row sponsorRow
	err := s.db.GetContext(ctx, &row, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetSponsorByName", "sponsor", name, "sponsor not found", ErrNotFound)
		}
		return nil, NewStoreError("GetSponsorByName", "sponsor", name, err.Error(), err)
	}

	return rowToSponsor(&row)
}

func (s *SQLiteStore) ListSponsors(ctx context.Context) ([]domain.Sponsor, error) {
	return s.selectSponsors(ctx, "ListSponsors", `SELECT * FROM sponsors ORDER BY name`)
}

func (s *SQLiteStore) ListSponsorsByClass(ctx context.Context, class domain.SponsorClass) ([]domain.Sponsor, error) {
	return s.selectSponsors(ctx, "ListSponsorsByClass",
		`SELECT * FROM sponsors WHERE sponsor_class = ? ORDER BY name`, string(class))
}

func (s *SQLiteStore) ListSponsorsByDuration(ctx context.Context, duration domain.CoopDuration) ([]domain.Sponsor, error) {
	return s.selectSponsors(ctx, "ListSponsorsByDuration",
		`SELECT * FROM sponsors WHERE coop_duration = ? ORDER BY name`, string(duration))
}

func (s *SQLiteStore) selectSponsors(ctx context.Context, op, query string, args ...any) ([]domain.Sponsor, error) {
	var rows []sponsorRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError(op, "sponsor", "", err.Error(), err)
	}

	sponsors := make([]domain.Sponsor, 0, len(rows))
	for _, row := range rows {
		sponsor, err := rowToSponsor(&row)
		if err != nil {
			return nil, err
		}
		sponsors = append(sponsors, *sponsor)
	}

	return sponsors, nil
}

// UpdateSponsor only touches the row when at least one patched column differs,
// so the affected-row count is a modified count.
func (s *SQLiteStore) UpdateSponsor(ctx context.Context, name string, patch domain.SponsorPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}

	var sets, diffs []string
	var setArgs, diffArgs []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		setArgs = append(setArgs, value)
		diffs = append(diffs, column+" IS NOT ?")
		diffArgs = append(diffArgs, value)
	}

	if patch.CoopDuration != nil {
		add("coop_duration", string(*patch.CoopDuration))
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.WebsiteURL != nil {
		add("website_url", *patch.WebsiteURL)
	}
	if patch.Class != nil {
		add("sponsor_class", string(*patch.Class))
	}

	sets = append(sets, "updated_at = ?")
	setArgs = append(setArgs, time.Now().UTC().Format(time.RFC3339))

	query := fmt.Sprintf(`UPDATE sponsors SET %s WHERE name = ? AND (%s)`,
		strings.Join(sets, ", "), strings.Join(diffs, " OR "))
	args := append(append(setArgs, name), diffArgs...)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "CHECK constraint failed") {
			return false, NewStoreError("UpdateSponsor", "sponsor", name, err.Error(), ErrInvalidData)
		}
		return false, NewStoreError("UpdateSponsor", "sponsor", name, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

func (s *SQLiteStore) DeleteSponsorByName(ctx context.Context, name string) (bool, error) {
	query := `DELETE FROM sponsors WHERE name = ?`

	result, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return false, NewStoreError("DeleteSponsorByName", "sponsor", name, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// =============================================================================
// Row Conversion
// =============================================================================

// rowToSponsor converts a database row to a domain.Sponsor.
func rowToSponsor(row *sponsorRow) (*domain.Sponsor, error) {
	duration, err := domain.ParseCoopDuration(row.CoopDuration)
	if err != nil {
		return nil, NewStoreError("rowToSponsor", "sponsor", row.Name, "failed to parse coop duration", ErrInvalidData)
	}
	class, err := domain.ParseSponsorClass(row.SponsorClass)
	if err != nil {
		return nil, NewStoreError("rowToSponsor", "sponsor", row.Name, "failed to parse sponsor class", ErrInvalidData)
	}

	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return &domain.Sponsor{
		ID:           row.ID,
		Name:         row.Name,
		CoopDuration: duration,
		ImageURL:     row.ImageURL,
		WebsiteURL:   row.WebsiteURL,
		Class:        class,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}
