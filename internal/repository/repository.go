// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chittyos/trustengine/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("record already exists")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers. Computed trust scores
// are deliberately not persisted here; only the raw entity and event
// records the engine consumes.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveEntity upserts an entity with tenant isolation.
func (r *SQLRepository) SaveEntity(ctx context.Context, tenantID string, entity *domain.TrustEntity) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if err := entity.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	credentials, _ := json.Marshal(entity.Credentials)
	connections, _ := json.Marshal(entity.Connections)
	metadata, _ := json.Marshal(entity.Metadata)

	identityVerified := 0
	if entity.IdentityVerified {
		identityVerified = 1
	}

	query := `
		INSERT INTO entities (
			id, tenant_id, entity_type, name, created_at,
			identity_verified, credentials, connections,
			transparency_level, metadata, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			name = excluded.name,
			identity_verified = excluded.identity_verified,
			credentials = excluded.credentials,
			connections = excluded.connections,
			transparency_level = excluded.transparency_level,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		entity.ID, tenantID, entity.EntityType, entity.Name, entity.CreatedAt,
		identityVerified, string(credentials), string(connections),
		entity.TransparencyLevel, string(metadata), time.Now().UTC(),
	)
	return err
}

// GetEntity retrieves an entity by ID with tenant isolation.
func (r *SQLRepository) GetEntity(ctx context.Context, tenantID string, entityID string) (*domain.TrustEntity, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, entity_type, name, created_at, identity_verified,
			   credentials, connections, transparency_level, metadata
		FROM entities
		WHERE tenant_id = ? AND id = ?
	`

	var entity domain.TrustEntity
	var identityVerified int
	var credentials, connections, metadata string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, entityID).Scan(
		&entity.ID, &entity.EntityType, &entity.Name, &entity.CreatedAt,
		&identityVerified, &credentials, &connections,
		&entity.TransparencyLevel, &metadata,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entity.IdentityVerified = identityVerified == 1
	if credentials != "" {
		json.Unmarshal([]byte(credentials), &entity.Credentials)
	}
	if connections != "" {
		json.Unmarshal([]byte(connections), &entity.Connections)
	}
	if metadata != "" {
		json.Unmarshal([]byte(metadata), &entity.Metadata)
	}

	return &entity, nil
}

// SaveEvent appends an event with tenant isolation. Events are
// immutable; inserting an event with an existing ID fails with
// ErrDuplicate.
func (r *SQLRepository) SaveEvent(ctx context.Context, tenantID string, event *domain.TrustEvent) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	relatedEntities, _ := json.Marshal(event.RelatedEntities)
	tags, _ := json.Marshal(event.Tags)
	metadata, _ := json.Marshal(event.Metadata)

	query := `
		INSERT INTO events (
			id, tenant_id, entity_id, event_type, timestamp,
			channel, outcome, impact_score, related_entities,
			tags, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		event.ID, tenantID, event.EntityID, event.EventType, event.Timestamp,
		event.Channel, event.Outcome, event.ImpactScore, string(relatedEntities),
		string(tags), string(metadata), time.Now().UTC(),
	)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: event %s", ErrDuplicate, event.ID)
	}
	return err
}

// GetEventsByEntity retrieves all events for an entity in chronological
// order with tenant isolation.
func (r *SQLRepository) GetEventsByEntity(ctx context.Context, tenantID string, entityID string) ([]*domain.TrustEvent, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, entity_id, event_type, timestamp, channel,
			   outcome, impact_score, related_entities, tags, metadata
		FROM events
		WHERE tenant_id = ? AND entity_id = ?
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.TrustEvent
	for rows.Next() {
		var event domain.TrustEvent
		var channel sql.NullString
		var relatedEntities, tags, metadata string

		if err := rows.Scan(
			&event.ID, &event.EntityID, &event.EventType, &event.Timestamp, &channel,
			&event.Outcome, &event.ImpactScore, &relatedEntities, &tags, &metadata,
		); err != nil {
			return nil, err
		}

		event.Channel = channel.String
		if relatedEntities != "" {
			json.Unmarshal([]byte(relatedEntities), &event.RelatedEntities)
		}
		if tags != "" {
			json.Unmarshal([]byte(tags), &event.Tags)
		}
		if metadata != "" {
			json.Unmarshal([]byte(metadata), &event.Metadata)
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

// CountEventsByEntity counts events for an entity since a point in time
// with tenant isolation.
func (r *SQLRepository) CountEventsByEntity(ctx context.Context, tenantID string, entityID string, since time.Time) (int64, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT COUNT(*)
		FROM events
		WHERE tenant_id = ? AND entity_id = ? AND timestamp >= ?
	`

	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, entityID, since).Scan(&count)
	return count, err
}

// SaveWatchConfig stores a watch configuration with tenant isolation.
func (r *SQLRepository) SaveWatchConfig(ctx context.Context, tenantID string, watch *domain.WatchConfig) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	bands, _ := json.Marshal(watch.Bands)

	enabled := 0
	if watch.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO watch_configs (
			id, tenant_id, name, description, version, expression, bands, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id, version) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			bands = excluded.bands,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		watch.ID, tenantID, watch.Name, watch.Description,
		watch.Version, watch.Expression, string(bands), enabled,
		now, now,
	)
	return err
}

// GetWatchConfig retrieves the latest enabled watch configuration with
// tenant isolation.
func (r *SQLRepository) GetWatchConfig(ctx context.Context, tenantID string, watchID string) (*domain.WatchConfig, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, version, expression, bands, enabled
		FROM watch_configs
		WHERE tenant_id = ? AND id = ? AND enabled = 1
		ORDER BY version DESC
		LIMIT 1
	`

	var cfg domain.WatchConfig
	var bands string
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, watchID).Scan(
		&cfg.ID, &cfg.TenantID, &cfg.Name, &cfg.Description,
		&cfg.Version, &cfg.Expression, &bands, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg.Enabled = enabled == 1
	json.Unmarshal([]byte(bands), &cfg.Bands)

	return &cfg, nil
}

// ListWatchConfigs retrieves all enabled watch configurations for a tenant.
func (r *SQLRepository) ListWatchConfigs(ctx context.Context, tenantID string) ([]*domain.WatchConfig, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, version, expression, bands, enabled
		FROM watch_configs
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.WatchConfig
	for rows.Next() {
		var cfg domain.WatchConfig
		var bands string
		var enabled int

		if err := rows.Scan(
			&cfg.ID, &cfg.TenantID, &cfg.Name, &cfg.Description,
			&cfg.Version, &cfg.Expression, &bands, &enabled,
		); err != nil {
			return nil, err
		}

		cfg.Enabled = enabled == 1
		json.Unmarshal([]byte(bands), &cfg.Bands)
		configs = append(configs, &cfg)
	}

	return configs, rows.Err()
}

// DeleteWatchConfig soft-deletes a watch by setting enabled = 0.
func (r *SQLRepository) DeleteWatchConfig(ctx context.Context, tenantID string, watchID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		UPDATE watch_configs
		SET enabled = 0, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), tenantID, watchID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// isUniqueViolation detects a primary key conflict from either driver.
// modernc.org/sqlite reports "UNIQUE constraint failed"; lib/pq reports
// "duplicate key value violates unique constraint".
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
