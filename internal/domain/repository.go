package domain

import (
	"context"
	"time"
)

// Repository defines the interface for entity/event persistence. It is
// the collaborator that supplies validated TrustEntity and TrustEvent
// records to the engine. Computed trust scores are never persisted.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Entity operations
	SaveEntity(ctx context.Context, tenantID string, entity *TrustEntity) error
	GetEntity(ctx context.Context, tenantID string, entityID string) (*TrustEntity, error)

	// Event operations. Events are append-only; saving an event with a
	// duplicate ID fails.
	SaveEvent(ctx context.Context, tenantID string, event *TrustEvent) error
	GetEventsByEntity(ctx context.Context, tenantID string, entityID string) ([]*TrustEvent, error)
	CountEventsByEntity(ctx context.Context, tenantID string, entityID string, since time.Time) (int64, error)

	// Watch configuration operations
	SaveWatchConfig(ctx context.Context, tenantID string, watch *WatchConfig) error
	GetWatchConfig(ctx context.Context, tenantID string, watchID string) (*WatchConfig, error)
	ListWatchConfigs(ctx context.Context, tenantID string) ([]*WatchConfig, error)
	DeleteWatchConfig(ctx context.Context, tenantID string, watchID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
