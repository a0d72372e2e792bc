package repository

// Schema definitions for the trust engine database.
// Compatible with both SQLite and PostgreSQL.

const schemaEntities = `
CREATE TABLE IF NOT EXISTS entities (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    identity_verified INTEGER NOT NULL DEFAULT 0,
    credentials TEXT,
    connections TEXT,
    transparency_level REAL NOT NULL DEFAULT 0,
    metadata TEXT,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_entities_tenant ON entities(tenant_id);
CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(tenant_id, entity_type);
`

const schemaEvents = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    channel TEXT,
    outcome TEXT NOT NULL,
    impact_score REAL NOT NULL,
    related_entities TEXT,
    tags TEXT,
    metadata TEXT,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_events_tenant ON events(tenant_id);
CREATE INDEX IF NOT EXISTS idx_events_entity ON events(tenant_id, entity_id);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(tenant_id, entity_id, timestamp);
`

const schemaWatchConfigs = `
CREATE TABLE IF NOT EXISTS watch_configs (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    expression TEXT NOT NULL,
    bands TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id, version)
);

CREATE INDEX IF NOT EXISTS idx_watch_configs_tenant ON watch_configs(tenant_id);
CREATE INDEX IF NOT EXISTS idx_watch_configs_enabled ON watch_configs(tenant_id, enabled);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaEntities,
		schemaEvents,
		schemaWatchConfigs,
	}
}
