package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory databases and PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. Statements are idempotent so it can run
// on every start.
func (db *DB) RunMigrations() error {
	migration := `
-- Timeline configurations
CREATE TABLE IF NOT EXISTS timeline_configurations (
    name TEXT PRIMARY KEY,
    configuration_name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_active INTEGER NOT NULL DEFAULT 1,
    row_collection TEXT NOT NULL,
    block_collection TEXT NOT NULL,
    row_to_block_field TEXT NOT NULL,
    block_to_date_field TEXT NOT NULL,
    date_range_end_field TEXT NOT NULL DEFAULT '',
    row_label_field TEXT NOT NULL DEFAULT '',
    block_label_field TEXT NOT NULL DEFAULT '',
    block_color_field TEXT NOT NULL DEFAULT '',
    block_duration_field TEXT NOT NULL DEFAULT '',
    block_status_field TEXT NOT NULL DEFAULT '',
    block_priority_field TEXT NOT NULL DEFAULT '',
    block_description_field TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    modified_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_config_block_collection ON timeline_configurations(block_collection, is_active);

-- Declared fields per collection
CREATE TABLE IF NOT EXISTS collection_fields (
    collection TEXT NOT NULL,
    fieldname TEXT NOT NULL,
    fieldtype TEXT NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    options TEXT NOT NULL DEFAULT '',
    required INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (collection, fieldname)
);

-- Records of every collection, fields stored as a JSON object
CREATE TABLE IF NOT EXISTS records (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    owner TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    modified_at TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);

-- Activity log
CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    configuration TEXT NOT NULL DEFAULT '',
    collection TEXT NOT NULL,
    record_id TEXT NOT NULL DEFAULT '',
    actor TEXT NOT NULL DEFAULT '',
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_record ON activity_log(collection, record_id);
CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity_log(created_at);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    principal TEXT NOT NULL,
    created_at TEXT NOT NULL,
    last_used TEXT,
    description TEXT NOT NULL DEFAULT ''
);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
