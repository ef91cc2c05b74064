package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/repository"
)

// ConfigurationRepository implements configuration.Repository for SQLite
type ConfigurationRepository struct {
	db *DB
}

// NewConfigurationRepository creates a new ConfigurationRepository
func NewConfigurationRepository(db *DB) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

const configurationColumns = `
	name, configuration_name, description, is_active,
	row_collection, block_collection, row_to_block_field, block_to_date_field,
	date_range_end_field, row_label_field, block_label_field, block_color_field,
	block_duration_field, block_status_field, block_priority_field, block_description_field,
	created_at, modified_at`

// Get retrieves a configuration by name
func (r *ConfigurationRepository) Get(ctx context.Context, name string) (*configuration.Configuration, error) {
	query := `SELECT ` + configurationColumns + ` FROM timeline_configurations WHERE name = ?`
	cfg, err := scanConfiguration(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	return cfg, nil
}

// Save inserts or replaces a configuration
func (r *ConfigurationRepository) Save(ctx context.Context, cfg *configuration.Configuration) error {
	query := `
		INSERT INTO timeline_configurations (` + configurationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			configuration_name = excluded.configuration_name,
			description = excluded.description,
			is_active = excluded.is_active,
			row_collection = excluded.row_collection,
			block_collection = excluded.block_collection,
			row_to_block_field = excluded.row_to_block_field,
			block_to_date_field = excluded.block_to_date_field,
			date_range_end_field = excluded.date_range_end_field,
			row_label_field = excluded.row_label_field,
			block_label_field = excluded.block_label_field,
			block_color_field = excluded.block_color_field,
			block_duration_field = excluded.block_duration_field,
			block_status_field = excluded.block_status_field,
			block_priority_field = excluded.block_priority_field,
			block_description_field = excluded.block_description_field,
			modified_at = excluded.modified_at
	`
	_, err := r.db.ExecContext(ctx, query,
		cfg.Name,
		cfg.ConfigurationName,
		cfg.Description,
		cfg.IsActive,
		cfg.RowCollection,
		cfg.BlockCollection,
		cfg.RowToBlockField,
		cfg.BlockToDateField,
		cfg.DateRangeEndField,
		cfg.RowLabelField,
		cfg.BlockLabelField,
		cfg.BlockColorField,
		cfg.BlockDurationField,
		cfg.BlockStatusField,
		cfg.BlockPriorityField,
		cfg.BlockDescriptionField,
		formatTime(cfg.CreatedAt),
		formatTime(cfg.ModifiedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// List returns configurations ordered by display name
func (r *ConfigurationRepository) List(ctx context.Context, opts configuration.ListOptions) ([]configuration.Configuration, error) {
	query := `SELECT ` + configurationColumns + ` FROM timeline_configurations`
	var conditions []string
	var args []any
	if opts.ActiveOnly {
		conditions = append(conditions, "is_active = 1")
	}
	if opts.BlockCollection != "" {
		conditions = append(conditions, "block_collection = ?")
		args = append(args, opts.BlockCollection)
	}
	if len(conditions) > 0 {
		query += " WHERE " + joinConditions(conditions)
	}
	query += " ORDER BY configuration_name, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list configurations: %w", err)
	}
	defer rows.Close()

	var out []configuration.Configuration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan configuration: %w", err)
		}
		out = append(out, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating configurations: %w", err)
	}
	return out, nil
}

func scanConfiguration(row rowScanner) (*configuration.Configuration, error) {
	var cfg configuration.Configuration
	var createdAt, modifiedAt string
	err := row.Scan(
		&cfg.Name,
		&cfg.ConfigurationName,
		&cfg.Description,
		&cfg.IsActive,
		&cfg.RowCollection,
		&cfg.BlockCollection,
		&cfg.RowToBlockField,
		&cfg.BlockToDateField,
		&cfg.DateRangeEndField,
		&cfg.RowLabelField,
		&cfg.BlockLabelField,
		&cfg.BlockColorField,
		&cfg.BlockDurationField,
		&cfg.BlockStatusField,
		&cfg.BlockPriorityField,
		&cfg.BlockDescriptionField,
		&createdAt,
		&modifiedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.CreatedAt = parseTime(createdAt)
	cfg.ModifiedAt = parseTime(modifiedAt)
	return &cfg, nil
}
