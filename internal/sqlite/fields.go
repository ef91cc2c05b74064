package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/chronos/internal/domain/record"
)

// FieldRepository stores declared collection fields
type FieldRepository struct {
	db *DB
}

// NewFieldRepository creates a new FieldRepository
func NewFieldRepository(db *DB) *FieldRepository {
	return &FieldRepository{db: db}
}

// SaveCollection replaces the declared fields of a collection
func (r *FieldRepository) SaveCollection(ctx context.Context, collection record.Collection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM collection_fields WHERE collection = ?`, collection.Name); err != nil {
		return fmt.Errorf("failed to clear fields: %w", err)
	}
	for i, f := range collection.Fields {
		if !record.ValidFieldName(f.Name) {
			return fmt.Errorf("%w: %q", record.ErrInvalidFieldName, f.Name)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO collection_fields (collection, fieldname, fieldtype, label, options, required, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, collection.Name, f.Name, string(f.Type), f.Label, f.Options, f.Required, i)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("duplicate field %s in %s", f.Name, collection.Name)
			}
			return fmt.Errorf("failed to insert field: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fields: %w", err)
	}
	return nil
}

// Fields returns the declared fields of a collection in declaration order.
// Unknown collections have no fields.
func (r *FieldRepository) Fields(ctx context.Context, collection string) ([]record.FieldMeta, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fieldname, fieldtype, label, options, required
		FROM collection_fields
		WHERE collection = ?
		ORDER BY position
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer rows.Close()

	var out []record.FieldMeta
	for rows.Next() {
		var f record.FieldMeta
		var fieldType string
		if err := rows.Scan(&f.Name, &fieldType, &f.Label, &f.Options, &f.Required); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		f.Type = record.FieldType(fieldType)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fields: %w", err)
	}
	return out, nil
}
