package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/rpggio/chronos/internal/sqlbuild"
)

type dialect struct{}

func (dialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (dialect) Column(field string) string {
	switch field {
	case record.FieldName:
		return "id"
	case record.FieldOwner:
		return "owner"
	case record.FieldCreation:
		return "created_at"
	case record.FieldModified:
		return "modified_at"
	}
	return fmt.Sprintf("(data->>'%s')", field)
}

func (dialect) Numeric(expr string) string { return expr + "::numeric" }
func (dialect) Boolean(expr string) string { return expr + "::boolean" }
func (dialect) Date(expr string) string    { return "(" + expr + ")::date" }

// RecordStore keeps records of every collection in one JSONB table.
type RecordStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecordStore creates a store over db.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db, now: time.Now}
}

// Get retrieves a record by collection and id.
func (s *RecordStore) Get(ctx context.Context, collection, name string) (*record.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, data, created_at, modified_at
		FROM records
		WHERE collection = $1 AND id = $2
	`, collection, name)
	rec, err := scanRecord(collection, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// Find returns the records of collection matching q.
func (s *RecordStore) Find(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	query := `SELECT id, owner, data, created_at, modified_at FROM records WHERE collection = $1`
	args := []any{collection}

	where, whereArgs, err := sqlbuild.Where(dialect{}, q.Conditions, 2)
	if err != nil {
		return nil, err
	}
	if where != "" {
		query += " AND " + where
		args = append(args, whereArgs...)
	}
	order, err := sqlbuild.OrderBy(dialect{}, q.OrderBy, q.Descending)
	if err != nil {
		return nil, err
	}
	if order == "" {
		order = " ORDER BY id ASC"
	}
	query += order
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find records: %w", err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		rec, err := scanRecord(collection, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return out, nil
}

// Exists reports whether a record exists.
func (s *RecordStore) Exists(ctx context.Context, collection, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM records WHERE collection = $1 AND id = $2)`,
		collection, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	return exists, nil
}

// Create inserts a record, stamping its timestamps.
func (s *RecordStore) Create(ctx context.Context, rec *record.Record) error {
	if rec.Collection == "" || rec.Name == "" {
		return repository.ErrInvalidInput
	}
	data, err := sqlbuild.EncodeFields(rec.Fields)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.ModifiedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (collection, id, owner, data, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.Collection, rec.Name, rec.Owner, string(data), rec.CreatedAt, rec.ModifiedAt)
	if err != nil {
		switch pqCode(err) {
		case codeUniqueViolation:
			return repository.ErrConflict
		case codeForeignKeyViolation:
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// Update replaces the owner and fields of a record in one statement.
func (s *RecordStore) Update(ctx context.Context, rec *record.Record) error {
	data, err := sqlbuild.EncodeFields(rec.Fields)
	if err != nil {
		return err
	}
	modified := s.now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET owner = $1, data = $2, modified_at = $3
		WHERE collection = $4 AND id = $5
	`, rec.Owner, string(data), modified, rec.Collection, rec.Name)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	rec.ModifiedAt = modified
	return nil
}

// Delete deletes a record.
func (s *RecordStore) Delete(ctx context.Context, collection, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, collection, name)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(collection string, row rowScanner) (*record.Record, error) {
	rec := record.Record{Collection: collection}
	var data []byte
	if err := row.Scan(&rec.Name, &rec.Owner, &data, &rec.CreatedAt, &rec.ModifiedAt); err != nil {
		return nil, err
	}
	fields, err := sqlbuild.DecodeFields(data)
	if err != nil {
		return nil, err
	}
	rec.Fields = fields
	return &rec, nil
}
