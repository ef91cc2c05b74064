package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/chronos/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO activity_log (
			configuration, collection, record_id, actor,
			activity_type, summary, details, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.Configuration,
		entry.Collection,
		entry.RecordID,
		entry.Actor,
		string(entry.ActivityType),
		entry.Summary,
		entry.Details,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	entry.CreatedAt = createdAt

	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query := `
		SELECT
			id, configuration, collection, record_id, actor,
			activity_type, summary, details, created_at
		FROM activity_log
	`

	args := []any{}
	conditions := []string{}

	if opts.Configuration != "" {
		conditions = append(conditions, "configuration = ?")
		args = append(args, opts.Configuration)
	}
	if opts.Collection != "" {
		conditions = append(conditions, "collection = ?")
		args = append(args, opts.Collection)
	}
	if opts.RecordID != "" {
		conditions = append(conditions, "record_id = ?")
		args = append(args, opts.RecordID)
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, string(*opts.ActivityType))
	}

	if len(conditions) > 0 {
		query += " WHERE " + joinConditions(conditions)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		var entry activity.ActivityEntry
		var activityType, createdAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.Configuration,
			&entry.Collection,
			&entry.RecordID,
			&entry.Actor,
			&activityType,
			&entry.Summary,
			&entry.Details,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entry.ActivityType = activity.ActivityType(activityType)
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}

func joinConditions(conditions []string) string {
	return strings.Join(conditions, " AND ")
}
