package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultListLimit = 50

// Service handles activity log operations.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
}

// NewService creates a new activity service. publisher may be nil.
func NewService(repo Repository, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// LogActivity stores an entry with the current timestamp if missing and then
// publishes it. Publish failures are logged, not returned.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.Collection == "" || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *entry); err != nil {
			s.logger.Warn("publish activity failed",
				"type", entry.ActivityType,
				"record_id", entry.RecordID,
				"error", err,
			)
		}
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	return s.repo.List(ctx, opts)
}
