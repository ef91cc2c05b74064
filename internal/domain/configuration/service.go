package configuration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/chronos/internal/repository"
)

// Service handles timeline configuration lookups and maintenance.
// Configurations are always read from the repository; nothing is cached.
type Service struct {
	repo    Repository
	fields  FieldRepository
	records RecordWriter
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new configuration service.
func NewService(repo Repository, fields FieldRepository, records RecordWriter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:    repo,
		fields:  fields,
		records: records,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the configuration stored under name regardless of its state.
func (s *Service) Get(ctx context.Context, name string) (*Configuration, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: configuration name is required", ErrInvalidInput)
	}
	cfg, err := s.repo.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrConfigurationNotFound, name)
		}
		return nil, fmt.Errorf("loading configuration %s: %w", name, err)
	}
	return cfg, nil
}

// GetActive returns the configuration stored under name, failing when it is disabled.
func (s *Service) GetActive(ctx context.Context, name string) (*Configuration, error) {
	cfg, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrConfigurationInactive, name)
	}
	return cfg, nil
}

// ListActive returns every active configuration ordered by display name.
func (s *Service) ListActive(ctx context.Context) ([]Configuration, error) {
	cfgs, err := s.repo.List(ctx, ListOptions{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("listing configurations: %w", err)
	}
	return cfgs, nil
}

// ResolveForCollection returns the single active configuration whose block
// collection is collection.
func (s *Service) ResolveForCollection(ctx context.Context, collection string) (*Configuration, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: block collection is required", ErrInvalidInput)
	}
	cfgs, err := s.repo.List(ctx, ListOptions{ActiveOnly: true, BlockCollection: collection})
	if err != nil {
		return nil, fmt.Errorf("listing configurations: %w", err)
	}
	switch len(cfgs) {
	case 0:
		return nil, fmt.Errorf("%w: no active configuration for %s", ErrConfigurationNotFound, collection)
	case 1:
		return &cfgs[0], nil
	}
	return nil, fmt.Errorf("%w: %d for %s, pass a configuration name", ErrAmbiguousConfiguration, len(cfgs), collection)
}

// Save validates and stores cfg, stamping its timestamps.
func (s *Service) Save(ctx context.Context, cfg *Configuration) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if cfg.ConfigurationName == "" {
		cfg.ConfigurationName = cfg.Name
	}
	now := s.now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.ModifiedAt = now
	if err := s.repo.Save(ctx, cfg); err != nil {
		return fmt.Errorf("saving configuration %s: %w", cfg.Name, err)
	}
	s.logger.Info("configuration saved", "configuration", cfg.Name, "active", cfg.IsActive)
	return nil
}

// ApplySeed stores collection declarations, then records that do not exist
// yet, then configurations.
func (s *Service) ApplySeed(ctx context.Context, seed Seed) error {
	for _, c := range seed.Collections {
		if c.Name == "" {
			return fmt.Errorf("%w: collection without name", ErrInvalidInput)
		}
		if err := s.fields.SaveCollection(ctx, c); err != nil {
			return fmt.Errorf("saving collection %s: %w", c.Name, err)
		}
	}
	for _, sr := range seed.Records {
		rec, err := sr.Record()
		if err != nil {
			return err
		}
		exists, err := s.records.Exists(ctx, rec.Collection, rec.Name)
		if err != nil {
			return fmt.Errorf("checking record %s/%s: %w", rec.Collection, rec.Name, err)
		}
		if exists {
			continue
		}
		if err := s.records.Create(ctx, rec); err != nil {
			return fmt.Errorf("creating record %s/%s: %w", rec.Collection, rec.Name, err)
		}
	}
	for i := range seed.Configurations {
		if err := s.Save(ctx, &seed.Configurations[i]); err != nil {
			return err
		}
	}
	s.logger.Info("seed applied",
		"collections", len(seed.Collections),
		"records", len(seed.Records),
		"configurations", len(seed.Configurations),
	)
	return nil
}

// InstallSample applies the sample seed unless its configuration already
// exists. It reports whether anything was created.
func (s *Service) InstallSample(ctx context.Context) (*Configuration, bool, error) {
	existing, err := s.repo.Get(ctx, SampleConfigurationName)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("loading configuration %s: %w", SampleConfigurationName, err)
	}
	seed := SampleSeed()
	if err := s.ApplySeed(ctx, seed); err != nil {
		return nil, false, err
	}
	return &seed.Configurations[0], true, nil
}
