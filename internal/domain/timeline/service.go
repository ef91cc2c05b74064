package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/repository"
)

// Service is the timeline API: queries, mutations, block creation and
// configuration introspection.
type Service struct {
	configs ConfigurationSource
	records RecordStore
	fields  FieldMetaProvider
	audit   Auditor
	query   *QueryService
	assign  *AssignmentMutator
	resize  *RangeResizeMutator
	logger  *slog.Logger
	newID   func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used for the default query window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.query.now = now }
}

// WithWindowDays overrides the default query window length.
func WithWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.query.windowDays = days
		}
	}
}

// WithIDGenerator overrides how ids of created blocks are generated.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a timeline service. audit and logger may be nil.
func NewService(configs ConfigurationSource, records RecordStore, fields FieldMetaProvider, audit Auditor, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		configs: configs,
		records: records,
		fields:  fields,
		audit:   audit,
		query:   NewQueryService(configs, records, fields, logger),
		assign:  NewAssignmentMutator(records, fields),
		resize:  NewRangeResizeMutator(records, fields),
		logger:  logger,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTimelineData returns the rows and the window's blocks of a configuration.
func (s *Service) GetTimelineData(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	return s.query.Query(ctx, req)
}

// BlockRef identifies a block and, optionally, the configuration it is
// edited through.
type BlockRef struct {
	Collection        string
	ID                string
	ConfigurationName string
}

// UpdateBlockAssignment reassigns a block to another row and/or start.
func (s *Service) UpdateBlockAssignment(ctx context.Context, actor string, ref BlockRef, in AssignmentInput) (*AssignmentResult, error) {
	cfg, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	result, err := s.assign.Reassign(ctx, cfg, ref.ID, in)
	if err != nil {
		s.logger.Error("block assignment failed", "configuration", cfg.Name, "block", ref.ID, "error", err)
		return nil, err
	}
	s.logActivity(ctx, cfg, actor, ref.ID, activity.TypeBlockAssignmentUpdated,
		fmt.Sprintf("Moved %s %s", cfg.BlockCollection, ref.ID),
		map[string]any{
			"old_row": result.OldRowID, "new_row": result.NewRowID,
			"old_date": result.OldDate, "new_date": result.NewDate,
			"old_end_date": result.OldEndDate, "new_end_date": result.NewEndDate,
		})
	return result, nil
}

// UpdateBlockDateRange changes the extent of a block.
func (s *Service) UpdateBlockDateRange(ctx context.Context, actor string, ref BlockRef, in ResizeInput) (*ResizeResult, error) {
	cfg, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	result, err := s.resize.Resize(ctx, cfg, ref.ID, in)
	if err != nil {
		s.logger.Error("block resize failed", "configuration", cfg.Name, "block", ref.ID, "error", err)
		return nil, err
	}
	s.logActivity(ctx, cfg, actor, ref.ID, activity.TypeBlockRangeUpdated,
		fmt.Sprintf("Resized %s %s", cfg.BlockCollection, ref.ID),
		map[string]any{
			"old_start_date": result.OldStartDate, "new_start_date": result.NewStartDate,
			"old_end_date": result.OldEndDate, "new_end_date": result.NewEndDate,
			"old_duration": result.OldDuration, "new_duration": result.NewDuration,
			"direction": in.Direction,
		})
	return result, nil
}

// ListConfigurations summarizes every active configuration.
func (s *Service) ListConfigurations(ctx context.Context) ([]configuration.Summary, error) {
	cfgs, err := s.configs.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]configuration.Summary, 0, len(cfgs))
	for i := range cfgs {
		out = append(out, cfgs[i].Summarize())
	}
	return out, nil
}

// CreateBlock inserts a block built from data through an active
// configuration. A row reference must point at an existing row; date role
// values are normalized to their declared types.
func (s *Service) CreateBlock(ctx context.Context, actor, configurationName string, data map[string]any) (*record.Record, error) {
	cfg, err := s.configs.GetActive(ctx, configurationName)
	if err != nil {
		return nil, err
	}
	meta, err := loadMeta(ctx, s.fields, cfg.BlockCollection)
	if err != nil {
		return nil, err
	}

	id, _ := data[record.FieldName].(string)
	if id == "" {
		id = s.newID()
	}
	rec := record.New(cfg.BlockCollection, id)
	rec.Owner = actor
	for k, v := range data {
		switch k {
		case record.FieldName, "doctype", "collection", record.FieldOwner, record.FieldCreation, record.FieldModified:
			continue
		}
		if !record.ValidFieldName(k) {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidInput, record.ErrInvalidFieldName, k)
		}
		rec.Set(k, v)
	}

	if v, ok := rec.Get(cfg.RowToBlockField); ok && !record.Blank(v) {
		target := cfg.RowCollection
		if f, ok := meta.Field(cfg.RowToBlockField); ok && f.Type == record.FieldTypeLink && f.Options != "" {
			target = f.Options
		}
		rowID := stringValue(v)
		exists, err := s.records.Exists(ctx, target, rowID)
		if err != nil {
			return nil, fmt.Errorf("checking row %s: %w", rowID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s %s", ErrReferentialIntegrity, target, rowID)
		}
	}

	var bounds []Instant
	for _, field := range []string{cfg.BlockToDateField, cfg.DateRangeEndField} {
		if field == "" {
			continue
		}
		v, ok := rec.Get(field)
		if !ok || record.Blank(v) {
			continue
		}
		declared := meta.TypeOf(field)
		inst, err := Coerce(v, declared)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		rec.Set(field, StorageValue(inst, declared))
		bounds = append(bounds, inst)
	}
	if len(bounds) == 2 && bounds[1].Before(bounds[0]) {
		return nil, fmt.Errorf("%w: %s before %s", ErrInvertedRange, Format(bounds[1]), Format(bounds[0]))
	}

	if f, ok := missingRequired(meta, rec); ok {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, f)
	}

	if err := s.records.Create(ctx, rec); err != nil {
		s.logger.Error("block creation failed", "configuration", cfg.Name, "block", id, "error", err)
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("%w: %w", ErrReferentialIntegrity, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logActivity(ctx, cfg, actor, id, activity.TypeBlockCreated,
		fmt.Sprintf("Created %s %s", cfg.BlockCollection, id),
		map[string]any{"fields": rec.Fields})
	return rec, nil
}

func missingRequired(meta *record.Meta, rec *record.Record) (string, bool) {
	if meta == nil {
		return "", false
	}
	for _, f := range meta.Required() {
		if v, ok := rec.Get(f); !ok || record.Blank(v) {
			return f, true
		}
	}
	return "", false
}

// FieldInfo describes one field of a mapped collection.
type FieldInfo struct {
	FieldType record.FieldType `json:"fieldtype"`
	Label     string           `json:"label"`
	Options   string           `json:"options"`
	Required  bool             `json:"required"`
}

// FieldMetadata is the declared fields of both collections of a
// configuration. Mapped holds the block fields bound to a display role.
type FieldMetadata struct {
	Config      *configuration.Configuration
	Mapped      map[string]FieldInfo
	RowFields   map[string]FieldInfo
	BlockFields map[string]FieldInfo
}

// FieldMetadata returns the declared fields of the configuration's row and
// block collections. Mapped fields without a label are labelled by name.
func (s *Service) FieldMetadata(ctx context.Context, configurationName string) (*FieldMetadata, error) {
	cfg, err := s.configs.GetActive(ctx, configurationName)
	if err != nil {
		return nil, err
	}
	rows, err := s.fieldInfo(ctx, cfg.RowCollection)
	if err != nil {
		return nil, err
	}
	blocks, err := s.fieldInfo(ctx, cfg.BlockCollection)
	if err != nil {
		return nil, err
	}
	mapped := map[string]FieldInfo{}
	for _, field := range []string{
		cfg.BlockToDateField, cfg.DateRangeEndField, cfg.BlockLabelField, cfg.BlockDescriptionField,
		cfg.BlockPriorityField, cfg.BlockStatusField, cfg.BlockDurationField, cfg.BlockColorField,
	} {
		info, ok := blocks[field]
		if field == "" || !ok {
			continue
		}
		if info.Label == "" {
			info.Label = field
		}
		mapped[field] = info
	}
	return &FieldMetadata{Config: cfg, Mapped: mapped, RowFields: rows, BlockFields: blocks}, nil
}

func (s *Service) fieldInfo(ctx context.Context, collection string) (map[string]FieldInfo, error) {
	decl, err := s.fields.Fields(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("loading field metadata for %s: %w", collection, err)
	}
	out := make(map[string]FieldInfo, len(decl))
	for _, f := range decl {
		out[f.Name] = FieldInfo{FieldType: f.Type, Label: f.Label, Options: f.Options, Required: f.Required}
	}
	return out, nil
}

// resolve picks the configuration a mutation goes through: the named one,
// or the single active configuration for the block collection.
func (s *Service) resolve(ctx context.Context, ref BlockRef) (*configuration.Configuration, error) {
	if ref.ConfigurationName == "" {
		return s.configs.ResolveForCollection(ctx, ref.Collection)
	}
	cfg, err := s.configs.GetActive(ctx, ref.ConfigurationName)
	if err != nil {
		return nil, err
	}
	if ref.Collection != "" && ref.Collection != cfg.BlockCollection {
		return nil, fmt.Errorf("%w: configuration %s edits %s, not %s", ErrInvalidInput, cfg.Name, cfg.BlockCollection, ref.Collection)
	}
	return cfg, nil
}

// logActivity writes an audit entry. Failures are logged only.
func (s *Service) logActivity(ctx context.Context, cfg *configuration.Configuration, actor, recordID string, kind activity.ActivityType, summary string, details map[string]any) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(details)
	if err != nil {
		s.logger.Warn("encoding activity details failed", "error", err)
		payload = nil
	}
	entry := &activity.ActivityEntry{
		Configuration: cfg.Name,
		Collection:    cfg.BlockCollection,
		RecordID:      recordID,
		Actor:         actor,
		ActivityType:  kind,
		Summary:       summary,
		Details:       string(payload),
	}
	if err := s.audit.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("recording activity failed", "type", kind, "record_id", recordID, "error", err)
	}
}
