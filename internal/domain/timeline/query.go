package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
)

// DefaultWindowDays is the window length used when no end date is requested.
const DefaultWindowDays = 30

// Filters are caller-supplied conditions for each side of the timeline.
type Filters struct {
	Row   []record.Condition
	Block []record.Condition
}

// ParseFilters parses {"row_filters": {...}, "block_filters": {...}}, given
// either as a JSON object or as a JSON string holding one.
func ParseFilters(raw json.RawMessage) (Filters, error) {
	obj, err := record.DecodeObject(raw)
	if err != nil || obj == nil {
		return Filters{}, err
	}
	var f Filters
	for key, target := range map[string]*[]record.Condition{"row_filters": &f.Row, "block_filters": &f.Block} {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			return Filters{}, fmt.Errorf("%w: %s must be an object", ErrMalformedFilter, key)
		}
		conds, err := record.ParseConditions(m)
		if err != nil {
			return Filters{}, err
		}
		*target = conds
	}
	return f, nil
}

// QueryRequest selects a configuration and a date window.
type QueryRequest struct {
	ConfigurationName string
	StartDate         string
	EndDate           string
	Filters           Filters
}

// QueryResult holds the projected rows and blocks of one window. A failed
// sub-fetch leaves its list empty and its error recorded.
type QueryResult struct {
	Config    *configuration.Configuration
	Window    Window
	Rows      []RowView
	Blocks    []BlockView
	RowsErr   error
	BlocksErr error
}

// QueryService loads the rows and the window's blocks of a configuration.
type QueryService struct {
	configs    ConfigurationSource
	records    RecordStore
	fields     FieldMetaProvider
	logger     *slog.Logger
	now        func() time.Time
	windowDays int
}

// NewQueryService creates a query service.
func NewQueryService(configs ConfigurationSource, records RecordStore, fields FieldMetaProvider, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &QueryService{
		configs:    configs,
		records:    records,
		fields:     fields,
		logger:     logger,
		now:        time.Now,
		windowDays: DefaultWindowDays,
	}
}

// Query resolves the configuration fresh, then fetches and projects rows and
// blocks. Configuration and window errors fail the call; fetch or projection
// errors degrade the affected list to empty.
func (q *QueryService) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	cfg, err := q.configs.GetActive(ctx, req.ConfigurationName)
	if err != nil {
		return nil, err
	}
	window, err := NewWindow(req.StartDate, req.EndDate, q.now(), q.windowDays)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Config: cfg, Window: window}

	result.Rows, result.RowsErr = q.fetchRows(ctx, cfg, req.Filters.Row)
	if result.RowsErr != nil {
		q.logger.Warn("row fetch failed", "configuration", cfg.Name, "collection", cfg.RowCollection, "error", result.RowsErr)
		result.Rows = []RowView{}
	}

	result.Blocks, result.BlocksErr = q.fetchBlocks(ctx, cfg, window, req.Filters.Block)
	if result.BlocksErr != nil {
		q.logger.Warn("block fetch failed", "configuration", cfg.Name, "collection", cfg.BlockCollection, "error", result.BlocksErr)
		result.Blocks = []BlockView{}
	}
	return result, nil
}

func (q *QueryService) fetchRows(ctx context.Context, cfg *configuration.Configuration, filters []record.Condition) ([]RowView, error) {
	meta, err := loadMeta(ctx, q.fields, cfg.RowCollection)
	if err != nil {
		return nil, err
	}
	orderBy := record.FieldName
	if cfg.RowLabelField != "" {
		orderBy = cfg.RowLabelField
	}
	recs, err := q.records.Find(ctx, cfg.RowCollection, record.Query{
		Conditions: filters,
		OrderBy:    orderBy,
	})
	if err != nil {
		return nil, fmt.Errorf("finding rows: %w", err)
	}
	return ProjectRows(cfg, recs, rowExtraFields(cfg, meta)), nil
}

func (q *QueryService) fetchBlocks(ctx context.Context, cfg *configuration.Configuration, window Window, filters []record.Condition) ([]BlockView, error) {
	meta, err := loadMeta(ctx, q.fields, cfg.BlockCollection)
	if err != nil {
		return nil, err
	}
	conds := make([]record.Condition, 0, len(filters)+2)
	conds = append(conds, filters...)
	conds = append(conds, BuildOverlapFilter(cfg, window)...)
	recs, err := q.records.Find(ctx, cfg.BlockCollection, record.Query{
		Conditions: conds,
		OrderBy:    cfg.BlockToDateField,
	})
	if err != nil {
		return nil, fmt.Errorf("finding blocks: %w", err)
	}
	return ProjectBlocks(cfg, meta, recs, blockExtraFields(cfg, meta))
}

func loadMeta(ctx context.Context, fields FieldMetaProvider, collection string) (*record.Meta, error) {
	decl, err := fields.Fields(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("loading field metadata for %s: %w", collection, err)
	}
	return record.NewMeta(collection, decl), nil
}
