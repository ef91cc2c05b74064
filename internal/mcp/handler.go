package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/chronos/internal/calendar"
	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
)

// TimelineService defines timeline operations needed by MCP.
type TimelineService interface {
	GetTimelineData(ctx context.Context, req timeline.QueryRequest) (*timeline.QueryResult, error)
	UpdateBlockAssignment(ctx context.Context, actor string, ref timeline.BlockRef, in timeline.AssignmentInput) (*timeline.AssignmentResult, error)
	UpdateBlockDateRange(ctx context.Context, actor string, ref timeline.BlockRef, in timeline.ResizeInput) (*timeline.ResizeResult, error)
	ListConfigurations(ctx context.Context) ([]configuration.Summary, error)
	CreateBlock(ctx context.Context, actor, configurationName string, data map[string]any) (*record.Record, error)
	FieldMetadata(ctx context.Context, configurationName string) (*timeline.FieldMetadata, error)
}

// ConfigurationService defines configuration operations needed by MCP.
type ConfigurationService interface {
	InstallSample(ctx context.Context) (*configuration.Configuration, bool, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Handler dispatches timeline commands and wraps results in envelopes.
type Handler struct {
	timeline TimelineService
	configs  ConfigurationService
	activity ActivityService
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a new MCP handler.
func NewHandler(timelineSvc TimelineService, configs ConfigurationService, activitySvc ActivityService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		timeline: timelineSvc,
		configs:  configs,
		activity: activitySvc,
		logger:   logger,
		now:      time.Now,
	}
}

// ErrMethodNotFound is returned for unknown methods.
var ErrMethodNotFound = &APIError{Code: CodeMethodNotFound, Message: "method not found"}

// Handle dispatches a request. Domain failures come back as envelopes with
// success false; only an unknown method is returned as an error.
func (h *Handler) Handle(ctx context.Context, actor, method string, params json.RawMessage) (any, error) {
	switch method {
	case "get_timeline_data":
		var req GetTimelineDataParams
		if err := decodeParams(params, &req); err != nil {
			return emptyTimeline(invalidParams(err)), nil
		}
		return h.getTimelineData(ctx, req), nil
	case "update_block_assignment":
		var req UpdateBlockAssignmentParams
		if err := decodeParams(params, &req); err != nil {
			return invalidParams(err), nil
		}
		return h.updateBlockAssignment(ctx, actor, req), nil
	case "update_block_date_range":
		var req UpdateBlockDateRangeParams
		if err := decodeParams(params, &req); err != nil {
			return invalidParams(err), nil
		}
		return h.updateBlockDateRange(ctx, actor, req), nil
	case "get_timeline_configurations":
		summaries, err := h.timeline.ListConfigurations(ctx)
		if err != nil {
			return failure(err), nil
		}
		return ConfigurationsResponse{Envelope: Envelope{Success: true}, Configurations: summaries}, nil
	case "create_dynamic_block":
		var req CreateDynamicBlockParams
		if err := decodeParams(params, &req); err != nil {
			return invalidParams(err), nil
		}
		return h.createDynamicBlock(ctx, actor, req), nil
	case "get_configuration_field_metadata":
		var req GetFieldMetadataParams
		if err := decodeParams(params, &req); err != nil {
			return invalidParams(err), nil
		}
		md, err := h.timeline.FieldMetadata(ctx, req.ConfigurationName)
		if err != nil {
			return failure(err), nil
		}
		return FieldMetadataResponse{
			Envelope:      Envelope{Success: true},
			Config:        newConfigResponse(md.Config),
			FieldMetadata: md.Mapped,
			RowFields:     md.RowFields,
			BlockFields:   md.BlockFields,
		}, nil
	case "create_sample_configuration":
		cfg, created, err := h.configs.InstallSample(ctx)
		if err != nil {
			return failure(err), nil
		}
		msg := "Sample configuration already exists"
		if created {
			msg = "Sample configuration created"
		}
		return SampleConfigurationResponse{
			Envelope: Envelope{Success: true},
			Message:  msg,
			Created:  created,
			Config:   newConfigResponse(cfg),
		}, nil
	case "export_timeline_ics":
		var req ExportTimelineParams
		if err := decodeParams(params, &req); err != nil {
			return invalidParams(err), nil
		}
		ics, err := h.ExportCalendar(ctx, req.ConfigurationName, req.StartDate, req.EndDate, req.Filters)
		if err != nil {
			return failure(err), nil
		}
		return ExportTimelineResponse{
			Envelope:    Envelope{Success: true},
			ContentType: "text/calendar",
			Calendar:    ics,
		}, nil
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return invalidParams(err), nil
		}
		opts := activity.ListActivityOptions{
			Configuration: req.ConfigurationName,
			Collection:    req.BlockCollection,
			RecordID:      req.RecordID,
			Limit:         req.Limit,
			Offset:        req.Offset,
		}
		if req.Type != "" {
			kind := activity.ActivityType(req.Type)
			opts.ActivityType = &kind
		}
		entries, err := h.activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return failure(err), nil
		}
		if entries == nil {
			entries = []activity.ActivityEntry{}
		}
		return RecentActivityResponse{Envelope: Envelope{Success: true}, Activity: entries}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
}

func (h *Handler) getTimelineData(ctx context.Context, req GetTimelineDataParams) TimelineDataResponse {
	filters, err := timeline.ParseFilters(req.Filters)
	if err != nil {
		return emptyTimeline(failure(err))
	}
	result, err := h.timeline.GetTimelineData(ctx, timeline.QueryRequest{
		ConfigurationName: req.ConfigurationName,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Filters:           filters,
	})
	if err != nil {
		return emptyTimeline(failure(err))
	}

	resp := TimelineDataResponse{
		Envelope: Envelope{Success: true},
		Config:   newConfigResponse(result.Config),
		Rows:     result.Rows,
		Blocks:   result.Blocks,
		DateRange: &DateRange{
			StartDate: result.Window.StartDate(),
			EndDate:   result.Window.EndDate(),
		},
	}
	if resp.Rows == nil {
		resp.Rows = []timeline.RowView{}
	}
	if resp.Blocks == nil {
		resp.Blocks = []timeline.BlockView{}
	}
	if result.RowsErr != nil {
		resp.Warnings = append(resp.Warnings, "rows unavailable: "+result.RowsErr.Error())
	}
	if result.BlocksErr != nil {
		resp.Warnings = append(resp.Warnings, "blocks unavailable: "+result.BlocksErr.Error())
	}
	return resp
}

func emptyTimeline(env Envelope) TimelineDataResponse {
	return TimelineDataResponse{
		Envelope: env,
		Rows:     []timeline.RowView{},
		Blocks:   []timeline.BlockView{},
	}
}

func (h *Handler) updateBlockAssignment(ctx context.Context, actor string, req UpdateBlockAssignmentParams) any {
	if req.BlockID == "" {
		return failure(fmt.Errorf("%w: block_id is required", timeline.ErrInvalidInput))
	}
	result, err := h.timeline.UpdateBlockAssignment(ctx, actor, timeline.BlockRef{
		Collection:        req.BlockCollection,
		ID:                req.BlockID,
		ConfigurationName: req.ConfigName,
	}, timeline.AssignmentInput{
		NewRowID:    req.NewRowID,
		NewDate:     req.NewDate,
		NewDatetime: req.NewDatetime,
	})
	if err != nil {
		return failure(err)
	}
	return UpdateBlockAssignmentResponse{
		Envelope:         Envelope{Success: true},
		Message:          fmt.Sprintf("Block %s updated successfully", req.BlockID),
		Block:            result.Block,
		OldRowAssignment: nullable(result.OldRowID),
		NewRowAssignment: nullable(result.NewRowID),
		OldDate:          nullable(result.OldDate),
		NewDate:          nullable(result.NewDate),
		OldEndDate:       nullable(result.OldEndDate),
		NewEndDate:       nullable(result.NewEndDate),
	}
}

func (h *Handler) updateBlockDateRange(ctx context.Context, actor string, req UpdateBlockDateRangeParams) any {
	if req.BlockID == "" {
		return failure(fmt.Errorf("%w: block_id is required", timeline.ErrInvalidInput))
	}
	in := timeline.ResizeInput{
		NewStartDate: req.NewStartDate,
		NewEndDate:   req.NewEndDate,
		Direction:    req.Direction,
	}
	if req.NewDuration != nil {
		d := float64(*req.NewDuration)
		in.NewDuration = &d
	}
	result, err := h.timeline.UpdateBlockDateRange(ctx, actor, timeline.BlockRef{
		Collection:        req.BlockCollection,
		ID:                req.BlockID,
		ConfigurationName: req.ConfigName,
	}, in)
	if err != nil {
		return failure(err)
	}
	return UpdateBlockDateRangeResponse{
		Envelope:     Envelope{Success: true},
		Message:      fmt.Sprintf("Block %s date range updated successfully", req.BlockID),
		Block:        result.Block,
		OldStartDate: nullable(result.OldStartDate),
		NewStartDate: nullable(result.NewStartDate),
		OldEndDate:   nullable(result.OldEndDate),
		NewEndDate:   nullable(result.NewEndDate),
		OldDuration:  result.OldDuration,
		NewDuration:  result.NewDuration,
	}
}

func (h *Handler) createDynamicBlock(ctx context.Context, actor string, req CreateDynamicBlockParams) any {
	data, err := record.DecodeObject(req.BlockData)
	if err != nil {
		return failure(fmt.Errorf("%w: block_data must be an object: %v", timeline.ErrInvalidInput, err))
	}
	if data == nil {
		return failure(fmt.Errorf("%w: block_data is required", timeline.ErrInvalidInput))
	}
	rec, err := h.timeline.CreateBlock(ctx, actor, req.ConfigurationName, data)
	if err != nil {
		return failure(err)
	}
	return CreateDynamicBlockResponse{
		Envelope: Envelope{Success: true},
		Message:  fmt.Sprintf("%s %s created successfully", rec.Collection, rec.Name),
		Block:    rec,
	}
}

// ExportCalendar renders the blocks of a timeline window as iCalendar text.
// A failed block fetch is an error here rather than an empty feed.
func (h *Handler) ExportCalendar(ctx context.Context, configurationName, startDate, endDate string, rawFilters json.RawMessage) (string, error) {
	filters, err := timeline.ParseFilters(rawFilters)
	if err != nil {
		return "", err
	}
	result, err := h.timeline.GetTimelineData(ctx, timeline.QueryRequest{
		ConfigurationName: configurationName,
		StartDate:         startDate,
		EndDate:           endDate,
		Filters:           filters,
	})
	if err != nil {
		return "", err
	}
	if result.BlocksErr != nil {
		return "", result.BlocksErr
	}
	return calendar.Render(result.Blocks, h.now())
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	return json.Unmarshal(params, out)
}
