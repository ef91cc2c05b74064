package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes one tool exposed to MCP clients.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var filtersProp = map[string]any{
	"type":        []string{"object", "string"},
	"description": `Optional {"row_filters": {...}, "block_filters": {...}}. Each filter is field: value or field: [operator, value]; may be passed JSON-encoded`,
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Reading
		{
			Name:        "get_timeline_configurations",
			Description: "List active timeline configurations with their row and block collections",
			InputSchema: objectSchema(map[string]any{}),
		},
		{
			Name:        "get_timeline_data",
			Description: "Get the rows and the blocks overlapping a date window for a timeline configuration",
			InputSchema: objectSchema(map[string]any{
				"configuration_name": prop("string", "Timeline configuration key"),
				"start_date":         prop("string", "First day of the window (YYYY-MM-DD, defaults to today)"),
				"end_date":           prop("string", "Last day of the window (YYYY-MM-DD, defaults to start + 30 days)"),
				"filters":            filtersProp,
			}, "configuration_name"),
		},
		{
			Name:        "get_configuration_field_metadata",
			Description: "Get declared field types, labels, options and required flags for a configuration's collections",
			InputSchema: objectSchema(map[string]any{
				"configuration_name": prop("string", "Timeline configuration key"),
			}, "configuration_name"),
		},
		{
			Name:        "export_timeline_ics",
			Description: "Render the blocks of a timeline window as an iCalendar feed",
			InputSchema: objectSchema(map[string]any{
				"configuration_name": prop("string", "Timeline configuration key"),
				"start_date":         prop("string", "First day of the window (YYYY-MM-DD)"),
				"end_date":           prop("string", "Last day of the window (YYYY-MM-DD)"),
				"filters":            filtersProp,
			}, "configuration_name"),
		},
		{
			Name:        "get_recent_activity",
			Description: "Get recent block changes, optionally for one configuration, collection or record",
			InputSchema: objectSchema(map[string]any{
				"configuration_name": prop("string", "Configuration key to filter by"),
				"block_collection":   prop("string", "Block collection to filter by"),
				"record_id":          prop("string", "Block id to filter by"),
				"type":               prop("string", "Activity type (block_assignment_updated, block_range_updated, block_created)"),
				"limit":              prop("integer", "Maximum number of entries (default 50)"),
				"offset":             prop("integer", "Offset for pagination"),
			}),
		},

		// Mutations
		{
			Name:        "update_block_assignment",
			Description: "Move a block to another row and/or start. Ranged blocks keep their span",
			InputSchema: objectSchema(map[string]any{
				"block_collection": prop("string", "Collection of the block"),
				"block_id":         prop("string", "Block id"),
				"new_row_id":       prop("string", "Row to assign the block to"),
				"new_date":         prop("string", "New start date (YYYY-MM-DD)"),
				"new_datetime":     prop("string", "New start timestamp; wins over new_date"),
				"config_name":      prop("string", "Configuration to edit through (defaults to the one for block_collection)"),
			}, "block_collection", "block_id"),
		},
		{
			Name:        "update_block_date_range",
			Description: "Change the start, end and/or duration of a block. Unsupplied values are left untouched",
			InputSchema: objectSchema(map[string]any{
				"block_collection": prop("string", "Collection of the block"),
				"block_id":         prop("string", "Block id"),
				"new_start_date":   prop("string", "New start"),
				"new_end_date":     prop("string", "New end"),
				"new_duration":     prop("number", "New duration value"),
				"direction":        prop("string", "Edge being dragged (informational)"),
				"config_name":      prop("string", "Configuration to edit through (defaults to the one for block_collection)"),
			}, "block_collection", "block_id"),
		},
		{
			Name:        "create_dynamic_block",
			Description: "Create a block through a configuration. The referenced row must exist; date fields are normalized",
			InputSchema: objectSchema(map[string]any{
				"configuration_name": prop("string", "Timeline configuration key"),
				"block_data": map[string]any{
					"type":        []string{"object", "string"},
					"description": "Field values of the new block; may be passed JSON-encoded",
				},
			}, "configuration_name", "block_data"),
		},
		{
			Name:        "create_sample_configuration",
			Description: "Install the Workstation / Work Order sample configuration if it does not exist",
			InputSchema: objectSchema(map[string]any{}),
		},
	}
}

func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, getPrincipal(ctx), name, args)
			if err != nil {
				return nil, err
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	failed := false
	if o, ok := result.(outcome); ok {
		failed = !o.succeeded()
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: failed,
	}, nil
}
