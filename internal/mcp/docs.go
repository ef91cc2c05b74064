package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `chronos serves Gantt-style timelines over arbitrary record collections.

Core concepts:
- Timeline configuration: maps a row collection (resources, e.g. Workstation) and a block
  collection (scheduled items, e.g. Work Order) onto timeline roles. Only active
  configurations are usable.
- Row: one record of the row collection, labelled by row_label_field.
- Block: one record of the block collection. It belongs to the row named by its
  row_to_block_field and starts at block_to_date_field. Ranged configurations also carry
  date_range_end_field.

Workflow:
1) get_timeline_configurations to pick a configuration (create_sample_configuration installs a demo).
2) get_configuration_field_metadata to learn field types before writing.
3) get_timeline_data for a window (start_date/end_date, inclusive calendar days).
4) update_block_assignment to move a block between rows or in time (the span is preserved),
   update_block_date_range to resize, create_dynamic_block to add one.
5) get_recent_activity to see what changed.

Every result carries success; when it is false, error and code say why.

Docs:
- chronos://docs/index
- chronos://docs/filters
- chronos://docs/dates
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "chronos://docs/index",
		Name:        "docs_index",
		Title:       "chronos docs index",
		Description: "Entry point: tools, envelopes and error codes.",
		Content: `# chronos: Docs Index

## Tools

- ` + "`get_timeline_configurations`" + ` lists active configurations.
- ` + "`get_timeline_data`" + ` returns ` + "`config`" + `, ` + "`rows`" + `, ` + "`blocks`" + ` and ` + "`date_range`" + `.
  If rows or blocks could not be loaded the list is empty and ` + "`warnings`" + ` explains why.
- ` + "`update_block_assignment`" + ` returns old/new row and date values (null when unchanged).
- ` + "`update_block_date_range`" + ` returns old/new start, end and duration.
- ` + "`create_dynamic_block`" + ` returns the stored block.
- ` + "`get_configuration_field_metadata`" + ` returns ` + "`field_metadata`" + ` for mapped fields plus all row and block fields.
- ` + "`export_timeline_ics`" + ` returns the window as iCalendar text.

## Error codes

CONFIGURATION_NOT_FOUND, CONFIGURATION_INACTIVE, AMBIGUOUS_CONFIGURATION, INVALID_DATE_FORMAT,
NOT_FOUND, REFERENTIAL_INTEGRITY, PERSISTENCE_ERROR, MALFORMED_FILTER, INVERTED_RANGE,
INVALID_INPUT, INVALID_PARAMS.
`,
	},
	{
		URI:         "chronos://docs/filters",
		Name:        "docs_filters",
		Title:       "Filter syntax",
		Description: "How row and block filters are written.",
		Content: `# Filters

Pass ` + "`filters`" + ` as an object (or a JSON string holding one):

    {"row_filters": {"department": "Machining"},
     "block_filters": {"status": ["!=", "Cancelled"], "priority": ["in", ["High", "Urgent"]]}}

A bare value means equality. Operators: ` + "`= != < <= > >= in, not in, like, not like, between, is`" + `.
` + "`in`" + ` takes a list or a comma separated string, ` + "`between`" + ` takes two values and
` + "`is`" + ` takes ` + "`set`" + ` or ` + "`not set`" + `.

Caller filters are combined with the date window; they never replace it.
`,
	},
	{
		URI:         "chronos://docs/dates",
		Name:        "docs_dates",
		Title:       "Dates and spans",
		Description: "Accepted date formats and how moves preserve spans.",
		Content: `# Dates

Accepted: ` + "`YYYY-MM-DD`" + `, ` + "`YYYY-MM-DD HH:MM[:SS]`" + `, ` + "`YYYY-MM-DDTHH:MM[:SS]`" + ` with an optional ` + "`Z`" + ` or offset
(converted to UTC). Blocks are returned as ` + "`YYYY-MM-DD HH:MM:SS`" + `; ` + "`all_day`" + ` marks date-only values.

## Moving ranged blocks

The end moves with the start. If either the old bounds or the new start has no time of day
the shift is counted in whole days (2024-01-10..15 moved to 2024-02-01 ends 2024-02-06);
otherwise the exact duration is kept (08:00-14:30 moved to 09:15 ends 15:45).

## Resizing

Only supplied values change. The end may not precede the start.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
