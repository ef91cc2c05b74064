package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeBlockAssignmentUpdated ActivityType = "block_assignment_updated"
	TypeBlockRangeUpdated      ActivityType = "block_range_updated"
	TypeBlockCreated           ActivityType = "block_created"
	TypeConfigurationSaved     ActivityType = "configuration_saved"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID            int64        `json:"id"`
	Configuration string       `json:"configuration,omitempty"`
	Collection    string       `json:"collection"`
	RecordID      string       `json:"record_id,omitempty"`
	Actor         string       `json:"actor,omitempty"`
	ActivityType  ActivityType `json:"type"`
	Summary       string       `json:"summary"`
	Details       string       `json:"details,omitempty"` // JSON string
	CreatedAt     time.Time    `json:"created_at"`
}
