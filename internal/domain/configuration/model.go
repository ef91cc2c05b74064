package configuration

import "time"

// Configuration maps two arbitrary record collections onto timeline roles:
// rows are resources, blocks are scheduled items that belong to a row.
type Configuration struct {
	Name              string `json:"name" yaml:"name"`
	ConfigurationName string `json:"configuration_name" yaml:"configuration_name"`
	Description       string `json:"description" yaml:"description"`
	IsActive          bool   `json:"is_active" yaml:"is_active"`

	RowCollection   string `json:"row_doctype" yaml:"row_collection"`
	BlockCollection string `json:"block_doctype" yaml:"block_collection"`

	RowToBlockField   string `json:"row_to_block_field" yaml:"row_to_block_field"`
	BlockToDateField  string `json:"block_to_date_field" yaml:"block_to_date_field"`
	DateRangeEndField string `json:"date_range_end_field,omitempty" yaml:"date_range_end_field"`

	RowLabelField         string `json:"row_label_field,omitempty" yaml:"row_label_field"`
	BlockLabelField       string `json:"block_label_field,omitempty" yaml:"block_label_field"`
	BlockColorField       string `json:"block_color_field,omitempty" yaml:"block_color_field"`
	BlockDurationField    string `json:"block_duration_field,omitempty" yaml:"block_duration_field"`
	BlockStatusField      string `json:"block_status_field,omitempty" yaml:"block_status_field"`
	BlockPriorityField    string `json:"block_priority_field,omitempty" yaml:"block_priority_field"`
	BlockDescriptionField string `json:"block_description_field,omitempty" yaml:"block_description_field"`

	CreatedAt  time.Time `json:"created_at" yaml:"-"`
	ModifiedAt time.Time `json:"modified_at" yaml:"-"`
}

// Ranged reports whether blocks carry an explicit end field.
func (c *Configuration) Ranged() bool {
	return c.DateRangeEndField != ""
}

// DisplayName returns ConfigurationName, falling back to Name.
func (c *Configuration) DisplayName() string {
	if c.ConfigurationName != "" {
		return c.ConfigurationName
	}
	return c.Name
}

// FieldMappings returns the configured role to field assignments, omitting
// unset optional roles.
func (c *Configuration) FieldMappings() map[string]string {
	roles := map[string]string{
		"row_to_block":      c.RowToBlockField,
		"block_to_date":     c.BlockToDateField,
		"date_range_end":    c.DateRangeEndField,
		"row_label":         c.RowLabelField,
		"block_label":       c.BlockLabelField,
		"block_color":       c.BlockColorField,
		"block_duration":    c.BlockDurationField,
		"block_status":      c.BlockStatusField,
		"block_priority":    c.BlockPriorityField,
		"block_description": c.BlockDescriptionField,
	}
	for role, field := range roles {
		if field == "" {
			delete(roles, role)
		}
	}
	return roles
}

// Summary is the listing shape of an active configuration.
type Summary struct {
	Name              string `json:"name"`
	ConfigurationName string `json:"configuration_name"`
	Description       string `json:"description"`
	RowCollection     string `json:"row_doctype"`
	BlockCollection   string `json:"block_doctype"`
}

// Summarize returns the listing shape of c.
func (c *Configuration) Summarize() Summary {
	return Summary{
		Name:              c.Name,
		ConfigurationName: c.DisplayName(),
		Description:       c.Description,
		RowCollection:     c.RowCollection,
		BlockCollection:   c.BlockCollection,
	}
}
