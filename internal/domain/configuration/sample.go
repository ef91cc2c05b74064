package configuration

import "github.com/rpggio/chronos/internal/domain/record"

// SampleConfigurationName keys the bundled workstation schedule.
const SampleConfigurationName = "workstation-work-order"

// SampleSeed returns the workstation / work order demo: workstations as rows,
// work orders scheduled against them as ranged blocks.
func SampleSeed() Seed {
	return Seed{
		Collections: []record.Collection{
			{
				Name: "Workstation",
				Fields: []record.FieldMeta{
					{Name: "workstation_name", Type: record.FieldTypeData, Label: "Workstation Name", Required: true},
					{Name: "status", Type: record.FieldTypeSelect, Label: "Status", Options: "Production\nOff\nIdle\nProblem\nMaintenance\nSetup"},
					{Name: "department", Type: record.FieldTypeData, Label: "Department"},
					{Name: "company", Type: record.FieldTypeData, Label: "Company"},
					{Name: "disabled", Type: record.FieldTypeCheck, Label: "Disabled"},
				},
			},
			{
				Name: "Work Order",
				Fields: []record.FieldMeta{
					{Name: "production_item", Type: record.FieldTypeData, Label: "Item To Manufacture", Required: true},
					{Name: "workstation", Type: record.FieldTypeLink, Label: "Workstation", Options: "Workstation"},
					{Name: "planned_start_date", Type: record.FieldTypeDatetime, Label: "Planned Start Date", Required: true},
					{Name: "planned_end_date", Type: record.FieldTypeDatetime, Label: "Planned End Date"},
					{Name: "expected_time", Type: record.FieldTypeFloat, Label: "Expected Time"},
					{Name: "status", Type: record.FieldTypeSelect, Label: "Status", Options: "Draft\nNot Started\nIn Process\nCompleted\nStopped\nCancelled"},
					{Name: "priority", Type: record.FieldTypeSelect, Label: "Priority", Options: "Low\nMedium\nHigh\nUrgent"},
					{Name: "progress", Type: record.FieldTypeFloat, Label: "Progress"},
					{Name: "description", Type: record.FieldTypeText, Label: "Description"},
				},
			},
		},
		Configurations: []Configuration{
			{
				Name:               SampleConfigurationName,
				ConfigurationName:  "Workstation Work Orders",
				Description:        "Work orders scheduled on workstations",
				IsActive:           true,
				RowCollection:      "Workstation",
				BlockCollection:    "Work Order",
				RowToBlockField:    "workstation",
				BlockToDateField:   "planned_start_date",
				DateRangeEndField:  "planned_end_date",
				RowLabelField:      "workstation_name",
				BlockLabelField:    "production_item",
				BlockColorField:    "status",
				BlockDurationField: "expected_time",
				BlockStatusField:   "status",
				BlockPriorityField: "priority",
			},
		},
	}
}
