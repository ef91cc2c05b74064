package timeline

import (
	"context"
	"fmt"
	"math"

	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
)

// ResizeInput carries the supplied bounds and duration. Unsupplied values are
// left untouched. Direction names the dragged edge and does not change what
// is written.
type ResizeInput struct {
	NewStartDate string
	NewEndDate   string
	NewDuration  *float64
	Direction    string
}

// ResizeResult reports the values of the block after a resize. Start and end
// are empty when not supplied.
type ResizeResult struct {
	Block        *record.Record
	NewStartDate string
	NewEndDate   string
	NewDuration  any
	OldStartDate string
	OldEndDate   string
	OldDuration  any
}

// RangeResizeMutator changes the extent of blocks.
type RangeResizeMutator struct {
	records RecordStore
	fields  FieldMetaProvider
}

// NewRangeResizeMutator creates a resize mutator.
func NewRangeResizeMutator(records RecordStore, fields FieldMetaProvider) *RangeResizeMutator {
	return &RangeResizeMutator{records: records, fields: fields}
}

// Resize writes exactly the supplied values with one update. Ranged mappings
// accept start, end and duration; single-point mappings accept only duration.
func (m *RangeResizeMutator) Resize(ctx context.Context, mapping *configuration.Configuration, blockID string, in ResizeInput) (*ResizeResult, error) {
	current, err := loadBlock(ctx, m.records, mapping, blockID)
	if err != nil {
		return nil, err
	}
	meta, err := loadMeta(ctx, m.fields, mapping.BlockCollection)
	if err != nil {
		return nil, err
	}

	block := current.Clone()
	result := &ResizeResult{Block: block}
	changed := false

	if mapping.Ranged() {
		startType := meta.TypeOf(mapping.BlockToDateField)
		endType := meta.TypeOf(mapping.DateRangeEndField)

		start, hasStart, err := existingInstant(current, mapping.BlockToDateField, startType)
		if err != nil {
			return nil, err
		}
		end, hasEnd, err := existingInstant(current, mapping.DateRangeEndField, endType)
		if err != nil {
			return nil, err
		}
		if hasStart {
			result.OldStartDate = Format(start)
		}
		if hasEnd {
			result.OldEndDate = Format(end)
		}

		if in.NewStartDate != "" {
			if start, err = Coerce(in.NewStartDate, startType); err != nil {
				return nil, err
			}
			hasStart = true
			result.NewStartDate = Format(start)
			block.Set(mapping.BlockToDateField, StorageValue(start, startType))
			changed = true
		}
		if in.NewEndDate != "" {
			if end, err = Coerce(in.NewEndDate, endType); err != nil {
				return nil, err
			}
			hasEnd = true
			result.NewEndDate = Format(end)
			block.Set(mapping.DateRangeEndField, StorageValue(end, endType))
			changed = true
		}
		if hasStart && hasEnd && end.Before(start) {
			return nil, fmt.Errorf("%w: %s before %s", ErrInvertedRange, Format(end), Format(start))
		}
	}

	if mapping.BlockDurationField != "" {
		result.OldDuration, _ = current.Get(mapping.BlockDurationField)
		if in.NewDuration != nil {
			if *in.NewDuration < 0 || math.IsNaN(*in.NewDuration) {
				return nil, fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
			}
			result.NewDuration = durationValue(*in.NewDuration, meta.TypeOf(mapping.BlockDurationField))
			block.Set(mapping.BlockDurationField, result.NewDuration)
			changed = true
		}
	}

	if !changed {
		return nil, fmt.Errorf("%w: no applicable changes for %s", ErrInvalidInput, mapping.Name)
	}
	if err := saveBlock(ctx, m.records, block); err != nil {
		return nil, err
	}
	return result, nil
}

func durationValue(v float64, declared record.FieldType) any {
	if declared == record.FieldTypeInt {
		return int64(math.Round(v))
	}
	return v
}
