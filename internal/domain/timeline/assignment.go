package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/repository"
)

// AssignmentInput moves a block to another row and/or start. NewDatetime
// takes precedence over NewDate when both are given.
type AssignmentInput struct {
	NewRowID    string
	NewDate     string
	NewDatetime string
}

func (in AssignmentInput) start() (string, record.FieldType) {
	if in.NewDatetime != "" {
		return in.NewDatetime, record.FieldTypeDatetime
	}
	return in.NewDate, record.FieldTypeDate
}

// AssignmentResult reports the values before and after a reassignment.
// Row values are empty when the row was not changed; date values are empty
// when the start was not changed.
type AssignmentResult struct {
	Block      *record.Record
	OldRowID   string
	NewRowID   string
	OldDate    string
	NewDate    string
	OldEndDate string
	NewEndDate string
}

// AssignmentMutator reassigns blocks between rows and moves them in time.
type AssignmentMutator struct {
	records RecordStore
	fields  FieldMetaProvider
}

// NewAssignmentMutator creates an assignment mutator.
func NewAssignmentMutator(records RecordStore, fields FieldMetaProvider) *AssignmentMutator {
	return &AssignmentMutator{records: records, fields: fields}
}

// Reassign applies in to block blockID and saves it with one update. On a
// ranged mapping moving the start shifts the end by the original span.
func (m *AssignmentMutator) Reassign(ctx context.Context, mapping *configuration.Configuration, blockID string, in AssignmentInput) (*AssignmentResult, error) {
	rawStart, startKind := in.start()
	if in.NewRowID == "" && rawStart == "" {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	current, err := loadBlock(ctx, m.records, mapping, blockID)
	if err != nil {
		return nil, err
	}
	meta, err := loadMeta(ctx, m.fields, mapping.BlockCollection)
	if err != nil {
		return nil, err
	}

	block := current.Clone()
	result := &AssignmentResult{Block: block}

	if in.NewRowID != "" {
		exists, err := m.records.Exists(ctx, mapping.RowCollection, in.NewRowID)
		if err != nil {
			return nil, fmt.Errorf("checking row %s: %w", in.NewRowID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s %s", ErrReferentialIntegrity, mapping.RowCollection, in.NewRowID)
		}
		old, _ := current.Get(mapping.RowToBlockField)
		result.OldRowID = stringValue(old)
		result.NewRowID = in.NewRowID
		block.Set(mapping.RowToBlockField, in.NewRowID)
	}

	if rawStart != "" {
		startType := meta.TypeOf(mapping.BlockToDateField)
		newStart, err := Coerce(rawStart, startKind)
		if err != nil {
			return nil, err
		}

		curStart, hasStart, err := existingInstant(current, mapping.BlockToDateField, startType)
		if err != nil {
			return nil, err
		}
		if hasStart {
			result.OldDate = Format(curStart)
		}

		if mapping.Ranged() {
			endType := meta.TypeOf(mapping.DateRangeEndField)
			curEnd, hasEnd, err := existingInstant(current, mapping.DateRangeEndField, endType)
			if err != nil {
				return nil, err
			}
			if hasStart && hasEnd {
				newEnd := ShiftPreservingSpan(curStart, curEnd, newStart)
				if newEnd.Before(newStart) {
					return nil, fmt.Errorf("%w: %s before %s", ErrInvertedRange, Format(newEnd), Format(newStart))
				}
				if !newEnd.HasTime {
					newStart = newStart.DateOnly()
				}
				result.OldEndDate = Format(curEnd)
				result.NewEndDate = Format(newEnd)
				block.Set(mapping.DateRangeEndField, StorageValue(newEnd, endType))
			}
		}

		if startType == record.FieldTypeDate {
			newStart = newStart.DateOnly()
		}
		result.NewDate = Format(newStart)
		block.Set(mapping.BlockToDateField, StorageValue(newStart, startType))
	}

	if err := saveBlock(ctx, m.records, block); err != nil {
		return nil, err
	}
	return result, nil
}

// existingInstant reads a stored date-like field. Absent or blank values
// report false.
func existingInstant(rec *record.Record, field string, declared record.FieldType) (Instant, bool, error) {
	v, ok := rec.Get(field)
	if !ok || record.Blank(v) {
		return Instant{}, false, nil
	}
	inst, err := Coerce(v, declared)
	if err != nil {
		return Instant{}, false, fmt.Errorf("stored %s: %w", field, err)
	}
	return inst, true, nil
}

func loadBlock(ctx context.Context, records RecordStore, mapping *configuration.Configuration, blockID string) (*record.Record, error) {
	if blockID == "" {
		return nil, fmt.Errorf("%w: block id is required", ErrInvalidInput)
	}
	rec, err := records.Get(ctx, mapping.BlockCollection, blockID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, mapping.BlockCollection, blockID)
		}
		return nil, fmt.Errorf("loading block %s: %w", blockID, err)
	}
	return rec, nil
}

func saveBlock(ctx context.Context, records RecordStore, block *record.Record) error {
	if err := records.Update(ctx, block); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", ErrNotFound, block.Collection, block.Name)
		}
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return fmt.Errorf("%w: %w", ErrReferentialIntegrity, err)
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
