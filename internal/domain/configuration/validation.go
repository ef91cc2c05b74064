package configuration

import (
	"fmt"
	"strings"

	"github.com/rpggio/chronos/internal/domain/record"
)

// Validate checks that cfg names its collections and the two mandatory roles,
// and that every mapped field is a usable identifier.
func Validate(cfg *Configuration) error {
	if cfg == nil || strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(cfg.RowCollection) == "" || strings.TrimSpace(cfg.BlockCollection) == "" {
		return fmt.Errorf("%w: row and block collections are required", ErrInvalidInput)
	}
	if cfg.RowToBlockField == "" || cfg.BlockToDateField == "" {
		return fmt.Errorf("%w: row_to_block_field and block_to_date_field are required", ErrInvalidInput)
	}
	for role, field := range cfg.FieldMappings() {
		if !record.ValidFieldName(field) {
			return fmt.Errorf("%w: %s field %q", ErrInvalidInput, role, field)
		}
	}
	return nil
}
