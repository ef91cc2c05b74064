package configuration

import (
	"context"

	"github.com/rpggio/chronos/internal/domain/record"
)

// Repository provides persistence for timeline configurations.
type Repository interface {
	Get(ctx context.Context, name string) (*Configuration, error)
	Save(ctx context.Context, cfg *Configuration) error
	List(ctx context.Context, opts ListOptions) ([]Configuration, error)
}

// FieldRepository stores collection field declarations.
type FieldRepository interface {
	SaveCollection(ctx context.Context, collection record.Collection) error
}

// RecordWriter seeds records into the record store.
type RecordWriter interface {
	Exists(ctx context.Context, collection, name string) (bool, error)
	Create(ctx context.Context, rec *record.Record) error
}
