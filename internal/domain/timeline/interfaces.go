package timeline

import (
	"context"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
)

// ConfigurationSource resolves timeline configurations.
type ConfigurationSource interface {
	GetActive(ctx context.Context, name string) (*configuration.Configuration, error)
	ResolveForCollection(ctx context.Context, collection string) (*configuration.Configuration, error)
	ListActive(ctx context.Context) ([]configuration.Configuration, error)
}

// RecordStore reads and writes records of the mapped collections.
type RecordStore interface {
	Get(ctx context.Context, collection, name string) (*record.Record, error)
	Find(ctx context.Context, collection string, q record.Query) ([]record.Record, error)
	Exists(ctx context.Context, collection, name string) (bool, error)
	Create(ctx context.Context, rec *record.Record) error
	Update(ctx context.Context, rec *record.Record) error
}

// FieldMetaProvider returns the declared fields of a collection.
type FieldMetaProvider interface {
	Fields(ctx context.Context, collection string) ([]record.FieldMeta, error)
}

// Auditor records successful mutations.
type Auditor interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
