package mocks

import (
	"context"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/stretchr/testify/mock"
)

// ConfigurationRepository is a mock for configuration.Repository.
type ConfigurationRepository struct {
	mock.Mock
}

func (m *ConfigurationRepository) Get(ctx context.Context, name string) (*configuration.Configuration, error) {
	args := m.Called(ctx, name)
	if cfg, ok := args.Get(0).(*configuration.Configuration); ok {
		return cfg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ConfigurationRepository) Save(ctx context.Context, cfg *configuration.Configuration) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *ConfigurationRepository) List(ctx context.Context, opts configuration.ListOptions) ([]configuration.Configuration, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]configuration.Configuration); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// FieldRepository is a mock for the field metadata repository.
type FieldRepository struct {
	mock.Mock
}

func (m *FieldRepository) SaveCollection(ctx context.Context, collection record.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *FieldRepository) Fields(ctx context.Context, collection string) ([]record.FieldMeta, error) {
	args := m.Called(ctx, collection)
	if fields, ok := args.Get(0).([]record.FieldMeta); ok {
		return fields, args.Error(1)
	}
	return nil, args.Error(1)
}

// RecordStore is a mock for the record store.
type RecordStore struct {
	mock.Mock
}

func (m *RecordStore) Get(ctx context.Context, collection, name string) (*record.Record, error) {
	args := m.Called(ctx, collection, name)
	if rec, ok := args.Get(0).(*record.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RecordStore) Find(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	args := m.Called(ctx, collection, q)
	if list, ok := args.Get(0).([]record.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RecordStore) Exists(ctx context.Context, collection, name string) (bool, error) {
	args := m.Called(ctx, collection, name)
	return args.Bool(0), args.Error(1)
}

func (m *RecordStore) Create(ctx context.Context, rec *record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *RecordStore) Update(ctx context.Context, rec *record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *RecordStore) Delete(ctx context.Context, collection, name string) error {
	args := m.Called(ctx, collection, name)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Publisher is a mock for activity.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, entry activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
