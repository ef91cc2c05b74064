package timeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
	"github.com/rpggio/chronos/internal/repository"
	"github.com/rpggio/chronos/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
)

type fixture struct {
	ctx      context.Context
	configs  *mocks.ConfigurationRepository
	records  *mocks.RecordStore
	fields   *mocks.FieldRepository
	activity *mocks.ActivityRepository
	svc      *timeline.Service
}

var (
	dateFields = []record.FieldMeta{
		{Name: "planned_start_date", Type: record.FieldTypeDate},
		{Name: "planned_end_date", Type: record.FieldTypeDate},
	}
	datetimeFields = []record.FieldMeta{
		{Name: "workstation", Type: record.FieldTypeLink, Options: "Workstation"},
		{Name: "planned_start_date", Type: record.FieldTypeDatetime},
		{Name: "planned_end_date", Type: record.FieldTypeDatetime},
		{Name: "expected_time", Type: record.FieldTypeFloat},
	}
)

func newFixture(t *testing.T, cfgs ...*configuration.Configuration) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		configs:  &mocks.ConfigurationRepository{},
		records:  &mocks.RecordStore{},
		fields:   &mocks.FieldRepository{},
		activity: &mocks.ActivityRepository{},
	}
	byCollection := map[string][]configuration.Configuration{}
	var active []configuration.Configuration
	for _, cfg := range cfgs {
		f.configs.On("Get", f.ctx, cfg.Name).Return(cfg, nil)
		if cfg.IsActive {
			byCollection[cfg.BlockCollection] = append(byCollection[cfg.BlockCollection], *cfg)
			active = append(active, *cfg)
		}
	}
	for collection, list := range byCollection {
		f.configs.On("List", f.ctx, configuration.ListOptions{ActiveOnly: true, BlockCollection: collection}).Return(list, nil)
	}
	f.configs.On("List", f.ctx, configuration.ListOptions{ActiveOnly: true}).Return(active, nil)
	f.configs.On("List", f.ctx, mock.Anything).Return([]configuration.Configuration{}, nil)
	f.configs.On("Get", f.ctx, mock.Anything).Return(nil, repository.ErrNotFound)
	f.activity.On("Log", f.ctx, mock.Anything).Return(nil)

	configSvc := configuration.NewService(f.configs, nil, nil, nil)
	auditor := newAuditor(f.activity)
	f.svc = timeline.NewService(configSvc, f.records, f.fields, auditor, nil,
		timeline.WithClock(func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }),
		timeline.WithIDGenerator(func() string { return "generated-id" }),
	)
	return f
}

func (f *fixture) withFields(collection string, fields []record.FieldMeta) {
	f.fields.On("Fields", f.ctx, collection).Return(fields, nil)
}

func (f *fixture) withBlock(rec record.Record) {
	f.records.On("Get", f.ctx, rec.Collection, rec.Name).Return(&rec, nil)
}

// updated returns the record passed to the single Update call.
func (f *fixture) updated() *record.Record {
	for _, call := range f.records.Calls {
		if call.Method == "Update" {
			return call.Arguments.Get(1).(*record.Record)
		}
	}
	return nil
}

func (f *fixture) callCount(method string) int {
	n := 0
	for _, call := range f.records.Calls {
		if call.Method == method {
			n++
		}
	}
	return n
}
