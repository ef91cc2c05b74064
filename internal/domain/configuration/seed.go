package configuration

import (
	"fmt"
	"os"

	"github.com/rpggio/chronos/internal/domain/record"
	"gopkg.in/yaml.v3"
)

// Seed bootstraps collections, records and configurations from a YAML file.
type Seed struct {
	Collections    []record.Collection `yaml:"collections"`
	Records        []SeedRecord        `yaml:"records"`
	Configurations []Configuration     `yaml:"configurations"`
}

// SeedRecord is a record as written in a seed file.
type SeedRecord struct {
	Collection string         `yaml:"collection"`
	Name       string         `yaml:"name"`
	Owner      string         `yaml:"owner"`
	Fields     map[string]any `yaml:"fields"`
}

// Record converts sr into a record.
func (sr SeedRecord) Record() (*record.Record, error) {
	if sr.Collection == "" || sr.Name == "" {
		return nil, fmt.Errorf("%w: seed record needs collection and name", ErrInvalidInput)
	}
	rec := record.New(sr.Collection, sr.Name)
	rec.Owner = sr.Owner
	for k, v := range sr.Fields {
		if !record.ValidFieldName(k) {
			return nil, fmt.Errorf("%w: seed record %s field %q", ErrInvalidInput, sr.Name, k)
		}
		rec.Set(k, v)
	}
	return rec, nil
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (Seed, error) {
	var seed Seed
	data, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("reading seed file: %w", err)
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("parsing seed file: %w", err)
	}
	return seed, nil
}
