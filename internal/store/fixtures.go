package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/exadmin/internal/meta"
)

// Fixture is one record in a fixture file:
//
//	- model: library.author
//	  pk: 1
//	  fields:
//	    name: Ursula K. Le Guin
//	    born: 1929-10-21
type Fixture struct {
	Model  string         `yaml:"model"`
	PK     any            `yaml:"pk"`
	Fields map[string]any `yaml:"fields"`
}

// DecodeFixtures reads a YAML fixture document.
func DecodeFixtures(r io.Reader) ([]Fixture, error) {
	var fixtures []Fixture
	if err := yaml.NewDecoder(r).Decode(&fixtures); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}
	return fixtures, nil
}

// Record converts a fixture into a record of its model. Field names are
// admin names, so foreign keys are given by edge name ("author: 1").
// Fields left out of the fixture take their schema default.
func (fx Fixture) Record(reg *meta.Registry) (*Record, error) {
	m := reg.Lookup(fx.Model)
	if m == nil {
		return nil, fmt.Errorf("fixture: unknown model %q", fx.Model)
	}
	pk, err := coerce(m.PK.Type, fx.PK)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: pk: %w", fx.Model, err)
	}
	values := make(map[string]any, len(fx.Fields))
	for name, raw := range fx.Fields {
		f := m.Field(name)
		if f == nil {
			return nil, fmt.Errorf("fixture %s: unknown field %q", fx.Model, name)
		}
		v, err := coerce(f.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("fixture %s.%s: %w", fx.Model, name, err)
		}
		values[f.Column] = v
	}
	for _, f := range m.Fields {
		if _, set := values[f.Column]; set {
			continue
		}
		if v, ok := f.Default(); ok {
			values[f.Column] = v
		}
	}
	return NewRecord(m, pk, values), nil
}

// LoadFixtures decodes fixtures from r and inserts them in file order.
// It returns the number of records written.
func LoadFixtures(ctx context.Context, r io.Reader, reg *meta.Registry, w Writer) (int, error) {
	fixtures, err := DecodeFixtures(r)
	if err != nil {
		return 0, err
	}
	for i, fx := range fixtures {
		rec, err := fx.Record(reg)
		if err != nil {
			return i, err
		}
		if err := w.Insert(ctx, rec); err != nil {
			return i, err
		}
	}
	return len(fixtures), nil
}
