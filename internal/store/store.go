// Package store loads admin records. A Record is a dynamic row keyed by
// storage column; the admin never needs typed entities because every read
// goes through model metadata.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/matthewbaird/exadmin/internal/meta"
)

// ErrNotFound is returned when no record matches the requested key.
var ErrNotFound = errors.New("store: record not found")

// IsNotFound reports whether err signals a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Store is the read interface the admin views depend on.
type Store interface {
	// Get loads one record of model m by primary key.
	Get(ctx context.Context, m *meta.Model, pk any) (*Record, error)
}

// Writer inserts records. Used for seeding and tests, never by views.
type Writer interface {
	Insert(ctx context.Context, rec *Record) error
}

// Record is one row of an admin-managed model.
type Record struct {
	Model  *meta.Model
	PK     any
	values map[string]any // column -> value
}

// NewRecord builds a record. values is keyed by storage column and is
// copied; the PK column is filled from pk.
func NewRecord(m *meta.Model, pk any, values map[string]any) *Record {
	cp := make(map[string]any, len(values)+1)
	for k, v := range values {
		cp[k] = v
	}
	cp[m.PK.Column] = pk
	return &Record{Model: m, PK: pk, values: cp}
}

// Value returns the raw value stored in column.
func (r *Record) Value(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

// FieldValue returns the value of a model field by admin name.
func (r *Record) FieldValue(name string) (any, bool) {
	f := r.Model.Field(name)
	if f == nil {
		return nil, false
	}
	return r.Value(f.Column)
}

// String returns the record's display form: the value of the model's
// display field, or "<Verbose name> object (<pk>)".
func (r *Record) String() string {
	if r.Model.Display != "" {
		if v, ok := r.FieldValue(r.Model.Display); ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%s object (%v)", meta.CapFirst(r.Model.VerboseName), r.PK)
}
