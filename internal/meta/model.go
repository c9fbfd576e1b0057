// Package meta builds admin model metadata from ent schema descriptors.
//
// A Model is the admin's view of one ent schema: its app label, table,
// primary key and the ordered list of displayable fields. Many-to-one
// edges bound to a foreign-key field replace that field with a relational
// Field named after the edge, the way the admin presents foreign keys.
package meta

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// Choice is one allowed value of an enum field.
type Choice struct {
	Value string
	Label string
}

// Relation describes a many-to-one edge stored in a foreign-key column.
type Relation struct {
	Edge   string // edge name, also the field name shown by the admin
	Target string // Go type name of the target schema (e.g. "Author")
}

// Field describes a single displayable column of a model.
type Field struct {
	Name     string     // admin name (edge name for relations)
	Column   string     // storage column
	Type     field.Type // ent logical type of the stored value
	Label    string     // human label, first letter capitalised
	HelpText string
	Optional bool
	Choices  []Choice // non-nil for enum fields
	Relation *Relation

	defaultValue any // constant or func() T from the schema
}

// Default returns the schema default for the field, calling it when the
// schema declares a function such as time.Now.
func (f *Field) Default() (any, bool) {
	if f.defaultValue == nil {
		return nil, false
	}
	rv := reflect.ValueOf(f.defaultValue)
	if rv.Kind() == reflect.Func {
		if rv.Type().NumIn() != 0 || rv.Type().NumOut() != 1 {
			return nil, false
		}
		return rv.Call(nil)[0].Interface(), true
	}
	return f.defaultValue, true
}

// IsRelation reports whether the field is a foreign key to another model.
func (f *Field) IsRelation() bool { return f.Relation != nil }

// IsBool reports whether the field stores a boolean.
func (f *Field) IsBool() bool { return f.Type == field.TypeBool }

// ChoiceLabel returns the label for an enum value, or "" if v is not a choice.
func (f *Field) ChoiceLabel(v string) string {
	for _, c := range f.Choices {
		if c.Value == v {
			return c.Label
		}
	}
	return ""
}

// ParseValue converts a raw string (typically a primary key taken from a
// URL) into the Go value stored for this field.
func (f *Field) ParseValue(raw string) (any, error) {
	switch {
	case f.Type == field.TypeUUID:
		return uuid.Parse(raw)
	case f.Type.Integer():
		return strconv.ParseInt(raw, 10, 64)
	case f.Type.Float():
		return strconv.ParseFloat(raw, 64)
	case f.Type == field.TypeBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// Model holds the complete admin metadata for one schema.
type Model struct {
	Type          string // Go type name (e.g. "Book")
	App           string // app label (e.g. "library")
	Name          string // lower-case object name (e.g. "book")
	VerboseName   string
	Table         string
	Display       string // field whose value is the record's string form
	ContentTypeID int    // 1-based registration order
	PK            *Field
	Fields        []*Field // displayable fields in schema order, without PK

	byName map[string]*Field
}

// Label returns "app.model", the key used by configuration and permissions.
func (m *Model) Label() string { return m.App + "." + m.Name }

// Field returns the named field, or nil.
func (m *Model) Field(name string) *Field { return m.byName[name] }

// FieldNames returns field names in schema order.
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// Columns returns the primary key column followed by every field column.
func (m *Model) Columns() []string {
	cols := make([]string, 0, len(m.Fields)+1)
	cols = append(cols, m.PK.Column)
	for _, f := range m.Fields {
		cols = append(cols, f.Column)
	}
	return cols
}

// FieldByColumn returns the field stored in column, including the PK.
func (m *Model) FieldByColumn(column string) *Field {
	if m.PK.Column == column {
		return m.PK
	}
	for _, f := range m.Fields {
		if f.Column == column {
			return f
		}
	}
	return nil
}

// FromSchema introspects an ent schema into a Model.
func FromSchema(s ent.Interface) (*Model, error) {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	m := &Model{
		Type:        t.Name(),
		Name:        strings.ToLower(t.Name()),
		VerboseName: Humanize(Snake(t.Name())),
		Table:       Snake(t.Name()) + "s",
		byName:      make(map[string]*Field),
	}
	for _, a := range s.Annotations() {
		switch a := a.(type) {
		case Annotation:
			m.applyAnnotation(a)
		case *Annotation:
			m.applyAnnotation(*a)
		case entsql.Annotation:
			if a.Table != "" {
				m.Table = a.Table
			}
		case *entsql.Annotation:
			if a.Table != "" {
				m.Table = a.Table
			}
		}
	}
	if m.App == "" {
		return nil, fmt.Errorf("meta: schema %s has no app label annotation", m.Type)
	}

	var (
		fields []ent.Field
		edges  []ent.Edge
	)
	for _, mx := range s.Mixin() {
		fields = append(fields, mx.Fields()...)
		edges = append(edges, mx.Edges()...)
	}
	fields = append(fields, s.Fields()...)
	edges = append(edges, s.Edges()...)

	// Unique edges bound to a field are foreign keys owned by this model.
	fks := make(map[string]*edge.Descriptor)
	for _, e := range edges {
		d := e.Descriptor()
		if d.Unique && d.Field != "" {
			fks[d.Field] = d
		}
	}

	m.PK = &Field{Name: "id", Column: "id", Type: field.TypeInt, Label: "ID"}
	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("meta: %s.%s: %w", m.Type, d.Name, d.Err)
		}
		mf := newField(d)
		if d.Name == "id" {
			mf.Label = "ID"
			m.PK = mf
			continue
		}
		if e, ok := fks[d.Name]; ok {
			mf.Name = e.Name
			mf.Label = CapFirst(Humanize(e.Name))
			for _, a := range e.Annotations {
				if ann, ok := a.(Annotation); ok && ann.VerboseName != "" {
					mf.Label = CapFirst(ann.VerboseName)
				}
			}
			mf.Relation = &Relation{Edge: e.Name, Target: e.Type}
		}
		if _, dup := m.byName[mf.Name]; dup {
			return nil, fmt.Errorf("meta: %s declares field %q twice", m.Type, mf.Name)
		}
		m.Fields = append(m.Fields, mf)
		m.byName[mf.Name] = mf
	}
	return m, nil
}

func (m *Model) applyAnnotation(a Annotation) {
	if a.App != "" {
		m.App = a.App
	}
	if a.VerboseName != "" {
		m.VerboseName = a.VerboseName
	}
	if a.Display != "" {
		m.Display = a.Display
	}
}

func newField(d *field.Descriptor) *Field {
	f := &Field{
		Name:     d.Name,
		Column:   d.Name,
		Label:    CapFirst(Humanize(d.Name)),
		HelpText: d.Comment,
		Optional: d.Optional || d.Nillable,

		defaultValue: d.Default,
	}
	if d.StorageKey != "" {
		f.Column = d.StorageKey
	}
	if d.Info != nil {
		f.Type = d.Info.Type
	}
	for _, e := range d.Enums {
		f.Choices = append(f.Choices, Choice{Value: e.V, Label: CapFirst(Humanize(e.V))})
	}
	for _, a := range d.Annotations {
		ann, ok := a.(Annotation)
		if !ok {
			continue
		}
		if ann.VerboseName != "" {
			f.Label = CapFirst(ann.VerboseName)
		}
		if ann.HelpText != "" {
			f.HelpText = ann.HelpText
		}
	}
	return f
}
