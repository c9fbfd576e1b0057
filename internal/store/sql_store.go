package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/schema/field"

	"github.com/matthewbaird/exadmin/internal/meta"
)

// SQLStore implements Store and Writer on top of an ent SQL driver. Queries
// are built with the ent dialect builder so the same code serves SQLite and
// other dialects ent supports.
type SQLStore struct {
	drv *entsql.Driver
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(drv *entsql.Driver) *SQLStore {
	return &SQLStore{drv: drv}
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

// Get loads one record by primary key.
func (s *SQLStore) Get(ctx context.Context, m *meta.Model, pk any) (*Record, error) {
	b := s.builder()
	t := b.Table(m.Table)
	query, args := b.Select(t.Columns(m.Columns()...)...).
		From(t).
		Where(entsql.EQ(t.C(m.PK.Column), pk)).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("querying %s: %w", m.Label(), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying %s: %w", m.Label(), err)
		}
		return nil, fmt.Errorf("%s %v: %w", m.Label(), pk, ErrNotFound)
	}
	cols := m.Columns()
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", m.Label(), err)
	}

	values := make(map[string]any, len(cols))
	for i, col := range cols {
		f := m.FieldByColumn(col)
		v, err := coerce(f.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("scanning %s.%s: %w", m.Label(), col, err)
		}
		values[col] = v
	}
	return NewRecord(m, values[m.PK.Column], values), nil
}

// Insert writes rec as a new row.
func (s *SQLStore) Insert(ctx context.Context, rec *Record) error {
	m := rec.Model
	cols := make([]string, 0, len(m.Fields)+1)
	vals := make([]any, 0, len(m.Fields)+1)
	for _, col := range m.Columns() {
		v, ok := rec.Value(col)
		if !ok {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, v)
	}
	query, args := s.builder().Insert(m.Table).Columns(cols...).Values(vals...).Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("inserting %s: %w", m.Label(), err)
	}
	return nil
}

// Migrate creates a table for every model that does not have one yet.
func (s *SQLStore) Migrate(ctx context.Context, models ...*meta.Model) error {
	for _, m := range models {
		if err := s.drv.Exec(ctx, createTable(s.drv.Dialect(), m), []any{}, nil); err != nil {
			return fmt.Errorf("creating table %s: %w", m.Table, err)
		}
	}
	return nil
}

func createTable(d string, m *meta.Model) string {
	b := entsql.Dialect(d)
	cols := make([]entsql.Querier, 0, len(m.Fields)+1)
	cols = append(cols, b.Column(m.PK.Column).Type(columnType(d, m.PK.Type)+" PRIMARY KEY"))
	for _, f := range m.Fields {
		typ := columnType(d, f.Type)
		if !f.Optional {
			typ += " NOT NULL"
		}
		cols = append(cols, b.Column(f.Column).Type(typ))
	}
	return b.String(func(sb *entsql.Builder) {
		sb.WriteString("CREATE TABLE IF NOT EXISTS ").Ident(m.Table).Wrap(func(w *entsql.Builder) {
			w.JoinComma(cols...)
		})
	})
}

func columnType(d string, t field.Type) string {
	switch {
	case t == field.TypeBool:
		return "BOOLEAN"
	case t == field.TypeTime:
		if d == dialect.Postgres {
			return "TIMESTAMPTZ"
		}
		return "DATETIME"
	case t.Integer():
		if d == dialect.Postgres {
			return "BIGINT"
		}
		return "INTEGER"
	case t.Float():
		if d == dialect.Postgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	case t == field.TypeUUID:
		if d == dialect.Postgres {
			return "UUID"
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}
