// Package library wires the demo library models into an admin site.
package library

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"entgo.io/ent"

	"github.com/matthewbaird/exadmin/ent/schema"
	"github.com/matthewbaird/exadmin/internal/detail"
	"github.com/matthewbaird/exadmin/internal/store"
)

// Schemas returns the library models in registration order.
func Schemas() []ent.Interface {
	return []ent.Interface{
		schema.Publisher{},
		schema.Author{},
		schema.Book{},
	}
}

// classicBefore is the first year a book no longer counts as a classic.
const classicBefore = 1980

// Register adds the library's computed attributes to site.
func Register(site *detail.Site) error {
	if err := site.Register("library.book",
		&detail.Attr{Name: "is_classic", Label: "Classic", Boolean: true, Value: isClassic},
		&detail.Attr{Name: "listing", AllowTags: true, Value: listing},
	); err != nil {
		return err
	}
	if err := site.Register("library.author",
		&detail.Attr{Name: "born_decade", Label: "Decade of birth", Value: bornDecade},
	); err != nil {
		return err
	}
	return site.Register("library.publisher",
		&detail.Attr{Name: "homepage", AllowTags: true, Value: homepage},
	)
}

func isClassic(_ context.Context, rec *store.Record) (any, error) {
	v, _ := rec.FieldValue("published")
	t, ok := v.(time.Time)
	if !ok {
		return nil, nil
	}
	return t.Year() < classicBefore, nil
}

func listing(_ context.Context, rec *store.Record) (any, error) {
	title, _ := rec.FieldValue("title")
	format, _ := rec.FieldValue("format")
	s := fmt.Sprintf("<strong>%s</strong>", template.HTMLEscapeString(fmt.Sprint(title)))
	if format != nil {
		s += fmt.Sprintf(" <small>(%s)</small>", template.HTMLEscapeString(fmt.Sprint(format)))
	}
	return s, nil
}

func bornDecade(_ context.Context, rec *store.Record) (any, error) {
	v, _ := rec.FieldValue("born")
	t, ok := v.(time.Time)
	if !ok {
		return nil, nil
	}
	return fmt.Sprintf("%ds", t.Year()/10*10), nil
}

func homepage(_ context.Context, rec *store.Record) (any, error) {
	v, _ := rec.FieldValue("website")
	site, _ := v.(string)
	if site == "" {
		return nil, nil
	}
	esc := template.HTMLEscapeString(site)
	return fmt.Sprintf(`<a href="%s">%s</a>`, esc, esc), nil
}
