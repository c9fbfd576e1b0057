// Package config loads the admin configuration: site settings, users and
// per-model display options. Files are written in CUE and checked against
// an embedded schema before use.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/matthewbaird/exadmin/internal/auth"
	"github.com/matthewbaird/exadmin/internal/layout"
)

//go:embed schema.cue
var schemaSrc string

// Site holds panel-wide settings.
type Site struct {
	Title  string `json:"title"`
	Prefix string `json:"prefix"`
}

// ModelAdmin holds the display options of one model.
type ModelAdmin struct {
	DetailLayout   []layout.Element
	FormLayout     []layout.Element
	ShowAll        bool
	DetailTemplate string
	Exclude        []string
}

// Layout returns the detail layout, falling back to the form layout.
func (m *ModelAdmin) Layout() []layout.Element {
	if len(m.DetailLayout) > 0 {
		return m.DetailLayout
	}
	return m.FormLayout
}

// Excludes reports whether field name is excluded from display.
func (m *ModelAdmin) Excludes(name string) bool {
	return slices.Contains(m.Exclude, name)
}

// Config is a validated admin configuration.
type Config struct {
	Site   Site
	Users  map[string]*auth.User
	Models map[string]*ModelAdmin // keyed by "app.model"
}

// Model returns the options for label, or defaults when the config does
// not mention the model.
func (c *Config) Model(label string) *ModelAdmin {
	if m, ok := c.Models[label]; ok {
		return m
	}
	return &ModelAdmin{ShowAll: true}
}

// User implements auth.Directory.
func (c *Config) User(name string) (*auth.User, bool) {
	u, ok := c.Users[name]
	return u, ok
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c, err := Parse(nil, "default.cue")
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads and parses the CUE file at path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(src, path)
}

// Parse compiles src, unifies it with the schema and decodes the result.
// filename is used in error positions.
func Parse(src []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config: schema: %w", err)
	}
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	c := &Config{
		Users:  make(map[string]*auth.User),
		Models: make(map[string]*ModelAdmin),
	}
	if err := v.LookupPath(cue.ParsePath("site")).Decode(&c.Site); err != nil {
		return nil, fmt.Errorf("config: site: %w", err)
	}

	users, err := v.LookupPath(cue.ParsePath("users")).Fields()
	if err != nil {
		return nil, fmt.Errorf("config: users: %w", err)
	}
	for users.Next() {
		var u struct {
			Superuser   bool     `json:"superuser"`
			Active      bool     `json:"active"`
			Permissions []string `json:"permissions"`
		}
		name := users.Selector().Unquoted()
		if err := users.Value().Decode(&u); err != nil {
			return nil, fmt.Errorf("config: user %s: %w", name, err)
		}
		c.Users[name] = &auth.User{
			Username:    name,
			Superuser:   u.Superuser,
			Active:      u.Active,
			Permissions: u.Permissions,
		}
	}

	models, err := v.LookupPath(cue.ParsePath("models")).Fields()
	if err != nil {
		return nil, fmt.Errorf("config: models: %w", err)
	}
	for models.Next() {
		label := models.Selector().Unquoted()
		m, err := decodeModel(models.Value())
		if err != nil {
			return nil, fmt.Errorf("config: model %s: %w", label, err)
		}
		c.Models[label] = m
	}
	return c, nil
}

func decodeModel(v cue.Value) (*ModelAdmin, error) {
	var raw struct {
		ShowAll        bool     `json:"detail_show_all"`
		DetailTemplate string   `json:"detail_template"`
		Exclude        []string `json:"exclude"`
	}
	if err := v.Decode(&raw); err != nil {
		return nil, err
	}
	m := &ModelAdmin{
		ShowAll:        raw.ShowAll,
		DetailTemplate: raw.DetailTemplate,
		Exclude:        raw.Exclude,
	}
	var err error
	if m.DetailLayout, err = decodeLayout(v.LookupPath(cue.ParsePath("detail_layout"))); err != nil {
		return nil, fmt.Errorf("detail_layout: %w", err)
	}
	if m.FormLayout, err = decodeLayout(v.LookupPath(cue.ParsePath("form_layout"))); err != nil {
		return nil, fmt.Errorf("form_layout: %w", err)
	}
	return m, nil
}

func decodeLayout(v cue.Value) ([]layout.Element, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, err
	}
	var out []layout.Element
	for iter.Next() {
		el, err := decodeElement(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func decodeElement(v cue.Value) (layout.Element, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return layout.Name(s), nil
	case cue.StructKind:
		fields, err := decodeLayout(v.LookupPath(cue.ParsePath("fields")))
		if err != nil {
			return nil, err
		}
		if legend := v.LookupPath(cue.ParsePath("fieldset")); legend.Exists() {
			s, err := legend.String()
			if err != nil {
				return nil, err
			}
			css, _ := v.LookupPath(cue.ParsePath("css_class")).String()
			return &layout.Fieldset{Legend: s, CSSClass: css, Fields: fields}, nil
		}
		css, err := v.LookupPath(cue.ParsePath("column")).String()
		if err != nil {
			return nil, err
		}
		return &layout.Column{CSSClass: css, Fields: fields}, nil
	}
	return nil, fmt.Errorf("%s: unexpected layout element of kind %s", v.Pos(), v.Kind())
}

// FieldLister reports the display field names of a model label, and
// whether the label names a registered model.
type FieldLister func(label string) ([]string, bool)

// Validate checks that every configured model is registered and every
// layout names only fields the model displays, each at most once. All
// problems are reported.
func (c *Config) Validate(fields FieldLister) error {
	var errs []error
	labels := make([]string, 0, len(c.Models))
	for label := range c.Models {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		known, ok := fields(label)
		if !ok {
			errs = append(errs, fmt.Errorf("config: models: %q is not a registered model", label))
			continue
		}
		m := c.Models[label]
		for _, part := range []struct {
			name string
			els  []layout.Element
		}{{"detail_layout", m.DetailLayout}, {"form_layout", m.FormLayout}} {
			l := &layout.Layout{Fields: part.els}
			seen := make(map[string]bool)
			for _, n := range l.FieldNames() {
				switch {
				case !slices.Contains(known, n):
					errs = append(errs, fmt.Errorf("config: %s.%s: unknown field %q", label, part.name, n))
				case seen[n]:
					errs = append(errs, fmt.Errorf("config: %s.%s: field %q appears more than once", label, part.name, n))
				}
				seen[n] = true
			}
		}
	}
	return errors.Join(errs...)
}
