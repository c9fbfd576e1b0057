// Package detail serves the read-only detail page of one record.
//
// A Site holds one ModelAdmin per registered model. Each request gets a
// View, which resolves the record, builds a display form whose layout
// comes from the admin configuration and renders it through the
// template chain admin/<app>/<model>/detail.html, admin/<app>/detail.html,
// admin/detail.html.
package detail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/exadmin/internal/config"
	"github.com/matthewbaird/exadmin/internal/display"
	"github.com/matthewbaird/exadmin/internal/meta"
	"github.com/matthewbaird/exadmin/internal/store"
	"github.com/matthewbaird/exadmin/internal/tmpl"
)

// ErrUnknownModel is returned for an app/model pair with no admin.
var ErrUnknownModel = errors.New("detail: unknown model")

// Attr is a computed attribute shown alongside model fields.
type Attr struct {
	Name  string
	Label string // defaults to the humanized name
	// Boolean renders the value as a yes/no/unknown icon.
	Boolean bool
	// AllowTags marks the value as HTML. It is sanitized, not escaped.
	AllowTags bool
	Value     func(ctx context.Context, rec *store.Record) (any, error)
}

func (a *Attr) label() string {
	if a.Label != "" {
		return a.Label
	}
	return meta.CapFirst(meta.Humanize(a.Name))
}

// ModelAdmin is the admin registration of one model.
type ModelAdmin struct {
	Model *meta.Model
	Attrs []*Attr
}

// Attr returns the computed attribute called name, or nil.
func (a *ModelAdmin) Attr(name string) *Attr {
	for _, at := range a.Attrs {
		if at.Name == name {
			return at
		}
	}
	return nil
}

// FieldNames returns the model's field names followed by its computed
// attributes.
func (a *ModelAdmin) FieldNames() []string {
	names := a.Model.FieldNames()
	for _, at := range a.Attrs {
		names = append(names, at.Name)
	}
	return names
}

// ConfigSource yields the admin configuration in effect.
type ConfigSource interface {
	Load() *config.Config
}

// Options wires a Site to its collaborators.
type Options struct {
	Registry  *meta.Registry
	Store     store.Store
	Config    ConfigSource
	Templates *tmpl.Renderer
	Logger    *slog.Logger
}

// Site serves detail pages for every registered model.
type Site struct {
	registry  *meta.Registry
	store     store.Store
	config    ConfigSource
	templates *tmpl.Renderer
	logger    *slog.Logger
	admins    map[string]*ModelAdmin
}

// NewSite creates a Site with a ModelAdmin for every model in the
// registry.
func NewSite(opts Options) *Site {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Site{
		registry:  opts.Registry,
		store:     opts.Store,
		config:    opts.Config,
		templates: opts.Templates,
		logger:    logger,
		admins:    make(map[string]*ModelAdmin),
	}
	for _, m := range opts.Registry.Models() {
		s.admins[m.Label()] = &ModelAdmin{Model: m}
	}
	return s
}

// Register attaches computed attributes to the admin of label.
func (s *Site) Register(label string, attrs ...*Attr) error {
	a, ok := s.admins[label]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, label)
	}
	for _, at := range attrs {
		if at.Name == "" || at.Value == nil {
			return fmt.Errorf("detail: %s: attribute needs a name and a value func", label)
		}
		if a.Model.Field(at.Name) != nil || a.Attr(at.Name) != nil {
			return fmt.Errorf("detail: %s: attribute %q clashes with an existing field", label, at.Name)
		}
		a.Attrs = append(a.Attrs, at)
	}
	return nil
}

// Admin returns the admin registered for app and model.
func (s *Site) Admin(app, model string) (*ModelAdmin, bool) {
	a, ok := s.admins[app+"."+model]
	return a, ok
}

// Known lists the names a layout for label may use. It satisfies
// config.FieldLister.
func (s *Site) Known(label string) ([]string, bool) {
	a, ok := s.admins[label]
	if !ok {
		return nil, false
	}
	return a.FieldNames(), true
}

// Config returns the admin configuration in effect.
func (s *Site) Config() *config.Config {
	if s.config == nil {
		return config.Default()
	}
	return s.config.Load()
}

// DetailURL returns the detail page path of the record of m keyed by pk.
func (s *Site) DetailURL(m *meta.Model, pk any) string {
	return fmt.Sprintf("%s/%s/%s/%s/detail/",
		s.Config().Site.Prefix, m.App, m.Name, Quote(display.Value(pk)))
}

// MediaURLs returns the stylesheets every admin page links.
func (s *Site) MediaURLs() []string {
	return []string{s.Config().Site.Prefix + "/static/exadmin/css/form.css"}
}

// ServeDetail handles GET {prefix}/{app}/{model}/{object_id}/detail/.
func (s *Site) ServeDetail(w http.ResponseWriter, r *http.Request) {
	v, err := s.View(r.Context(), chi.URLParam(r, "app"), chi.URLParam(r, "model"), chi.URLParam(r, "object_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v.ServeHTTP(w, r)
}

// View resolves the record for one detail request. The user is taken from
// ctx.
func (s *Site) View(ctx context.Context, app, model, objectID string) (*View, error) {
	a, ok := s.Admin(app, model)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownModel, app, model)
	}
	v := newView(ctx, s, a)
	if err := v.resolveObject(objectID); err != nil {
		return nil, err
	}
	return v, nil
}

// templateNames lists the candidate detail templates for a, most specific
// first.
func templateNames(a *ModelAdmin, opts *config.ModelAdmin) []string {
	if opts.DetailTemplate != "" {
		return []string{opts.DetailTemplate}
	}
	m := a.Model
	return []string{
		"admin/" + m.App + "/" + m.Name + "/detail.html",
		"admin/" + m.App + "/detail.html",
		"admin/detail.html",
	}
}

// knownExcluding filters names through the model's exclude list.
func knownExcluding(names []string, opts *config.ModelAdmin) []string {
	return slices.DeleteFunc(slices.Clone(names), opts.Excludes)
}
