package detail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"golang.org/x/text/message"

	"github.com/matthewbaird/exadmin/internal/auth"
	"github.com/matthewbaird/exadmin/internal/config"
	"github.com/matthewbaird/exadmin/internal/csrf"
	"github.com/matthewbaird/exadmin/internal/display"
	"github.com/matthewbaird/exadmin/internal/i18n"
	"github.com/matthewbaird/exadmin/internal/layout"
	"github.com/matthewbaird/exadmin/internal/meta"
	"github.com/matthewbaird/exadmin/internal/store"
)

// NotFoundError reports a missing record with a message fit for the page.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func (e *NotFoundError) Unwrap() error { return store.ErrNotFound }

// View renders the detail page of one record. A View belongs to a single
// request.
type View struct {
	ctx     context.Context
	site    *Site
	admin   *ModelAdmin
	conf    *config.Config
	opts    *config.ModelAdmin
	user    *auth.User
	printer *message.Printer

	obj      *store.Record
	objectID string
	form     *Form
	results  map[string]*ResultField
}

func newView(ctx context.Context, s *Site, a *ModelAdmin) *View {
	conf := s.Config()
	return &View{
		ctx:     ctx,
		site:    s,
		admin:   a,
		conf:    conf,
		opts:    conf.Model(a.Model.Label()),
		user:    auth.FromContext(ctx),
		printer: i18n.FromContext(ctx),
		results: make(map[string]*ResultField),
	}
}

// Object returns the resolved record.
func (v *View) Object() *store.Record { return v.obj }

// resolveObject loads the record named by the quoted objectID. The change
// permission is checked before the store is touched.
func (v *View) resolveObject(objectID string) error {
	m := v.admin.Model
	if v.user == nil {
		return auth.ErrUnauthenticated
	}
	if !v.hasPermission(auth.ActionChange) {
		return fmt.Errorf("%w: %s", auth.ErrPermissionDenied, auth.Perm(m.App, auth.ActionChange, m.Name))
	}

	key := Unquote(objectID)
	notFound := &NotFoundError{Message: v.printer.Sprintf(i18n.MsgObjectNotFound, m.VerboseName, key)}
	pk, err := m.PK.ParseValue(key)
	if err != nil {
		return notFound
	}
	obj, err := v.site.store.Get(v.ctx, m, pk)
	if store.IsNotFound(err) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("detail: load %s %q: %w", m.Label(), key, err)
	}
	v.obj = obj
	v.objectID = display.Value(obj.PK)
	return nil
}

func (v *View) hasPermission(action string) bool {
	m := v.admin.Model
	return v.user.Can(action, m.App, m.Name)
}

// Form returns the display form, building it on first use.
func (v *View) Form() *Form {
	if v.form == nil {
		v.form = v.modelForm()
		v.form.Helper = v.formHelper()
	}
	return v.form
}

// modelForm builds the display form: model fields not excluded by the
// configuration, followed by computed attributes.
func (v *View) modelForm() *Form {
	return &Form{
		view:   v,
		Fields: knownExcluding(v.admin.FieldNames(), v.opts),
	}
}

// formLayout composes the configured layout with the form's fields.
func (v *View) formLayout() *layout.Layout {
	return layout.Compose(v.opts.Layout(), v.form.Fields, v.opts.ShowAll,
		v.printer.Sprintf(i18n.MsgOtherFields))
}

// formHelper returns the form layout with every field leaf wrapped for
// read-only display.
func (v *View) formHelper() *layout.Layout {
	l := v.formLayout()
	l.Wrap()
	return l
}

// Context is the data handed to detail templates.
type Context struct {
	Title     string
	SiteTitle string
	Prefix    string
	Media     []string
	User      *auth.User
	CSRFToken string

	Form                *Form
	Original            *store.Record
	ObjectID            string
	AppLabel            string
	Opts                *meta.Model
	ContentTypeID       int
	HasAddPermission    bool
	HasChangePermission bool
	HasDeletePermission bool
}

// Context gathers the template data for the page.
func (v *View) Context(csrfToken string) *Context {
	m := v.admin.Model
	return &Context{
		Title:     v.printer.Sprintf(i18n.MsgDetailTitle, m.VerboseName),
		SiteTitle: v.conf.Site.Title,
		Prefix:    v.conf.Site.Prefix,
		Media:     v.site.MediaURLs(),
		User:      v.user,
		CSRFToken: csrfToken,

		Form:                v.Form(),
		Original:            v.obj,
		ObjectID:            v.objectID,
		AppLabel:            m.App,
		Opts:                m,
		ContentTypeID:       m.ContentTypeID,
		HasAddPermission:    v.hasPermission(auth.ActionAdd),
		HasChangePermission: v.hasPermission(auth.ActionChange),
		HasDeletePermission: v.hasPermission(auth.ActionDelete),
	}
}

// ServeHTTP renders the page through the first template that exists.
func (v *View) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	data := v.Context(csrf.Token(r.Context()))
	if err := v.site.templates.Render(&buf, templateNames(v.admin, v.opts), data); err != nil {
		v.site.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ErrorPage is the data handed to error templates.
type ErrorPage struct {
	Status    int
	Title     string
	Message   string
	SiteTitle string
	Prefix    string
	Media     []string
	User      *auth.User
}

// fail writes the error page matching err.
func (s *Site) fail(w http.ResponseWriter, r *http.Request, err error) {
	p := i18n.FromContext(r.Context())
	conf := s.Config()
	page := ErrorPage{
		SiteTitle: conf.Site.Title,
		Prefix:    conf.Site.Prefix,
		Media:     s.MediaURLs(),
		User:      auth.FromContext(r.Context()),
	}
	var nf *NotFoundError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		page.Status, page.Title, page.Message = http.StatusUnauthorized, p.Sprintf(i18n.MsgUnauthorized), p.Sprintf(i18n.MsgLoginRequired)
		w.Header().Set("WWW-Authenticate", `Bearer realm="exadmin"`)
	case errors.Is(err, auth.ErrPermissionDenied):
		page.Status, page.Title = http.StatusForbidden, p.Sprintf(i18n.MsgForbidden)
	case errors.As(err, &nf):
		page.Status, page.Title, page.Message = http.StatusNotFound, p.Sprintf(i18n.MsgNotFound), nf.Message
	case errors.Is(err, ErrUnknownModel):
		page.Status, page.Title = http.StatusNotFound, p.Sprintf(i18n.MsgNotFound)
		page.Message = p.Sprintf(i18n.MsgUnknownModel, r.URL.Path)
	default:
		s.logger.Error("detail view failed", "path", r.URL.Path, "error", err)
		http.Error(w, p.Sprintf(i18n.MsgServerError), http.StatusInternalServerError)
		return
	}
	s.logger.Debug("detail view refused", "path", r.URL.Path, "status", page.Status, "error", err)

	var buf bytes.Buffer
	name := fmt.Sprintf("admin/%d.html", page.Status)
	if rerr := s.templates.Render(&buf, []string{name}, page); rerr != nil {
		s.logger.Error("error template failed", "template", name, "error", rerr)
		http.Error(w, page.Title, page.Status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(page.Status)
	_, _ = buf.WriteTo(w)
}

// Form is the read-only form of a detail page. It implements
// layout.Renderer so its helper layout can render through it.
type Form struct {
	view   *View
	Fields []string
	Helper *layout.Layout
}

// Render renders the helper layout.
func (f *Form) Render() (template.HTML, error) {
	return f.Helper.Render(f)
}

// Partial renders a layout template.
func (f *Form) Partial(name string, data any) (template.HTML, error) {
	return f.view.site.templates.Partial(name, data)
}

// FieldValueTemplate renders one read-only field.
const FieldValueTemplate = "admin/layout/field_value.html"

// FieldValue is the data handed to FieldValueTemplate.
type FieldValue struct {
	Name     string
	Label    string
	HelpText string
	Result   *ResultField
}

// RenderField renders the value of field name.
func (f *Form) RenderField(name string) (template.HTML, error) {
	res := f.view.FieldResult(name)
	fv := FieldValue{Name: name, Label: res.Label, Result: res}
	if res.Field != nil {
		fv.HelpText = res.Field.HelpText
	}
	return f.Partial(FieldValueTemplate, fv)
}
