package detail

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/matthewbaird/exadmin/internal/auth"
	"github.com/matthewbaird/exadmin/internal/display"
	"github.com/matthewbaird/exadmin/internal/i18n"
	"github.com/matthewbaird/exadmin/internal/meta"
	"github.com/matthewbaird/exadmin/internal/store"
)

var (
	htmlPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

var errUnknownField = errors.New("detail: unknown field")

// ResultField is the resolved display value of one field.
type ResultField struct {
	Name      string
	Label     string
	AllowTags bool
	Text      string   // display text, HTML when AllowTags is set
	PlainText string   // Text without markup
	Wraps     []string // fmt formats applied in order, each with one %s
	Value     any      // raw value, a *store.Record for relations
	Field     *meta.Field
	Attr      *Attr

	null string
}

// Val returns the HTML for the value. Empty text renders the Null marker.
func (r *ResultField) Val() template.HTML {
	text := r.Text
	if !r.AllowTags {
		text = template.HTMLEscapeString(text)
	}
	if text == "" {
		text = `<span class="muted">` + template.HTMLEscapeString(r.null) + `</span>`
	}
	for _, wrap := range r.Wraps {
		text = fmt.Sprintf(wrap, text)
	}
	return template.HTML(text)
}

// Plain returns the value as plain text, or the Null marker.
func (r *ResultField) Plain() string {
	if r.PlainText == "" {
		return r.null
	}
	return r.PlainText
}

// LabelFor returns the label of a field or computed attribute of a.
func LabelFor(name string, a *ModelAdmin) string {
	if f := a.Model.Field(name); f != nil {
		return f.Label
	}
	if at := a.Attr(name); at != nil {
		return at.label()
	}
	if name == a.Model.PK.Name {
		return a.Model.PK.Label
	}
	return meta.CapFirst(meta.Humanize(name))
}

// FieldResult resolves the display value of field name on the record.
// Lookup failures are logged and yield an empty result.
func (v *View) FieldResult(name string) *ResultField {
	if r, ok := v.results[name]; ok {
		return r
	}
	item := &ResultField{
		Name:  name,
		Label: LabelFor(name, v.admin),
		null:  v.printer.Sprintf(i18n.MsgNull),
	}
	v.results[name] = item

	f, attr, value, err := v.lookupField(name)
	if err != nil {
		v.site.logger.Debug("field lookup failed",
			"model", v.admin.Model.Label(), "pk", v.objectID, "field", name, "error", err)
		return item
	}
	switch {
	case f == nil:
		item.AllowTags = attr.AllowTags
		if attr.Boolean {
			item.AllowTags = true
			b, _ := display.Bool(value)
			item.Text = string(display.BooleanIcon(b, v.printer))
			item.PlainText = v.boolText(b)
		} else {
			item.Text = display.Value(value)
			if item.AllowTags {
				item.Text = htmlPolicy.Sanitize(item.Text)
				item.PlainText = strings.TrimSpace(plainPolicy.Sanitize(item.Text))
			} else {
				item.PlainText = item.Text
			}
		}
	case f.IsRelation():
		if rel, ok := value.(*store.Record); ok {
			item.Text = rel.String()
			item.PlainText = item.Text
			if v.user.Can(auth.ActionChange, rel.Model.App, rel.Model.Name) {
				href := template.HTMLEscapeString(v.site.DetailURL(rel.Model, rel.PK))
				item.Wraps = append(item.Wraps, `<a href="`+strings.ReplaceAll(href, "%", "%%")+`">%s</a>`)
			}
		}
	default:
		item.Text, item.AllowTags = display.ForField(value, f, v.printer)
		if f.IsBool() {
			b, _ := display.Bool(value)
			item.PlainText = v.boolText(b)
		} else {
			item.PlainText = item.Text
		}
	}
	item.Field, item.Attr, item.Value = f, attr, value
	return item
}

func (v *View) boolText(b *bool) string {
	switch {
	case b == nil:
		return v.printer.Sprintf(i18n.MsgUnknown)
	case *b:
		return v.printer.Sprintf(i18n.MsgYes)
	}
	return v.printer.Sprintf(i18n.MsgNo)
}

// lookupField finds name on the record: a computed attribute (f is nil),
// or a model field. Relations are followed, so value is the related record.
func (v *View) lookupField(name string) (f *meta.Field, attr *Attr, value any, err error) {
	if attr = v.admin.Attr(name); attr != nil {
		value, err = attr.Value(v.ctx, v.obj)
		return nil, attr, value, err
	}
	f = v.admin.Model.Field(name)
	if f == nil {
		if name == v.admin.Model.PK.Name {
			return v.admin.Model.PK, nil, v.obj.PK, nil
		}
		return nil, nil, nil, fmt.Errorf("%w: %s", errUnknownField, name)
	}
	value, _ = v.obj.Value(f.Column)
	if !f.IsRelation() || value == nil {
		return f, nil, value, nil
	}
	target := v.site.registry.Related(f)
	if target == nil {
		return nil, nil, nil, fmt.Errorf("detail: %s: relation target %s is not registered", name, f.Relation.Target)
	}
	rel, err := v.site.store.Get(v.ctx, target, value)
	if err != nil {
		return nil, nil, nil, err
	}
	return f, nil, rel, nil
}
