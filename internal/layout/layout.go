// Package layout describes how detail fields are grouped on the page and
// composes a declared layout with the fields a form actually has.
//
// A layout is a tree: Layout holds Containers, a Container holds Columns,
// Fieldsets or fields, a Column holds Fieldsets or fields and a Fieldset
// holds fields. Declared layouts name fields with Name leaves; Wrap turns
// every leaf into a ShowField, the node that renders a read-only value.
package layout

import "html/template"

// CSS classes applied by Compose.
const (
	HorizontalClass  = "form-horizontal"
	UntitledSetClass = "unsort no_title"
)

// Element is a node of a layout tree.
type Element interface {
	// Render produces the node's HTML using r for partial templates and
	// field values.
	Render(r Renderer) (template.HTML, error)
	clone() Element
}

// Renderer supplies the templates and field values a layout renders with.
type Renderer interface {
	// Partial renders a named layout template with data.
	Partial(name string, data any) (template.HTML, error)
	// RenderField renders the read-only value of one form field.
	RenderField(name string) (template.HTML, error)
}

// Partial template names.
const (
	ContainerTemplate = "admin/layout/container.html"
	ColumnTemplate    = "admin/layout/column.html"
	FieldsetTemplate  = "admin/layout/fieldset.html"
)

// Block is the data passed to container, column and fieldset partials.
type Block struct {
	Legend   string
	CSSClass string
	Body     template.HTML
}

// Name is a field name leaf in a declared layout.
type Name string

func (n Name) Render(r Renderer) (template.HTML, error) {
	return r.RenderField(string(n))
}

func (n Name) clone() Element { return n }

// ShowField renders the value of one field. Wrap replaces Name leaves with
// ShowField nodes.
type ShowField struct {
	Name string
}

func (f *ShowField) Render(r Renderer) (template.HTML, error) {
	return r.RenderField(f.Name)
}

func (f *ShowField) clone() Element { return &ShowField{Name: f.Name} }

// Fieldset is a titled group of fields.
type Fieldset struct {
	Legend   string
	CSSClass string
	Fields   []Element
}

// NewFieldset returns a fieldset holding the named fields.
func NewFieldset(legend string, names ...string) *Fieldset {
	return &Fieldset{Legend: legend, Fields: Names(names...)}
}

func (f *Fieldset) Render(r Renderer) (template.HTML, error) {
	body, err := renderAll(r, f.Fields)
	if err != nil {
		return "", err
	}
	return r.Partial(FieldsetTemplate, Block{Legend: f.Legend, CSSClass: f.CSSClass, Body: body})
}

func (f *Fieldset) clone() Element {
	return &Fieldset{Legend: f.Legend, CSSClass: f.CSSClass, Fields: cloneAll(f.Fields)}
}

// Column is a vertical band of fieldsets or fields.
type Column struct {
	CSSClass string
	Fields   []Element
}

func (c *Column) Render(r Renderer) (template.HTML, error) {
	body, err := renderAll(r, c.Fields)
	if err != nil {
		return "", err
	}
	return r.Partial(ColumnTemplate, Block{CSSClass: c.CSSClass, Body: body})
}

func (c *Column) clone() Element {
	return &Column{CSSClass: c.CSSClass, Fields: cloneAll(c.Fields)}
}

// Container is the outermost visual block of a layout.
type Container struct {
	CSSClass string
	Fields   []Element
}

func (c *Container) Render(r Renderer) (template.HTML, error) {
	body, err := renderAll(r, c.Fields)
	if err != nil {
		return "", err
	}
	return r.Partial(ContainerTemplate, Block{CSSClass: c.CSSClass, Body: body})
}

func (c *Container) clone() Element {
	return &Container{CSSClass: c.CSSClass, Fields: cloneAll(c.Fields)}
}

// Layout is the root of a composed layout.
type Layout struct {
	Fields []Element
}

// Render renders every top-level element in order.
func (l *Layout) Render(r Renderer) (template.HTML, error) {
	return renderAll(r, l.Fields)
}

// Clone returns a deep copy of l.
func (l *Layout) Clone() *Layout {
	return &Layout{Fields: cloneAll(l.Fields)}
}

// Names builds Name leaves.
func Names(names ...string) []Element {
	out := make([]Element, len(names))
	for i, n := range names {
		out[i] = Name(n)
	}
	return out
}

// Walk calls fn for every node below l in depth-first order.
func (l *Layout) Walk(fn func(Element)) {
	walk(l.Fields, fn)
}

func walk(els []Element, fn func(Element)) {
	for _, el := range els {
		fn(el)
		if kids := children(el); kids != nil {
			walk(*kids, fn)
		}
	}
}

// children returns a pointer to the child slice of a group node, or nil
// for leaves.
func children(el Element) *[]Element {
	switch n := el.(type) {
	case *Container:
		return &n.Fields
	case *Column:
		return &n.Fields
	case *Fieldset:
		return &n.Fields
	}
	return nil
}

// FieldNames returns the field names of every leaf in order.
func (l *Layout) FieldNames() []string {
	var names []string
	l.Walk(func(el Element) {
		switch n := el.(type) {
		case Name:
			names = append(names, string(n))
		case *ShowField:
			names = append(names, n.Name)
		}
	})
	return names
}

// Wrap replaces every Name leaf at any depth with a ShowField.
func (l *Layout) Wrap() {
	wrap(l.Fields)
}

func wrap(els []Element) {
	for i, el := range els {
		if n, ok := el.(Name); ok {
			els[i] = &ShowField{Name: string(n)}
			continue
		}
		if kids := children(el); kids != nil {
			wrap(*kids)
		}
	}
}

// Prune removes leaves whose name keep rejects. Group nodes are kept even
// when they end up empty.
func (l *Layout) Prune(keep func(name string) bool) {
	l.Fields = prune(l.Fields, keep)
}

func prune(els []Element, keep func(string) bool) []Element {
	out := els[:0]
	for _, el := range els {
		switch n := el.(type) {
		case Name:
			if !keep(string(n)) {
				continue
			}
		case *ShowField:
			if !keep(n.Name) {
				continue
			}
		default:
			if kids := children(el); kids != nil {
				*kids = prune(*kids, keep)
			}
		}
		out = append(out, el)
	}
	return out
}

func renderAll(r Renderer, els []Element) (template.HTML, error) {
	var html template.HTML
	for _, el := range els {
		h, err := el.Render(r)
		if err != nil {
			return "", err
		}
		html += h
	}
	return html, nil
}

func cloneAll(els []Element) []Element {
	if els == nil {
		return nil
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el.clone()
	}
	return out
}
