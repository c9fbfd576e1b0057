package detail

import "github.com/matthewbaird/exadmin/internal/layout"

// Row is one field of a plain-text rendering of the page.
type Row struct {
	Section string // legend of the enclosing fieldset
	Label   string
	Value   string
}

// Rows returns the displayed fields in layout order with plain values.
func (v *View) Rows() []Row {
	var rows []Row
	v.collectRows(v.Form().Helper.Fields, "", &rows)
	return rows
}

func (v *View) collectRows(els []layout.Element, section string, rows *[]Row) {
	for _, el := range els {
		switch n := el.(type) {
		case *layout.ShowField:
			r := v.FieldResult(n.Name)
			*rows = append(*rows, Row{Section: section, Label: r.Label, Value: r.Plain()})
		case layout.Name:
			r := v.FieldResult(string(n))
			*rows = append(*rows, Row{Section: section, Label: r.Label, Value: r.Plain()})
		case *layout.Fieldset:
			v.collectRows(n.Fields, n.Legend, rows)
		case *layout.Column:
			v.collectRows(n.Fields, section, rows)
		case *layout.Container:
			v.collectRows(n.Fields, section, rows)
		}
	}
}
