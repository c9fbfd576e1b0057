package layout

// Compose builds the layout for a detail page.
//
// With no declared layout every form field goes into one untitled
// fieldset. Otherwise the shape of the first declared element decides the
// wrapping: columns are placed in a bare container, fieldsets in a
// horizontal container, and anything else is treated as a flat list of
// fields inside one untitled fieldset. When showAll is set, form fields
// the declaration does not mention are appended as a fieldset titled
// otherTitle, inside the first column if the container starts with one.
//
// declared is copied; names not in formFields are dropped, and a name
// declared more than once keeps only its first position. The result
// still holds Name leaves; call Wrap before rendering read-only values.
func Compose(declared []Element, formFields []string, showAll bool, otherTitle string) *Layout {
	if len(declared) == 0 {
		set := NewFieldset("", formFields...)
		set.CSSClass = UntitledSetClass
		return &Layout{Fields: []Element{
			&Container{CSSClass: HorizontalClass, Fields: []Element{set}},
		}}
	}

	els := cloneAll(declared)
	var container *Container
	switch els[0].(type) {
	case *Column:
		container = &Container{Fields: els}
	case *Fieldset:
		container = &Container{Fields: els, CSSClass: HorizontalClass}
	default:
		container = &Container{
			CSSClass: HorizontalClass,
			Fields:   []Element{&Fieldset{CSSClass: UntitledSetClass, Fields: els}},
		}
	}
	l := &Layout{Fields: []Element{container}}

	known := make(map[string]bool, len(formFields))
	for _, f := range formFields {
		known[f] = true
	}
	seen := make(map[string]bool, len(formFields))
	l.Prune(func(name string) bool {
		if !known[name] || seen[name] {
			return false
		}
		seen[name] = true
		return true
	})

	if !showAll {
		return l
	}
	placed := make(map[string]bool)
	for _, n := range l.FieldNames() {
		placed[n] = true
	}
	var rest []string
	for _, f := range formFields {
		if !placed[f] {
			rest = append(rest, f)
		}
	}
	if len(rest) == 0 {
		return l
	}
	other := NewFieldset(otherTitle, rest...)
	if len(container.Fields) > 0 {
		if col, ok := container.Fields[0].(*Column); ok {
			col.Fields = append(col.Fields, other)
			return l
		}
	}
	container.Fields = append(container.Fields, other)
	return l
}
