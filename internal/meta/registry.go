package meta

import (
	"fmt"

	"entgo.io/ent"
)

// Registry holds metadata for every admin-managed model. It is populated at
// startup and is safe for concurrent read access afterwards.
type Registry struct {
	models map[string]*Model // "app.model" -> model
	byType map[string]*Model // Go type name -> model
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*Model),
		byType: make(map[string]*Model),
	}
}

// Register introspects and adds the given schemas.
func (r *Registry) Register(schemas ...ent.Interface) error {
	for _, s := range schemas {
		m, err := FromSchema(s)
		if err != nil {
			return err
		}
		if err := r.Add(m); err != nil {
			return err
		}
	}
	return nil
}

// Add adds an already built model and assigns its content type id.
func (r *Registry) Add(m *Model) error {
	if _, dup := r.models[m.Label()]; dup {
		return fmt.Errorf("meta: model %s registered twice", m.Label())
	}
	r.order = append(r.order, m.Label())
	m.ContentTypeID = len(r.order)
	r.models[m.Label()] = m
	r.byType[m.Type] = m
	return nil
}

// Model returns the model for an app label and object name, or nil.
func (r *Registry) Model(app, name string) *Model {
	return r.models[app+"."+name]
}

// Lookup returns the model for an "app.model" label, or nil.
func (r *Registry) Lookup(label string) *Model {
	return r.models[label]
}

// Related returns the target model of a relational field, or nil.
func (r *Registry) Related(f *Field) *Model {
	if f == nil || f.Relation == nil {
		return nil
	}
	return r.byType[f.Relation.Target]
}

// Models returns all models in registration order.
func (r *Registry) Models() []*Model {
	out := make([]*Model, len(r.order))
	for i, label := range r.order {
		out[i] = r.models[label]
	}
	return out
}
