package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	"github.com/matthewbaird/exadmin/internal/meta"
)

// Publisher holds the schema definition for the Publisher entity.
type Publisher struct {
	ent.Schema
}

func (Publisher) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "publishers"},
		meta.Annotation{App: "library", Display: "name"},
	}
}

func (Publisher) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

// Fields of the Publisher.
func (Publisher) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").NotEmpty(),
		field.String("website").
			Optional().
			Annotations(meta.Annotation{HelpText: "Public home page"}),
		field.Bool("active").Default(true),
	}
}

// Edges of the Publisher.
func (Publisher) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("books", Book.Type),
	}
}
