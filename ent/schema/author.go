package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	"github.com/matthewbaird/exadmin/internal/meta"
)

// Author holds the schema definition for the Author entity.
type Author struct {
	ent.Schema
}

func (Author) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "authors"},
		meta.Annotation{App: "library", Display: "name"},
	}
}

func (Author) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

// Fields of the Author.
func (Author) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").NotEmpty(),
		field.String("email").Optional(),
		field.Time("born").
			Optional().
			Annotations(meta.Annotation{VerboseName: "date of birth"}),
		field.Text("biography").Optional(),
	}
}

// Edges of the Author.
func (Author) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("books", Book.Type),
	}
}
