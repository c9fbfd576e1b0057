package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"

	"github.com/matthewbaird/exadmin/internal/meta"
)

// Book holds the schema definition for the Book entity.
type Book struct {
	ent.Schema
}

func (Book) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "books"},
		meta.Annotation{App: "library", Display: "title"},
	}
}

func (Book) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

// Fields of the Book.
func (Book) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New),
		field.String("title").NotEmpty(),
		field.String("isbn").
			Optional().
			Annotations(meta.Annotation{VerboseName: "ISBN"}),
		field.Int("pages").Optional(),
		field.Float("price").Optional(),
		field.Bool("in_print").Default(true),
		field.Time("published").Optional(),
		field.Enum("format").
			Values("hardcover", "paperback", "ebook").
			Default("paperback"),
		field.Int("author_id"),
		field.Int("publisher_id").Optional(),
	}
}

// Edges of the Book.
func (Book) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("author", Author.Type).
			Ref("books").
			Field("author_id").
			Unique().
			Required(),
		edge.From("publisher", Publisher.Type).
			Ref("books").
			Field("publisher_id").
			Unique(),
	}
}
