package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/mixin"

	"github.com/matthewbaird/exadmin/internal/meta"
)

// AuditMixin provides the bookkeeping columns every admin-managed table
// carries. They are rarely placed in a declared detail layout, so they
// usually surface in the "Other Fields" group.
type AuditMixin struct {
	mixin.Schema
}

// Fields of the AuditMixin.
func (AuditMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Time("created_at").
			Default(time.Now).
			Immutable().
			Annotations(meta.Annotation{VerboseName: "created"}).
			Comment("When the record was created"),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Annotations(meta.Annotation{VerboseName: "last modified"}).
			Comment("When the record was last updated"),
		field.String("created_by").
			NotEmpty().
			Comment("Username or 'system' that created this record"),
		field.Enum("source").
			Values("admin", "import", "system").
			Default("admin").
			Comment("Origin of the record"),
	}
}
