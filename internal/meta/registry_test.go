package meta_test

import (
	"testing"
	"time"

	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/exadmin/ent/schema"
	"github.com/matthewbaird/exadmin/internal/meta"
)

func testRegistry(t *testing.T) *meta.Registry {
	t.Helper()
	r := meta.NewRegistry()
	require.NoError(t, r.Register(schema.Publisher{}, schema.Author{}, schema.Book{}))
	return r
}

func TestFromSchema_Book(t *testing.T) {
	r := testRegistry(t)
	book := r.Model("library", "book")
	require.NotNil(t, book)

	assert.Equal(t, "library.book", book.Label())
	assert.Equal(t, "books", book.Table)
	assert.Equal(t, "title", book.Display)
	assert.Equal(t, 3, book.ContentTypeID)
	assert.Equal(t, field.TypeUUID, book.PK.Type)

	// Mixin fields come first, foreign keys are renamed after their edge.
	assert.Equal(t, []string{
		"created_at", "updated_at", "created_by", "source",
		"title", "isbn", "pages", "price", "in_print", "published", "format",
		"author", "publisher",
	}, book.FieldNames())

	author := book.Field("author")
	require.NotNil(t, author)
	assert.True(t, author.IsRelation())
	assert.Equal(t, "author_id", author.Column)
	assert.Equal(t, "Author", author.Relation.Target)
	assert.Same(t, r.Model("library", "author"), r.Related(author))

	assert.Equal(t, "ISBN", book.Field("isbn").Label)
	assert.Equal(t, "In print", book.Field("in_print").Label)
	assert.True(t, book.Field("in_print").IsBool())
	assert.Equal(t, "Paperback", book.Field("format").ChoiceLabel("paperback"))
	assert.Equal(t, "", book.Field("format").ChoiceLabel("scroll"))
}

func TestFromSchema_ImplicitIntPK(t *testing.T) {
	r := testRegistry(t)
	author := r.Lookup("library.author")
	require.NotNil(t, author)
	assert.Equal(t, field.TypeInt, author.PK.Type)
	assert.Equal(t, "id", author.PK.Column)
	assert.Equal(t, "Date of birth", author.Field("born").Label)
	assert.Equal(t, "Public home page", r.Lookup("library.publisher").Field("website").HelpText)
	assert.Equal(t, []string{"id", "created_at", "updated_at", "created_by", "source", "name", "email", "born", "biography"}, author.Columns())
}

func TestRegistry_DuplicateModel(t *testing.T) {
	r := testRegistry(t)
	err := r.Register(schema.Book{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")
}

func TestField_ParseValue(t *testing.T) {
	r := testRegistry(t)

	v, err := r.Lookup("library.author").PK.ParseValue("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = r.Lookup("library.author").PK.ParseValue("forty-two")
	assert.Error(t, err)

	id := uuid.New()
	v, err = r.Lookup("library.book").PK.ParseValue(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, v)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "book_author", meta.Snake("BookAuthor"))
	assert.Equal(t, "http_server", meta.Snake("HTTPServer"))
	assert.Equal(t, "pub date", meta.Humanize("pub_date"))
	assert.Equal(t, "Pub date", meta.CapFirst("pub date"))
	assert.Equal(t, "", meta.CapFirst(""))
}

func TestField_Default(t *testing.T) {
	r := testRegistry(t)
	book := r.Lookup("library.book")

	v, ok := book.Field("in_print").Default()
	require.True(t, ok)
	assert.Equal(t, true, v)

	v, ok = book.Field("source").Default()
	require.True(t, ok)
	assert.Equal(t, "admin", v)

	v, ok = book.Field("created_at").Default()
	require.True(t, ok)
	assert.IsType(t, time.Time{}, v)

	_, ok = book.Field("title").Default()
	assert.False(t, ok)
}
