package store_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/exadmin/ent/schema"
	"github.com/matthewbaird/exadmin/internal/meta"
	"github.com/matthewbaird/exadmin/internal/store"
)

const testFixtures = `
- model: library.publisher
  pk: 1
  fields:
    created_by: system
    name: Ace Books
    active: true
- model: library.author
  pk: 7
  fields:
    created_by: system
    name: Ursula K. Le Guin
    born: 1929-10-21
- model: library.book
  pk: 5f0c3a52-6a9b-4f57-9a43-1f4e6bb4b0de
  fields:
    created_by: system
    title: The Left Hand of Darkness
    pages: 304
    price: 9.99
    in_print: true
    format: paperback
    author: 7
    publisher: 1
`

var bookID = uuid.MustParse("5f0c3a52-6a9b-4f57-9a43-1f4e6bb4b0de")

func testRegistry(t *testing.T) *meta.Registry {
	t.Helper()
	r := meta.NewRegistry()
	require.NoError(t, r.Register(schema.Publisher{}, schema.Author{}, schema.Book{}))
	return r
}

func openSQLite(t *testing.T) *store.SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return store.NewSQLStore(entsql.OpenDB(dialect.SQLite, db))
}

func TestMemoryStore_GetAndNotFound(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	author := reg.Lookup("library.author")
	s := store.NewMemoryStore()

	rec := store.NewRecord(author, int64(1), map[string]any{"name": "N. K. Jemisin"})
	require.NoError(t, s.Insert(ctx, rec))

	got, err := s.Get(ctx, author, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "N. K. Jemisin", got.String())

	_, err = s.Get(ctx, author, int64(2))
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestRecord_StringFallback(t *testing.T) {
	reg := testRegistry(t)
	rec := store.NewRecord(reg.Lookup("library.author"), int64(3), nil)
	assert.Equal(t, "Author object (3)", rec.String())

	v, ok := rec.Value("id")
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok = rec.FieldValue("no_such_field")
	assert.False(t, ok)
}

func TestSQLStore_FixturesRoundTrip(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	s := openSQLite(t)
	require.NoError(t, s.Migrate(ctx, reg.Models()...))

	n, err := store.LoadFixtures(ctx, strings.NewReader(testFixtures), reg, s)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	book, err := s.Get(ctx, reg.Lookup("library.book"), bookID)
	require.NoError(t, err)
	assert.Equal(t, bookID, book.PK)
	assert.Equal(t, "The Left Hand of Darkness", book.String())

	inPrint, _ := book.FieldValue("in_print")
	assert.Equal(t, true, inPrint)
	pages, _ := book.FieldValue("pages")
	assert.Equal(t, int64(304), pages)
	price, _ := book.FieldValue("price")
	assert.InDelta(t, 9.99, price, 0.0001)
	author, _ := book.FieldValue("author")
	assert.Equal(t, int64(7), author)
	published, ok := book.FieldValue("published")
	assert.True(t, ok)
	assert.Nil(t, published)

	le, err := s.Get(ctx, reg.Lookup("library.author"), int64(7))
	require.NoError(t, err)
	born, _ := le.FieldValue("born")
	require.IsType(t, time.Time{}, born)
	assert.Equal(t, 1929, born.(time.Time).Year())
}

func TestSQLStore_NotFound(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	s := openSQLite(t)
	require.NoError(t, s.Migrate(ctx, reg.Models()...))

	_, err := s.Get(ctx, reg.Lookup("library.author"), int64(99))
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	s := openSQLite(t)
	require.NoError(t, s.Migrate(ctx, reg.Models()...))
	require.NoError(t, s.Migrate(ctx, reg.Models()...))
}

func TestLoadFixtures_UnknownModel(t *testing.T) {
	reg := testRegistry(t)
	_, err := store.LoadFixtures(context.Background(), strings.NewReader("- model: shop.order\n  pk: 1\n"), reg, store.NewMemoryStore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown model "shop.order"`)
}

func TestLoadFixtures_UnknownField(t *testing.T) {
	reg := testRegistry(t)
	src := "- model: library.author\n  pk: 1\n  fields:\n    nickname: Ursula\n"
	_, err := store.LoadFixtures(context.Background(), strings.NewReader(src), reg, store.NewMemoryStore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "nickname"`)
}

func TestLoadFixtures_Empty(t *testing.T) {
	n, err := store.LoadFixtures(context.Background(), strings.NewReader(""), testRegistry(t), store.NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
