package detail_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/exadmin/ent/schema"
	"github.com/matthewbaird/exadmin/internal/auth"
	"github.com/matthewbaird/exadmin/internal/config"
	"github.com/matthewbaird/exadmin/internal/detail"
	"github.com/matthewbaird/exadmin/internal/i18n"
	"github.com/matthewbaird/exadmin/internal/meta"
	"github.com/matthewbaird/exadmin/internal/store"
	"github.com/matthewbaird/exadmin/internal/tmpl"
)

var (
	bookID   = uuid.MustParse("5f0c3a52-6a9b-4f57-9a43-1f4e6bb4b0de")
	orphanID = uuid.MustParse("0a9d5c6e-1b2f-4c3d-8e7f-9a0b1c2d3e4f")

	superuser = &auth.User{Username: "root", Active: true, Superuser: true}
	reader    = &auth.User{Username: "ann", Active: true, Permissions: []string{"library.view_book"}}
	editor    = &auth.User{Username: "ed", Active: true, Permissions: []string{"library.change_book"}}
)

// countingStore records how often Get is called.
type countingStore struct {
	store.Store
	gets atomic.Int32
}

func (s *countingStore) Get(ctx context.Context, m *meta.Model, pk any) (*store.Record, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, m, pk)
}

type fixture struct {
	reg   *meta.Registry
	store *countingStore
	conf  *config.Holder
	site  *detail.Site
	tmpl  *tmpl.Renderer
}

func newFixture(t *testing.T, cueSrc string, templateDir string) *fixture {
	t.Helper()
	reg := meta.NewRegistry()
	require.NoError(t, reg.Register(schema.Publisher{}, schema.Author{}, schema.Book{}))

	mem := store.NewMemoryStore()
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	author := reg.Lookup("library.author")
	book := reg.Lookup("library.book")
	require.NoError(t, mem.Insert(ctx, store.NewRecord(author, int64(7), map[string]any{
		"created_at": created, "updated_at": created, "created_by": "system", "source": "import",
		"name": "Ursula K. Le Guin", "born": time.Date(1929, 10, 21, 0, 0, 0, 0, time.UTC),
	})))
	require.NoError(t, mem.Insert(ctx, store.NewRecord(book, bookID, map[string]any{
		"created_at": created, "updated_at": created, "created_by": "system", "source": "admin",
		"title": "The Left Hand of Darkness", "isbn": "", "pages": int64(304), "price": 9.99,
		"in_print": true, "published": time.Date(1969, 3, 1, 0, 0, 0, 0, time.UTC),
		"format": "paperback", "author_id": int64(7), "publisher_id": nil,
	})))
	require.NoError(t, mem.Insert(ctx, store.NewRecord(book, orphanID, map[string]any{
		"created_by": "system", "title": "Lost", "in_print": false, "format": "ebook",
		"author_id": int64(99),
	})))

	conf, err := config.Parse([]byte(cueSrc), "test.cue")
	require.NoError(t, err)

	f := &fixture{reg: reg, store: &countingStore{Store: mem}, conf: config.NewHolder(conf), tmpl: tmpl.New(templateDir)}
	f.site = detail.NewSite(detail.Options{
		Registry:  reg,
		Store:     f.store,
		Config:    f.conf,
		Templates: f.tmpl,
	})
	require.NoError(t, f.site.Register("library.book",
		&detail.Attr{Name: "is_classic", Boolean: true, Value: func(_ context.Context, r *store.Record) (any, error) {
			v, _ := r.FieldValue("published")
			t, ok := v.(time.Time)
			if !ok {
				return nil, nil
			}
			return t.Year() < 1980, nil
		}},
		&detail.Attr{Name: "blurb", AllowTags: true, Value: func(_ context.Context, r *store.Record) (any, error) {
			return `<em>classic</em><script>alert(1)</script>`, nil
		}},
		&detail.Attr{Name: "broken", Label: "Broken attr", Value: func(context.Context, *store.Record) (any, error) {
			return nil, errors.New("boom")
		}},
	))
	return f
}

func (f *fixture) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(i18n.Middleware)
	r.Get("/admin/{app}/{model}/{object_id}/detail/", f.site.ServeDetail)
	return r
}

func (f *fixture) get(t *testing.T, path string, u *auth.User, lang string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if u != nil {
		req = req.WithContext(auth.NewContext(req.Context(), u))
	}
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)
	return rec
}

func bookPath(id uuid.UUID) string {
	return "/admin/library/book/" + id.String() + "/detail/"
}

func TestServeDetail_EveryFieldOnce(t *testing.T) {
	f := newFixture(t, "", "")
	rec := f.get(t, bookPath(bookID), superuser, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()

	a, ok := f.site.Admin("library", "book")
	require.True(t, ok)
	for _, name := range a.FieldNames() {
		assert.Equal(t, 1, strings.Count(body, `id="div_id_`+name+`"`), name)
	}
	assert.Contains(t, body, "<title>book Detail | Site administration</title>")
	assert.Contains(t, body, `data-content-type="3"`)
	assert.Contains(t, body, `data-object-id="`+bookID.String()+`"`)
	assert.Contains(t, body, "The Left Hand of Darkness")
	assert.Contains(t, body, "/admin/static/exadmin/css/form.css")
}

func TestServeDetail_Anonymous(t *testing.T) {
	f := newFixture(t, "", "")
	rec := f.get(t, bookPath(bookID), nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	assert.Zero(t, f.store.gets.Load())
}

func TestServeDetail_PermissionDeniedBeforeRead(t *testing.T) {
	f := newFixture(t, "", "")
	for _, path := range []string{bookPath(bookID), bookPath(uuid.New()), "/admin/library/book/garbage/detail/"} {
		rec := f.get(t, path, reader, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Permission denied")
	}
	assert.Zero(t, f.store.gets.Load(), "store must not be read without change permission")
}

func TestServeDetail_NotFound(t *testing.T) {
	f := newFixture(t, "", "")
	tests := map[string]string{
		"missing uuid":    bookPath(uuid.New()),
		"unparsable key":  "/admin/library/book/not-a-uuid/detail/",
		"missing int key": "/admin/library/author/8/detail/",
		"unknown model":   "/admin/library/shelf/1/detail/",
		"unknown app":     "/admin/shop/book/1/detail/",
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			rec := f.get(t, path, superuser, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "Page not found")
		})
	}

	rec := f.get(t, "/admin/library/book/not-a-uuid/detail/", superuser, "")
	assert.Contains(t, rec.Body.String(), "book object with primary key &#34;not-a-uuid&#34; does not exist.")
}

func TestServeDetail_EditorAllowed(t *testing.T) {
	f := newFixture(t, "", "")
	rec := f.get(t, bookPath(bookID), editor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-can-change="true"`)
	assert.Contains(t, body, `data-can-delete="false"`)
	// The editor may not change authors, so the relation is not linked.
	assert.NotContains(t, body, `href="/admin/library/author/7/detail/"`)
	assert.Contains(t, body, "Ursula K. Le Guin")
}

func TestServeDetail_Localized(t *testing.T) {
	f := newFixture(t, `models: "library.book": detail_layout: ["title"]`, "")
	rec := f.get(t, bookPath(bookID), superuser, "es-ES,es;q=0.9")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Nulo")
	assert.Contains(t, body, "Otros campos")
	assert.Contains(t, body, "Detalle de book")
}

func TestServeDetail_DeclaredLayout(t *testing.T) {
	src := `models: "library.book": {
		detail_layout: [{fieldset: "Basics", fields: ["title", "author"]}]
		detail_show_all: false
	}`
	f := newFixture(t, src, "")
	rec := f.get(t, bookPath(bookID), superuser, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Basics")
	assert.Contains(t, body, `id="div_id_title"`)
	assert.Contains(t, body, `id="div_id_author"`)
	assert.NotContains(t, body, `id="div_id_isbn"`)
	assert.NotContains(t, body, "Other Fields")
}

func TestServeDetail_RepeatedLayoutFieldRendersOnce(t *testing.T) {
	f := newFixture(t, `models: "library.book": detail_layout: ["title", "title"]`, "")
	rec := f.get(t, bookPath(bookID), superuser, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), `id="div_id_title"`))
}

func TestServeDetail_TemplateFallback(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	write("admin/library/detail.html", `app-level {{.Opts.Name}}`)
	write("admin/library/author/detail.html", `model-level {{.Original}}`)
	write("admin/custom.html", `custom {{.ObjectID}}`)

	f := newFixture(t, `models: "library.publisher": detail_template: "admin/custom.html"`, dir)
	pub := f.reg.Lookup("library.publisher")
	require.NoError(t, f.store.Store.(store.Writer).Insert(context.Background(),
		store.NewRecord(pub, int64(1), map[string]any{"name": "Ace"})))

	assert.Equal(t, "app-level book", f.get(t, bookPath(bookID), superuser, "").Body.String())
	assert.Equal(t, "model-level Ursula K. Le Guin", f.get(t, "/admin/library/author/7/detail/", superuser, "").Body.String())
	assert.Equal(t, "custom 1", f.get(t, "/admin/library/publisher/1/detail/", superuser, "").Body.String())
}

func TestServeDetail_MissingTemplate(t *testing.T) {
	f := newFixture(t, `models: "library.book": detail_template: "admin/nowhere.html"`, "")
	rec := f.get(t, bookPath(bookID), superuser, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func view(t *testing.T, f *fixture, id uuid.UUID) *detail.View {
	t.Helper()
	ctx := auth.NewContext(context.Background(), superuser)
	v, err := f.site.View(ctx, "library", "book", id.String())
	require.NoError(t, err)
	return v
}

func TestFieldResult(t *testing.T) {
	f := newFixture(t, "", "")
	v := view(t, f, bookID)

	tests := []struct {
		field string
		val   string
		plain string
	}{
		{"title", "The Left Hand of Darkness", "The Left Hand of Darkness"},
		{"isbn", `<span class="muted">Null</span>`, "Null"},
		{"in_print", `<i class="fa fa-check-circle text-success" title="Yes"></i>`, "Yes"},
		{"format", "Paperback", "Paperback"},
		{"published", "1969-03-01", "1969-03-01"},
		{"price", "9.99", "9.99"},
		{"publisher", `<span class="muted">Null</span>`, "Null"},
		{"author", `<a href="/admin/library/author/7/detail/">Ursula K. Le Guin</a>`, "Ursula K. Le Guin"},
		{"is_classic", `<i class="fa fa-check-circle text-success" title="Yes"></i>`, "Yes"},
		{"blurb", `<em>classic</em>`, "classic"},
		{"broken", `<span class="muted">Null</span>`, "Null"},
		{"no_such_field", `<span class="muted">Null</span>`, "Null"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			r := v.FieldResult(tt.field)
			assert.Equal(t, tt.val, string(r.Val()))
			assert.Equal(t, tt.plain, r.Plain())
		})
	}

	assert.Equal(t, "Broken attr", v.FieldResult("broken").Label)
	assert.Equal(t, "Is classic", v.FieldResult("is_classic").Label)
	assert.Equal(t, "ISBN", v.FieldResult("isbn").Label)
}

func TestFieldResult_BooleanAttrFromInt(t *testing.T) {
	f := newFixture(t, "", "")
	require.NoError(t, f.site.Register("library.book",
		&detail.Attr{Name: "stocked", Boolean: true, Value: func(context.Context, *store.Record) (any, error) {
			return 1, nil
		}},
		&detail.Attr{Name: "retired", Boolean: true, Value: func(context.Context, *store.Record) (any, error) {
			return int64(0), nil
		}},
	))
	v := view(t, f, bookID)

	assert.Equal(t, `<i class="fa fa-check-circle text-success" title="Yes"></i>`, string(v.FieldResult("stocked").Val()))
	assert.Equal(t, "Yes", v.FieldResult("stocked").Plain())
	assert.Equal(t, `<i class="fa fa-times-circle text-error" title="No"></i>`, string(v.FieldResult("retired").Val()))
}

func TestFieldResult_EscapesText(t *testing.T) {
	f := newFixture(t, "", "")
	book := f.reg.Lookup("library.book")
	id := uuid.New()
	require.NoError(t, f.store.Store.(store.Writer).Insert(context.Background(), store.NewRecord(book, id, map[string]any{
		"title": `<b>bold</b>`, "in_print": false, "author_id": int64(7),
	})))
	v := view(t, f, id)
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", string(v.FieldResult("title").Val()))
	assert.Equal(t, `<i class="fa fa-times-circle text-error" title="No"></i>`, string(v.FieldResult("in_print").Val()))
}

func TestFieldResult_DanglingRelation(t *testing.T) {
	f := newFixture(t, "", "")
	v := view(t, f, orphanID)
	r := v.FieldResult("author")
	assert.Equal(t, `<span class="muted">Null</span>`, string(r.Val()))
	assert.Nil(t, r.Value)

	rec := f.get(t, bookPath(orphanID), superuser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestView_FormExcludes(t *testing.T) {
	f := newFixture(t, `models: "library.book": exclude: ["created_by", "source"]`, "")
	v := view(t, f, bookID)
	assert.NotContains(t, v.Form().Fields, "created_by")
	assert.NotContains(t, v.Form().Fields, "source")
	assert.Contains(t, v.Form().Fields, "is_classic")
}

func TestView_Rows(t *testing.T) {
	src := `models: "library.book": detail_layout: [
		{fieldset: "Basics", fields: ["title", "in_print"]},
	]`
	f := newFixture(t, src, "")
	rows := view(t, f, bookID).Rows()
	require.NotEmpty(t, rows)
	assert.Equal(t, detail.Row{Section: "Basics", Label: "Title", Value: "The Left Hand of Darkness"}, rows[0])
	assert.Equal(t, detail.Row{Section: "Basics", Label: "In print", Value: "Yes"}, rows[1])
	assert.Equal(t, "Other Fields", rows[2].Section)
}

func TestView_ConfigReloadApplies(t *testing.T) {
	f := newFixture(t, "", "")
	c, err := config.Parse([]byte(`models: "library.book": {detail_layout: ["title"], detail_show_all: false}`), "new.cue")
	require.NoError(t, err)
	f.conf.Store(c)
	assert.Equal(t, []string{"title"}, view(t, f, bookID).Form().Helper.FieldNames())
}

func TestSite_Register(t *testing.T) {
	f := newFixture(t, "", "")
	noop := func(context.Context, *store.Record) (any, error) { return nil, nil }
	assert.ErrorIs(t, f.site.Register("library.shelf", &detail.Attr{Name: "x", Value: noop}), detail.ErrUnknownModel)
	assert.Error(t, f.site.Register("library.book", &detail.Attr{Name: "title", Value: noop}))
	assert.Error(t, f.site.Register("library.book", &detail.Attr{Name: "nofunc"}))

	names, ok := f.site.Known("library.book")
	require.True(t, ok)
	assert.Contains(t, names, "blurb")
	_, ok = f.site.Known("library.shelf")
	assert.False(t, ok)
}

func TestSite_DetailURL(t *testing.T) {
	f := newFixture(t, `site: prefix: "/backoffice"`, "")
	assert.Equal(t, "/backoffice/library/author/7/detail/", f.site.DetailURL(f.reg.Lookup("library.author"), int64(7)))
}
