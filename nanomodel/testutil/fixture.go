package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// BlogData provides typed access to the blog fixture
type BlogData struct {
	Users *nanomodel.Model
	Posts *nanomodel.Model

	John *nanomodel.Row // ID: 1 - default bio
	Jane *nanomodel.Row // ID: 2 - admin with custom bio

	HelloWorld *nanomodel.Row // ID: 1 - by John, 3 likes
	HelloAPI   *nanomodel.Row // ID: 2 - by Jane, 10 likes
	ThirdPost  *nanomodel.Row // ID: 3 - by John, 1 like
}

// fixtureData represents the JSON structure in blog.json
type fixtureData struct {
	Collections []nanomodel.Document `json:"collections"`
}

// FixturePath returns the absolute path of a file under nanomodel/testdata.
func FixturePath(t *testing.T, name string) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get runtime caller info")
	}
	return filepath.Join(filepath.Dir(filename), "..", "testdata", name)
}

// LoadBlogDocuments reads the raw documents of the blog fixture, User first.
func LoadBlogDocuments(t *testing.T) []nanomodel.Document {
	t.Helper()
	data, err := os.ReadFile(FixturePath(t, "blog.json"))
	if err != nil {
		t.Fatalf("failed to read fixture file: %v", err)
	}
	var fixture fixtureData
	if err := json.Unmarshal(data, &fixture); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return fixture.Collections
}

// LoadBlog deserializes the blog fixture into live User and Post models.
func LoadBlog(t *testing.T, opts ...nanomodel.Option) *BlogData {
	t.Helper()
	docs := LoadBlogDocuments(t)
	if len(docs) != 2 {
		t.Fatalf("expected 2 collections in fixture, got %d", len(docs))
	}

	users, err := nanomodel.Deserialize(docs[0], nil, opts...)
	if err != nil {
		t.Fatalf("failed to load users: %v", err)
	}
	posts, err := nanomodel.Deserialize(docs[1], nanomodel.Bindings{"User": users}, opts...)
	if err != nil {
		t.Fatalf("failed to load posts: %v", err)
	}

	return &BlogData{
		Users:      users,
		Posts:      posts,
		John:       mustGet(t, users, 1),
		Jane:       mustGet(t, users, 2),
		HelloWorld: mustGet(t, posts, 1),
		HelloAPI:   mustGet(t, posts, 2),
		ThirdPost:  mustGet(t, posts, 3),
	}
}

// NewBlog builds the same schema as the fixture from code, without rows.
func NewBlog(opts ...nanomodel.Option) (users, posts *nanomodel.Model) {
	users = nanomodel.New("User", nanomodel.Fields{
		{Name: "name", Type: nanomodel.String()},
		{Name: "handle", Type: nanomodel.String()},
		{Name: "bio", Type: nanomodel.String().WithDefault("No bio provided.")},
		{Name: "admin", Type: nanomodel.Boolean()},
	}, opts...)
	posts = nanomodel.New("Post", nanomodel.Fields{
		{Name: "title", Type: nanomodel.String()},
		{Name: "content", Type: nanomodel.String().WithDefault("No content provided.")},
		{Name: "likes", Type: nanomodel.Number()},
		{Name: "author", Type: nanomodel.Ref(users)},
	}, opts...)
	return users, posts
}

func mustGet(t *testing.T, m *nanomodel.Model, id int64) *nanomodel.Row {
	t.Helper()
	row := m.Get(id)
	if row == nil {
		t.Fatalf("fixture %s has no row %d", m.Name(), id)
	}
	return row
}
