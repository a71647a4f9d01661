package nanomodel_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/nanomodel/testutil"
)

func assertSameModel(t *testing.T, want, got *nanomodel.Model) {
	t.Helper()
	if got.Name() != want.Name() {
		t.Errorf("expected name %s, got %s", want.Name(), got.Name())
	}
	wf, gf := want.Fields(), got.Fields()
	if strings.Join(wf.Names(), ",") != strings.Join(gf.Names(), ",") {
		t.Fatalf("field order differs: %v vs %v", wf.Names(), gf.Names())
	}
	for i := range wf {
		if wf[i].Type.Kind() != gf[i].Type.Kind() || wf[i].Type.Default() != gf[i].Type.Default() {
			t.Errorf("field %s differs: %v/%v vs %v/%v", wf[i].Name,
				wf[i].Type, wf[i].Type.Default(), gf[i].Type, gf[i].Type.Default())
		}
	}
	wr, gr := want.Query().Export(), got.Query().Export()
	if len(wr) != len(gr) {
		t.Fatalf("expected %d rows, got %d", len(wr), len(gr))
	}
	for i := range wr {
		for k, v := range wr[i] {
			if gr[i][k] != v {
				t.Errorf("row %d %s: expected %#v, got %#v", i, k, v, gr[i][k])
			}
		}
	}
}

func TestRoundTripWithoutReferences(t *testing.T) {
	m := nanomodel.New("Item", nanomodel.Fields{
		{Name: "zeta", Type: nanomodel.String().WithDefault("z")},
		{Name: "alpha", Type: nanomodel.Number()},
		{Name: "mid", Type: nanomodel.Boolean().WithDefault(true)},
		{Name: "code", Type: nanomodel.ID()},
	})
	mustCreate(t, m, nanomodel.Data{"zeta": "one", "alpha": 1.5, "code": 9})
	mustCreate(t, m, nanomodel.Data{"alpha": "7", "mid": 0})

	t.Run("document", func(t *testing.T) {
		got, err := nanomodel.Deserialize(m.Serialize(), nil)
		if err != nil {
			t.Fatal(err)
		}
		assertSameModel(t, m, got)
	})

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(m)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"fields":{"zeta":`) {
			t.Errorf("expected declaration order in JSON, got %s", data)
		}
		got, err := nanomodel.FromJSON(data, nil)
		if err != nil {
			t.Fatal(err)
		}
		assertSameModel(t, m, got)
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(m)
		if err != nil {
			t.Fatal(err)
		}
		text := string(data)
		if strings.Index(text, "zeta:") > strings.Index(text, "alpha:") {
			t.Errorf("expected declaration order in YAML, got\n%s", text)
		}
		got, err := nanomodel.FromYAML(data, nil)
		if err != nil {
			t.Fatal(err)
		}
		assertSameModel(t, m, got)
	})
}

func TestRoundTripWithReferences(t *testing.T) {
	blog := testutil.LoadBlog(t)

	data, err := json.Marshal(blog.Posts)
	if err != nil {
		t.Fatal(err)
	}
	posts, err := nanomodel.FromJSON(data, nanomodel.Bindings{"User": blog.Users})
	if err != nil {
		t.Fatal(err)
	}
	assertSameModel(t, blog.Posts, posts)

	for _, row := range posts.Query().All() {
		original := blog.Posts.Get(row.ID())
		want, _ := original.Ref("author")
		author := row.Resolve("author")
		if author == nil || author.ID() != want.Resolve().ID() {
			t.Errorf("post %d: author did not resolve to user %v", row.ID(), want.RawID())
		}
	}

	blog.Users.Delete(2)
	if posts.Get(2).Resolve("author") != nil {
		t.Error("expected live lookup against the bound model")
	}
}

func TestDeserializeFailures(t *testing.T) {
	docs := testutil.LoadBlogDocuments(t)

	t.Run("missing binding", func(t *testing.T) {
		_, err := nanomodel.Deserialize(docs[1], nil)
		if !errors.Is(err, nanomodel.ErrUnboundArgument) {
			t.Fatalf("expected ErrUnboundArgument, got %v", err)
		}
		if !strings.Contains(err.Error(), "Post.author") {
			t.Errorf("expected error to name the field, got %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		doc := `{"name":"X","fields":{"when":{"name":"DATE","args":[],"defaultValue":null}},"data":[]}`
		if _, err := nanomodel.FromJSON([]byte(doc), nil); !errors.Is(err, nanomodel.ErrUnknownType) {
			t.Errorf("expected ErrUnknownType, got %v", err)
		}
	})

	t.Run("duplicate field", func(t *testing.T) {
		doc := `{"name":"X","fields":{"a":{"name":"STRING","args":[],"defaultValue":""},"a":{"name":"NUMBER","args":[],"defaultValue":0}},"data":[]}`
		if _, err := nanomodel.FromJSON([]byte(doc), nil); !errors.Is(err, nanomodel.ErrInvalidDocument) {
			t.Errorf("expected ErrInvalidDocument, got %v", err)
		}
	})

	t.Run("fields not an object", func(t *testing.T) {
		doc := `{"name":"X","fields":[],"data":[]}`
		if _, err := nanomodel.FromJSON([]byte(doc), nil); !errors.Is(err, nanomodel.ErrInvalidDocument) {
			t.Errorf("expected ErrInvalidDocument, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := nanomodel.FromJSON([]byte(`{`), nil); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("strict rows", func(t *testing.T) {
		doc := `{"name":"X","fields":{"n":{"name":"NUMBER","args":[],"defaultValue":0}},"data":[{"id":1,"n":"nope"}]}`
		_, err := nanomodel.FromJSON([]byte(doc), nil, nanomodel.WithCoercion(nanomodel.CoerceStrict))
		if !errors.Is(err, nanomodel.ErrCoercion) {
			t.Errorf("expected ErrCoercion, got %v", err)
		}
	})
}

func TestSelfReference(t *testing.T) {
	doc := `{
		"name": "Node",
		"fields": {
			"label": {"name": "STRING", "args": [], "defaultValue": ""},
			"parent": {"name": "REF", "args": ["Node"], "defaultValue": null}
		},
		"data": [
			{"id": 1, "label": "root", "parent": null},
			{"id": 2, "label": "leaf", "parent": 1}
		]
	}`
	nodes, err := nanomodel.FromJSON([]byte(doc), nil)
	if err != nil {
		t.Fatal(err)
	}
	parent := nodes.Get(2).Resolve("parent")
	if parent == nil || parent.Text("label") != "root" {
		t.Fatalf("expected leaf to resolve to root, got %v", parent)
	}
	if ft, _ := nodes.Field("parent"); ft.Target() != nodes {
		t.Error("expected self reference to bind to the model itself")
	}
}

func TestFixtureYAMLOrder(t *testing.T) {
	blog := testutil.LoadBlog(t)
	data, err := yaml.Marshal(blog.Users)
	if err != nil {
		t.Fatal(err)
	}
	var doc nanomodel.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, nd := range doc.Fields {
		names = append(names, nd.Field)
	}
	if strings.Join(names, ",") != "name,handle,bio,admin" {
		t.Errorf("unexpected field order %v", names)
	}
	if d, ok := doc.Fields.Lookup("bio"); !ok || d.DefaultValue != "No bio provided." {
		t.Errorf("unexpected bio description %+v", d)
	}
}
