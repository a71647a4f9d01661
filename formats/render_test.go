package formats_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanomodel/formats"
	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/nanomodel/testutil"
)

func render(t *testing.T, name string, table formats.Table) string {
	t.Helper()
	f, err := formats.Get(name)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Render(&buf, table); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func TestNewTable(t *testing.T) {
	blog := testutil.LoadBlog(t)
	table := formats.NewTable(blog.Users, blog.Users.Query().All())
	want := []string{"id", "name", "handle", "bio", "admin"}
	if diff := cmp.Diff(want, table.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if table.Name != "User" || len(table.Rows) != 2 {
		t.Errorf("unexpected table %s with %d rows", table.Name, len(table.Rows))
	}
}

func TestJSON(t *testing.T) {
	blog := testutil.LoadBlog(t)
	out := render(t, "json", formats.NewTable(blog.Posts, blog.Posts.Query().Limit(1).All()))

	if !strings.Contains(out, `"id": 1,`) || strings.Index(out, `"title"`) > strings.Index(out, `"author"`) {
		t.Errorf("expected keys in column order, got\n%s", out)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatal(err)
	}
	want := []map[string]interface{}{{
		"id": 1.0, "title": "Hello, World!", "content": "This is my first post!", "likes": 3.0, "author": 1.0,
	}}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
}

func TestYAML(t *testing.T) {
	blog := testutil.LoadBlog(t)
	out := render(t, "yaml", formats.NewTable(blog.Users, blog.Users.Query().All()))
	if !strings.HasPrefix(out, "- id: 1\n  name: John Doe\n") {
		t.Errorf("unexpected YAML start:\n%s", out)
	}
	var decoded []map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 || decoded[1]["bio"] != "Hi, I'm Jane Doe!" {
		t.Errorf("unexpected decoded YAML %v", decoded)
	}
}

func TestTable(t *testing.T) {
	blog := testutil.LoadBlog(t)
	out := render(t, "table", formats.NewTable(blog.Posts, blog.Posts.Query().All()))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, 3 rows and footer, got\n%s", out)
	}
	for _, h := range []string{"Id", "Title", "Content", "Likes", "Author"} {
		if !strings.Contains(lines[0], h) {
			t.Errorf("header missing %q: %q", h, lines[0])
		}
	}
	if !strings.Contains(lines[2], "Hello, API!") || !strings.HasSuffix(strings.TrimSpace(lines[2]), "2") {
		t.Errorf("unexpected row %q", lines[2])
	}
	if lines[4] != "(3 rows)" {
		t.Errorf("unexpected footer %q", lines[4])
	}

	t.Run("long and empty cells", func(t *testing.T) {
		row, err := blog.Posts.Create(nanomodel.Data{"title": strings.Repeat("x", 100), "author": nil})
		if err != nil {
			t.Fatal(err)
		}
		out := render(t, "table", formats.NewTable(blog.Posts, []*nanomodel.Row{row}))
		if !strings.Contains(out, "…") || !strings.Contains(out, " -") || !strings.Contains(out, "(1 row)") {
			t.Errorf("unexpected rendering\n%s", out)
		}
	})
}

func TestMarkdown(t *testing.T) {
	blog := testutil.LoadBlog(t)
	out := render(t, "markdown", formats.NewTable(blog.Users, blog.Users.Query().All()))

	want := "# User\n\n" +
		"| Id | Name | Handle | Bio | Admin |\n" +
		"| --- | --- | --- | --- | --- |\n" +
		"| 1 | John Doe | jdoe | No bio provided. | false |\n" +
		"| 2 | Jane Doe | jane | Hi, I'm Jane Doe! | true |\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("markdown mismatch (-want +got):\n%s", diff)
	}

	t.Run("escapes pipes and newlines", func(t *testing.T) {
		table := formats.Table{Columns: []string{"note"}, Rows: []nanomodel.Data{{"note": "a|b\nc"}}}
		out := render(t, "markdown", table)
		if !strings.HasSuffix(out, "| a\\|b<br>c |\n") || strings.HasPrefix(out, "#") {
			t.Errorf("unexpected rendering %q", out)
		}
	})
}

func TestPlainText(t *testing.T) {
	blog := testutil.LoadBlog(t)
	out := render(t, "plain", formats.NewTable(blog.Posts, blog.Posts.Query().Limit(2).All()))

	want := "1\tHello, World!\tThis is my first post!\t3\t1\n" +
		"2\tHello, API!\tThis is my first post, but the second post!\t10\t2\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("plain mismatch (-want +got):\n%s", diff)
	}

	table := formats.Table{Columns: []string{"a", "b"}, Rows: []nanomodel.Data{{"a": "x\ty", "b": nil}}}
	if got := render(t, "plain", table); got != "x\\ty\t\n" {
		t.Errorf("unexpected escaping %q", got)
	}
}
