package filter_test

import (
	"errors"
	"testing"

	"github.com/arthur-debert/nanomodel/internal/filter"
	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/nanomodel/testutil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr  string
		field string
		op    filter.Operator
		vals  int
	}{
		{"name=John", "name", filter.Equal, 1},
		{"name != John", "name", filter.NotEqual, 1},
		{"likes>=3", "likes", filter.GreaterOrEqual, 1},
		{"likes<=3", "likes", filter.LessOrEqual, 1},
		{"likes>3", "likes", filter.Greater, 1},
		{"likes<3", "likes", filter.Less, 1},
		{"title~=hello", "title", filter.Contains, 1},
		{"id=1|3", "id", filter.Equal, 2},
		{"title=a=b", "title", filter.Equal, 1},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			c, err := filter.Parse(tt.expr)
			if err != nil {
				t.Fatal(err)
			}
			if c.Field != tt.field || c.Op != tt.op || len(c.Values) != tt.vals {
				t.Errorf("unexpected condition %+v", c)
			}
		})
	}

	for _, bad := range []string{"name", "=John", ""} {
		if _, err := filter.Parse(bad); !errors.Is(err, filter.ErrSyntax) {
			t.Errorf("Parse(%q): expected ErrSyntax, got %v", bad, err)
		}
	}
}

func TestCompile(t *testing.T) {
	blog := testutil.LoadBlog(t)

	tests := []struct {
		name  string
		exprs []string
		ids   []int64
	}{
		{"no conditions", nil, []int64{1, 2, 3}},
		{"reference by id", []string{"author=1"}, []int64{1, 3}},
		{"number equality", []string{"likes=10.0"}, []int64{2}},
		{"alternatives", []string{"id=1|2"}, []int64{1, 2}},
		{"not equal", []string{"author!=1"}, []int64{2}},
		{"range", []string{"likes>1", "likes<=10"}, []int64{1, 2}},
		{"contains ignores case", []string{"title~=HELLO"}, []int64{1, 2}},
		{"text order", []string{"title>Hello, W"}, []int64{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conds, err := filter.ParseAll(tt.exprs)
			if err != nil {
				t.Fatal(err)
			}
			pred, err := filter.Compile(blog.Posts, conds)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertIDs(t, blog.Posts.Where(pred).All(), tt.ids...)
		})
	}

	t.Run("booleans", func(t *testing.T) {
		conds, _ := filter.ParseAll([]string{"admin=yes"})
		pred, err := filter.Compile(blog.Users, conds)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertIDs(t, blog.Users.Where(pred).All(), 2)
	})

	t.Run("unknown field", func(t *testing.T) {
		conds, _ := filter.ParseAll([]string{"age=3"})
		if _, err := filter.Compile(blog.Users, conds); !errors.Is(err, filter.ErrUnknownField) {
			t.Errorf("expected ErrUnknownField, got %v", err)
		}
	})
}

func TestSearch(t *testing.T) {
	blog := testutil.LoadBlog(t)
	testutil.AssertIDs(t, blog.Posts.Where(filter.Search(blog.Posts, "THIRD")).All(), 3)
	testutil.AssertIDs(t, blog.Users.Where(filter.Search(blog.Users, "jane")).All(), 2)
}

func TestExpr(t *testing.T) {
	blog := testutil.LoadBlog(t)

	tests := []struct {
		source string
		ids    []int64
	}{
		{`likes > 2 && author == 1`, []int64{1}},
		{`title contains "Hello"`, []int64{1, 2}},
		{`id in [1, 3]`, []int64{1, 3}},
		{`likes`, nil},
		{`likes <= 3 || title startsWith "The"`, []int64{1, 3}},
		{`author > 1`, []int64{2}},
		{`content endsWith "post!" && likes < 10`, []int64{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			pred, err := filter.Expr(blog.Posts, tt.source)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertIDs(t, blog.Posts.Where(pred).All(), tt.ids...)
		})
	}

	t.Run("boolean and string fields", func(t *testing.T) {
		pred, err := filter.Expr(blog.Users, `admin && name contains "Jane"`)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertIDs(t, blog.Users.Where(pred).All(), 2)

		pred, err = filter.Expr(blog.Users, `not admin`)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertIDs(t, blog.Users.Where(pred).All(), 1)
	})

	t.Run("non-finite numbers do not match", func(t *testing.T) {
		if _, err := blog.Posts.Create(nanomodel.Data{"title": "NaN", "likes": "lots"}); err != nil {
			t.Fatal(err)
		}
		pred, err := filter.Expr(blog.Posts, `likes > 2`)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertIDs(t, blog.Posts.Where(pred).All(), 1, 2)
	})

	t.Run("compile error", func(t *testing.T) {
		if _, err := filter.Expr(blog.Posts, `likes >`); !errors.Is(err, filter.ErrExpression) {
			t.Errorf("expected ErrExpression, got %v", err)
		}
	})

	t.Run("unknown identifier", func(t *testing.T) {
		if _, err := filter.Expr(blog.Posts, `age > 3`); !errors.Is(err, filter.ErrExpression) {
			t.Errorf("expected ErrExpression, got %v", err)
		}
	})
}
