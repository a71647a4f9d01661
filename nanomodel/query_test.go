package nanomodel_test

import (
	"math"
	"testing"

	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/nanomodel/testutil"
)

func TestQueryWhere(t *testing.T) {
	blog := testutil.LoadBlog(t)

	preds := map[string]nanomodel.Predicate{
		"none":    func(*nanomodel.Row) bool { return false },
		"all":     func(*nanomodel.Row) bool { return true },
		"popular": func(r *nanomodel.Row) bool { return r.Float("likes") >= 3 },
		"by john": func(r *nanomodel.Row) bool { return r.Resolve("author").ID() == 1 },
	}
	for name, pred := range preds {
		t.Run(name, func(t *testing.T) {
			want := 0
			for _, row := range blog.Posts.Query().All() {
				if pred(row) {
					want++
				}
			}
			if got := blog.Posts.Where(pred).Count(); got != want {
				t.Errorf("expected %d matches, got %d", want, got)
			}
		})
	}

	t.Run("chained", func(t *testing.T) {
		q := blog.Posts.Query().
			Where(func(r *nanomodel.Row) bool { return r.Float("likes") > 1 }).
			Where(func(r *nanomodel.Row) bool { return r.Text("title") != "" })
		testutil.AssertIDs(t, q.All(), 1, 2)
	})
}

func TestQueryLimit(t *testing.T) {
	blog := testutil.LoadBlog(t)
	q := blog.Posts.Query()

	for _, n := range []int{-1, 0, 1, 2, 3, 10} {
		want := n
		if want < 0 {
			want = 0
		}
		if want > q.Count() {
			want = q.Count()
		}
		if got := q.Limit(n).Count(); got != want {
			t.Errorf("Limit(%d): expected %d, got %d", n, want, got)
		}
	}
	if all := q.Limit(0).All(); len(all) != 0 {
		t.Errorf("expected empty slice, got %d rows", len(all))
	}
	testutil.AssertIDs(t, q.Offset(1).Limit(1).All(), 2)
	if q.Offset(5).Count() != 0 {
		t.Error("expected empty view past the end")
	}
}

func TestQueryOrder(t *testing.T) {
	blog := testutil.LoadBlog(t)

	t.Run("numbers ascending", func(t *testing.T) {
		testutil.AssertIDs(t, blog.Posts.Query().Order("likes").All(), 3, 1, 2)
	})

	t.Run("numbers descending", func(t *testing.T) {
		testutil.AssertIDs(t, blog.Posts.Query().OrderDesc("likes").All(), 2, 1, 3)
	})

	t.Run("strings", func(t *testing.T) {
		rows := blog.Posts.Query().Order("title").All()
		for i := 1; i < len(rows); i++ {
			if rows[i-1].Text("title") > rows[i].Text("title") {
				t.Errorf("titles out of order at %d: %q > %q", i, rows[i-1].Text("title"), rows[i].Text("title"))
			}
		}
	})

	t.Run("references by id and stable ties", func(t *testing.T) {
		testutil.AssertIDs(t, blog.Posts.Query().Order("author").All(), 1, 3, 2)
	})

	t.Run("source untouched", func(t *testing.T) {
		blog.Posts.Query().OrderDesc("likes")
		testutil.AssertIDs(t, blog.Posts.Query().All(), 1, 2, 3)
	})

	t.Run("mixed values", func(t *testing.T) {
		m := nanomodel.New("Mixed", nanomodel.Fields{{Name: "v", Type: nanomodel.String()}})
		for _, v := range []interface{}{"b", 2, nil, true, math.NaN(), "a", 1} {
			mustCreate(t, m, nanomodel.Data{"v": v})
		}
		// nil, bool, NaN, 1, 2, "a", "b"
		testutil.AssertIDs(t, m.Query().Order("v").All(), 3, 4, 5, 7, 2, 6, 1)
	})
}

func TestQueryAccessors(t *testing.T) {
	blog := testutil.LoadBlog(t)
	q := blog.Posts.Query()

	if q.First().ID() != 1 {
		t.Errorf("expected first 1, got %d", q.First().ID())
	}
	if q.At(-1).ID() != 3 || q.At(1).ID() != 2 {
		t.Error("unexpected At results")
	}
	if q.At(3) != nil || q.At(-4) != nil {
		t.Error("expected nil out of range")
	}
	empty := q.Limit(0)
	if empty.First() != nil {
		t.Error("expected nil first on empty query")
	}
	if q.Model() != blog.Posts {
		t.Error("expected query to keep its model")
	}

	t.Run("restartable iteration", func(t *testing.T) {
		for pass := 0; pass < 2; pass++ {
			n := 0
			for i, row := range q.Rows() {
				if i != n || row == nil {
					t.Fatalf("pass %d: bad item at %d", pass, i)
				}
				n++
			}
			if n != 3 {
				t.Errorf("pass %d: expected 3 items, got %d", pass, n)
			}
		}
	})

	t.Run("early break", func(t *testing.T) {
		n := 0
		for range q.Rows() {
			n++
			break
		}
		if n != 1 {
			t.Errorf("expected 1 iteration, got %d", n)
		}
	})

	t.Run("export", func(t *testing.T) {
		out := q.Export()
		if len(out) != 3 || out[1]["author"] != int64(2) {
			t.Errorf("unexpected export %v", out)
		}
	})
}

func TestQueryIsSnapshot(t *testing.T) {
	blog := testutil.LoadBlog(t)
	q := blog.Posts.Query()
	blog.Posts.Delete(1)
	if q.Count() != 3 {
		t.Errorf("expected snapshot of 3 rows, got %d", q.Count())
	}
}
