package filter

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// ErrExpression is returned when a boolean expression does not compile.
var ErrExpression = errors.New("invalid expression")

var programs, _ = lru.New[string, *vm.Program](256)

// Expr compiles a boolean expression over the exported fields of a row,
// e.g. `likes > 2 && author == 1` or `title contains "Hello"`. The row id is
// available as `id`. A row whose evaluation fails or yields a non-boolean
// does not match.
func Expr(m *nanomodel.Model, source string) (nanomodel.Predicate, error) {
	program, err := compileExpr(m, source)
	if err != nil {
		return nil, err
	}
	return func(row *nanomodel.Row) bool {
		out, err := expr.Run(program, map[string]interface{}(row.Export()))
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}, nil
}

func compileExpr(m *nanomodel.Model, source string) (*vm.Program, error) {
	key := m.Name() + "\x00" + source
	if program, ok := programs.Get(key); ok {
		return program, nil
	}

	env := make(map[string]interface{}, len(m.Fields())+1)
	for _, f := range m.Fields() {
		env[f.Name] = zeroOf(f.Type.Kind())
	}
	env[nanomodel.IDField] = int64(0)
	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExpression, err)
	}
	programs.Add(key, program)
	return program, nil
}

// zeroOf returns a value of the Go type a kind exports as. REF fields export
// their raw id.
func zeroOf(kind nanomodel.Kind) interface{} {
	switch kind {
	case nanomodel.KindNumber:
		return float64(0)
	case nanomodel.KindBoolean:
		return false
	case nanomodel.KindID, nanomodel.KindRef:
		return int64(0)
	default:
		return ""
	}
}
