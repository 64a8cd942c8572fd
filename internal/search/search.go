// Package search filters table rows, either with a CEL predicate over the
// row or with a case-insensitive text match across selected columns.
package search

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	celext "github.com/google/cel-go/ext"
)

// Row is one record of table data keyed by column prop.
type Row = map[string]any

// Filter is a compiled CEL predicate. The row is bound to both "row" and "_".
type Filter struct {
	expr string
	prg  cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("row", cel.DynType),
		cel.Variable("_", cel.DynType),
		// JSON numbers decode as double; let them compare with int literals.
		cel.CrossTypeNumericComparisons(true),
		celext.Strings(),
		celext.Lists(),
		celext.Math(),
	)
}

// Compile parses and checks expr.
func Compile(expr string) (*Filter, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match evaluates the predicate against row. A non-bool result is an error.
func (f *Filter) Match(row Row) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{"row": row, "_": row})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %s, want bool", f.expr, out.Type().TypeName())
	}
	return bool(b), nil
}

// Apply keeps the rows the predicate matches, stopping at the first error.
func (f *Filter) Apply(rows []Row) ([]Row, error) {
	out := make([]Row, 0, len(rows))
	for i, row := range rows {
		ok, err := f.Match(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// Text keeps the rows where any of keys holds a value containing term,
// ignoring case. An empty term keeps every row; no keys searches all values.
func Text(rows []Row, keys []string, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if rowContains(row, keys, term) {
			out = append(out, row)
		}
	}
	return out
}

func rowContains(row Row, keys []string, term string) bool {
	if len(keys) == 0 {
		for _, v := range row {
			if valueContains(v, term) {
				return true
			}
		}
		return false
	}
	for _, k := range keys {
		if v, ok := row[k]; ok && valueContains(v, term) {
			return true
		}
	}
	return false
}

func valueContains(v any, term string) bool {
	if v == nil {
		return false
	}
	return strings.Contains(strings.ToLower(fmt.Sprint(v)), term)
}
