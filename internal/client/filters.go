package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// filter compiles itself against a column expression. A nil filter yields
// no conditions.
type filter interface {
	sqlize(col string) ([]sq.Sqlizer, error)
}

// StringFilter matches text columns. A bare JSON string decodes as Equals.
type StringFilter struct {
	Equals     *string   `json:"equals,omitempty"`
	Not        *string   `json:"not,omitempty"`
	In         []string  `json:"in,omitempty"`
	NotIn      []string  `json:"notIn,omitempty"`
	Lt         *string   `json:"lt,omitempty"`
	Lte        *string   `json:"lte,omitempty"`
	Gt         *string   `json:"gt,omitempty"`
	Gte        *string   `json:"gte,omitempty"`
	Contains   *string   `json:"contains,omitempty"`
	StartsWith *string   `json:"startsWith,omitempty"`
	EndsWith   *string   `json:"endsWith,omitempty"`
	Mode       QueryMode `json:"mode,omitempty"`
	IsNull     *bool     `json:"isNull,omitempty"`
}

type stringFilterJSON StringFilter

func (f *StringFilter) UnmarshalJSON(data []byte) error {
	if isObject(data) {
		var plain stringFilterJSON
		if err := json.Unmarshal(data, &plain); err != nil {
			return err
		}
		*f = StringFilter(plain)
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = StringFilter{Equals: &v}
	return nil
}

func (f *StringFilter) sqlize(col string) ([]sq.Sqlizer, error) {
	if f == nil {
		return nil, nil
	}
	expr, ph := col, "?"
	switch f.Mode {
	case "", ModeDefault:
	case ModeInsensitive:
		expr, ph = "LOWER("+col+")", "LOWER(?)"
	default:
		return nil, validationf("unknown string filter mode %q", f.Mode)
	}

	var out []sq.Sqlizer
	cmp := func(op string, v *string) {
		if v != nil {
			out = append(out, sq.Expr(expr+" "+op+" "+ph, *v))
		}
	}
	cmp("=", f.Equals)
	cmp("<>", f.Not)
	cmp("<", f.Lt)
	cmp("<=", f.Lte)
	cmp(">", f.Gt)
	cmp(">=", f.Gte)
	if f.In != nil {
		out = append(out, inList(expr, ph, f.In, false))
	}
	if f.NotIn != nil {
		out = append(out, inList(expr, ph, f.NotIn, true))
	}
	if f.Contains != nil {
		out = append(out, sq.Expr("INSTR("+expr+", "+ph+") > 0", *f.Contains))
	}
	if f.StartsWith != nil {
		out = append(out, sq.Expr("INSTR("+expr+", "+ph+") = 1", *f.StartsWith))
	}
	if f.EndsWith != nil {
		if *f.EndsWith == "" {
			out = append(out, sq.NotEq{col: nil})
		} else {
			out = append(out, sq.Expr("SUBSTR("+expr+", -LENGTH("+ph+")) = "+ph, *f.EndsWith, *f.EndsWith))
		}
	}
	out = append(out, isNull(col, f.IsNull)...)
	return out, nil
}

// ScalarFilter matches numeric, boolean, enum and timestamp columns. A bare
// JSON value decodes as Equals.
type ScalarFilter[T any] struct {
	Equals *T    `json:"equals,omitempty"`
	Not    *T    `json:"not,omitempty"`
	In     []T   `json:"in,omitempty"`
	NotIn  []T   `json:"notIn,omitempty"`
	Lt     *T    `json:"lt,omitempty"`
	Lte    *T    `json:"lte,omitempty"`
	Gt     *T    `json:"gt,omitempty"`
	Gte    *T    `json:"gte,omitempty"`
	IsNull *bool `json:"isNull,omitempty"`
}

type (
	IntFilter      = ScalarFilter[int64]
	FloatFilter    = ScalarFilter[float64]
	BoolFilter     = ScalarFilter[bool]
	DateTimeFilter = ScalarFilter[time.Time]
)

type scalarFilterJSON[T any] ScalarFilter[T]

func (f *ScalarFilter[T]) UnmarshalJSON(data []byte) error {
	if isObject(data) {
		var plain scalarFilterJSON[T]
		if err := json.Unmarshal(data, &plain); err != nil {
			return err
		}
		*f = ScalarFilter[T](plain)
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = ScalarFilter[T]{Equals: &v}
	return nil
}

func (f *ScalarFilter[T]) sqlize(col string) ([]sq.Sqlizer, error) {
	if f == nil {
		return nil, nil
	}
	var out []sq.Sqlizer
	cmp := func(op string, v *T) {
		if v != nil {
			out = append(out, sq.Expr(col+" "+op+" ?", dbValue(*v)))
		}
	}
	cmp("=", f.Equals)
	cmp("<>", f.Not)
	cmp("<", f.Lt)
	cmp("<=", f.Lte)
	cmp(">", f.Gt)
	cmp(">=", f.Gte)
	if f.In != nil {
		out = append(out, inList(col, "?", f.In, false))
	}
	if f.NotIn != nil {
		out = append(out, inList(col, "?", f.NotIn, true))
	}
	out = append(out, isNull(col, f.IsNull)...)
	return out, nil
}

// JSONFilter matches JSON document columns, optionally at a path inside the
// document.
type JSONFilter struct {
	Path             []string `json:"path,omitempty"`
	Equals           any      `json:"equals,omitempty"`
	Not              any      `json:"not,omitempty"`
	StringContains   *string  `json:"string_contains,omitempty"`
	StringStartsWith *string  `json:"string_starts_with,omitempty"`
	StringEndsWith   *string  `json:"string_ends_with,omitempty"`
	IsNull           *bool    `json:"isNull,omitempty"`
}

func (f *JSONFilter) sqlize(col string) ([]sq.Sqlizer, error) {
	if f == nil {
		return nil, nil
	}
	target, targetArgs := col, []any{}
	if len(f.Path) > 0 {
		target = "json_extract(" + col + ", ?)"
		targetArgs = []any{jsonPath(f.Path)}
	}
	with := func(extra ...any) []any {
		return append(append([]any{}, targetArgs...), extra...)
	}

	var out []sq.Sqlizer
	eq := func(op string, v any) error {
		switch x := v.(type) {
		case nil:
			return nil
		case string, float64, int, int64:
			if len(f.Path) == 0 {
				doc, err := json.Marshal(x)
				if err != nil {
					return err
				}
				out = append(out, sq.Expr("json("+target+") "+op+" json(?)", with(string(doc))...))
				return nil
			}
			out = append(out, sq.Expr(target+" "+op+" ?", with(x)...))
		case bool:
			if len(f.Path) == 0 {
				out = append(out, sq.Expr("json("+target+") "+op+" json(?)", with(strconv.FormatBool(x))...))
				return nil
			}
			out = append(out, sq.Expr(target+" "+op+" ?", with(x)...))
		default:
			doc, err := json.Marshal(x)
			if err != nil {
				return validationf("json filter value: %v", err)
			}
			out = append(out, sq.Expr("json("+target+") "+op+" json(?)", with(string(doc))...))
		}
		return nil
	}
	if err := eq("=", f.Equals); err != nil {
		return nil, err
	}
	if err := eq("<>", f.Not); err != nil {
		return nil, err
	}
	if f.StringContains != nil {
		out = append(out, sq.Expr("INSTR("+target+", ?) > 0", with(*f.StringContains)...))
	}
	if f.StringStartsWith != nil {
		out = append(out, sq.Expr("INSTR("+target+", ?) = 1", with(*f.StringStartsWith)...))
	}
	if f.StringEndsWith != nil {
		v := *f.StringEndsWith
		out = append(out, sq.Expr("SUBSTR("+target+", -LENGTH(?)) = ?", with(v, v)...))
	}
	if f.IsNull != nil {
		if len(f.Path) > 0 {
			op := "IS NOT NULL"
			if *f.IsNull {
				op = "IS NULL"
			}
			out = append(out, sq.Expr(target+" "+op, targetArgs...))
		} else {
			out = append(out, isNull(col, f.IsNull)...)
		}
	}
	return out, nil
}

func jsonPath(keys []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, k := range keys {
		if _, err := strconv.Atoi(k); err == nil {
			b.WriteString("[" + k + "]")
			continue
		}
		b.WriteString(`."` + strings.ReplaceAll(k, `"`, `\"`) + `"`)
	}
	return b.String()
}

// RelationFilter matches a to-one relation.
type RelationFilter[W any] struct {
	Is    *W `json:"is,omitempty"`
	IsNot *W `json:"isNot,omitempty"`
}

// ListRelationFilter matches a to-many relation.
type ListRelationFilter[W any] struct {
	Some  *W `json:"some,omitempty"`
	Every *W `json:"every,omitempty"`
	None  *W `json:"none,omitempty"`
}

// conds accumulates the conditions of one WhereInput.
type conds struct {
	s    scope
	list sq.And
	err  error
}

func newConds(s scope) *conds {
	return &conds{s: s}
}

func (c *conds) field(column string, f filter) {
	if c.err != nil {
		return
	}
	list, err := f.sqlize(c.s.col(column))
	if err != nil {
		c.err = err
		return
	}
	c.list = append(c.list, list...)
}

func (c *conds) add(list []sq.Sqlizer, err error) {
	if c.err != nil {
		return
	}
	if err != nil {
		c.err = err
		return
	}
	c.list = append(c.list, list...)
}

func (c *conds) result() (sq.Sqlizer, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.list) == 0 {
		return nil, nil
	}
	if len(c.list) == 1 {
		return c.list[0], nil
	}
	return c.list, nil
}

// logical compiles AND, OR and NOT lists of nested inputs.
func logical[W whereInput](s scope, and, or, not []W) ([]sq.Sqlizer, error) {
	var out []sq.Sqlizer
	for _, w := range and {
		cond, err := w.build(s)
		if err != nil {
			return nil, err
		}
		if cond != nil {
			out = append(out, cond)
		}
	}
	if or != nil {
		alts := sq.Or{}
		for _, w := range or {
			cond, err := w.build(s)
			if err != nil {
				return nil, err
			}
			if cond == nil {
				cond = sq.Expr("1=1")
			}
			alts = append(alts, cond)
		}
		out = append(out, alts)
	}
	for _, w := range not {
		cond, err := w.build(s)
		if err != nil {
			return nil, err
		}
		if cond != nil {
			out = append(out, negate(cond))
		}
	}
	return out, nil
}

// toOne compiles Is/IsNot against the table holding targetCol, joined to
// localCol of the current scope.
func toOne[W whereInput](s scope, f *RelationFilter[W], table, targetCol, localCol string) ([]sq.Sqlizer, error) {
	if f == nil {
		return nil, nil
	}
	var out []sq.Sqlizer
	if f.Is != nil {
		cond, err := exists(s, table, targetCol, localCol, *f.Is, false)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	if f.IsNot != nil {
		cond, err := exists(s, table, targetCol, localCol, *f.IsNot, false)
		if err != nil {
			return nil, err
		}
		out = append(out, negate(cond))
	}
	return out, nil
}

// toMany compiles Some/Every/None against child rows whose fk references
// localCol of the current scope.
func toMany[W whereInput](s scope, f *ListRelationFilter[W], table, fk, localCol string) ([]sq.Sqlizer, error) {
	if f == nil {
		return nil, nil
	}
	var out []sq.Sqlizer
	if f.Some != nil {
		cond, err := exists(s, table, fk, localCol, *f.Some, false)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	if f.Every != nil {
		cond, err := exists(s, table, fk, localCol, *f.Every, true)
		if err != nil {
			return nil, err
		}
		out = append(out, negate(cond))
	}
	if f.None != nil {
		cond, err := exists(s, table, fk, localCol, *f.None, false)
		if err != nil {
			return nil, err
		}
		out = append(out, negate(cond))
	}
	return out, nil
}

func exists(s scope, table, targetCol, localCol string, w whereInput, negateInner bool) (sq.Sqlizer, error) {
	rs := s.next()
	q := sq.Select("1").
		From(table + " AS " + rs.alias).
		Where(rs.col(targetCol) + " = " + s.col(localCol))
	cond, err := w.build(rs)
	if err != nil {
		return nil, err
	}
	if cond != nil {
		if negateInner {
			cond = sq.Expr("NOT (COALESCE((?), 0))", cond)
		}
		q = q.Where(cond)
	} else if negateInner {
		q = q.Where("1=0")
	}
	return sq.Expr("EXISTS (?)", q), nil
}

func negate(cond sq.Sqlizer) sq.Sqlizer {
	return sq.Expr("NOT (?)", cond)
}

func inList[T any](expr, ph string, vals []T, not bool) sq.Sqlizer {
	if len(vals) == 0 {
		if not {
			return sq.Expr("1=1")
		}
		return sq.Expr("1=0")
	}
	phs := make([]string, len(vals))
	args := make([]any, len(vals))
	for i, v := range vals {
		phs[i] = ph
		args[i] = dbValue(v)
	}
	op := "IN"
	if not {
		op = "NOT IN"
	}
	return sq.Expr(fmt.Sprintf("%s %s (%s)", expr, op, strings.Join(phs, ", ")), args...)
}

func isNull(col string, want *bool) []sq.Sqlizer {
	if want == nil {
		return nil
	}
	if *want {
		return []sq.Sqlizer{sq.Eq{col: nil}}
	}
	return []sq.Sqlizer{sq.NotEq{col: nil}}
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}
