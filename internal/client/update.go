package client

import (
	"bytes"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
)

// Nullable updates a nullable column. The zero value leaves the column
// unchanged; Set with Valid=false writes NULL. In JSON an absent key leaves
// the column alone and null clears it.
type Nullable[T any] struct {
	Value T
	Valid bool
	Set   bool
}

// SetValue writes v.
func SetValue[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true, Set: true}
}

// SetNull writes NULL.
func SetNull[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		n.Value, n.Valid = zero, false
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// NumberUpdate is an atomic numeric update. Exactly one operation may be
// set. A bare JSON number decodes as Set.
type NumberUpdate[T int64 | float64] struct {
	Set       *T `json:"set,omitempty"`
	Increment *T `json:"increment,omitempty"`
	Decrement *T `json:"decrement,omitempty"`
	Multiply  *T `json:"multiply,omitempty"`
	Divide    *T `json:"divide,omitempty"`
}

type (
	IntUpdate   = NumberUpdate[int64]
	FloatUpdate = NumberUpdate[float64]
)

type numberUpdateJSON[T int64 | float64] NumberUpdate[T]

func (u *NumberUpdate[T]) UnmarshalJSON(data []byte) error {
	if isObject(data) {
		var plain numberUpdateJSON[T]
		if err := json.Unmarshal(data, &plain); err != nil {
			return err
		}
		*u = NumberUpdate[T](plain)
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*u = NumberUpdate[T]{Set: &v}
	return nil
}

// SetTo is shorthand for NumberUpdate{Set: &v}.
func SetTo[T int64 | float64](v T) *NumberUpdate[T] {
	return &NumberUpdate[T]{Set: &v}
}

// IncrementBy is shorthand for NumberUpdate{Increment: &v}.
func IncrementBy[T int64 | float64](v T) *NumberUpdate[T] {
	return &NumberUpdate[T]{Increment: &v}
}

// assignments maps columns to values or SQL expressions for an UPDATE.
type assignments map[string]any

func setField[T any](a assignments, column string, v *T) {
	if v != nil {
		a[column] = dbValue(*v)
	}
}

func setNullable[T any](a assignments, column string, v Nullable[T]) {
	if !v.Set {
		return
	}
	if !v.Valid {
		a[column] = nil
		return
	}
	a[column] = dbValue(v.Value)
}

func setNumber[T int64 | float64](a assignments, column string, u *NumberUpdate[T]) error {
	if u == nil {
		return nil
	}
	var (
		op  string
		arg *T
		n   int
	)
	pick := func(sym string, v *T) {
		if v != nil {
			op, arg = sym, v
			n++
		}
	}
	pick("", u.Set)
	pick("+", u.Increment)
	pick("-", u.Decrement)
	pick("*", u.Multiply)
	pick("/", u.Divide)
	switch {
	case n == 0:
		return nil
	case n > 1:
		return validationf("%s: only one numeric update operation is allowed", column)
	}
	if op == "" {
		a[column] = *arg
		return nil
	}
	if op == "/" && *arg == 0 {
		return validationf("%s: division by zero", column)
	}
	a[column] = sq.Expr(column+" "+op+" ?", *arg)
	return nil
}
