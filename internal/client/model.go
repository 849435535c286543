package client

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindBool
	kindDateTime
	kindJSON
	kindEnum
)

func (k fieldKind) numeric() bool {
	return k == kindInt || k == kindFloat
}

// field maps one scalar field of a model onto its column.
type field struct {
	name   string
	column string
	kind   fieldKind
}

// table describes how rows of one model are stored and scanned.
type table[M any] struct {
	model  string
	name   string
	fields []field
	// targets returns pointers to the fields of m in the order of fields.
	targets   func(m *M) []any
	updatedAt bool
}

func (t *table[M]) lookup(name string) (int, bool) {
	for i, f := range t.fields {
		if f.name == name {
			return i, true
		}
	}
	return -1, false
}

func (t *table[M]) index(name string) (int, error) {
	i, ok := t.lookup(name)
	if !ok {
		return -1, validationf("unknown field %q on %s", name, t.model)
	}
	return i, nil
}

func (t *table[M]) byColumn(column string) int {
	for i, f := range t.fields {
		if f.column == column {
			return i
		}
	}
	panic(fmt.Sprintf("client: %s has no column %s", t.name, column))
}

func (t *table[M]) columns(idx []int) []string {
	cols := make([]string, len(idx))
	for i, j := range idx {
		cols[i] = t.fields[j].column
	}
	return cols
}

func (t *table[M]) qualified(s scope, idx []int) []string {
	cols := make([]string, len(idx))
	for i, j := range idx {
		cols[i] = s.col(t.fields[j].column)
	}
	return cols
}

func (t *table[M]) all() []int {
	idx := make([]int, len(t.fields))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (t *table[M]) from(s scope) string {
	return t.name + " AS " + s.alias
}

// value reads field i of m as a driver value.
func (t *table[M]) value(m *M, i int) any {
	return fieldValue(t.targets(m)[i])
}

func (t *table[M]) values(m *M) []any {
	ptrs := t.targets(m)
	vals := make([]any, len(ptrs))
	for i, p := range ptrs {
		vals[i] = fieldValue(p)
	}
	return vals
}

// project copies the fields listed in idx into a fresh M.
func (t *table[M]) project(m *M, idx []int) *M {
	out := new(M)
	src, dst := t.targets(m), t.targets(out)
	for _, i := range idx {
		reflect.ValueOf(dst[i]).Elem().Set(reflect.ValueOf(src[i]).Elem())
	}
	return out
}

func (t *table[M]) scan(rows *sql.Rows, idx []int) ([]*M, error) {
	defer rows.Close()

	list := []*M{}
	for rows.Next() {
		m := new(M)
		ptrs := t.targets(m)
		dest := make([]any, len(idx))
		for i, j := range idx {
			dest[i] = ptrs[j]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.model, err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", t.model, err)
	}
	return list, nil
}

func fieldValue(ptr any) any {
	if v, ok := ptr.(driver.Valuer); ok {
		out, err := v.Value()
		if err != nil {
			return nil
		}
		return out
	}
	rv := reflect.ValueOf(ptr).Elem()
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return rv.Interface()
}

// dbValue converts Go input values into plain driver values. Named string
// types are flattened because not every driver runs the default converter.
func dbValue(v any) any {
	switch x := v.(type) {
	case nil, string, int64, float64, bool, []byte:
		return x
	case time.Time:
		return types.Format(x)
	case driver.Valuer:
		out, err := x.Value()
		if err != nil {
			return v
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return dbValue(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}

// scope hands out table aliases so nested relation filters never collide.
type scope struct {
	alias string
	n     *int
}

func newScope() scope {
	n := 0
	return scope{alias: "t0", n: &n}
}

func (s scope) col(column string) string {
	return s.alias + "." + column
}

func (s scope) next() scope {
	*s.n++
	return scope{alias: "t" + strconv.Itoa(*s.n), n: s.n}
}

// runner executes compiled statements against a pool or a transaction.
type runner struct {
	conn       db.DBTX
	pool       *sql.DB
	logger     *zap.Logger
	logQueries bool
}

func (r *runner) query(ctx context.Context, q sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	start := time.Now()
	rows, err := r.conn.QueryContext(ctx, query, args...)
	r.log(query, args, start, err)
	return rows, err
}

func (r *runner) exec(ctx context.Context, q sq.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build statement: %w", err)
	}
	start := time.Now()
	res, err := r.conn.ExecContext(ctx, query, args...)
	r.log(query, args, start, err)
	return res, err
}

func (r *runner) log(query string, args []any, start time.Time, err error) {
	if !r.logQueries {
		return
	}
	fields := []zap.Field{
		zap.String("query", strings.Join(strings.Fields(query), " ")),
		zap.Any("args", args),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	r.logger.Debug("query", fields...)
}

// inTx runs fn in a transaction, reusing the current one when r is
// already bound to a transaction.
func (r *runner) inTx(ctx context.Context, fn func(r *runner) error) error {
	if r.pool == nil {
		return fn(r)
	}
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(r.withConn(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *runner) withConn(tx *sql.Tx) *runner {
	return &runner{conn: tx, logger: r.logger, logQueries: r.logQueries}
}

// scalar reads the single row of q into dest.
func (r *runner) scalar(ctx context.Context, q sq.Sqlizer, dest ...any) error {
	rows, err := r.query(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	return rows.Err()
}
