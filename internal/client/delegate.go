package client

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// insertBatch bounds the rows per INSERT so bound parameters stay well under
// SQLite's variable limit.
const insertBatch = 200

type whereInput interface {
	build(s scope) (sq.Sqlizer, error)
}

type includeInput[M any] interface {
	load(ctx context.Context, r *runner, parents []*M) error
}

type createInput[M any] interface {
	toModel(now types.Timestamp) (*M, error)
}

type updateInput interface {
	assignments() (assignments, error)
}

// Delegate implements every query operation of one model. The exported
// per-model aliases (ProjectDelegate, TaskDelegate, ...) fix its type
// parameters.
type Delegate[M any, W whereInput, U whereInput, F ~string, I includeInput[M], C createInput[M], D updateInput] struct {
	t *table[M]
	r *runner
	// beforeUpdate runs inside the update transaction with the ids about to
	// change.
	beforeUpdate func(ctx context.Context, r *runner, ids []string, data D) error
	// afterInsert runs inside the insert transaction with the inserted rows.
	afterInsert func(ctx context.Context, r *runner, rows []*M) error
}

// Model returns the model name, e.g. "Task".
func (d *Delegate[M, W, U, F, I, C, D]) Model() string {
	return d.t.model
}

// FindUnique returns the row matching where, or nil when there is none.
func (d *Delegate[M, W, U, F, I, C, D]) FindUnique(ctx context.Context, args FindUniqueArgs[U, F, I]) (*M, error) {
	list, err := d.findMany(ctx, d.r, FindManyArgs[W, U, F, I]{Select: args.Select, Include: args.Include}, args.Where.build)
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// FindUniqueOrThrow is FindUnique but fails with ErrRecordNotFound.
func (d *Delegate[M, W, U, F, I, C, D]) FindUniqueOrThrow(ctx context.Context, args FindUniqueArgs[U, F, I]) (*M, error) {
	m, err := d.FindUnique(ctx, args)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound(d.t.model, "findUniqueOrThrow")
	}
	return m, nil
}

// FindFirst returns the first row in order, or nil when nothing matches.
func (d *Delegate[M, W, U, F, I, C, D]) FindFirst(ctx context.Context, args FindManyArgs[W, U, F, I]) (*M, error) {
	take := 1
	if args.Take != nil && *args.Take < 0 {
		take = -1
	}
	args.Take = &take
	list, err := d.findMany(ctx, d.r, args, nil)
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// FindFirstOrThrow is FindFirst but fails with ErrRecordNotFound.
func (d *Delegate[M, W, U, F, I, C, D]) FindFirstOrThrow(ctx context.Context, args FindManyArgs[W, U, F, I]) (*M, error) {
	m, err := d.FindFirst(ctx, args)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound(d.t.model, "findFirstOrThrow")
	}
	return m, nil
}

// FindMany returns every row matching args. The result is never nil.
func (d *Delegate[M, W, U, F, I, C, D]) FindMany(ctx context.Context, args FindManyArgs[W, U, F, I]) ([]*M, error) {
	list, err := d.findMany(ctx, d.r, args, nil)
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	return list, nil
}

// Create inserts one row, filling the id, timestamps and defaults.
func (d *Delegate[M, W, U, F, I, C, D]) Create(ctx context.Context, args CreateArgs[C, F, I]) (*M, error) {
	idx, err := d.shape(args.Select, args.Include)
	if err != nil {
		return nil, err
	}
	m, err := args.Data.toModel(types.Now())
	if err != nil {
		return nil, err
	}
	var out *M
	err = d.r.inTx(ctx, func(r *runner) error {
		rows, err := d.insert(ctx, r, []*M{m}, false)
		if err != nil {
			return err
		}
		rows, err = d.finish(ctx, r, rows, idx, args.Include)
		if err != nil {
			return err
		}
		out = rows[0]
		return nil
	})
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	return out, nil
}

// CreateMany inserts every row of args.Data atomically.
func (d *Delegate[M, W, U, F, I, C, D]) CreateMany(ctx context.Context, args CreateManyArgs[C, F]) (BatchPayload, error) {
	rows, err := d.createMany(ctx, args)
	if err != nil {
		return BatchPayload{}, err
	}
	return BatchPayload{Count: int64(len(rows))}, nil
}

// CreateManyAndReturn is CreateMany returning the inserted rows.
func (d *Delegate[M, W, U, F, I, C, D]) CreateManyAndReturn(ctx context.Context, args CreateManyArgs[C, F]) ([]*M, error) {
	idx, err := d.shape(args.Select, nil)
	if err != nil {
		return nil, err
	}
	rows, err := d.createMany(ctx, args)
	if err != nil {
		return nil, err
	}
	return d.project(rows, idx), nil
}

func (d *Delegate[M, W, U, F, I, C, D]) createMany(ctx context.Context, args CreateManyArgs[C, F]) ([]*M, error) {
	now := types.Now()
	models := make([]*M, len(args.Data))
	for i, in := range args.Data {
		m, err := in.toModel(now)
		if err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
		models[i] = m
	}
	if len(models) == 0 {
		return []*M{}, nil
	}
	var out []*M
	err := d.r.inTx(ctx, func(r *runner) error {
		rows, err := d.insert(ctx, r, models, args.SkipDuplicates)
		out = rows
		return err
	})
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	return out, nil
}

// Update changes the row matching where and returns it, or fails with
// ErrRecordNotFound.
func (d *Delegate[M, W, U, F, I, C, D]) Update(ctx context.Context, args UpdateArgs[U, D, F, I]) (*M, error) {
	idx, err := d.shape(args.Select, args.Include)
	if err != nil {
		return nil, err
	}
	var out *M
	err = d.r.inTx(ctx, func(r *runner) error {
		ids, err := d.matchIDs(ctx, r, args.Where.build, nil)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return notFound(d.t.model, "update")
		}
		rows, err := d.updateIDs(ctx, r, ids, args.Data)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound(d.t.model, "update")
		}
		rows, err = d.finish(ctx, r, rows, idx, args.Include)
		if err != nil {
			return err
		}
		out = rows[0]
		return nil
	})
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	return out, nil
}

// UpdateMany applies data to every matching row, up to Limit rows.
func (d *Delegate[M, W, U, F, I, C, D]) UpdateMany(ctx context.Context, args UpdateManyArgs[W, D, F]) (BatchPayload, error) {
	rows, err := d.updateMany(ctx, args)
	if err != nil {
		return BatchPayload{}, err
	}
	return BatchPayload{Count: int64(len(rows))}, nil
}

// UpdateManyAndReturn is UpdateMany returning the updated rows in id order.
func (d *Delegate[M, W, U, F, I, C, D]) UpdateManyAndReturn(ctx context.Context, args UpdateManyArgs[W, D, F]) ([]*M, error) {
	idx, err := d.shape(args.Select, nil)
	if err != nil {
		return nil, err
	}
	rows, err := d.updateMany(ctx, args)
	if err != nil {
		return nil, err
	}
	return d.project(rows, idx), nil
}

func (d *Delegate[M, W, U, F, I, C, D]) updateMany(ctx context.Context, args UpdateManyArgs[W, D, F]) ([]*M, error) {
	out := []*M{}
	err := d.r.inTx(ctx, func(r *runner) error {
		ids, err := d.matchIDs(ctx, r, whereOf(args.Where), args.Limit)
		if err != nil || len(ids) == 0 {
			return err
		}
		out, err = d.updateIDs(ctx, r, ids, args.Data)
		return err
	})
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	return out, nil
}

// Upsert updates the row matching where, or creates it when absent, in one
// transaction.
func (d *Delegate[M, W, U, F, I, C, D]) Upsert(ctx context.Context, args UpsertArgs[U, C, D, F, I]) (*M, error) {
	idx, err := d.shape(args.Select, args.Include)
	if err != nil {
		return nil, err
	}
	var out *M
	err = d.r.inTx(ctx, func(r *runner) error {
		ids, err := d.matchIDs(ctx, r, args.Where.build, nil)
		if err != nil {
			return err
		}
		var rows []*M
		if len(ids) == 0 {
			m, err := args.Create.toModel(types.Now())
			if err != nil {
				return err
			}
			rows, err = d.insert(ctx, r, []*M{m}, false)
			if err != nil {
				return err
			}
		} else {
			rows, err = d.updateIDs(ctx, r, ids, args.Update)
			if err != nil {
				return err
			}
		}
		rows, err = d.finish(ctx, r, rows, idx, args.Include)
		if err != nil {
			return err
		}
		out = rows[0]
		return nil
	})
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	return out, nil
}

// Delete removes the row matching where and returns it as it was, or fails
// with ErrRecordNotFound.
func (d *Delegate[M, W, U, F, I, C, D]) Delete(ctx context.Context, args DeleteArgs[U, F, I]) (*M, error) {
	idx, err := d.shape(args.Select, args.Include)
	if err != nil {
		return nil, err
	}
	var out *M
	err = d.r.inTx(ctx, func(r *runner) error {
		rows, err := d.findMany(ctx, r, FindManyArgs[W, U, F, I]{Include: args.Include}, args.Where.build)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound(d.t.model, "delete")
		}
		del := sq.Delete(d.t.name).Where(sq.Eq{"id": d.t.value(rows[0], 0)})
		if _, err := r.exec(ctx, del); err != nil {
			return err
		}
		out = d.project(rows, idx)[0]
		return nil
	})
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	return out, nil
}

// DeleteMany removes every matching row, up to Limit rows.
func (d *Delegate[M, W, U, F, I, C, D]) DeleteMany(ctx context.Context, args DeleteManyArgs[W]) (BatchPayload, error) {
	s := newScope()
	sub := sq.Select(s.col("id")).From(d.t.from(s)).OrderBy(s.col("id"))
	if args.Where != nil {
		cond, err := (*args.Where).build(s)
		if err != nil {
			return BatchPayload{}, err
		}
		sub = sub.Where(cond)
	}
	if args.Limit != nil {
		if *args.Limit < 0 {
			return BatchPayload{}, validationf("limit must not be negative")
		}
		sub = sub.Limit(uint64(*args.Limit))
	}
	res, err := d.r.exec(ctx, sq.Delete(d.t.name).Where(sq.Expr("id IN (?)", sub)))
	if err != nil {
		return BatchPayload{}, mapError(d.t.model, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return BatchPayload{}, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return BatchPayload{Count: n}, nil
}

// Count returns the number of rows matching args.
func (d *Delegate[M, W, U, F, I, C, D]) Count(ctx context.Context, args CountArgs[W, F]) (int64, error) {
	s := newScope()
	sub, err := d.subquery(s, sq.Select(s.col("id")), args.Where, args.OrderBy, args.Skip, args.Take)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := d.r.scalar(ctx, sq.Select("COUNT(*)").FromSelect(sub, "c"), &n); err != nil {
		return 0, mapError(d.t.model, err)
	}
	return n, nil
}

// findMany is the shared read path: filter, cursor, order, window, distinct
// and include.
func (d *Delegate[M, W, U, F, I, C, D]) findMany(ctx context.Context, r *runner, args FindManyArgs[W, U, F, I], extra func(s scope) (sq.Sqlizer, error)) ([]*M, error) {
	if _, err := d.shape(args.Select, args.Include); err != nil {
		return nil, err
	}
	if args.Skip != nil && *args.Skip < 0 {
		return nil, validationf("skip must not be negative")
	}
	idx, err := d.selection(args.Select, args.Distinct)
	if err != nil {
		return nil, err
	}
	distinct, err := d.selection(FieldSet[F](args.Distinct), nil)
	if err != nil {
		return nil, err
	}
	if len(args.Distinct) == 0 {
		distinct = nil
	}

	s := newScope()
	q := sq.Select(d.t.qualified(s, idx)...).From(d.t.from(s))
	if args.Where != nil {
		cond, err := (*args.Where).build(s)
		if err != nil {
			return nil, err
		}
		q = q.Where(cond)
	}
	if extra != nil {
		cond, err := extra(s)
		if err != nil {
			return nil, err
		}
		q = q.Where(cond)
	}

	terms, err := d.orderTerms(args.OrderBy)
	if err != nil {
		return nil, err
	}
	backwards := args.Take != nil && *args.Take < 0
	if backwards {
		terms = reversed(terms)
	}
	if args.Cursor != nil {
		cond, ok, err := d.cursor(ctx, r, s, *args.Cursor, terms)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []*M{}, nil
		}
		q = q.Where(cond)
	}
	q = q.OrderBy(orderSQL(s, terms)...)
	if distinct == nil {
		q = paginate(q, args.Skip, args.Take)
	}

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, err
	}
	list, err := d.t.scan(rows, idx)
	if err != nil {
		return nil, err
	}
	if distinct != nil {
		list = window(d.dedupe(list, distinct), args.Skip, args.Take)
	}
	if backwards {
		slices.Reverse(list)
	}
	if args.Include != nil && len(list) > 0 {
		if err := (*args.Include).load(ctx, r, list); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// related loads rows whose column holds one of keys, for includes. Distinct
// is applied per key here; paging is left to the caller. keys[i] of the result
// is the column value of row i.
func (d *Delegate[M, W, U, F, I, C, D]) related(ctx context.Context, r *runner, column string, keys []string, args FindManyArgs[W, U, F, I]) ([]*M, []string, error) {
	if len(keys) == 0 {
		return nil, nil, nil
	}
	idx, err := d.shape(args.Select, args.Include)
	if err != nil {
		return nil, nil, err
	}
	distinct, err := d.selection(FieldSet[F](args.Distinct), nil)
	if err != nil {
		return nil, nil, err
	}
	inner := args
	inner.Skip, inner.Take, inner.Cursor, inner.Select, inner.Distinct = nil, nil, nil, nil, nil
	rows, err := d.findMany(ctx, r, inner, func(s scope) (sq.Sqlizer, error) {
		return sq.Eq{s.col(column): keys}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	col := d.t.byColumn(column)
	rowKeys := make([]string, len(rows))
	for i, m := range rows {
		rowKeys[i], _ = d.t.value(m, col).(string)
	}
	if len(args.Distinct) > 0 {
		rows, rowKeys = d.dedupeGroups(rows, rowKeys, distinct, args.Take != nil && *args.Take < 0)
	}
	return d.project(rows, idx), rowKeys, nil
}

// dedupeGroups applies distinct within each key's group, keeping group
// order. Backwards pages keep the last occurrence instead of the first.
func (d *Delegate[M, W, U, F, I, C, D]) dedupeGroups(rows []*M, keys []string, distinct []int, backwards bool) ([]*M, []string) {
	groups := make(map[string][]*M)
	var order []string
	for i, m := range rows {
		if _, ok := groups[keys[i]]; !ok {
			order = append(order, keys[i])
		}
		groups[keys[i]] = append(groups[keys[i]], m)
	}
	outRows := make([]*M, 0, len(rows))
	outKeys := make([]string, 0, len(rows))
	for _, k := range order {
		list := groups[k]
		if backwards {
			slices.Reverse(list)
			list = d.dedupe(list, distinct)
			slices.Reverse(list)
		} else {
			list = d.dedupe(list, distinct)
		}
		for _, m := range list {
			outRows = append(outRows, m)
			outKeys = append(outKeys, k)
		}
	}
	return outRows, outKeys
}

func (d *Delegate[M, W, U, F, I, C, D]) insert(ctx context.Context, r *runner, models []*M, skipDuplicates bool) ([]*M, error) {
	all := d.t.all()
	cols := d.t.columns(all)
	out := make([]*M, 0, len(models))
	for start := 0; start < len(models); start += insertBatch {
		end := min(start+insertBatch, len(models))
		q := sq.Insert(d.t.name).Columns(cols...).Suffix("RETURNING " + strings.Join(cols, ", "))
		if skipDuplicates {
			q = q.Options("OR IGNORE")
		}
		for _, m := range models[start:end] {
			q = q.Values(d.t.values(m)...)
		}
		rows, err := r.query(ctx, q)
		if err != nil {
			return nil, err
		}
		list, err := d.t.scan(rows, all)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	if d.afterInsert != nil {
		if err := d.afterInsert(ctx, r, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Delegate[M, W, U, F, I, C, D]) updateIDs(ctx context.Context, r *runner, ids []string, data D) ([]*M, error) {
	set, err := data.assignments()
	if err != nil {
		return nil, err
	}
	if d.beforeUpdate != nil {
		if err := d.beforeUpdate(ctx, r, ids, data); err != nil {
			return nil, err
		}
	}
	if len(set) == 0 {
		return d.findMany(ctx, r, FindManyArgs[W, U, F, I]{}, func(s scope) (sq.Sqlizer, error) {
			return sq.Eq{s.col("id"): ids}, nil
		})
	}
	if _, ok := set["updated_at"]; d.t.updatedAt && !ok {
		set["updated_at"] = types.Format(time.Now())
	}
	cols := d.t.columns(d.t.all())
	q := sq.Update(d.t.name).
		SetMap(set).
		Where(sq.Eq{"id": ids}).
		Suffix("RETURNING " + strings.Join(cols, ", "))
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, err
	}
	list, err := d.t.scan(rows, d.t.all())
	if err != nil {
		return nil, err
	}
	slices.SortFunc(list, func(a, b *M) int {
		return strings.Compare(d.t.value(a, 0).(string), d.t.value(b, 0).(string))
	})
	return list, nil
}

// matchIDs returns the ids of matching rows in id order.
func (d *Delegate[M, W, U, F, I, C, D]) matchIDs(ctx context.Context, r *runner, where func(s scope) (sq.Sqlizer, error), limit *int) ([]string, error) {
	s := newScope()
	q := sq.Select(s.col("id")).From(d.t.from(s)).OrderBy(s.col("id"))
	if where != nil {
		cond, err := where(s)
		if err != nil {
			return nil, err
		}
		q = q.Where(cond)
	}
	if limit != nil {
		if *limit < 0 {
			return nil, validationf("limit must not be negative")
		}
		q = q.Limit(uint64(*limit))
	}
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// cursor compiles the condition that starts a page at the cursor row. ok is
// false when the cursor row does not exist.
func (d *Delegate[M, W, U, F, I, C, D]) cursor(ctx context.Context, r *runner, s scope, cursor U, terms []orderTerm) (sq.Sqlizer, bool, error) {
	cs := s.next()
	where, err := cursor.build(cs)
	if err != nil {
		return nil, false, err
	}
	cols := make([]string, len(terms))
	for i, t := range terms {
		cols[i] = cs.col(t.f.column)
	}
	rows, err := r.query(ctx, sq.Select(cols...).From(d.t.from(cs)).Where(where).Limit(1))
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, false, rows.Err()
	}
	vals := make([]any, len(terms))
	ptrs := make([]any, len(terms))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, false, fmt.Errorf("failed to scan cursor: %w", err)
	}
	for i, v := range vals {
		if v == nil {
			return nil, false, validationf("cursor row has NULL %s, which cannot anchor a page", terms[i].f.name)
		}
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}

	page := sq.Or{}
	for i, t := range terms {
		and := sq.And{}
		for j := 0; j < i; j++ {
			and = append(and, sq.Eq{s.col(terms[j].f.column): vals[j]})
		}
		op := ">"
		if t.desc {
			op = "<"
		}
		if i == len(terms)-1 {
			op += "="
		}
		and = append(and, sq.Expr(s.col(t.f.column)+" "+op+" ?", vals[i]))
		page = append(page, and)
	}
	return page, true, nil
}

// subquery applies where, order and skip/take to an id subquery.
func (d *Delegate[M, W, U, F, I, C, D]) subquery(s scope, q sq.SelectBuilder, where *W, order []OrderBy[F], skip, take *int) (sq.SelectBuilder, error) {
	q = q.From(d.t.from(s))
	if where != nil {
		cond, err := (*where).build(s)
		if err != nil {
			return q, err
		}
		q = q.Where(cond)
	}
	if skip != nil && *skip < 0 {
		return q, validationf("skip must not be negative")
	}
	if skip != nil || take != nil || len(order) > 0 {
		terms, err := d.orderTerms(order)
		if err != nil {
			return q, err
		}
		if take != nil && *take < 0 {
			terms = reversed(terms)
		}
		q = paginate(q.OrderBy(orderSQL(s, terms)...), skip, take)
	}
	return q, nil
}

// shape validates a select/include pair and returns the selected field
// indexes, or nil for all fields.
func (d *Delegate[M, W, U, F, I, C, D]) shape(sel FieldSet[F], inc *I) ([]int, error) {
	if len(sel) > 0 && inc != nil {
		return nil, validationf("select and include cannot be used together on %s", d.t.model)
	}
	if len(sel) == 0 {
		return nil, nil
	}
	return d.selection(sel, nil)
}

// selection resolves field names to indexes in table order, all fields when
// sel is empty.
func (d *Delegate[M, W, U, F, I, C, D]) selection(sel FieldSet[F], also []F) ([]int, error) {
	if len(sel) == 0 {
		return d.t.all(), nil
	}
	want := make([]bool, len(d.t.fields))
	for _, list := range [][]F{sel, also} {
		for _, f := range list {
			i, err := d.t.index(string(f))
			if err != nil {
				return nil, err
			}
			want[i] = true
		}
	}
	var idx []int
	for i, ok := range want {
		if ok {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

func (d *Delegate[M, W, U, F, I, C, D]) project(rows []*M, idx []int) []*M {
	if idx == nil {
		return rows
	}
	out := make([]*M, len(rows))
	for i, m := range rows {
		out[i] = d.t.project(m, idx)
	}
	return out
}

func (d *Delegate[M, W, U, F, I, C, D]) finish(ctx context.Context, r *runner, rows []*M, idx []int, inc *I) ([]*M, error) {
	if inc != nil && len(rows) > 0 {
		if err := (*inc).load(ctx, r, rows); err != nil {
			return nil, err
		}
	}
	return d.project(rows, idx), nil
}

func (d *Delegate[M, W, U, F, I, C, D]) dedupe(rows []*M, idx []int) []*M {
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, m := range rows {
		parts := make([]string, len(idx))
		for i, j := range idx {
			parts[i] = fmt.Sprintf("%T:%v", d.t.value(m, j), d.t.value(m, j))
		}
		key := strings.Join(parts, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

type orderTerm struct {
	f     field
	desc  bool
	nulls NullsOrder
}

// orderTerms resolves order and appends id as the final tie-breaker.
func (d *Delegate[M, W, U, F, I, C, D]) orderTerms(order []OrderBy[F]) ([]orderTerm, error) {
	terms := make([]orderTerm, 0, len(order)+1)
	hasID := false
	for _, o := range order {
		i, err := d.t.index(string(o.Field))
		if err != nil {
			return nil, err
		}
		switch o.Direction {
		case "", Asc, Desc:
		default:
			return nil, validationf("invalid sort order %q", o.Direction)
		}
		switch o.Nulls {
		case "", NullsFirst, NullsLast:
		default:
			return nil, validationf("invalid nulls order %q", o.Nulls)
		}
		f := d.t.fields[i]
		if f.column == "id" {
			hasID = true
		}
		terms = append(terms, orderTerm{f: f, desc: o.Direction == Desc, nulls: o.Nulls})
	}
	if !hasID {
		terms = append(terms, orderTerm{f: d.t.fields[0]})
	}
	return terms, nil
}

func reversed(terms []orderTerm) []orderTerm {
	out := make([]orderTerm, len(terms))
	for i, t := range terms {
		t.desc = !t.desc
		switch t.nulls {
		case NullsFirst:
			t.nulls = NullsLast
		case NullsLast:
			t.nulls = NullsFirst
		}
		out[i] = t
	}
	return out
}

func orderSQL(s scope, terms []orderTerm) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		clause := s.col(t.f.column) + " ASC"
		if t.desc {
			clause = s.col(t.f.column) + " DESC"
		}
		switch t.nulls {
		case NullsFirst:
			clause += " NULLS FIRST"
		case NullsLast:
			clause += " NULLS LAST"
		}
		out[i] = clause
	}
	return out
}

// paginate adds LIMIT/OFFSET. SQLite needs a LIMIT before OFFSET, so a bare
// skip uses LIMIT -1.
func paginate(q sq.SelectBuilder, skip, take *int) sq.SelectBuilder {
	if take != nil {
		n := *take
		if n < 0 {
			n = -n
		}
		q = q.Limit(uint64(n))
		if skip != nil {
			q = q.Offset(uint64(*skip))
		}
		return q
	}
	if skip != nil {
		q = q.Suffix("LIMIT -1 OFFSET ?", int64(*skip))
	}
	return q
}

// window pages an in-memory list the way paginate pages a query.
func window[T any](list []T, skip, take *int) []T {
	if skip != nil {
		if *skip >= len(list) {
			return list[:0]
		}
		list = list[*skip:]
	}
	if take != nil {
		n := *take
		if n < 0 {
			n = -n
		}
		if n < len(list) {
			list = list[:n]
		}
	}
	return list
}

func whereOf[W whereInput](w *W) func(s scope) (sq.Sqlizer, error) {
	if w == nil {
		return nil
	}
	return (*w).build
}
