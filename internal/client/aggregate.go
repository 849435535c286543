package client

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

type aggregateSpec struct {
	fn   AggregateFunc
	name string
	kind fieldKind
	expr string
}

type aggregateSelection[F ~string] struct {
	countAll                 bool
	count, avg, sum, min, max FieldSet[F]
}

// Aggregate computes aggregates over the rows matched by Where and windowed
// by OrderBy/Skip/Take.
func (d *Delegate[M, W, U, F, I, C, D]) Aggregate(ctx context.Context, args AggregateArgs[W, F]) (AggregateResult, error) {
	inner := newScope()
	sub, err := d.subquery(inner, sq.Select(inner.alias+".*"), args.Where, args.OrderBy, args.Skip, args.Take)
	if err != nil {
		return AggregateResult{}, err
	}
	outer := scope{alias: "agg", n: inner.n}
	specs, err := d.aggregates(outer, aggregateSelection[F]{
		countAll: args.CountAll,
		count:    args.Count, avg: args.Avg, sum: args.Sum, min: args.Min, max: args.Max,
	})
	if err != nil {
		return AggregateResult{}, err
	}
	if len(specs) == 0 {
		return AggregateResult{}, validationf("aggregate on %s selects nothing", d.t.model)
	}

	exprs := make([]string, len(specs))
	for i, spec := range specs {
		exprs[i] = spec.expr
	}
	vals := make([]any, len(specs))
	ptrs := make([]any, len(specs))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := d.r.scalar(ctx, sq.Select(exprs...).FromSelect(sub, "agg"), ptrs...); err != nil {
		return AggregateResult{}, mapError(d.t.model, err)
	}
	return collectAggregates(specs, vals), nil
}

// GroupBy groups matching rows by the By fields. OrderBy may only name
// grouped fields or aggregates, and Skip/Take need an OrderBy.
func (d *Delegate[M, W, U, F, I, C, D]) GroupBy(ctx context.Context, args GroupByArgs[W, F]) ([]GroupByRow, error) {
	if len(args.By) == 0 {
		return nil, validationf("groupBy on %s needs at least one by field", d.t.model)
	}
	if (args.Skip != nil || args.Take != nil) && len(args.OrderBy) == 0 {
		return nil, validationf("groupBy on %s needs orderBy when skip or take is set", d.t.model)
	}
	if args.Skip != nil && *args.Skip < 0 {
		return nil, validationf("skip must not be negative")
	}
	if args.Take != nil && *args.Take < 0 {
		return nil, validationf("groupBy take must not be negative")
	}

	s := newScope()
	grouped := make(map[string]bool, len(args.By))
	var by []field
	for _, name := range args.By {
		i, err := d.t.index(string(name))
		if err != nil {
			return nil, err
		}
		if grouped[string(name)] {
			continue
		}
		grouped[string(name)] = true
		by = append(by, d.t.fields[i])
	}
	specs, err := d.aggregates(s, aggregateSelection[F]{
		countAll: args.CountAll,
		count:    args.Count, avg: args.Avg, sum: args.Sum, min: args.Min, max: args.Max,
	})
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(by)+len(specs))
	groupCols := make([]string, len(by))
	for i, f := range by {
		groupCols[i] = s.col(f.column)
		cols = append(cols, groupCols[i])
	}
	for _, spec := range specs {
		cols = append(cols, spec.expr)
	}

	q := sq.Select(cols...).From(d.t.from(s)).GroupBy(groupCols...)
	if args.Where != nil {
		cond, err := (*args.Where).build(s)
		if err != nil {
			return nil, err
		}
		q = q.Where(cond)
	}
	for _, h := range args.Having {
		expr, err := d.groupExpr(s, h.Func, h.Field, grouped)
		if err != nil {
			return nil, err
		}
		for _, cmp := range []struct {
			op string
			v  any
		}{{"=", h.Equals}, {"<>", h.Not}, {"<", h.Lt}, {"<=", h.Lte}, {">", h.Gt}, {">=", h.Gte}} {
			if cmp.v != nil {
				q = q.Having(expr+" "+cmp.op+" ?", dbValue(cmp.v))
			}
		}
	}
	for _, o := range args.OrderBy {
		expr, err := d.groupExpr(s, o.Func, o.Field, grouped)
		if err != nil {
			return nil, err
		}
		switch o.Direction {
		case "", Asc:
			q = q.OrderBy(expr + " ASC")
		case Desc:
			q = q.OrderBy(expr + " DESC")
		default:
			return nil, validationf("invalid sort order %q", o.Direction)
		}
	}
	q = paginate(q, args.Skip, args.Take)

	rows, err := d.r.query(ctx, q)
	if err != nil {
		return nil, mapError(d.t.model, err)
	}
	defer rows.Close()

	out := []GroupByRow{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, mapError(d.t.model, err)
		}
		row := GroupByRow{Key: make(map[string]any, len(by))}
		for i, f := range by {
			row.Key[f.name] = decodeValue(f.kind, vals[i])
		}
		row.AggregateResult = collectAggregates(specs, vals[len(by):])
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(d.t.model, err)
	}
	return out, nil
}

// groupExpr resolves a having/orderBy reference: a grouped field when fn is
// empty, otherwise an aggregate of field (or of rows for a bare _count).
func (d *Delegate[M, W, U, F, I, C, D]) groupExpr(s scope, fn AggregateFunc, name F, grouped map[string]bool) (string, error) {
	if fn == "" {
		if !grouped[string(name)] {
			return "", validationf("%s must be listed in by to be used here", name)
		}
		i, err := d.t.index(string(name))
		if err != nil {
			return "", err
		}
		return s.col(d.t.fields[i].column), nil
	}
	if fn.sql() == "" {
		return "", validationf("unknown aggregate %q", fn)
	}
	if name == "" || name == "_all" {
		if fn != AggCount {
			return "", validationf("%s needs a field", fn)
		}
		return "COUNT(*)", nil
	}
	i, err := d.t.index(string(name))
	if err != nil {
		return "", err
	}
	f := d.t.fields[i]
	if (fn == AggAvg || fn == AggSum) && !f.kind.numeric() {
		return "", validationf("%s is not numeric and cannot be used with %s", f.name, fn)
	}
	return fn.sql() + "(" + s.col(f.column) + ")", nil
}

func (d *Delegate[M, W, U, F, I, C, D]) aggregates(s scope, sel aggregateSelection[F]) ([]aggregateSpec, error) {
	var specs []aggregateSpec
	if sel.countAll || sel.count.has("_all") {
		specs = append(specs, aggregateSpec{fn: AggCount, name: "_all", expr: "COUNT(*)"})
	}
	add := func(fn AggregateFunc, fields FieldSet[F]) error {
		for _, name := range fields {
			if fn == AggCount && name == "_all" {
				continue
			}
			i, err := d.t.index(string(name))
			if err != nil {
				return err
			}
			f := d.t.fields[i]
			switch {
			case (fn == AggAvg || fn == AggSum) && !f.kind.numeric():
				return validationf("%s is not numeric and cannot be used with %s", f.name, fn)
			case (fn == AggMin || fn == AggMax) && f.kind == kindJSON:
				return validationf("%s is a JSON field and cannot be used with %s", f.name, fn)
			}
			specs = append(specs, aggregateSpec{
				fn:   fn,
				name: f.name,
				kind: f.kind,
				expr: fn.sql() + "(" + s.col(f.column) + ")",
			})
		}
		return nil
	}
	for _, step := range []struct {
		fn     AggregateFunc
		fields FieldSet[F]
	}{
		{AggCount, sel.count}, {AggAvg, sel.avg}, {AggSum, sel.sum}, {AggMin, sel.min}, {AggMax, sel.max},
	} {
		if err := add(step.fn, step.fields); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

func collectAggregates(specs []aggregateSpec, vals []any) AggregateResult {
	var res AggregateResult
	for i, spec := range specs {
		v := vals[i]
		switch spec.fn {
		case AggCount:
			if res.Count == nil {
				res.Count = map[string]int64{}
			}
			n, _ := decodeValue(kindInt, v).(int64)
			res.Count[spec.name] = n
		case AggAvg:
			if res.Avg == nil {
				res.Avg = map[string]any{}
			}
			res.Avg[spec.name] = decodeValue(kindFloat, v)
		case AggSum:
			if res.Sum == nil {
				res.Sum = map[string]any{}
			}
			res.Sum[spec.name] = decodeValue(spec.kind, v)
		case AggMin:
			if res.Min == nil {
				res.Min = map[string]any{}
			}
			res.Min[spec.name] = decodeValue(spec.kind, v)
		case AggMax:
			if res.Max == nil {
				res.Max = map[string]any{}
			}
			res.Max[spec.name] = decodeValue(spec.kind, v)
		}
	}
	return res
}

// decodeValue converts a raw column value into the Go type of kind.
func decodeValue(kind fieldKind, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	switch kind {
	case kindInt:
		switch x := v.(type) {
		case int64:
			return x
		case float64:
			return int64(x)
		}
	case kindFloat:
		switch x := v.(type) {
		case int64:
			return float64(x)
		case float64:
			return x
		}
	case kindBool:
		switch x := v.(type) {
		case int64:
			return x != 0
		case bool:
			return x
		}
	case kindDateTime:
		if s, ok := v.(string); ok {
			if t, err := types.Parse(strings.TrimSpace(s)); err == nil {
				return t
			}
		}
	case kindJSON:
		if s, ok := v.(string); ok {
			return types.JSON(s)
		}
	}
	return v
}
