package client

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// QueryRaw runs a parameterised query and returns its rows as column maps.
func (c *Client) QueryRaw(ctx context.Context, q sq.Sqlizer) ([]map[string]any, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build raw query: %w", err)
	}
	return c.QueryRawUnsafe(ctx, query, args...)
}

// QueryRawUnsafe runs query as written. Only args are bound; never splice
// untrusted input into query.
func (c *Client) QueryRawUnsafe(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := c.r.query(ctx, rawStatement(query, args))
	if err != nil {
		return nil, mapError("raw", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read raw columns: %w", err)
	}
	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan raw row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("raw", err)
	}
	return out, nil
}

// ExecuteRaw runs a parameterised statement and returns the affected rows.
func (c *Client) ExecuteRaw(ctx context.Context, q sq.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build raw statement: %w", err)
	}
	return c.ExecuteRawUnsafe(ctx, query, args...)
}

// ExecuteRawUnsafe runs statement as written; see QueryRawUnsafe.
func (c *Client) ExecuteRawUnsafe(ctx context.Context, statement string, args ...any) (int64, error) {
	res, err := c.r.exec(ctx, rawStatement(statement, args))
	if err != nil {
		return 0, mapError("raw", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

type raw struct {
	query string
	args  []any
}

func (r raw) ToSql() (string, []any, error) {
	return r.query, r.args, nil
}

// rawStatement passes query through untouched. sq.Expr would expand Sqlizer
// arguments and "??" escapes.
func rawStatement(query string, args []any) raw {
	bound := make([]any, len(args))
	for i, a := range args {
		bound[i] = dbValue(a)
	}
	return raw{query: query, args: bound}
}
