package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultTxTimeout = 5 * time.Second

// Client is the entry point to the data model. One delegate per model; all
// of them share the connection the client was built on.
type Client struct {
	Project       *ProjectDelegate
	Task          *TaskDelegate
	TaskLog       *TaskLogDelegate
	Schedule      *ScheduleDelegate
	DebugSession  *DebugSessionDelegate
	DebugProject  *DebugProjectDelegate
	ScriptHistory *ScriptHistoryDelegate
	DebugTask     *DebugTaskDelegate
	Request       *RequestDelegate
	Response      *ResponseDelegate

	r         *runner
	txTimeout time.Duration
}

type options struct {
	logQueries bool
	txTimeout  time.Duration
}

// Option configures a Client.
type Option func(*options)

// WithQueryLogging logs every statement at debug level.
func WithQueryLogging() Option {
	return func(o *options) { o.logQueries = true }
}

// WithTransactionTimeout bounds Transaction and TransactionBatch. Zero
// disables the bound.
func WithTransactionTimeout(d time.Duration) Option {
	return func(o *options) { o.txTimeout = d }
}

// New returns a client backed by conn. conn must point at a migrated
// database.
func New(conn *sql.DB, logger *zap.Logger, opts ...Option) *Client {
	o := options{txTimeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &runner{conn: conn, pool: conn, logger: logger.Named("client"), logQueries: o.logQueries}
	return newClient(r, o.txTimeout)
}

func newClient(r *runner, txTimeout time.Duration) *Client {
	return &Client{
		Project:       newProjectDelegate(r),
		Task:          newTaskDelegate(r),
		TaskLog:       newTaskLogDelegate(r),
		Schedule:      newScheduleDelegate(r),
		DebugSession:  newDebugSessionDelegate(r),
		DebugProject:  newDebugProjectDelegate(r),
		ScriptHistory: newScriptHistoryDelegate(r),
		DebugTask:     newDebugTaskDelegate(r),
		Request:       newRequestDelegate(r),
		Response:      newResponseDelegate(r),
		r:             r,
		txTimeout:     txTimeout,
	}
}

type txOptions struct {
	timeout   time.Duration
	isolation sql.IsolationLevel
}

// TxOption configures a single transaction.
type TxOption func(*txOptions)

// TxTimeout overrides the client's transaction timeout.
func TxTimeout(d time.Duration) TxOption {
	return func(o *txOptions) { o.timeout = d }
}

// TxIsolation sets the isolation level. SQLite accepts the default and
// sql.LevelSerializable.
func TxIsolation(level sql.IsolationLevel) TxOption {
	return func(o *txOptions) { o.isolation = level }
}

// InTransaction reports whether c is bound to a transaction.
func (c *Client) InTransaction() bool {
	return c.r.pool == nil
}

// Transaction runs fn with a client bound to a new transaction. The
// transaction commits when fn returns nil and rolls back when fn fails or
// panics. On a client that is already bound to a transaction fn joins it.
func (c *Client) Transaction(ctx context.Context, fn func(tx *Client) error, opts ...TxOption) error {
	if c.InTransaction() {
		return fn(c)
	}
	o := txOptions{timeout: c.txTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	var txOpts *sql.TxOptions
	if o.isolation != sql.LevelDefault {
		txOpts = &sql.TxOptions{Isolation: o.isolation}
	}
	tx, err := c.r.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return txError(ctx, fmt.Errorf("failed to begin transaction: %w", err))
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(newClient(c.r.withConn(tx), c.txTimeout)); err != nil {
		return txError(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return txError(ctx, fmt.Errorf("failed to commit transaction: %w", err))
	}
	committed = true
	return nil
}

// Operation is one step of a TransactionBatch.
type Operation func(ctx context.Context, tx *Client) (any, error)

// Op adapts a typed function to an Operation.
func Op[T any](fn func(ctx context.Context, tx *Client) (T, error)) Operation {
	return func(ctx context.Context, tx *Client) (any, error) {
		return fn(ctx, tx)
	}
}

// TransactionBatch runs ops in order inside one transaction and returns
// their results in the same order. Any failure rolls back every operation.
func (c *Client) TransactionBatch(ctx context.Context, ops ...Operation) ([]any, error) {
	results := make([]any, len(ops))
	err := c.Transaction(ctx, func(tx *Client) error {
		for i, op := range ops {
			v, err := op(ctx, tx)
			if err != nil {
				return fmt.Errorf("batch operation %d: %w", i, err)
			}
			results[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func txError(ctx context.Context, err error) error {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}
	return &KnownRequestError{
		Code:    CodeTransactionTimeout,
		Message: "transaction expired before it could finish",
		kind:    ErrTransactionTimeout,
		cause:   err,
	}
}
