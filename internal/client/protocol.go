package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// handler decodes the JSON arguments of one delegate operation and runs it.
type handler func(ctx context.Context, c *Client, body json.RawMessage) (any, error)

func call[Dl any, A any, R any](get func(*Client) Dl, method func(Dl, context.Context, A) (R, error)) handler {
	return func(ctx context.Context, c *Client, body json.RawMessage) (any, error) {
		var args A
		if err := decodeArgs(body, &args); err != nil {
			return nil, err
		}
		return method(get(c), ctx, args)
	}
}

func decodeArgs(body json.RawMessage, dst any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return validationf("invalid arguments: %v", err)
	}
	return nil
}

func operations[M any, W whereInput, U whereInput, F ~string, I includeInput[M], C createInput[M], D updateInput](get func(*Client) *Delegate[M, W, U, F, I, C, D]) map[string]handler {
	return map[string]handler{
		"findUnique":          call(get, (*Delegate[M, W, U, F, I, C, D]).FindUnique),
		"findUniqueOrThrow":   call(get, (*Delegate[M, W, U, F, I, C, D]).FindUniqueOrThrow),
		"findFirst":           call(get, (*Delegate[M, W, U, F, I, C, D]).FindFirst),
		"findFirstOrThrow":    call(get, (*Delegate[M, W, U, F, I, C, D]).FindFirstOrThrow),
		"findMany":            call(get, (*Delegate[M, W, U, F, I, C, D]).FindMany),
		"create":              call(get, (*Delegate[M, W, U, F, I, C, D]).Create),
		"createMany":          call(get, (*Delegate[M, W, U, F, I, C, D]).CreateMany),
		"createManyAndReturn": call(get, (*Delegate[M, W, U, F, I, C, D]).CreateManyAndReturn),
		"update":              call(get, (*Delegate[M, W, U, F, I, C, D]).Update),
		"updateMany":          call(get, (*Delegate[M, W, U, F, I, C, D]).UpdateMany),
		"updateManyAndReturn": call(get, (*Delegate[M, W, U, F, I, C, D]).UpdateManyAndReturn),
		"upsert":              call(get, (*Delegate[M, W, U, F, I, C, D]).Upsert),
		"delete":              call(get, (*Delegate[M, W, U, F, I, C, D]).Delete),
		"deleteMany":          call(get, (*Delegate[M, W, U, F, I, C, D]).DeleteMany),
		"aggregate":           call(get, (*Delegate[M, W, U, F, I, C, D]).Aggregate),
		"groupBy":             call(get, (*Delegate[M, W, U, F, I, C, D]).GroupBy),
		"count":               call(get, (*Delegate[M, W, U, F, I, C, D]).Count),
	}
}

var registry = map[string]map[string]handler{
	"project":       operations(func(c *Client) *ProjectDelegate { return c.Project }),
	"task":          operations(func(c *Client) *TaskDelegate { return c.Task }),
	"tasklog":       operations(func(c *Client) *TaskLogDelegate { return c.TaskLog }),
	"schedule":      operations(func(c *Client) *ScheduleDelegate { return c.Schedule }),
	"debugsession":  operations(func(c *Client) *DebugSessionDelegate { return c.DebugSession }),
	"debugproject":  operations(func(c *Client) *DebugProjectDelegate { return c.DebugProject }),
	"scripthistory": operations(func(c *Client) *ScriptHistoryDelegate { return c.ScriptHistory }),
	"debugtask":     operations(func(c *Client) *DebugTaskDelegate { return c.DebugTask }),
	"request":       operations(func(c *Client) *RequestDelegate { return c.Request }),
	"response":      operations(func(c *Client) *ResponseDelegate { return c.Response }),
}

func lookup(model, operation string) (handler, error) {
	ops, ok := registry[strings.ToLower(model)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	h, ok := ops[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, model, operation)
	}
	return h, nil
}

// Operations lists the operation names every model supports, sorted.
func Operations() []string {
	names := make([]string, 0, len(registry["project"]))
	for name := range registry["project"] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs operation on model with JSON-encoded arguments, e.g.
// Execute(ctx, "task", "findMany", `{"where":{"status":"RUNNING"}}`).
// Model names are matched case-insensitively.
func (c *Client) Execute(ctx context.Context, model, operation string, args json.RawMessage) (any, error) {
	h, err := lookup(model, operation)
	if err != nil {
		return nil, err
	}
	return h(ctx, c, args)
}

// BatchRequest is one entry of ExecuteBatch.
type BatchRequest struct {
	Model     string          `json:"model"`
	Operation string          `json:"operation"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// ExecuteBatch runs reqs in one transaction. Every entry is resolved before
// the transaction starts.
func (c *Client) ExecuteBatch(ctx context.Context, reqs []BatchRequest) ([]any, error) {
	ops := make([]Operation, len(reqs))
	for i, req := range reqs {
		h, err := lookup(req.Model, req.Operation)
		if err != nil {
			return nil, fmt.Errorf("batch operation %d: %w", i, err)
		}
		args := req.Args
		ops[i] = func(ctx context.Context, tx *Client) (any, error) {
			return h(ctx, tx, args)
		}
	}
	return c.TransactionBatch(ctx, ops...)
}
