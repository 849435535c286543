package client

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// TaskLog is an append-only log line attached to a task.
type TaskLog struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"taskId"`
	Message   string          `json:"message"`
	Level     LogLevel        `json:"level"`
	Metadata  types.JSON      `json:"metadata"`
	CreatedAt types.Timestamp `json:"createdAt"`

	Task *Task `json:"task,omitempty"`
}

type TaskLogField string

const (
	TaskLogFieldID        TaskLogField = "id"
	TaskLogFieldTaskID    TaskLogField = "taskId"
	TaskLogFieldMessage   TaskLogField = "message"
	TaskLogFieldLevel     TaskLogField = "level"
	TaskLogFieldMetadata  TaskLogField = "metadata"
	TaskLogFieldCreatedAt TaskLogField = "createdAt"
)

var taskLogTable = &table[TaskLog]{
	model: "TaskLog",
	name:  "task_logs",
	fields: []field{
		{"id", "id", kindString},
		{"taskId", "task_id", kindString},
		{"message", "message", kindString},
		{"level", "level", kindEnum},
		{"metadata", "metadata", kindJSON},
		{"createdAt", "created_at", kindDateTime},
	},
	targets: func(m *TaskLog) []any {
		return []any{&m.ID, &m.TaskID, &m.Message, &m.Level, &m.Metadata, &m.CreatedAt}
	},
}

type TaskLogWhereInput struct {
	AND []TaskLogWhereInput `json:"AND,omitempty"`
	OR  []TaskLogWhereInput `json:"OR,omitempty"`
	NOT []TaskLogWhereInput `json:"NOT,omitempty"`

	ID        *StringFilter           `json:"id,omitempty"`
	TaskID    *StringFilter           `json:"taskId,omitempty"`
	Message   *StringFilter           `json:"message,omitempty"`
	Level     *ScalarFilter[LogLevel] `json:"level,omitempty"`
	Metadata  *JSONFilter             `json:"metadata,omitempty"`
	CreatedAt *DateTimeFilter         `json:"createdAt,omitempty"`

	Task *RelationFilter[TaskWhereInput] `json:"task,omitempty"`
}

func (w TaskLogWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("task_id", w.TaskID)
	c.field("message", w.Message)
	c.field("level", w.Level)
	c.field("metadata", w.Metadata)
	c.field("created_at", w.CreatedAt)
	c.add(toOne(s, w.Task, "tasks", "id", "task_id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

type TaskLogWhereUniqueInput struct {
	ID *string `json:"id,omitempty"`
}

func (u TaskLogWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "TaskLog", map[string]*string{"id": u.ID})
}

type TaskLogCreateInput struct {
	ID       string     `json:"id,omitempty"`
	TaskID   string     `json:"taskId"`
	Message  string     `json:"message"`
	Level    LogLevel   `json:"level,omitempty"`
	Metadata types.JSON `json:"metadata,omitempty"`
}

func (in TaskLogCreateInput) toModel(now types.Timestamp) (*TaskLog, error) {
	if err := required("TaskLog.taskId", in.TaskID); err != nil {
		return nil, err
	}
	if err := required("TaskLog.message", in.Message); err != nil {
		return nil, err
	}
	if err := checkEnum("TaskLog.level", in.Level); err != nil {
		return nil, err
	}
	if err := checkJSON("TaskLog.metadata", in.Metadata); err != nil {
		return nil, err
	}
	return &TaskLog{
		ID:        newID(in.ID),
		TaskID:    in.TaskID,
		Message:   in.Message,
		Level:     orDefault(in.Level, LogLevelInfo),
		Metadata:  in.Metadata,
		CreatedAt: now,
	}, nil
}

type TaskLogUpdateInput struct {
	Message  *string              `json:"message,omitempty"`
	Level    *LogLevel            `json:"level,omitempty"`
	Metadata Nullable[types.JSON] `json:"metadata,omitzero"`
}

func (in TaskLogUpdateInput) assignments() (assignments, error) {
	if in.Level != nil {
		if err := checkEnum("TaskLog.level", *in.Level); err != nil {
			return nil, err
		}
	}
	if err := checkJSON("TaskLog.metadata", in.Metadata.Value); err != nil {
		return nil, err
	}
	a := assignments{}
	setField(a, "message", in.Message)
	setField(a, "level", in.Level)
	setNullable(a, "metadata", in.Metadata)
	return a, nil
}

type TaskLogInclude struct {
	Task *RelationArgs[TaskInclude] `json:"task,omitempty"`
}

func (inc TaskLogInclude) load(ctx context.Context, r *runner, parents []*TaskLog) error {
	if inc.Task != nil {
		fk := func(l *TaskLog) string { return l.TaskID }
		rows, keys, err := newTaskDelegate(r).related(ctx, r, "id", keysOf(parents, fk), TaskFindManyArgs{Include: inc.Task.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(l *TaskLog, t *Task) { l.Task = t })
	}
	return nil
}

type (
	TaskLogDelegate       = Delegate[TaskLog, TaskLogWhereInput, TaskLogWhereUniqueInput, TaskLogField, TaskLogInclude, TaskLogCreateInput, TaskLogUpdateInput]
	TaskLogFindManyArgs   = FindManyArgs[TaskLogWhereInput, TaskLogWhereUniqueInput, TaskLogField, TaskLogInclude]
	TaskLogFindUniqueArgs = FindUniqueArgs[TaskLogWhereUniqueInput, TaskLogField, TaskLogInclude]
	TaskLogCreateArgs     = CreateArgs[TaskLogCreateInput, TaskLogField, TaskLogInclude]
	TaskLogCreateManyArgs = CreateManyArgs[TaskLogCreateInput, TaskLogField]
	TaskLogUpdateArgs     = UpdateArgs[TaskLogWhereUniqueInput, TaskLogUpdateInput, TaskLogField, TaskLogInclude]
	TaskLogUpdateManyArgs = UpdateManyArgs[TaskLogWhereInput, TaskLogUpdateInput, TaskLogField]
	TaskLogUpsertArgs     = UpsertArgs[TaskLogWhereUniqueInput, TaskLogCreateInput, TaskLogUpdateInput, TaskLogField, TaskLogInclude]
	TaskLogDeleteArgs     = DeleteArgs[TaskLogWhereUniqueInput, TaskLogField, TaskLogInclude]
	TaskLogDeleteManyArgs = DeleteManyArgs[TaskLogWhereInput]
	TaskLogCountArgs      = CountArgs[TaskLogWhereInput, TaskLogField]
	TaskLogAggregateArgs  = AggregateArgs[TaskLogWhereInput, TaskLogField]
	TaskLogGroupByArgs    = GroupByArgs[TaskLogWhereInput, TaskLogField]
	TaskLogOrderBy        = OrderBy[TaskLogField]
)

func newTaskLogDelegate(r *runner) *TaskLogDelegate {
	return &TaskLogDelegate{t: taskLogTable, r: r}
}
