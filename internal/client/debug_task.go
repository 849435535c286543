package client

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// DebugTask records a task observed inside a debug session. TaskID is a
// free reference, not a foreign key.
type DebugTask struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	TaskID    string          `json:"taskId"`
	Process   types.JSON      `json:"process"`
	CreatedAt types.Timestamp `json:"createdAt"`
	UpdatedAt types.Timestamp `json:"updatedAt"`

	Session *DebugSession `json:"session,omitempty"`
}

type DebugTaskField string

const (
	DebugTaskFieldID        DebugTaskField = "id"
	DebugTaskFieldSessionID DebugTaskField = "sessionId"
	DebugTaskFieldTaskID    DebugTaskField = "taskId"
	DebugTaskFieldProcess   DebugTaskField = "process"
	DebugTaskFieldCreatedAt DebugTaskField = "createdAt"
	DebugTaskFieldUpdatedAt DebugTaskField = "updatedAt"
)

var debugTaskTable = &table[DebugTask]{
	model: "DebugTask",
	name:  "debug_tasks",
	fields: []field{
		{"id", "id", kindString},
		{"sessionId", "session_id", kindString},
		{"taskId", "task_id", kindString},
		{"process", "process", kindJSON},
		{"createdAt", "created_at", kindDateTime},
		{"updatedAt", "updated_at", kindDateTime},
	},
	targets: func(m *DebugTask) []any {
		return []any{&m.ID, &m.SessionID, &m.TaskID, &m.Process, &m.CreatedAt, &m.UpdatedAt}
	},
	updatedAt: true,
}

type DebugTaskWhereInput struct {
	AND []DebugTaskWhereInput `json:"AND,omitempty"`
	OR  []DebugTaskWhereInput `json:"OR,omitempty"`
	NOT []DebugTaskWhereInput `json:"NOT,omitempty"`

	ID        *StringFilter   `json:"id,omitempty"`
	SessionID *StringFilter   `json:"sessionId,omitempty"`
	TaskID    *StringFilter   `json:"taskId,omitempty"`
	Process   *JSONFilter     `json:"process,omitempty"`
	CreatedAt *DateTimeFilter `json:"createdAt,omitempty"`
	UpdatedAt *DateTimeFilter `json:"updatedAt,omitempty"`

	Session *RelationFilter[DebugSessionWhereInput] `json:"session,omitempty"`
}

func (w DebugTaskWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("session_id", w.SessionID)
	c.field("task_id", w.TaskID)
	c.field("process", w.Process)
	c.field("created_at", w.CreatedAt)
	c.field("updated_at", w.UpdatedAt)
	c.add(toOne(s, w.Session, "debug_sessions", "id", "session_id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

type DebugTaskWhereUniqueInput struct {
	ID *string `json:"id,omitempty"`
}

func (u DebugTaskWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "DebugTask", map[string]*string{"id": u.ID})
}

type DebugTaskCreateInput struct {
	ID        string     `json:"id,omitempty"`
	SessionID string     `json:"sessionId"`
	TaskID    string     `json:"taskId"`
	Process   types.JSON `json:"process,omitempty"`
}

func (in DebugTaskCreateInput) toModel(now types.Timestamp) (*DebugTask, error) {
	if err := required("DebugTask.sessionId", in.SessionID); err != nil {
		return nil, err
	}
	if err := required("DebugTask.taskId", in.TaskID); err != nil {
		return nil, err
	}
	if err := checkJSON("DebugTask.process", in.Process); err != nil {
		return nil, err
	}
	return &DebugTask{
		ID:        newID(in.ID),
		SessionID: in.SessionID,
		TaskID:    in.TaskID,
		Process:   in.Process,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type DebugTaskUpdateInput struct {
	SessionID *string              `json:"sessionId,omitempty"`
	TaskID    *string              `json:"taskId,omitempty"`
	Process   Nullable[types.JSON] `json:"process,omitzero"`
}

func (in DebugTaskUpdateInput) assignments() (assignments, error) {
	if err := checkJSON("DebugTask.process", in.Process.Value); err != nil {
		return nil, err
	}
	a := assignments{}
	setField(a, "session_id", in.SessionID)
	setField(a, "task_id", in.TaskID)
	setNullable(a, "process", in.Process)
	return a, nil
}

type DebugTaskInclude struct {
	Session *RelationArgs[DebugSessionInclude] `json:"session,omitempty"`
}

func (inc DebugTaskInclude) load(ctx context.Context, r *runner, parents []*DebugTask) error {
	if inc.Session == nil {
		return nil
	}
	fk := func(t *DebugTask) string { return t.SessionID }
	rows, keys, err := newDebugSessionDelegate(r).related(ctx, r, "id", keysOf(parents, fk), DebugSessionFindManyArgs{Include: inc.Session.Include})
	if err != nil {
		return err
	}
	attachOne(parents, rows, keys, fk, func(t *DebugTask, s *DebugSession) { t.Session = s })
	return nil
}

type (
	DebugTaskDelegate       = Delegate[DebugTask, DebugTaskWhereInput, DebugTaskWhereUniqueInput, DebugTaskField, DebugTaskInclude, DebugTaskCreateInput, DebugTaskUpdateInput]
	DebugTaskFindManyArgs   = FindManyArgs[DebugTaskWhereInput, DebugTaskWhereUniqueInput, DebugTaskField, DebugTaskInclude]
	DebugTaskFindUniqueArgs = FindUniqueArgs[DebugTaskWhereUniqueInput, DebugTaskField, DebugTaskInclude]
	DebugTaskCreateArgs     = CreateArgs[DebugTaskCreateInput, DebugTaskField, DebugTaskInclude]
	DebugTaskCreateManyArgs = CreateManyArgs[DebugTaskCreateInput, DebugTaskField]
	DebugTaskUpdateArgs     = UpdateArgs[DebugTaskWhereUniqueInput, DebugTaskUpdateInput, DebugTaskField, DebugTaskInclude]
	DebugTaskUpdateManyArgs = UpdateManyArgs[DebugTaskWhereInput, DebugTaskUpdateInput, DebugTaskField]
	DebugTaskUpsertArgs     = UpsertArgs[DebugTaskWhereUniqueInput, DebugTaskCreateInput, DebugTaskUpdateInput, DebugTaskField, DebugTaskInclude]
	DebugTaskDeleteArgs     = DeleteArgs[DebugTaskWhereUniqueInput, DebugTaskField, DebugTaskInclude]
	DebugTaskDeleteManyArgs = DeleteManyArgs[DebugTaskWhereInput]
	DebugTaskCountArgs      = CountArgs[DebugTaskWhereInput, DebugTaskField]
	DebugTaskAggregateArgs  = AggregateArgs[DebugTaskWhereInput, DebugTaskField]
	DebugTaskGroupByArgs    = GroupByArgs[DebugTaskWhereInput, DebugTaskField]
	DebugTaskOrderBy        = OrderBy[DebugTaskField]
)

func newDebugTaskDelegate(r *runner) *DebugTaskDelegate {
	return &DebugTaskDelegate{t: debugTaskTable, r: r}
}
