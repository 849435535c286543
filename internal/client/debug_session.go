package client

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// DebugSession is one debugger or proxy run, optionally tied to a debug project.
type DebugSession struct {
	ID             string              `json:"id"`
	Type           DebugType           `json:"type"`
	Status         DebugStatus         `json:"status"`
	DebugProjectID *string             `json:"debugProjectId"`
	Metadata       types.JSON          `json:"metadata"`
	StartedAt      types.Timestamp     `json:"startedAt"`
	EndedAt        types.NullTimestamp `json:"endedAt"`
	CreatedAt      types.Timestamp     `json:"createdAt"`
	UpdatedAt      types.Timestamp     `json:"updatedAt"`

	DebugProject *DebugProject `json:"debugProject,omitempty"`
	Requests     []*Request    `json:"requests,omitempty"`
	Responses    []*Response   `json:"responses,omitempty"`
	DebugTasks   []*DebugTask  `json:"debugTasks,omitempty"`
}

type DebugSessionField string

const (
	DebugSessionFieldID             DebugSessionField = "id"
	DebugSessionFieldType           DebugSessionField = "type"
	DebugSessionFieldStatus         DebugSessionField = "status"
	DebugSessionFieldDebugProjectID DebugSessionField = "debugProjectId"
	DebugSessionFieldMetadata       DebugSessionField = "metadata"
	DebugSessionFieldStartedAt      DebugSessionField = "startedAt"
	DebugSessionFieldEndedAt        DebugSessionField = "endedAt"
	DebugSessionFieldCreatedAt      DebugSessionField = "createdAt"
	DebugSessionFieldUpdatedAt      DebugSessionField = "updatedAt"
)

var debugSessionTable = &table[DebugSession]{
	model: "DebugSession",
	name:  "debug_sessions",
	fields: []field{
		{"id", "id", kindString},
		{"type", "type", kindEnum},
		{"status", "status", kindEnum},
		{"debugProjectId", "debug_project_id", kindString},
		{"metadata", "metadata", kindJSON},
		{"startedAt", "started_at", kindDateTime},
		{"endedAt", "ended_at", kindDateTime},
		{"createdAt", "created_at", kindDateTime},
		{"updatedAt", "updated_at", kindDateTime},
	},
	targets: func(m *DebugSession) []any {
		return []any{&m.ID, &m.Type, &m.Status, &m.DebugProjectID, &m.Metadata, &m.StartedAt, &m.EndedAt, &m.CreatedAt, &m.UpdatedAt}
	},
	updatedAt: true,
}

type DebugSessionWhereInput struct {
	AND []DebugSessionWhereInput `json:"AND,omitempty"`
	OR  []DebugSessionWhereInput `json:"OR,omitempty"`
	NOT []DebugSessionWhereInput `json:"NOT,omitempty"`

	ID             *StringFilter              `json:"id,omitempty"`
	Type           *ScalarFilter[DebugType]   `json:"type,omitempty"`
	Status         *ScalarFilter[DebugStatus] `json:"status,omitempty"`
	DebugProjectID *StringFilter              `json:"debugProjectId,omitempty"`
	Metadata       *JSONFilter                `json:"metadata,omitempty"`
	StartedAt      *DateTimeFilter            `json:"startedAt,omitempty"`
	EndedAt        *DateTimeFilter            `json:"endedAt,omitempty"`
	CreatedAt      *DateTimeFilter            `json:"createdAt,omitempty"`
	UpdatedAt      *DateTimeFilter            `json:"updatedAt,omitempty"`

	DebugProject *RelationFilter[DebugProjectWhereInput]  `json:"debugProject,omitempty"`
	Requests     *ListRelationFilter[RequestWhereInput]   `json:"requests,omitempty"`
	Responses    *ListRelationFilter[ResponseWhereInput]  `json:"responses,omitempty"`
	DebugTasks   *ListRelationFilter[DebugTaskWhereInput] `json:"debugTasks,omitempty"`
}

func (w DebugSessionWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("type", w.Type)
	c.field("status", w.Status)
	c.field("debug_project_id", w.DebugProjectID)
	c.field("metadata", w.Metadata)
	c.field("started_at", w.StartedAt)
	c.field("ended_at", w.EndedAt)
	c.field("created_at", w.CreatedAt)
	c.field("updated_at", w.UpdatedAt)
	c.add(toOne(s, w.DebugProject, "debug_projects", "id", "debug_project_id"))
	c.add(toMany(s, w.Requests, "requests", "session_id", "id"))
	c.add(toMany(s, w.Responses, "responses", "session_id", "id"))
	c.add(toMany(s, w.DebugTasks, "debug_tasks", "session_id", "id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

type DebugSessionWhereUniqueInput struct {
	ID *string `json:"id,omitempty"`
}

func (u DebugSessionWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "DebugSession", map[string]*string{"id": u.ID})
}

type DebugSessionCreateInput struct {
	ID             string      `json:"id,omitempty"`
	Type           DebugType   `json:"type,omitempty"`
	Status         DebugStatus `json:"status,omitempty"`
	DebugProjectID *string     `json:"debugProjectId,omitempty"`
	Metadata       types.JSON  `json:"metadata,omitempty"`
	StartedAt      *time.Time  `json:"startedAt,omitempty"`
	EndedAt        *time.Time  `json:"endedAt,omitempty"`
}

func (in DebugSessionCreateInput) toModel(now types.Timestamp) (*DebugSession, error) {
	if err := checkEnum("DebugSession.type", in.Type); err != nil {
		return nil, err
	}
	if err := checkEnum("DebugSession.status", in.Status); err != nil {
		return nil, err
	}
	if err := checkJSON("DebugSession.metadata", in.Metadata); err != nil {
		return nil, err
	}
	return &DebugSession{
		ID:             newID(in.ID),
		Type:           orDefault(in.Type, DebugTypeDebugger),
		Status:         orDefault(in.Status, DebugStatusRunning),
		DebugProjectID: in.DebugProjectID,
		Metadata:       in.Metadata,
		StartedAt:      timeOr(in.StartedAt, now),
		EndedAt:        nullTime(in.EndedAt),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

type DebugSessionUpdateInput struct {
	Type           *DebugType           `json:"type,omitempty"`
	Status         *DebugStatus         `json:"status,omitempty"`
	DebugProjectID Nullable[string]     `json:"debugProjectId,omitzero"`
	Metadata       Nullable[types.JSON] `json:"metadata,omitzero"`
	StartedAt      *time.Time           `json:"startedAt,omitempty"`
	EndedAt        Nullable[time.Time]  `json:"endedAt,omitzero"`
}

func (in DebugSessionUpdateInput) assignments() (assignments, error) {
	if in.Type != nil {
		if err := checkEnum("DebugSession.type", *in.Type); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if err := checkEnum("DebugSession.status", *in.Status); err != nil {
			return nil, err
		}
	}
	if err := checkJSON("DebugSession.metadata", in.Metadata.Value); err != nil {
		return nil, err
	}
	a := assignments{}
	setField(a, "type", in.Type)
	setField(a, "status", in.Status)
	setNullable(a, "debug_project_id", in.DebugProjectID)
	setNullable(a, "metadata", in.Metadata)
	setField(a, "started_at", in.StartedAt)
	setNullable(a, "ended_at", in.EndedAt)
	return a, nil
}

type DebugSessionInclude struct {
	DebugProject *RelationArgs[DebugProjectInclude]                                                              `json:"debugProject,omitempty"`
	Requests     *FindManyArgs[RequestWhereInput, RequestWhereUniqueInput, RequestField, RequestInclude]         `json:"requests,omitempty"`
	Responses    *FindManyArgs[ResponseWhereInput, ResponseWhereUniqueInput, ResponseField, ResponseInclude]     `json:"responses,omitempty"`
	DebugTasks   *FindManyArgs[DebugTaskWhereInput, DebugTaskWhereUniqueInput, DebugTaskField, DebugTaskInclude] `json:"debugTasks,omitempty"`
}

func (inc DebugSessionInclude) load(ctx context.Context, r *runner, parents []*DebugSession) error {
	id := func(s *DebugSession) string { return s.ID }
	ids := keysOf(parents, id)
	if inc.DebugProject != nil {
		fk := func(s *DebugSession) string { return optional(s.DebugProjectID) }
		rows, keys, err := newDebugProjectDelegate(r).related(ctx, r, "id", keysOf(parents, fk), DebugProjectFindManyArgs{Include: inc.DebugProject.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(s *DebugSession, p *DebugProject) { s.DebugProject = p })
	}
	if inc.Requests != nil {
		rows, keys, err := newRequestDelegate(r).related(ctx, r, "session_id", ids, *inc.Requests)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(s *DebugSession, c []*Request) { s.Requests = c }, inc.Requests.Skip, inc.Requests.Take)
	}
	if inc.Responses != nil {
		rows, keys, err := newResponseDelegate(r).related(ctx, r, "session_id", ids, *inc.Responses)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(s *DebugSession, c []*Response) { s.Responses = c }, inc.Responses.Skip, inc.Responses.Take)
	}
	if inc.DebugTasks != nil {
		rows, keys, err := newDebugTaskDelegate(r).related(ctx, r, "session_id", ids, *inc.DebugTasks)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(s *DebugSession, c []*DebugTask) { s.DebugTasks = c }, inc.DebugTasks.Skip, inc.DebugTasks.Take)
	}
	return nil
}

type (
	DebugSessionDelegate       = Delegate[DebugSession, DebugSessionWhereInput, DebugSessionWhereUniqueInput, DebugSessionField, DebugSessionInclude, DebugSessionCreateInput, DebugSessionUpdateInput]
	DebugSessionFindManyArgs   = FindManyArgs[DebugSessionWhereInput, DebugSessionWhereUniqueInput, DebugSessionField, DebugSessionInclude]
	DebugSessionFindUniqueArgs = FindUniqueArgs[DebugSessionWhereUniqueInput, DebugSessionField, DebugSessionInclude]
	DebugSessionCreateArgs     = CreateArgs[DebugSessionCreateInput, DebugSessionField, DebugSessionInclude]
	DebugSessionCreateManyArgs = CreateManyArgs[DebugSessionCreateInput, DebugSessionField]
	DebugSessionUpdateArgs     = UpdateArgs[DebugSessionWhereUniqueInput, DebugSessionUpdateInput, DebugSessionField, DebugSessionInclude]
	DebugSessionUpdateManyArgs = UpdateManyArgs[DebugSessionWhereInput, DebugSessionUpdateInput, DebugSessionField]
	DebugSessionUpsertArgs     = UpsertArgs[DebugSessionWhereUniqueInput, DebugSessionCreateInput, DebugSessionUpdateInput, DebugSessionField, DebugSessionInclude]
	DebugSessionDeleteArgs     = DeleteArgs[DebugSessionWhereUniqueInput, DebugSessionField, DebugSessionInclude]
	DebugSessionDeleteManyArgs = DeleteManyArgs[DebugSessionWhereInput]
	DebugSessionCountArgs      = CountArgs[DebugSessionWhereInput, DebugSessionField]
	DebugSessionAggregateArgs  = AggregateArgs[DebugSessionWhereInput, DebugSessionField]
	DebugSessionGroupByArgs    = GroupByArgs[DebugSessionWhereInput, DebugSessionField]
	DebugSessionOrderBy        = OrderBy[DebugSessionField]
)

func newDebugSessionDelegate(r *runner) *DebugSessionDelegate {
	return &DebugSessionDelegate{t: debugSessionTable, r: r}
}
