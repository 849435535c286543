package client

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// DebugProject is a named debugging script with its edit history.
type DebugProject struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Script      *string         `json:"script"`
	CreatedAt   types.Timestamp `json:"createdAt"`
	UpdatedAt   types.Timestamp `json:"updatedAt"`

	Sessions      []*DebugSession  `json:"sessions,omitempty"`
	ScriptHistory []*ScriptHistory `json:"scriptHistory,omitempty"`
}

type DebugProjectField string

const (
	DebugProjectFieldID          DebugProjectField = "id"
	DebugProjectFieldName        DebugProjectField = "name"
	DebugProjectFieldDescription DebugProjectField = "description"
	DebugProjectFieldScript      DebugProjectField = "script"
	DebugProjectFieldCreatedAt   DebugProjectField = "createdAt"
	DebugProjectFieldUpdatedAt   DebugProjectField = "updatedAt"
)

var debugProjectTable = &table[DebugProject]{
	model: "DebugProject",
	name:  "debug_projects",
	fields: []field{
		{"id", "id", kindString},
		{"name", "name", kindString},
		{"description", "description", kindString},
		{"script", "script", kindString},
		{"createdAt", "created_at", kindDateTime},
		{"updatedAt", "updated_at", kindDateTime},
	},
	targets: func(m *DebugProject) []any {
		return []any{&m.ID, &m.Name, &m.Description, &m.Script, &m.CreatedAt, &m.UpdatedAt}
	},
	updatedAt: true,
}

type DebugProjectWhereInput struct {
	AND []DebugProjectWhereInput `json:"AND,omitempty"`
	OR  []DebugProjectWhereInput `json:"OR,omitempty"`
	NOT []DebugProjectWhereInput `json:"NOT,omitempty"`

	ID          *StringFilter   `json:"id,omitempty"`
	Name        *StringFilter   `json:"name,omitempty"`
	Description *StringFilter   `json:"description,omitempty"`
	Script      *StringFilter   `json:"script,omitempty"`
	CreatedAt   *DateTimeFilter `json:"createdAt,omitempty"`
	UpdatedAt   *DateTimeFilter `json:"updatedAt,omitempty"`

	Sessions      *ListRelationFilter[DebugSessionWhereInput]  `json:"sessions,omitempty"`
	ScriptHistory *ListRelationFilter[ScriptHistoryWhereInput] `json:"scriptHistory,omitempty"`
}

func (w DebugProjectWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("name", w.Name)
	c.field("description", w.Description)
	c.field("script", w.Script)
	c.field("created_at", w.CreatedAt)
	c.field("updated_at", w.UpdatedAt)
	c.add(toMany(s, w.Sessions, "debug_sessions", "debug_project_id", "id"))
	c.add(toMany(s, w.ScriptHistory, "script_histories", "debug_project_id", "id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

// DebugProjectWhereUniqueInput selects by id or by the unique name.
type DebugProjectWhereUniqueInput struct {
	ID   *string `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

func (u DebugProjectWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "DebugProject", map[string]*string{"id": u.ID, "name": u.Name})
}

type DebugProjectCreateInput struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Script      *string `json:"script,omitempty"`
}

func (in DebugProjectCreateInput) toModel(now types.Timestamp) (*DebugProject, error) {
	if err := required("DebugProject.name", in.Name); err != nil {
		return nil, err
	}
	return &DebugProject{
		ID:          newID(in.ID),
		Name:        in.Name,
		Description: in.Description,
		Script:      in.Script,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type DebugProjectUpdateInput struct {
	Name        *string          `json:"name,omitempty"`
	Description Nullable[string] `json:"description,omitzero"`
	Script      Nullable[string] `json:"script,omitzero"`
}

func (in DebugProjectUpdateInput) assignments() (assignments, error) {
	if in.Name != nil {
		if err := required("DebugProject.name", *in.Name); err != nil {
			return nil, err
		}
	}
	a := assignments{}
	setField(a, "name", in.Name)
	setNullable(a, "description", in.Description)
	setNullable(a, "script", in.Script)
	return a, nil
}

type DebugProjectInclude struct {
	Sessions      *FindManyArgs[DebugSessionWhereInput, DebugSessionWhereUniqueInput, DebugSessionField, DebugSessionInclude]     `json:"sessions,omitempty"`
	ScriptHistory *FindManyArgs[ScriptHistoryWhereInput, ScriptHistoryWhereUniqueInput, ScriptHistoryField, ScriptHistoryInclude] `json:"scriptHistory,omitempty"`
}

func (inc DebugProjectInclude) load(ctx context.Context, r *runner, parents []*DebugProject) error {
	id := func(p *DebugProject) string { return p.ID }
	ids := keysOf(parents, id)
	if inc.Sessions != nil {
		rows, keys, err := newDebugSessionDelegate(r).related(ctx, r, "debug_project_id", ids, *inc.Sessions)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(p *DebugProject, c []*DebugSession) { p.Sessions = c }, inc.Sessions.Skip, inc.Sessions.Take)
	}
	if inc.ScriptHistory != nil {
		rows, keys, err := newScriptHistoryDelegate(r).related(ctx, r, "debug_project_id", ids, *inc.ScriptHistory)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(p *DebugProject, c []*ScriptHistory) { p.ScriptHistory = c }, inc.ScriptHistory.Skip, inc.ScriptHistory.Take)
	}
	return nil
}

type (
	DebugProjectDelegate       = Delegate[DebugProject, DebugProjectWhereInput, DebugProjectWhereUniqueInput, DebugProjectField, DebugProjectInclude, DebugProjectCreateInput, DebugProjectUpdateInput]
	DebugProjectFindManyArgs   = FindManyArgs[DebugProjectWhereInput, DebugProjectWhereUniqueInput, DebugProjectField, DebugProjectInclude]
	DebugProjectFindUniqueArgs = FindUniqueArgs[DebugProjectWhereUniqueInput, DebugProjectField, DebugProjectInclude]
	DebugProjectCreateArgs     = CreateArgs[DebugProjectCreateInput, DebugProjectField, DebugProjectInclude]
	DebugProjectCreateManyArgs = CreateManyArgs[DebugProjectCreateInput, DebugProjectField]
	DebugProjectUpdateArgs     = UpdateArgs[DebugProjectWhereUniqueInput, DebugProjectUpdateInput, DebugProjectField, DebugProjectInclude]
	DebugProjectUpdateManyArgs = UpdateManyArgs[DebugProjectWhereInput, DebugProjectUpdateInput, DebugProjectField]
	DebugProjectUpsertArgs     = UpsertArgs[DebugProjectWhereUniqueInput, DebugProjectCreateInput, DebugProjectUpdateInput, DebugProjectField, DebugProjectInclude]
	DebugProjectDeleteArgs     = DeleteArgs[DebugProjectWhereUniqueInput, DebugProjectField, DebugProjectInclude]
	DebugProjectDeleteManyArgs = DeleteManyArgs[DebugProjectWhereInput]
	DebugProjectCountArgs      = CountArgs[DebugProjectWhereInput, DebugProjectField]
	DebugProjectAggregateArgs  = AggregateArgs[DebugProjectWhereInput, DebugProjectField]
	DebugProjectGroupByArgs    = GroupByArgs[DebugProjectWhereInput, DebugProjectField]
	DebugProjectOrderBy        = OrderBy[DebugProjectField]
)

func newDebugProjectDelegate(r *runner) *DebugProjectDelegate {
	return &DebugProjectDelegate{t: debugProjectTable, r: r}
}
