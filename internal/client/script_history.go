package client

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// ScriptHistory is a saved revision of a debug project's script.
type ScriptHistory struct {
	ID             string          `json:"id"`
	DebugProjectID string          `json:"debugProjectId"`
	Content        string          `json:"content"`
	CreatedAt      types.Timestamp `json:"createdAt"`

	DebugProject *DebugProject `json:"debugProject,omitempty"`
}

type ScriptHistoryField string

const (
	ScriptHistoryFieldID             ScriptHistoryField = "id"
	ScriptHistoryFieldDebugProjectID ScriptHistoryField = "debugProjectId"
	ScriptHistoryFieldContent        ScriptHistoryField = "content"
	ScriptHistoryFieldCreatedAt      ScriptHistoryField = "createdAt"
)

var scriptHistoryTable = &table[ScriptHistory]{
	model: "ScriptHistory",
	name:  "script_histories",
	fields: []field{
		{"id", "id", kindString},
		{"debugProjectId", "debug_project_id", kindString},
		{"content", "content", kindString},
		{"createdAt", "created_at", kindDateTime},
	},
	targets: func(m *ScriptHistory) []any {
		return []any{&m.ID, &m.DebugProjectID, &m.Content, &m.CreatedAt}
	},
}

type ScriptHistoryWhereInput struct {
	AND []ScriptHistoryWhereInput `json:"AND,omitempty"`
	OR  []ScriptHistoryWhereInput `json:"OR,omitempty"`
	NOT []ScriptHistoryWhereInput `json:"NOT,omitempty"`

	ID             *StringFilter   `json:"id,omitempty"`
	DebugProjectID *StringFilter   `json:"debugProjectId,omitempty"`
	Content        *StringFilter   `json:"content,omitempty"`
	CreatedAt      *DateTimeFilter `json:"createdAt,omitempty"`

	DebugProject *RelationFilter[DebugProjectWhereInput] `json:"debugProject,omitempty"`
}

func (w ScriptHistoryWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("debug_project_id", w.DebugProjectID)
	c.field("content", w.Content)
	c.field("created_at", w.CreatedAt)
	c.add(toOne(s, w.DebugProject, "debug_projects", "id", "debug_project_id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

type ScriptHistoryWhereUniqueInput struct {
	ID *string `json:"id,omitempty"`
}

func (u ScriptHistoryWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "ScriptHistory", map[string]*string{"id": u.ID})
}

type ScriptHistoryCreateInput struct {
	ID             string `json:"id,omitempty"`
	DebugProjectID string `json:"debugProjectId"`
	Content        string `json:"content"`
}

func (in ScriptHistoryCreateInput) toModel(now types.Timestamp) (*ScriptHistory, error) {
	if err := required("ScriptHistory.debugProjectId", in.DebugProjectID); err != nil {
		return nil, err
	}
	return &ScriptHistory{
		ID:             newID(in.ID),
		DebugProjectID: in.DebugProjectID,
		Content:        in.Content,
		CreatedAt:      now,
	}, nil
}

type ScriptHistoryUpdateInput struct {
	DebugProjectID *string `json:"debugProjectId,omitempty"`
	Content        *string `json:"content,omitempty"`
}

func (in ScriptHistoryUpdateInput) assignments() (assignments, error) {
	a := assignments{}
	setField(a, "debug_project_id", in.DebugProjectID)
	setField(a, "content", in.Content)
	return a, nil
}

type ScriptHistoryInclude struct {
	DebugProject *RelationArgs[DebugProjectInclude] `json:"debugProject,omitempty"`
}

func (inc ScriptHistoryInclude) load(ctx context.Context, r *runner, parents []*ScriptHistory) error {
	if inc.DebugProject == nil {
		return nil
	}
	fk := func(h *ScriptHistory) string { return h.DebugProjectID }
	rows, keys, err := newDebugProjectDelegate(r).related(ctx, r, "id", keysOf(parents, fk), DebugProjectFindManyArgs{Include: inc.DebugProject.Include})
	if err != nil {
		return err
	}
	attachOne(parents, rows, keys, fk, func(h *ScriptHistory, p *DebugProject) { h.DebugProject = p })
	return nil
}

type (
	ScriptHistoryDelegate       = Delegate[ScriptHistory, ScriptHistoryWhereInput, ScriptHistoryWhereUniqueInput, ScriptHistoryField, ScriptHistoryInclude, ScriptHistoryCreateInput, ScriptHistoryUpdateInput]
	ScriptHistoryFindManyArgs   = FindManyArgs[ScriptHistoryWhereInput, ScriptHistoryWhereUniqueInput, ScriptHistoryField, ScriptHistoryInclude]
	ScriptHistoryFindUniqueArgs = FindUniqueArgs[ScriptHistoryWhereUniqueInput, ScriptHistoryField, ScriptHistoryInclude]
	ScriptHistoryCreateArgs     = CreateArgs[ScriptHistoryCreateInput, ScriptHistoryField, ScriptHistoryInclude]
	ScriptHistoryCreateManyArgs = CreateManyArgs[ScriptHistoryCreateInput, ScriptHistoryField]
	ScriptHistoryUpdateArgs     = UpdateArgs[ScriptHistoryWhereUniqueInput, ScriptHistoryUpdateInput, ScriptHistoryField, ScriptHistoryInclude]
	ScriptHistoryUpdateManyArgs = UpdateManyArgs[ScriptHistoryWhereInput, ScriptHistoryUpdateInput, ScriptHistoryField]
	ScriptHistoryUpsertArgs     = UpsertArgs[ScriptHistoryWhereUniqueInput, ScriptHistoryCreateInput, ScriptHistoryUpdateInput, ScriptHistoryField, ScriptHistoryInclude]
	ScriptHistoryDeleteArgs     = DeleteArgs[ScriptHistoryWhereUniqueInput, ScriptHistoryField, ScriptHistoryInclude]
	ScriptHistoryDeleteManyArgs = DeleteManyArgs[ScriptHistoryWhereInput]
	ScriptHistoryCountArgs      = CountArgs[ScriptHistoryWhereInput, ScriptHistoryField]
	ScriptHistoryAggregateArgs  = AggregateArgs[ScriptHistoryWhereInput, ScriptHistoryField]
	ScriptHistoryGroupByArgs    = GroupByArgs[ScriptHistoryWhereInput, ScriptHistoryField]
	ScriptHistoryOrderBy        = OrderBy[ScriptHistoryField]
)

func newScriptHistoryDelegate(r *runner) *ScriptHistoryDelegate {
	return &ScriptHistoryDelegate{t: scriptHistoryTable, r: r}
}
