package client

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// Project groups tasks and the schedules that spawn them.
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Status      ProjectStatus   `json:"status"`
	Settings    types.JSON      `json:"settings"`
	CreatedAt   types.Timestamp `json:"createdAt"`
	UpdatedAt   types.Timestamp `json:"updatedAt"`

	Tasks     []*Task     `json:"tasks,omitempty"`
	Schedules []*Schedule `json:"schedules,omitempty"`
}

type ProjectField string

const (
	ProjectFieldID          ProjectField = "id"
	ProjectFieldName        ProjectField = "name"
	ProjectFieldDescription ProjectField = "description"
	ProjectFieldStatus      ProjectField = "status"
	ProjectFieldSettings    ProjectField = "settings"
	ProjectFieldCreatedAt   ProjectField = "createdAt"
	ProjectFieldUpdatedAt   ProjectField = "updatedAt"
)

var projectTable = &table[Project]{
	model: "Project",
	name:  "projects",
	fields: []field{
		{"id", "id", kindString},
		{"name", "name", kindString},
		{"description", "description", kindString},
		{"status", "status", kindEnum},
		{"settings", "settings", kindJSON},
		{"createdAt", "created_at", kindDateTime},
		{"updatedAt", "updated_at", kindDateTime},
	},
	targets: func(m *Project) []any {
		return []any{&m.ID, &m.Name, &m.Description, &m.Status, &m.Settings, &m.CreatedAt, &m.UpdatedAt}
	},
	updatedAt: true,
}

type ProjectWhereInput struct {
	AND []ProjectWhereInput `json:"AND,omitempty"`
	OR  []ProjectWhereInput `json:"OR,omitempty"`
	NOT []ProjectWhereInput `json:"NOT,omitempty"`

	ID          *StringFilter                `json:"id,omitempty"`
	Name        *StringFilter                `json:"name,omitempty"`
	Description *StringFilter                `json:"description,omitempty"`
	Status      *ScalarFilter[ProjectStatus] `json:"status,omitempty"`
	Settings    *JSONFilter                  `json:"settings,omitempty"`
	CreatedAt   *DateTimeFilter              `json:"createdAt,omitempty"`
	UpdatedAt   *DateTimeFilter              `json:"updatedAt,omitempty"`

	Tasks     *ListRelationFilter[TaskWhereInput]     `json:"tasks,omitempty"`
	Schedules *ListRelationFilter[ScheduleWhereInput] `json:"schedules,omitempty"`
}

func (w ProjectWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("name", w.Name)
	c.field("description", w.Description)
	c.field("status", w.Status)
	c.field("settings", w.Settings)
	c.field("created_at", w.CreatedAt)
	c.field("updated_at", w.UpdatedAt)
	c.add(toMany(s, w.Tasks, "tasks", "project_id", "id"))
	c.add(toMany(s, w.Schedules, "schedules", "project_id", "id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

type ProjectWhereUniqueInput struct {
	ID *string `json:"id,omitempty"`
}

func (u ProjectWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "Project", map[string]*string{"id": u.ID})
}

type ProjectCreateInput struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	Status      ProjectStatus `json:"status,omitempty"`
	Settings    types.JSON    `json:"settings,omitempty"`
}

func (in ProjectCreateInput) toModel(now types.Timestamp) (*Project, error) {
	if err := required("Project.name", in.Name); err != nil {
		return nil, err
	}
	if err := checkEnum("Project.status", in.Status); err != nil {
		return nil, err
	}
	if err := checkJSON("Project.settings", in.Settings); err != nil {
		return nil, err
	}
	return &Project{
		ID:          newID(in.ID),
		Name:        in.Name,
		Description: in.Description,
		Status:      orDefault(in.Status, ProjectStatusActive),
		Settings:    in.Settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type ProjectUpdateInput struct {
	Name        *string              `json:"name,omitempty"`
	Description Nullable[string]     `json:"description,omitzero"`
	Status      *ProjectStatus       `json:"status,omitempty"`
	Settings    Nullable[types.JSON] `json:"settings,omitzero"`
}

func (in ProjectUpdateInput) assignments() (assignments, error) {
	if in.Name != nil {
		if err := required("Project.name", *in.Name); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if err := checkEnum("Project.status", *in.Status); err != nil {
			return nil, err
		}
	}
	if err := checkJSON("Project.settings", in.Settings.Value); err != nil {
		return nil, err
	}
	a := assignments{}
	setField(a, "name", in.Name)
	setNullable(a, "description", in.Description)
	setField(a, "status", in.Status)
	setNullable(a, "settings", in.Settings)
	return a, nil
}

type ProjectInclude struct {
	Tasks     *FindManyArgs[TaskWhereInput, TaskWhereUniqueInput, TaskField, TaskInclude]                 `json:"tasks,omitempty"`
	Schedules *FindManyArgs[ScheduleWhereInput, ScheduleWhereUniqueInput, ScheduleField, ScheduleInclude] `json:"schedules,omitempty"`
}

func (inc ProjectInclude) load(ctx context.Context, r *runner, parents []*Project) error {
	id := func(p *Project) string { return p.ID }
	ids := keysOf(parents, id)
	if inc.Tasks != nil {
		rows, keys, err := newTaskDelegate(r).related(ctx, r, "project_id", ids, *inc.Tasks)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(p *Project, c []*Task) { p.Tasks = c }, inc.Tasks.Skip, inc.Tasks.Take)
	}
	if inc.Schedules != nil {
		rows, keys, err := newScheduleDelegate(r).related(ctx, r, "project_id", ids, *inc.Schedules)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(p *Project, c []*Schedule) { p.Schedules = c }, inc.Schedules.Skip, inc.Schedules.Take)
	}
	return nil
}

type (
	ProjectDelegate       = Delegate[Project, ProjectWhereInput, ProjectWhereUniqueInput, ProjectField, ProjectInclude, ProjectCreateInput, ProjectUpdateInput]
	ProjectFindManyArgs   = FindManyArgs[ProjectWhereInput, ProjectWhereUniqueInput, ProjectField, ProjectInclude]
	ProjectFindUniqueArgs = FindUniqueArgs[ProjectWhereUniqueInput, ProjectField, ProjectInclude]
	ProjectCreateArgs     = CreateArgs[ProjectCreateInput, ProjectField, ProjectInclude]
	ProjectCreateManyArgs = CreateManyArgs[ProjectCreateInput, ProjectField]
	ProjectUpdateArgs     = UpdateArgs[ProjectWhereUniqueInput, ProjectUpdateInput, ProjectField, ProjectInclude]
	ProjectUpdateManyArgs = UpdateManyArgs[ProjectWhereInput, ProjectUpdateInput, ProjectField]
	ProjectUpsertArgs     = UpsertArgs[ProjectWhereUniqueInput, ProjectCreateInput, ProjectUpdateInput, ProjectField, ProjectInclude]
	ProjectDeleteArgs     = DeleteArgs[ProjectWhereUniqueInput, ProjectField, ProjectInclude]
	ProjectDeleteManyArgs = DeleteManyArgs[ProjectWhereInput]
	ProjectCountArgs      = CountArgs[ProjectWhereInput, ProjectField]
	ProjectAggregateArgs  = AggregateArgs[ProjectWhereInput, ProjectField]
	ProjectGroupByArgs    = GroupByArgs[ProjectWhereInput, ProjectField]
	ProjectOrderBy        = OrderBy[ProjectField]
)

func newProjectDelegate(r *runner) *ProjectDelegate {
	return &ProjectDelegate{t: projectTable, r: r}
}
