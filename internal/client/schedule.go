package client

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// Schedule runs a project's tasks on a cron expression.
type Schedule struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Cron      string              `json:"cron"`
	Active    bool                `json:"active"`
	NextRun   types.NullTimestamp `json:"nextRun"`
	LastRun   types.NullTimestamp `json:"lastRun"`
	ProjectID string              `json:"projectId"`
	CreatedAt types.Timestamp     `json:"createdAt"`
	UpdatedAt types.Timestamp     `json:"updatedAt"`

	Project *Project `json:"project,omitempty"`
	Tasks   []*Task  `json:"tasks,omitempty"`
}

type ScheduleField string

const (
	ScheduleFieldID        ScheduleField = "id"
	ScheduleFieldName      ScheduleField = "name"
	ScheduleFieldCron      ScheduleField = "cron"
	ScheduleFieldActive    ScheduleField = "active"
	ScheduleFieldNextRun   ScheduleField = "nextRun"
	ScheduleFieldLastRun   ScheduleField = "lastRun"
	ScheduleFieldProjectID ScheduleField = "projectId"
	ScheduleFieldCreatedAt ScheduleField = "createdAt"
	ScheduleFieldUpdatedAt ScheduleField = "updatedAt"
)

var scheduleTable = &table[Schedule]{
	model: "Schedule",
	name:  "schedules",
	fields: []field{
		{"id", "id", kindString},
		{"name", "name", kindString},
		{"cron", "cron", kindString},
		{"active", "active", kindBool},
		{"nextRun", "next_run", kindDateTime},
		{"lastRun", "last_run", kindDateTime},
		{"projectId", "project_id", kindString},
		{"createdAt", "created_at", kindDateTime},
		{"updatedAt", "updated_at", kindDateTime},
	},
	targets: func(m *Schedule) []any {
		return []any{&m.ID, &m.Name, &m.Cron, &m.Active, &m.NextRun, &m.LastRun, &m.ProjectID, &m.CreatedAt, &m.UpdatedAt}
	},
	updatedAt: true,
}

type ScheduleWhereInput struct {
	AND []ScheduleWhereInput `json:"AND,omitempty"`
	OR  []ScheduleWhereInput `json:"OR,omitempty"`
	NOT []ScheduleWhereInput `json:"NOT,omitempty"`

	ID        *StringFilter   `json:"id,omitempty"`
	Name      *StringFilter   `json:"name,omitempty"`
	Cron      *StringFilter   `json:"cron,omitempty"`
	Active    *BoolFilter     `json:"active,omitempty"`
	NextRun   *DateTimeFilter `json:"nextRun,omitempty"`
	LastRun   *DateTimeFilter `json:"lastRun,omitempty"`
	ProjectID *StringFilter   `json:"projectId,omitempty"`
	CreatedAt *DateTimeFilter `json:"createdAt,omitempty"`
	UpdatedAt *DateTimeFilter `json:"updatedAt,omitempty"`

	Project *RelationFilter[ProjectWhereInput] `json:"project,omitempty"`
	Tasks   *ListRelationFilter[TaskWhereInput] `json:"tasks,omitempty"`
}

func (w ScheduleWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("name", w.Name)
	c.field("cron", w.Cron)
	c.field("active", w.Active)
	c.field("next_run", w.NextRun)
	c.field("last_run", w.LastRun)
	c.field("project_id", w.ProjectID)
	c.field("created_at", w.CreatedAt)
	c.field("updated_at", w.UpdatedAt)
	c.add(toOne(s, w.Project, "projects", "id", "project_id"))
	c.add(toMany(s, w.Tasks, "tasks", "schedule_id", "id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

type ScheduleWhereUniqueInput struct {
	ID *string `json:"id,omitempty"`
}

func (u ScheduleWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "Schedule", map[string]*string{"id": u.ID})
}

type ScheduleCreateInput struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Cron      string     `json:"cron"`
	Active    *bool      `json:"active,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	ProjectID string     `json:"projectId"`
}

func (in ScheduleCreateInput) toModel(now types.Timestamp) (*Schedule, error) {
	if err := required("Schedule.name", in.Name); err != nil {
		return nil, err
	}
	if err := required("Schedule.cron", in.Cron); err != nil {
		return nil, err
	}
	if err := required("Schedule.projectId", in.ProjectID); err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return &Schedule{
		ID:        newID(in.ID),
		Name:      in.Name,
		Cron:      in.Cron,
		Active:    active,
		NextRun:   nullTime(in.NextRun),
		LastRun:   nullTime(in.LastRun),
		ProjectID: in.ProjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type ScheduleUpdateInput struct {
	Name      *string             `json:"name,omitempty"`
	Cron      *string             `json:"cron,omitempty"`
	Active    *bool               `json:"active,omitempty"`
	NextRun   Nullable[time.Time] `json:"nextRun,omitzero"`
	LastRun   Nullable[time.Time] `json:"lastRun,omitzero"`
	ProjectID *string             `json:"projectId,omitempty"`
}

func (in ScheduleUpdateInput) assignments() (assignments, error) {
	if in.Cron != nil {
		if err := required("Schedule.cron", *in.Cron); err != nil {
			return nil, err
		}
	}
	a := assignments{}
	setField(a, "name", in.Name)
	setField(a, "cron", in.Cron)
	setField(a, "active", in.Active)
	setNullable(a, "next_run", in.NextRun)
	setNullable(a, "last_run", in.LastRun)
	setField(a, "project_id", in.ProjectID)
	return a, nil
}

type ScheduleInclude struct {
	Project *RelationArgs[ProjectInclude]                                               `json:"project,omitempty"`
	Tasks   *FindManyArgs[TaskWhereInput, TaskWhereUniqueInput, TaskField, TaskInclude] `json:"tasks,omitempty"`
}

func (inc ScheduleInclude) load(ctx context.Context, r *runner, parents []*Schedule) error {
	if inc.Project != nil {
		fk := func(s *Schedule) string { return s.ProjectID }
		rows, keys, err := newProjectDelegate(r).related(ctx, r, "id", keysOf(parents, fk), ProjectFindManyArgs{Include: inc.Project.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(s *Schedule, p *Project) { s.Project = p })
	}
	if inc.Tasks != nil {
		id := func(s *Schedule) string { return s.ID }
		rows, keys, err := newTaskDelegate(r).related(ctx, r, "schedule_id", keysOf(parents, id), *inc.Tasks)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(s *Schedule, c []*Task) { s.Tasks = c }, inc.Tasks.Skip, inc.Tasks.Take)
	}
	return nil
}

type (
	ScheduleDelegate       = Delegate[Schedule, ScheduleWhereInput, ScheduleWhereUniqueInput, ScheduleField, ScheduleInclude, ScheduleCreateInput, ScheduleUpdateInput]
	ScheduleFindManyArgs   = FindManyArgs[ScheduleWhereInput, ScheduleWhereUniqueInput, ScheduleField, ScheduleInclude]
	ScheduleFindUniqueArgs = FindUniqueArgs[ScheduleWhereUniqueInput, ScheduleField, ScheduleInclude]
	ScheduleCreateArgs     = CreateArgs[ScheduleCreateInput, ScheduleField, ScheduleInclude]
	ScheduleCreateManyArgs = CreateManyArgs[ScheduleCreateInput, ScheduleField]
	ScheduleUpdateArgs     = UpdateArgs[ScheduleWhereUniqueInput, ScheduleUpdateInput, ScheduleField, ScheduleInclude]
	ScheduleUpdateManyArgs = UpdateManyArgs[ScheduleWhereInput, ScheduleUpdateInput, ScheduleField]
	ScheduleUpsertArgs     = UpsertArgs[ScheduleWhereUniqueInput, ScheduleCreateInput, ScheduleUpdateInput, ScheduleField, ScheduleInclude]
	ScheduleDeleteArgs     = DeleteArgs[ScheduleWhereUniqueInput, ScheduleField, ScheduleInclude]
	ScheduleDeleteManyArgs = DeleteManyArgs[ScheduleWhereInput]
	ScheduleCountArgs      = CountArgs[ScheduleWhereInput, ScheduleField]
	ScheduleAggregateArgs  = AggregateArgs[ScheduleWhereInput, ScheduleField]
	ScheduleGroupByArgs    = GroupByArgs[ScheduleWhereInput, ScheduleField]
	ScheduleOrderBy        = OrderBy[ScheduleField]
)

func newScheduleDelegate(r *runner) *ScheduleDelegate {
	return &ScheduleDelegate{t: scheduleTable, r: r}
}
