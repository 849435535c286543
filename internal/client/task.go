package client

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// Task is a unit of work in a project. Tasks form a tree through ParentID.
type Task struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      TaskStatus          `json:"status"`
	Priority    Priority            `json:"priority"`
	Progress    float64             `json:"progress"`
	ProjectID   string              `json:"projectId"`
	ScheduleID  *string             `json:"scheduleId"`
	ParentID    *string             `json:"parentId"`
	StartedAt   types.NullTimestamp `json:"startedAt"`
	CompletedAt types.NullTimestamp `json:"completedAt"`
	CreatedAt   types.Timestamp     `json:"createdAt"`
	UpdatedAt   types.Timestamp     `json:"updatedAt"`

	Project  *Project   `json:"project,omitempty"`
	Schedule *Schedule  `json:"schedule,omitempty"`
	Parent   *Task      `json:"parent,omitempty"`
	Children []*Task    `json:"children,omitempty"`
	Logs     []*TaskLog `json:"logs,omitempty"`
}

type TaskField string

const (
	TaskFieldID          TaskField = "id"
	TaskFieldTitle       TaskField = "title"
	TaskFieldDescription TaskField = "description"
	TaskFieldStatus      TaskField = "status"
	TaskFieldPriority    TaskField = "priority"
	TaskFieldProgress    TaskField = "progress"
	TaskFieldProjectID   TaskField = "projectId"
	TaskFieldScheduleID  TaskField = "scheduleId"
	TaskFieldParentID    TaskField = "parentId"
	TaskFieldStartedAt   TaskField = "startedAt"
	TaskFieldCompletedAt TaskField = "completedAt"
	TaskFieldCreatedAt   TaskField = "createdAt"
	TaskFieldUpdatedAt   TaskField = "updatedAt"
)

var taskTable = &table[Task]{
	model: "Task",
	name:  "tasks",
	fields: []field{
		{"id", "id", kindString},
		{"title", "title", kindString},
		{"description", "description", kindString},
		{"status", "status", kindEnum},
		{"priority", "priority", kindEnum},
		{"progress", "progress", kindFloat},
		{"projectId", "project_id", kindString},
		{"scheduleId", "schedule_id", kindString},
		{"parentId", "parent_id", kindString},
		{"startedAt", "started_at", kindDateTime},
		{"completedAt", "completed_at", kindDateTime},
		{"createdAt", "created_at", kindDateTime},
		{"updatedAt", "updated_at", kindDateTime},
	},
	targets: func(m *Task) []any {
		return []any{
			&m.ID, &m.Title, &m.Description, &m.Status, &m.Priority, &m.Progress,
			&m.ProjectID, &m.ScheduleID, &m.ParentID, &m.StartedAt, &m.CompletedAt,
			&m.CreatedAt, &m.UpdatedAt,
		}
	},
	updatedAt: true,
}

type TaskWhereInput struct {
	AND []TaskWhereInput `json:"AND,omitempty"`
	OR  []TaskWhereInput `json:"OR,omitempty"`
	NOT []TaskWhereInput `json:"NOT,omitempty"`

	ID          *StringFilter             `json:"id,omitempty"`
	Title       *StringFilter             `json:"title,omitempty"`
	Description *StringFilter             `json:"description,omitempty"`
	Status      *ScalarFilter[TaskStatus] `json:"status,omitempty"`
	Priority    *ScalarFilter[Priority]   `json:"priority,omitempty"`
	Progress    *FloatFilter              `json:"progress,omitempty"`
	ProjectID   *StringFilter             `json:"projectId,omitempty"`
	ScheduleID  *StringFilter             `json:"scheduleId,omitempty"`
	ParentID    *StringFilter             `json:"parentId,omitempty"`
	StartedAt   *DateTimeFilter           `json:"startedAt,omitempty"`
	CompletedAt *DateTimeFilter           `json:"completedAt,omitempty"`
	CreatedAt   *DateTimeFilter           `json:"createdAt,omitempty"`
	UpdatedAt   *DateTimeFilter           `json:"updatedAt,omitempty"`

	Project  *RelationFilter[ProjectWhereInput]     `json:"project,omitempty"`
	Schedule *RelationFilter[ScheduleWhereInput]    `json:"schedule,omitempty"`
	Parent   *RelationFilter[TaskWhereInput]        `json:"parent,omitempty"`
	Children *ListRelationFilter[TaskWhereInput]    `json:"children,omitempty"`
	Logs     *ListRelationFilter[TaskLogWhereInput] `json:"logs,omitempty"`
}

func (w TaskWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("title", w.Title)
	c.field("description", w.Description)
	c.field("status", w.Status)
	c.field("priority", w.Priority)
	c.field("progress", w.Progress)
	c.field("project_id", w.ProjectID)
	c.field("schedule_id", w.ScheduleID)
	c.field("parent_id", w.ParentID)
	c.field("started_at", w.StartedAt)
	c.field("completed_at", w.CompletedAt)
	c.field("created_at", w.CreatedAt)
	c.field("updated_at", w.UpdatedAt)
	c.add(toOne(s, w.Project, "projects", "id", "project_id"))
	c.add(toOne(s, w.Schedule, "schedules", "id", "schedule_id"))
	c.add(toOne(s, w.Parent, "tasks", "id", "parent_id"))
	c.add(toMany(s, w.Children, "tasks", "parent_id", "id"))
	c.add(toMany(s, w.Logs, "task_logs", "task_id", "id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

type TaskWhereUniqueInput struct {
	ID *string `json:"id,omitempty"`
}

func (u TaskWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "Task", map[string]*string{"id": u.ID})
}

type TaskCreateInput struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Progress    float64    `json:"progress,omitempty"`
	ProjectID   string     `json:"projectId"`
	ScheduleID  *string    `json:"scheduleId,omitempty"`
	ParentID    *string    `json:"parentId,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (in TaskCreateInput) toModel(now types.Timestamp) (*Task, error) {
	if err := required("Task.title", in.Title); err != nil {
		return nil, err
	}
	if err := required("Task.projectId", in.ProjectID); err != nil {
		return nil, err
	}
	if err := checkEnum("Task.status", in.Status); err != nil {
		return nil, err
	}
	if err := checkEnum("Task.priority", in.Priority); err != nil {
		return nil, err
	}
	if err := checkProgress(in.Progress); err != nil {
		return nil, err
	}
	id := newID(in.ID)
	if in.ParentID != nil && *in.ParentID == id {
		return nil, cycleError(id)
	}
	return &Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Status:      orDefault(in.Status, TaskStatusPending),
		Priority:    orDefault(in.Priority, PriorityMedium),
		Progress:    in.Progress,
		ProjectID:   in.ProjectID,
		ScheduleID:  in.ScheduleID,
		ParentID:    in.ParentID,
		StartedAt:   nullTime(in.StartedAt),
		CompletedAt: nullTime(in.CompletedAt),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type TaskUpdateInput struct {
	Title       *string             `json:"title,omitempty"`
	Description Nullable[string]    `json:"description,omitzero"`
	Status      *TaskStatus         `json:"status,omitempty"`
	Priority    *Priority           `json:"priority,omitempty"`
	Progress    *FloatUpdate        `json:"progress,omitempty"`
	ProjectID   *string             `json:"projectId,omitempty"`
	ScheduleID  Nullable[string]    `json:"scheduleId,omitzero"`
	ParentID    Nullable[string]    `json:"parentId,omitzero"`
	StartedAt   Nullable[time.Time] `json:"startedAt,omitzero"`
	CompletedAt Nullable[time.Time] `json:"completedAt,omitzero"`
}

func (in TaskUpdateInput) assignments() (assignments, error) {
	if in.Title != nil {
		if err := required("Task.title", *in.Title); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if err := checkEnum("Task.status", *in.Status); err != nil {
			return nil, err
		}
	}
	if in.Priority != nil {
		if err := checkEnum("Task.priority", *in.Priority); err != nil {
			return nil, err
		}
	}
	if in.Progress != nil && in.Progress.Set != nil {
		if err := checkProgress(*in.Progress.Set); err != nil {
			return nil, err
		}
	}
	a := assignments{}
	setField(a, "title", in.Title)
	setNullable(a, "description", in.Description)
	setField(a, "status", in.Status)
	setField(a, "priority", in.Priority)
	if err := setNumber(a, "progress", in.Progress); err != nil {
		return nil, err
	}
	setField(a, "project_id", in.ProjectID)
	setNullable(a, "schedule_id", in.ScheduleID)
	setNullable(a, "parent_id", in.ParentID)
	setNullable(a, "started_at", in.StartedAt)
	setNullable(a, "completed_at", in.CompletedAt)
	return a, nil
}

func checkProgress(p float64) error {
	if p < 0 || p > 100 {
		return validationf("Task.progress must be within 0..100, got %g", p)
	}
	return nil
}

// guardTaskParent rejects a parent change that would make any of ids its
// own ancestor.
func guardTaskParent(ctx context.Context, r *runner, ids []string, data TaskUpdateInput) error {
	if !data.ParentID.Set || !data.ParentID.Valid {
		return nil
	}
	parent := data.ParentID.Value
	for _, id := range ids {
		if id == parent {
			return cycleError(id)
		}
	}
	q := sq.Select("a.id").
		Prefix(`WITH RECURSIVE ancestors(id) AS (
			SELECT ?
			UNION
			SELECT t.parent_id FROM tasks AS t JOIN ancestors AS a ON t.id = a.id
			WHERE t.parent_id IS NOT NULL
		)`, parent).
		From("ancestors AS a").
		Where(sq.Eq{"a.id": ids}).
		Limit(1)
	rows, err := r.query(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to walk task ancestors: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan task ancestor: %w", err)
		}
		return cycleError(id)
	}
	return rows.Err()
}

// guardTaskInsert rejects inserted rows whose parent links loop back to
// one of them. Rows of a single INSERT may point at each other, and SQLite
// checks the foreign keys only once the statement ends.
func guardTaskInsert(ctx context.Context, r *runner, rows []*Task) error {
	ids := make([]string, 0, len(rows))
	inserted := make(map[string]bool, len(rows))
	for _, t := range rows {
		ids = append(ids, t.ID)
		inserted[t.ID] = true
	}
	linked := false
	for _, t := range rows {
		if t.ParentID != nil && inserted[*t.ParentID] {
			linked = true
			break
		}
	}
	if !linked {
		return nil
	}
	seed, seedArgs, err := sq.Select("parent_id").
		From("tasks").
		Where(sq.Eq{"id": ids}).
		Where("parent_id IS NOT NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task ancestor query: %w", err)
	}
	q := sq.Select("a.id").
		Prefix(`WITH RECURSIVE ancestors(id) AS (
			`+seed+`
			UNION
			SELECT t.parent_id FROM tasks AS t JOIN ancestors AS a ON t.id = a.id
			WHERE t.parent_id IS NOT NULL
		)`, seedArgs...).
		From("ancestors AS a").
		Where(sq.Eq{"a.id": ids}).
		Limit(1)
	found, err := r.query(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to walk task ancestors: %w", err)
	}
	defer found.Close()
	if found.Next() {
		var id string
		if err := found.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan task ancestor: %w", err)
		}
		return cycleError(id)
	}
	return found.Err()
}

type TaskInclude struct {
	Project  *RelationArgs[ProjectInclude]                                                           `json:"project,omitempty"`
	Schedule *RelationArgs[ScheduleInclude]                                                          `json:"schedule,omitempty"`
	Parent   *RelationArgs[TaskInclude]                                                              `json:"parent,omitempty"`
	Children *FindManyArgs[TaskWhereInput, TaskWhereUniqueInput, TaskField, TaskInclude]             `json:"children,omitempty"`
	Logs     *FindManyArgs[TaskLogWhereInput, TaskLogWhereUniqueInput, TaskLogField, TaskLogInclude] `json:"logs,omitempty"`
}

func (inc TaskInclude) load(ctx context.Context, r *runner, parents []*Task) error {
	id := func(t *Task) string { return t.ID }
	if inc.Project != nil {
		fk := func(t *Task) string { return t.ProjectID }
		rows, keys, err := newProjectDelegate(r).related(ctx, r, "id", keysOf(parents, fk), ProjectFindManyArgs{Include: inc.Project.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(t *Task, p *Project) { t.Project = p })
	}
	if inc.Schedule != nil {
		fk := func(t *Task) string { return optional(t.ScheduleID) }
		rows, keys, err := newScheduleDelegate(r).related(ctx, r, "id", keysOf(parents, fk), ScheduleFindManyArgs{Include: inc.Schedule.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(t *Task, s *Schedule) { t.Schedule = s })
	}
	if inc.Parent != nil {
		fk := func(t *Task) string { return optional(t.ParentID) }
		rows, keys, err := newTaskDelegate(r).related(ctx, r, "id", keysOf(parents, fk), TaskFindManyArgs{Include: inc.Parent.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(t *Task, p *Task) { t.Parent = p })
	}
	if inc.Children != nil {
		rows, keys, err := newTaskDelegate(r).related(ctx, r, "parent_id", keysOf(parents, id), *inc.Children)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(t *Task, c []*Task) { t.Children = c }, inc.Children.Skip, inc.Children.Take)
	}
	if inc.Logs != nil {
		rows, keys, err := newTaskLogDelegate(r).related(ctx, r, "task_id", keysOf(parents, id), *inc.Logs)
		if err != nil {
			return err
		}
		attachMany(parents, rows, keys, id, func(t *Task, c []*TaskLog) { t.Logs = c }, inc.Logs.Skip, inc.Logs.Take)
	}
	return nil
}

type (
	TaskDelegate       = Delegate[Task, TaskWhereInput, TaskWhereUniqueInput, TaskField, TaskInclude, TaskCreateInput, TaskUpdateInput]
	TaskFindManyArgs   = FindManyArgs[TaskWhereInput, TaskWhereUniqueInput, TaskField, TaskInclude]
	TaskFindUniqueArgs = FindUniqueArgs[TaskWhereUniqueInput, TaskField, TaskInclude]
	TaskCreateArgs     = CreateArgs[TaskCreateInput, TaskField, TaskInclude]
	TaskCreateManyArgs = CreateManyArgs[TaskCreateInput, TaskField]
	TaskUpdateArgs     = UpdateArgs[TaskWhereUniqueInput, TaskUpdateInput, TaskField, TaskInclude]
	TaskUpdateManyArgs = UpdateManyArgs[TaskWhereInput, TaskUpdateInput, TaskField]
	TaskUpsertArgs     = UpsertArgs[TaskWhereUniqueInput, TaskCreateInput, TaskUpdateInput, TaskField, TaskInclude]
	TaskDeleteArgs     = DeleteArgs[TaskWhereUniqueInput, TaskField, TaskInclude]
	TaskDeleteManyArgs = DeleteManyArgs[TaskWhereInput]
	TaskCountArgs      = CountArgs[TaskWhereInput, TaskField]
	TaskAggregateArgs  = AggregateArgs[TaskWhereInput, TaskField]
	TaskGroupByArgs    = GroupByArgs[TaskWhereInput, TaskField]
	TaskOrderBy        = OrderBy[TaskField]
)

func newTaskDelegate(r *runner) *TaskDelegate {
	return &TaskDelegate{t: taskTable, r: r, beforeUpdate: guardTaskParent, afterInsert: guardTaskInsert}
}
