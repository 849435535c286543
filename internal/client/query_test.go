package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/testutils"
)

// seedQueryData creates three projects and four tasks with fixed ids so
// default id ordering is predictable:
//
//	p1 "Alpha Crawler": t1 RUNNING/HIGH/10, t2 COMPLETED/LOW/50, t3 RUNNING/HIGH/90
//	p2 "beta crawler":  t4 PENDING/MEDIUM/0
//	p3 "Gamma":         no tasks
func seedQueryData(t *testing.T, c *client.Client) {
	t.Helper()
	ctx := context.Background()
	_, err := c.Project.CreateMany(ctx, client.ProjectCreateManyArgs{
		Data: []client.ProjectCreateInput{
			{ID: "p1", Name: "Alpha Crawler"},
			{ID: "p2", Name: "beta crawler"},
			{ID: "p3", Name: "Gamma"},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create projects: %v", err)
	}
	_, err = c.Task.CreateMany(ctx, client.TaskCreateManyArgs{
		Data: []client.TaskCreateInput{
			{ID: "t1", Title: "fetch pages", ProjectID: "p1", Status: client.TaskStatusRunning, Priority: client.PriorityHigh, Progress: 10},
			{ID: "t2", Title: "parse pages", ProjectID: "p1", Status: client.TaskStatusCompleted, Priority: client.PriorityLow, Progress: 50},
			{ID: "t3", Title: "store results", ProjectID: "p1", Status: client.TaskStatusRunning, Priority: client.PriorityHigh, Progress: 90},
			{ID: "t4", Title: "fetch feeds", ProjectID: "p2", Status: client.TaskStatusPending, Priority: client.PriorityMedium},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create tasks: %v", err)
	}
}

func projectIDs(list []*client.Project) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}

func taskIDs(list []*client.Task) []string {
	out := make([]string, len(list))
	for i, task := range list {
		out[i] = task.ID
	}
	return out
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestProjectFilters(t *testing.T) {
	c := testutils.SetupTestClient(t)
	seedQueryData(t, c)
	ctx := context.Background()

	running := client.TaskStatusRunning
	high := client.PriorityHigh
	tests := []struct {
		name  string
		where client.ProjectWhereInput
		want  []string
	}{
		{"contains is case sensitive", client.ProjectWhereInput{
			Name: &client.StringFilter{Contains: client.Ptr("crawler")},
		}, []string{"p2"}},
		{"contains insensitive", client.ProjectWhereInput{
			Name: &client.StringFilter{Contains: client.Ptr("CRAWLER"), Mode: client.ModeInsensitive},
		}, []string{"p1", "p2"}},
		{"starts with", client.ProjectWhereInput{
			Name: &client.StringFilter{StartsWith: client.Ptr("Alpha")},
		}, []string{"p1"}},
		{"ends with", client.ProjectWhereInput{
			Name: &client.StringFilter{EndsWith: client.Ptr("ma")},
		}, []string{"p3"}},
		{"in list", client.ProjectWhereInput{
			ID: &client.StringFilter{In: []string{"p1", "p3"}},
		}, []string{"p1", "p3"}},
		{"empty in list matches nothing", client.ProjectWhereInput{
			ID: &client.StringFilter{In: []string{}},
		}, []string{}},
		{"or", client.ProjectWhereInput{
			OR: []client.ProjectWhereInput{
				{Name: &client.StringFilter{Equals: client.Ptr("Gamma")}},
				{ID: &client.StringFilter{Equals: client.Ptr("p2")}},
			},
		}, []string{"p2", "p3"}},
		{"not", client.ProjectWhereInput{
			NOT: []client.ProjectWhereInput{{Name: &client.StringFilter{StartsWith: client.Ptr("Alpha")}}},
		}, []string{"p2", "p3"}},
		{"some task running", client.ProjectWhereInput{
			Tasks: &client.ListRelationFilter[client.TaskWhereInput]{
				Some: &client.TaskWhereInput{Status: &client.ScalarFilter[client.TaskStatus]{Equals: &running}},
			},
		}, []string{"p1"}},
		{"no tasks at all", client.ProjectWhereInput{
			Tasks: &client.ListRelationFilter[client.TaskWhereInput]{None: &client.TaskWhereInput{}},
		}, []string{"p3"}},
		{"every task high priority", client.ProjectWhereInput{
			Tasks: &client.ListRelationFilter[client.TaskWhereInput]{
				Every: &client.TaskWhereInput{Priority: &client.ScalarFilter[client.Priority]{Equals: &high}},
			},
		}, []string{"p3"}},
		{"every task with null description", client.ProjectWhereInput{
			Tasks: &client.ListRelationFilter[client.TaskWhereInput]{
				Every: &client.TaskWhereInput{Description: &client.StringFilter{Contains: client.Ptr("crawl")}},
			},
		}, []string{"p3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where := tt.where
			got, err := c.Project.FindMany(ctx, client.ProjectFindManyArgs{Where: &where})
			if err != nil {
				t.Fatalf("FindMany failed: %v", err)
			}
			if ids := projectIDs(got); !equalIDs(ids, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestTaskFilters(t *testing.T) {
	c := testutils.SetupTestClient(t)
	seedQueryData(t, c)
	ctx := context.Background()

	tests := []struct {
		name  string
		where client.TaskWhereInput
		want  []string
	}{
		{"progress range", client.TaskWhereInput{
			Progress: &client.FloatFilter{Gte: client.Ptr(50.0)},
		}, []string{"t2", "t3"}},
		{"status in", client.TaskWhereInput{
			Status: &client.ScalarFilter[client.TaskStatus]{In: []client.TaskStatus{client.TaskStatusPending, client.TaskStatusCompleted}},
		}, []string{"t2", "t4"}},
		{"status not", client.TaskWhereInput{
			Status: &client.ScalarFilter[client.TaskStatus]{Not: client.Ptr(client.TaskStatusRunning)},
		}, []string{"t2", "t4"}},
		{"parent is null", client.TaskWhereInput{
			ParentID: &client.StringFilter{IsNull: client.Ptr(true)},
		}, []string{"t1", "t2", "t3", "t4"}},
		{"project is", client.TaskWhereInput{
			Project: &client.RelationFilter[client.ProjectWhereInput]{
				Is: &client.ProjectWhereInput{Name: &client.StringFilter{Equals: client.Ptr("beta crawler")}},
			},
		}, []string{"t4"}},
		{"project is not", client.TaskWhereInput{
			Project: &client.RelationFilter[client.ProjectWhereInput]{
				IsNot: &client.ProjectWhereInput{ID: &client.StringFilter{Equals: client.Ptr("p1")}},
			},
		}, []string{"t4"}},
		{"created before now", client.TaskWhereInput{
			CreatedAt: &client.DateTimeFilter{Lte: client.Ptr(time.Now().Add(time.Minute))},
		}, []string{"t1", "t2", "t3", "t4"}},
		{"and", client.TaskWhereInput{
			AND: []client.TaskWhereInput{
				{Title: &client.StringFilter{StartsWith: client.Ptr("fetch")}},
				{ProjectID: &client.StringFilter{Equals: client.Ptr("p1")}},
			},
		}, []string{"t1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where := tt.where
			got, err := c.Task.FindMany(ctx, client.TaskFindManyArgs{Where: &where})
			if err != nil {
				t.Fatalf("FindMany failed: %v", err)
			}
			if ids := taskIDs(got); !equalIDs(ids, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestOrderingAndPagination(t *testing.T) {
	c := testutils.SetupTestClient(t)
	seedQueryData(t, c)
	ctx := context.Background()
	t2 := "t2"

	tests := []struct {
		name string
		args client.TaskFindManyArgs
		want []string
	}{
		{"order by progress desc", client.TaskFindManyArgs{
			OrderBy: client.Orderings[client.TaskField]{{Field: client.TaskFieldProgress, Direction: client.Desc}},
		}, []string{"t3", "t2", "t1", "t4"}},
		{"ties broken by id", client.TaskFindManyArgs{
			OrderBy: client.Orderings[client.TaskField]{{Field: client.TaskFieldPriority}},
		}, []string{"t1", "t3", "t2", "t4"}},
		{"skip and take", client.TaskFindManyArgs{
			OrderBy: client.Orderings[client.TaskField]{{Field: client.TaskFieldProgress, Direction: client.Desc}},
			Skip:    client.Ptr(1),
			Take:    client.Ptr(2),
		}, []string{"t2", "t1"}},
		{"negative take keeps the tail", client.TaskFindManyArgs{
			Take: client.Ptr(-2),
		}, []string{"t3", "t4"}},
		{"cursor forward", client.TaskFindManyArgs{
			Cursor: &client.TaskWhereUniqueInput{ID: &t2},
			Take:   client.Ptr(2),
		}, []string{"t2", "t3"}},
		{"cursor backward", client.TaskFindManyArgs{
			Cursor: &client.TaskWhereUniqueInput{ID: &t2},
			Take:   client.Ptr(-2),
		}, []string{"t1", "t2"}},
		{"cursor skipping itself", client.TaskFindManyArgs{
			Cursor: &client.TaskWhereUniqueInput{ID: &t2},
			Skip:   client.Ptr(1),
			Take:   client.Ptr(1),
		}, []string{"t3"}},
		{"cursor on ordered field", client.TaskFindManyArgs{
			OrderBy: client.Orderings[client.TaskField]{{Field: client.TaskFieldProgress, Direction: client.Desc}},
			Cursor:  &client.TaskWhereUniqueInput{ID: &t2},
		}, []string{"t2", "t1", "t4"}},
		{"missing cursor", client.TaskFindManyArgs{
			Cursor: &client.TaskWhereUniqueInput{ID: client.Ptr("gone")},
		}, []string{}},
		{"distinct priority", client.TaskFindManyArgs{
			Distinct: []client.TaskField{client.TaskFieldPriority},
		}, []string{"t1", "t2", "t4"}},
		{"distinct with take", client.TaskFindManyArgs{
			Distinct: []client.TaskField{client.TaskFieldProjectID},
			Take:     client.Ptr(1),
			Skip:     client.Ptr(1),
		}, []string{"t4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Task.FindMany(ctx, tt.args)
			if err != nil {
				t.Fatalf("FindMany failed: %v", err)
			}
			if ids := taskIDs(got); !equalIDs(ids, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, ids)
			}
		})
	}

	last, err := c.Task.FindFirst(ctx, client.TaskFindManyArgs{Take: client.Ptr(-1)})
	if err != nil {
		t.Fatalf("FindFirst failed: %v", err)
	}
	if last == nil || last.ID != "t4" {
		t.Errorf("Expected FindFirst with negative take to return t4, got %+v", last)
	}
}

func TestSelectAndInclude(t *testing.T) {
	c := testutils.SetupTestClient(t)
	seedQueryData(t, c)
	ctx := context.Background()

	for _, msg := range []string{"queued", "fetched", "done"} {
		if _, err := c.TaskLog.Create(ctx, client.TaskLogCreateArgs{
			Data: client.TaskLogCreateInput{ID: "log-" + msg, TaskID: "t3", Message: msg},
		}); err != nil {
			t.Fatalf("Failed to create log: %v", err)
		}
	}

	selected, err := c.Task.FindMany(ctx, client.TaskFindManyArgs{
		Select: client.FieldSet[client.TaskField]{client.TaskFieldTitle},
		Take:   client.Ptr(1),
	})
	if err != nil {
		t.Fatalf("FindMany with select failed: %v", err)
	}
	if len(selected) != 1 || selected[0].Title != "fetch pages" {
		t.Fatalf("Expected first title, got %+v", selected)
	}
	if selected[0].ID != "" || selected[0].ProjectID != "" {
		t.Errorf("Expected unselected fields to be empty, got %+v", selected[0])
	}

	projects, err := c.Project.FindMany(ctx, client.ProjectFindManyArgs{
		Include: &client.ProjectInclude{Tasks: &client.TaskFindManyArgs{
			OrderBy: client.Orderings[client.TaskField]{{Field: client.TaskFieldProgress, Direction: client.Desc}},
			Take:    client.Ptr(2),
			Include: &client.TaskInclude{Logs: &client.TaskLogFindManyArgs{
				Where: &client.TaskLogWhereInput{Message: &client.StringFilter{Not: client.Ptr("queued")}},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("FindMany with include failed: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("Expected 3 projects, got %d", len(projects))
	}
	if ids := taskIDs(projects[0].Tasks); !equalIDs(ids, []string{"t3", "t2"}) {
		t.Errorf("Expected p1 tasks [t3 t2], got %v", ids)
	}
	if n := len(projects[0].Tasks[0].Logs); n != 2 {
		t.Errorf("Expected 2 filtered logs on t3, got %d", n)
	}
	if projects[0].Tasks[1].Logs == nil || len(projects[0].Tasks[1].Logs) != 0 {
		t.Errorf("Expected empty log list on t2, got %v", projects[0].Tasks[1].Logs)
	}
	if ids := taskIDs(projects[1].Tasks); !equalIDs(ids, []string{"t4"}) {
		t.Errorf("Expected p2 tasks [t4], got %v", ids)
	}
	if projects[2].Tasks == nil || len(projects[2].Tasks) != 0 {
		t.Errorf("Expected empty task list on p3, got %v", projects[2].Tasks)
	}

	child := testutils.CreateTestTask(t, c, "p1", "child", client.Ptr("t1"))
	task, err := c.Task.FindUniqueOrThrow(ctx, client.TaskFindUniqueArgs{
		Where: client.TaskWhereUniqueInput{ID: &child.ID},
		Include: &client.TaskInclude{
			Project: &client.RelationArgs[client.ProjectInclude]{},
			Parent: &client.RelationArgs[client.TaskInclude]{
				Include: &client.TaskInclude{Children: &client.TaskFindManyArgs{}},
			},
		},
	})
	if err != nil {
		t.Fatalf("FindUniqueOrThrow with include failed: %v", err)
	}
	if task.Project == nil || task.Project.ID != "p1" {
		t.Errorf("Expected project p1, got %+v", task.Project)
	}
	if task.Parent == nil || task.Parent.ID != "t1" {
		t.Fatalf("Expected parent t1, got %+v", task.Parent)
	}
	if len(task.Parent.Children) != 1 || task.Parent.Children[0].ID != child.ID {
		t.Errorf("Expected parent to list the child, got %v", taskIDs(task.Parent.Children))
	}

	orphan, err := c.Task.FindUniqueOrThrow(ctx, client.TaskFindUniqueArgs{
		Where:   client.TaskWhereUniqueInput{ID: client.Ptr("t4")},
		Include: &client.TaskInclude{Parent: &client.RelationArgs[client.TaskInclude]{}},
	})
	if err != nil {
		t.Fatalf("FindUniqueOrThrow failed: %v", err)
	}
	if orphan.Parent != nil {
		t.Errorf("Expected no parent on t4, got %+v", orphan.Parent)
	}
}

func TestIncludeDistinctPerParent(t *testing.T) {
	c := testutils.SetupTestClient(t)
	ctx := context.Background()
	testutils.CreateTestProject(t, c, "first")
	testutils.CreateTestProject(t, c, "second")
	projects, err := c.Project.FindMany(ctx, client.ProjectFindManyArgs{})
	if err != nil {
		t.Fatalf("FindMany failed: %v", err)
	}
	p1, p2 := projects[0].ID, projects[1].ID

	_, err = c.Task.CreateMany(ctx, client.TaskCreateManyArgs{
		Data: []client.TaskCreateInput{
			{ID: "a1", Title: "same", ProjectID: p1},
			{ID: "a2", Title: "same", ProjectID: p1},
			{ID: "a3", Title: "other", ProjectID: p1},
			{ID: "b1", Title: "same", ProjectID: p2},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create tasks: %v", err)
	}

	tests := []struct {
		name string
		take *int
		want map[string][]string
	}{
		{"all", nil, map[string][]string{p1: {"a1", "a3"}, p2: {"b1"}}},
		{"take after distinct", client.Ptr(2), map[string][]string{p1: {"a1", "a3"}, p2: {"b1"}}},
		{"take one", client.Ptr(1), map[string][]string{p1: {"a1"}, p2: {"b1"}}},
		{"take last", client.Ptr(-1), map[string][]string{p1: {"a3"}, p2: {"b1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := c.Project.FindMany(ctx, client.ProjectFindManyArgs{
				Include: &client.ProjectInclude{Tasks: &client.TaskFindManyArgs{
					Distinct: []client.TaskField{client.TaskFieldTitle},
					Take:     tt.take,
				}},
			})
			if err != nil {
				t.Fatalf("FindMany with include failed: %v", err)
			}
			for _, p := range list {
				if ids := taskIDs(p.Tasks); !equalIDs(ids, tt.want[p.ID]) {
					t.Errorf("Expected %s tasks %v, got %v", p.Name, tt.want[p.ID], ids)
				}
			}
		})
	}
}

func TestCount(t *testing.T) {
	c := testutils.SetupTestClient(t)
	seedQueryData(t, c)
	ctx := context.Background()

	n, err := c.Task.Count(ctx, client.TaskCountArgs{
		Where: &client.TaskWhereInput{ProjectID: &client.StringFilter{Equals: client.Ptr("p1")}},
	})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 tasks in p1, got %d", n)
	}

	n, err = c.Task.Count(ctx, client.TaskCountArgs{Skip: client.Ptr(1), Take: client.Ptr(2)})
	if err != nil {
		t.Fatalf("Count with window failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected windowed count 2, got %d", n)
	}
}

func TestAggregate(t *testing.T) {
	c := testutils.SetupTestClient(t)
	seedQueryData(t, c)
	ctx := context.Background()

	res, err := c.Task.Aggregate(ctx, client.TaskAggregateArgs{
		Where:    &client.TaskWhereInput{ProjectID: &client.StringFilter{Equals: client.Ptr("p1")}},
		CountAll: true,
		Count:    client.FieldSet[client.TaskField]{client.TaskFieldParentID},
		Avg:      client.FieldSet[client.TaskField]{client.TaskFieldProgress},
		Sum:      client.FieldSet[client.TaskField]{client.TaskFieldProgress},
		Min:      client.FieldSet[client.TaskField]{client.TaskFieldProgress},
		Max:      client.FieldSet[client.TaskField]{client.TaskFieldTitle},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if res.Count["_all"] != 3 {
		t.Errorf("Expected _count._all 3, got %d", res.Count["_all"])
	}
	if res.Count["parentId"] != 0 {
		t.Errorf("Expected _count.parentId 0, got %d", res.Count["parentId"])
	}
	if res.Avg["progress"] != 50.0 {
		t.Errorf("Expected _avg.progress 50, got %v", res.Avg["progress"])
	}
	if res.Sum["progress"] != 150.0 {
		t.Errorf("Expected _sum.progress 150, got %v", res.Sum["progress"])
	}
	if res.Min["progress"] != 10.0 {
		t.Errorf("Expected _min.progress 10, got %v", res.Min["progress"])
	}
	if res.Max["title"] != "store results" {
		t.Errorf("Expected _max.title store results, got %v", res.Max["title"])
	}

	windowed, err := c.Task.Aggregate(ctx, client.TaskAggregateArgs{
		OrderBy: client.Orderings[client.TaskField]{{Field: client.TaskFieldProgress}},
		Take:    client.Ptr(2),
		Count:   client.FieldSet[client.TaskField]{"_all"},
		Sum:     client.FieldSet[client.TaskField]{client.TaskFieldProgress},
	})
	if err != nil {
		t.Fatalf("Windowed aggregate failed: %v", err)
	}
	if windowed.Count["_all"] != 2 || windowed.Sum["progress"] != 10.0 {
		t.Errorf("Expected count 2 and sum 10 over the two lowest, got %v and %v", windowed.Count["_all"], windowed.Sum["progress"])
	}

	empty, err := c.Task.Aggregate(ctx, client.TaskAggregateArgs{
		Where: &client.TaskWhereInput{Title: &client.StringFilter{Equals: client.Ptr("none")}},
		Avg:   client.FieldSet[client.TaskField]{client.TaskFieldProgress},
	})
	if err != nil {
		t.Fatalf("Aggregate over no rows failed: %v", err)
	}
	if v, ok := empty.Avg["progress"]; !ok || v != nil {
		t.Errorf("Expected _avg.progress null over no rows, got %v", v)
	}

	_, err = c.Task.Aggregate(ctx, client.TaskAggregateArgs{
		Avg: client.FieldSet[client.TaskField]{client.TaskFieldTitle},
	})
	if !errors.Is(err, client.ErrValidation) {
		t.Errorf("Expected _avg on a text field to be rejected, got %v", err)
	}
	_, err = c.Task.Aggregate(ctx, client.TaskAggregateArgs{})
	if !errors.Is(err, client.ErrValidation) {
		t.Errorf("Expected empty aggregate to be rejected, got %v", err)
	}
}

func TestGroupBy(t *testing.T) {
	c := testutils.SetupTestClient(t)
	seedQueryData(t, c)
	ctx := context.Background()

	groups, err := c.Task.GroupBy(ctx, client.TaskGroupByArgs{
		By:       []client.TaskField{client.TaskFieldPriority},
		CountAll: true,
		Avg:      client.FieldSet[client.TaskField]{client.TaskFieldProgress},
		OrderBy:  []client.GroupOrderBy[client.TaskField]{{Field: client.TaskFieldPriority}},
	})
	if err != nil {
		t.Fatalf("GroupBy failed: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("Expected 3 groups, got %d", len(groups))
	}
	want := []struct {
		priority string
		count    int64
		avg      float64
	}{
		{"HIGH", 2, 50},
		{"LOW", 1, 50},
		{"MEDIUM", 1, 0},
	}
	for i, w := range want {
		g := groups[i]
		if g.Key["priority"] != w.priority {
			t.Errorf("Group %d: expected priority %s, got %v", i, w.priority, g.Key["priority"])
		}
		if g.Count["_all"] != w.count {
			t.Errorf("Group %d: expected count %d, got %d", i, w.count, g.Count["_all"])
		}
		if g.Avg["progress"] != w.avg {
			t.Errorf("Group %d: expected avg %v, got %v", i, w.avg, g.Avg["progress"])
		}
	}

	having, err := c.Task.GroupBy(ctx, client.TaskGroupByArgs{
		By:       []client.TaskField{client.TaskFieldProjectID, client.TaskFieldStatus},
		CountAll: true,
		Having:   []client.Having[client.TaskField]{{Func: client.AggCount, Gt: 1}},
	})
	if err != nil {
		t.Fatalf("GroupBy with having failed: %v", err)
	}
	if len(having) != 1 || having[0].Key["projectId"] != "p1" || having[0].Key["status"] != "RUNNING" {
		t.Errorf("Expected one p1/RUNNING group, got %+v", having)
	}

	paged, err := c.Task.GroupBy(ctx, client.TaskGroupByArgs{
		By:      []client.TaskField{client.TaskFieldProjectID},
		Sum:     client.FieldSet[client.TaskField]{client.TaskFieldProgress},
		OrderBy: []client.GroupOrderBy[client.TaskField]{{Func: client.AggSum, Field: client.TaskFieldProgress, Direction: client.Desc}},
		Take:    client.Ptr(1),
	})
	if err != nil {
		t.Fatalf("GroupBy with take failed: %v", err)
	}
	if len(paged) != 1 || paged[0].Key["projectId"] != "p1" || paged[0].Sum["progress"] != 150.0 {
		t.Errorf("Expected p1 with sum 150 first, got %+v", paged)
	}

	invalid := []struct {
		name string
		args client.TaskGroupByArgs
	}{
		{"no by fields", client.TaskGroupByArgs{CountAll: true}},
		{"take without orderBy", client.TaskGroupByArgs{
			By:   []client.TaskField{client.TaskFieldStatus},
			Take: client.Ptr(1),
		}},
		{"orderBy on ungrouped field", client.TaskGroupByArgs{
			By:      []client.TaskField{client.TaskFieldStatus},
			OrderBy: []client.GroupOrderBy[client.TaskField]{{Field: client.TaskFieldTitle}},
		}},
		{"having on ungrouped field", client.TaskGroupByArgs{
			By:     []client.TaskField{client.TaskFieldStatus},
			Having: []client.Having[client.TaskField]{{Field: client.TaskFieldTitle, Equals: "x"}},
		}},
		{"sum on text", client.TaskGroupByArgs{
			By:  []client.TaskField{client.TaskFieldStatus},
			Sum: client.FieldSet[client.TaskField]{client.TaskFieldTitle},
		}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Task.GroupBy(ctx, tt.args)
			if !errors.Is(err, client.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestScheduleTimeFilters(t *testing.T) {
	c := testutils.SetupTestClient(t)
	ctx := context.Background()
	p := testutils.CreateTestProject(t, c, "timed")
	now := time.Now().UTC()

	inputs := []client.ScheduleCreateInput{
		{ID: "s1", Name: "due", Cron: "*/5 * * * *", ProjectID: p.ID, NextRun: client.Ptr(now.Add(-time.Minute))},
		{ID: "s2", Name: "later", Cron: "0 * * * *", ProjectID: p.ID, NextRun: client.Ptr(now.Add(time.Hour))},
		{ID: "s3", Name: "unplanned", Cron: "0 0 * * *", ProjectID: p.ID, Active: client.Ptr(false)},
	}
	if _, err := c.Schedule.CreateMany(ctx, client.ScheduleCreateManyArgs{Data: inputs}); err != nil {
		t.Fatalf("CreateMany failed: %v", err)
	}

	due, err := c.Schedule.FindMany(ctx, client.ScheduleFindManyArgs{
		Where: &client.ScheduleWhereInput{
			Active:  &client.BoolFilter{Equals: client.Ptr(true)},
			NextRun: &client.DateTimeFilter{Lte: &now},
		},
	})
	if err != nil {
		t.Fatalf("FindMany failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != "s1" {
		t.Errorf("Expected only s1 to be due, got %d schedules", len(due))
	}

	unplanned, err := c.Schedule.FindMany(ctx, client.ScheduleFindManyArgs{
		Where: &client.ScheduleWhereInput{NextRun: &client.DateTimeFilter{IsNull: client.Ptr(true)}},
	})
	if err != nil {
		t.Fatalf("FindMany failed: %v", err)
	}
	if len(unplanned) != 1 || unplanned[0].ID != "s3" || unplanned[0].Active {
		t.Errorf("Expected inactive s3 without nextRun, got %+v", unplanned)
	}

	ordered, err := c.Schedule.FindMany(ctx, client.ScheduleFindManyArgs{
		OrderBy: client.Orderings[client.ScheduleField]{{Field: client.ScheduleFieldNextRun, Direction: client.Desc, Nulls: client.NullsLast}},
	})
	if err != nil {
		t.Fatalf("FindMany failed: %v", err)
	}
	var ids []string
	for _, s := range ordered {
		ids = append(ids, s.ID)
	}
	if !equalIDs(ids, []string{"s2", "s1", "s3"}) {
		t.Errorf("Expected [s2 s1 s3], got %v", ids)
	}
}
