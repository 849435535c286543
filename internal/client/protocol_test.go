package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/testutils"
)

func TestExecute(t *testing.T) {
	c := testutils.SetupTestClient(t)
	seedQueryData(t, c)
	ctx := context.Background()

	out, err := c.Execute(ctx, "Task", "findMany", json.RawMessage(`{
		"where": {"status": "RUNNING", "title": {"contains": "PAGES", "mode": "insensitive"}},
		"orderBy": {"progress": "desc"},
		"include": {"project": true}
	}`))
	if err != nil {
		t.Fatalf("Execute findMany failed: %v", err)
	}
	tasks, ok := out.([]*client.Task)
	if !ok {
		t.Fatalf("Expected []*client.Task, got %T", out)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("Expected only t1, got %v", taskIDs(tasks))
	}
	if tasks[0].Project == nil || tasks[0].Project.ID != "p1" {
		t.Errorf("Expected project to be included, got %+v", tasks[0].Project)
	}

	out, err = c.Execute(ctx, "project", "findMany", json.RawMessage(`{
		"orderBy": [{"field": "name", "direction": "desc"}],
		"select": {"name": true, "id": false},
		"take": 1
	}`))
	if err != nil {
		t.Fatalf("Execute findMany with select failed: %v", err)
	}
	projects := out.([]*client.Project)
	if len(projects) != 1 || projects[0].Name != "beta crawler" || projects[0].ID != "" {
		t.Errorf("Expected only the name of beta crawler, got %+v", projects)
	}

	out, err = c.Execute(ctx, "task", "update", json.RawMessage(`{
		"where": {"id": "t2"},
		"data": {"progress": {"increment": 25}, "description": "parsed", "parentId": "t1"}
	}`))
	if err != nil {
		t.Fatalf("Execute update failed: %v", err)
	}
	task := out.(*client.Task)
	if task.Progress != 75 || task.Description == nil || *task.Description != "parsed" {
		t.Errorf("Expected progress 75 and description parsed, got %+v", task)
	}

	out, err = c.Execute(ctx, "task", "update", json.RawMessage(`{
		"where": {"id": "t2"},
		"data": {"description": null, "parentId": null}
	}`))
	if err != nil {
		t.Fatalf("Execute clearing update failed: %v", err)
	}
	task = out.(*client.Task)
	if task.Description != nil || task.ParentID != nil {
		t.Errorf("Expected JSON null to clear the columns, got %+v", task)
	}

	out, err = c.Execute(ctx, "task", "count", nil)
	if err != nil {
		t.Fatalf("Execute count failed: %v", err)
	}
	if out.(int64) != 4 {
		t.Errorf("Expected 4 tasks, got %v", out)
	}

	out, err = c.Execute(ctx, "task", "groupBy", json.RawMessage(`{
		"by": ["projectId"],
		"_count": {"_all": true},
		"orderBy": [{"field": "projectId"}]
	}`))
	if err != nil {
		t.Fatalf("Execute groupBy failed: %v", err)
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("Failed to encode groups: %v", err)
	}
	want := `[{"_count":{"_all":3},"projectId":"p1"},{"_count":{"_all":1},"projectId":"p2"}]`
	if string(encoded) != want {
		t.Errorf("Expected %s, got %s", want, encoded)
	}
}

func TestExecuteErrors(t *testing.T) {
	c := testutils.SetupTestClient(t)
	ctx := context.Background()

	_, err := c.Execute(ctx, "player", "findMany", nil)
	if !errors.Is(err, client.ErrUnknownModel) {
		t.Errorf("Expected ErrUnknownModel, got %v", err)
	}
	_, err = c.Execute(ctx, "task", "truncate", nil)
	if !errors.Is(err, client.ErrUnknownOperation) {
		t.Errorf("Expected ErrUnknownOperation, got %v", err)
	}
	_, err = c.Execute(ctx, "task", "findMany", json.RawMessage(`{"take": "ten"}`))
	if !errors.Is(err, client.ErrValidation) {
		t.Errorf("Expected malformed arguments to be a validation error, got %v", err)
	}
	_, err = c.Execute(ctx, "project", "findMany", json.RawMessage(`{"orderBy": {"name": "asc", "id": "desc"}}`))
	if !errors.Is(err, client.ErrValidation) {
		t.Errorf("Expected ambiguous orderBy object to be rejected, got %v", err)
	}
}

func TestExecuteBatch(t *testing.T) {
	c := testutils.SetupTestClient(t)
	ctx := context.Background()

	results, err := c.ExecuteBatch(ctx, []client.BatchRequest{
		{Model: "project", Operation: "create", Args: json.RawMessage(`{"data": {"id": "p1", "name": "batch"}}`)},
		{Model: "task", Operation: "create", Args: json.RawMessage(`{"data": {"id": "t1", "title": "first", "projectId": "p1"}}`)},
		{Model: "task", Operation: "count"},
	})
	if err != nil {
		t.Fatalf("ExecuteBatch failed: %v", err)
	}
	if len(results) != 3 || results[2].(int64) != 1 {
		t.Errorf("Expected three results ending in count 1, got %v", results)
	}

	_, err = c.ExecuteBatch(ctx, []client.BatchRequest{
		{Model: "task", Operation: "create", Args: json.RawMessage(`{"data": {"id": "t2", "title": "second", "projectId": "p1"}}`)},
		{Model: "task", Operation: "create", Args: json.RawMessage(`{"data": {"id": "t3", "title": "orphan", "projectId": "missing"}}`)},
	})
	if client.ErrorCode(err) != client.CodeForeignKeyConstraint {
		t.Fatalf("Expected foreign key failure, got %v", err)
	}
	n, err := c.Task.Count(ctx, client.TaskCountArgs{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected failed batch to roll back t2, got %d tasks", n)
	}

	_, err = c.ExecuteBatch(ctx, []client.BatchRequest{
		{Model: "task", Operation: "create", Args: json.RawMessage(`{"data": {"id": "t4", "title": "never", "projectId": "p1"}}`)},
		{Model: "ghost", Operation: "findMany"},
	})
	if !errors.Is(err, client.ErrUnknownModel) {
		t.Fatalf("Expected unknown model to fail the batch up front, got %v", err)
	}
	n, err = c.Task.Count(ctx, client.TaskCountArgs{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected nothing to run, got %d tasks", n)
	}
}

func TestOperations(t *testing.T) {
	ops := client.Operations()
	if len(ops) != 17 {
		t.Fatalf("Expected 17 operations, got %d: %v", len(ops), ops)
	}
	for i := 1; i < len(ops); i++ {
		if ops[i-1] >= ops[i] {
			t.Errorf("Expected sorted operations, got %v", ops)
			break
		}
	}
}
