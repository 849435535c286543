package engine_test

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/api/engine"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/api/gateway"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/testutils"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
	Meta  map[string]any  `json:"meta"`
}

func createFullTestServer(t *testing.T, db *sql.DB, cfg config.Config) *fiber.App {
	logger := zaptest.NewLogger(t)
	gw := gateway.NewAPIGateway(cfg, logger, db)
	return gw.Router()
}

func post(t *testing.T, app *fiber.App, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testutils.CreateTestAccessToken(t, "tester"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp.StatusCode, env
}

func TestExecuteOperations(t *testing.T) {
	db := testutils.SetupTestDB(t)
	app := createFullTestServer(t, db, testutils.GetTestConfig())

	status, env := post(t, app, "/v1/project/create", `{"data": {"id": "p1", "name": "crawler", "settings": {"depth": 2}}}`)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, env.Error)
	}
	var project client.Project
	if err := json.Unmarshal(env.Data, &project); err != nil {
		t.Fatalf("Failed to decode project: %v", err)
	}
	if project.ID != "p1" || project.Status != client.ProjectStatusActive {
		t.Errorf("Unexpected project %+v", project)
	}

	status, env = post(t, app, "/v1/task/createMany", `{"data": [
		{"id": "t1", "title": "fetch", "projectId": "p1", "progress": 20},
		{"id": "t2", "title": "parse", "projectId": "p1", "progress": 60}
	]}`)
	if status != http.StatusOK || string(env.Data) != `{"count":2}` {
		t.Fatalf("Expected count 2, got %d %s", status, env.Data)
	}

	status, env = post(t, app, "/v1/task/findMany", `{"orderBy": {"progress": "desc"}, "select": ["id"]}`)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, env.Error)
	}
	var tasks []client.Task
	if err := json.Unmarshal(env.Data, &tasks); err != nil {
		t.Fatalf("Failed to decode tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "t2" || tasks[0].Title != "" {
		t.Errorf("Expected ids only, t2 first, got %+v", tasks)
	}

	status, env = post(t, app, "/v1/task/aggregate", `{"_avg": ["progress"], "countAll": true}`)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, env.Error)
	}
	if string(env.Data) != `{"_count":{"_all":2},"_avg":{"progress":40}}` {
		t.Errorf("Unexpected aggregate %s", env.Data)
	}

	status, env = post(t, app, "/v1/project/findUnique", `{"where": {"id": "nope"}}`)
	if status != http.StatusOK || string(env.Data) != "null" {
		t.Errorf("Expected null data for a missing row, got %d %s", status, env.Data)
	}

	status, env = post(t, app, "/v1/task/count", ``)
	if status != http.StatusOK || string(env.Data) != "2" {
		t.Errorf("Expected count 2 with an empty body, got %d %s", status, env.Data)
	}
}

func TestExecuteErrorMapping(t *testing.T) {
	db := testutils.SetupTestDB(t)
	app := createFullTestServer(t, db, testutils.GetTestConfig())
	post(t, app, "/v1/debugProject/create", `{"data": {"id": "d1", "name": "spider"}}`)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"validation", "/v1/task/create", `{"data": {"title": ""}}`, http.StatusBadRequest, client.CodeValidation},
		{"malformed", "/v1/task/findMany", `{"take": "all"}`, http.StatusBadRequest, client.CodeValidation},
		{"not found", "/v1/project/update", `{"where": {"id": "nope"}, "data": {"name": "x"}}`, http.StatusNotFound, client.CodeRecordNotFound},
		{"unique", "/v1/debugProject/create", `{"data": {"name": "spider"}}`, http.StatusConflict, client.CodeUniqueConstraint},
		{"foreign key", "/v1/task/create", `{"data": {"title": "orphan", "projectId": "nope"}}`, http.StatusConflict, client.CodeForeignKeyConstraint},
		{"unknown model", "/v1/player/findMany", `{}`, http.StatusNotFound, ""},
		{"unknown operation", "/v1/task/truncate", `{}`, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := post(t, app, tt.path, tt.body)
			if status != tt.status {
				t.Errorf("Expected status %d, got %d (%s)", tt.status, status, env.Error)
			}
			if env.Code != tt.code {
				t.Errorf("Expected code %q, got %q", tt.code, env.Code)
			}
			if env.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}

	_, env := post(t, app, "/v1/debugProject/create", `{"data": {"name": "spider"}}`)
	target, _ := env.Meta["target"].([]any)
	if len(target) != 1 || target[0] != "name" {
		t.Errorf("Expected meta.target [name], got %v", env.Meta)
	}
}

func TestTransactionEndpoint(t *testing.T) {
	db := testutils.SetupTestDB(t)
	app := createFullTestServer(t, db, testutils.GetTestConfig())

	status, env := post(t, app, "/v1/$transaction", `[
		{"model": "project", "operation": "create", "args": {"data": {"id": "p1", "name": "crawler"}}},
		{"model": "task", "operation": "create", "args": {"data": {"id": "t1", "title": "fetch", "projectId": "p1"}}},
		{"model": "task", "operation": "count"}
	]`)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, env.Error)
	}
	var results []json.RawMessage
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatalf("Failed to decode results: %v", err)
	}
	if len(results) != 3 || string(results[2]) != "1" {
		t.Errorf("Expected three results ending in 1, got %s", env.Data)
	}

	status, env = post(t, app, "/v1/$transaction", `[
		{"model": "task", "operation": "create", "args": {"data": {"id": "t2", "title": "parse", "projectId": "p1"}}},
		{"model": "task", "operation": "create", "args": {"data": {"id": "t1", "title": "duplicate", "projectId": "p1"}}}
	]`)
	if status != http.StatusConflict || env.Code != client.CodeUniqueConstraint {
		t.Errorf("Expected 409 P2002, got %d %q", status, env.Code)
	}
	_, env = post(t, app, "/v1/task/count", `{}`)
	if string(env.Data) != "1" {
		t.Errorf("Expected the failed batch to roll back, got count %s", env.Data)
	}

	status, env = post(t, app, "/v1/$transaction", `{"model": "task"}`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a non-array body, got %d", status)
	}
}

func TestRawEndpoints(t *testing.T) {
	db := testutils.SetupTestDB(t)
	app := createFullTestServer(t, db, testutils.GetTestConfig())
	post(t, app, "/v1/project/create", `{"data": {"id": "p1", "name": "crawler"}}`)

	status, env := post(t, app, "/v1/$queryRaw", `{"query": "SELECT id, name FROM projects WHERE id = ?", "args": ["p1"]}`)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, env.Error)
	}
	if string(env.Data) != `[{"id":"p1","name":"crawler"}]` {
		t.Errorf("Unexpected rows %s", env.Data)
	}

	status, env = post(t, app, "/v1/$executeRaw", `{"query": "UPDATE projects SET name = ? WHERE id = ?", "args": ["renamed", "p1"]}`)
	if status != http.StatusOK || string(env.Data) != "1" {
		t.Errorf("Expected 1 affected row, got %d %s", status, env.Data)
	}

	status, _ = post(t, app, "/v1/$queryRaw", `{"args": []}`)
	if status != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a query, got %d", status)
	}

	cfg := testutils.GetTestConfig()
	cfg.API.AllowRaw = false
	locked := createFullTestServer(t, db, cfg)
	for _, path := range []string{"/v1/$queryRaw", "/v1/$executeRaw"} {
		status, _ := post(t, locked, path, `{"query": "DELETE FROM projects"}`)
		if status != http.StatusForbidden {
			t.Errorf("Expected %s to be forbidden, got %d", path, status)
		}
	}
	_, env = post(t, app, "/v1/project/count", `{}`)
	if string(env.Data) != "1" {
		t.Errorf("Expected the forbidden delete not to run, got count %s", env.Data)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{client.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", client.ErrUnknownModel), http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := engine.StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v): expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
