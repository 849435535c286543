package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/api/gateway"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/schedules/handlers"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/testutils"
)

func createFullTestServer(t *testing.T) (*fiber.App, *client.Client) {
	db := testutils.SetupTestDB(t)
	gw := gateway.NewAPIGateway(testutils.GetTestConfig(), zaptest.NewLogger(t), db)
	return gw.Router(), gw.Client()
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testutils.CreateTestAccessToken(t, "tester"))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func createSchedule(t *testing.T, app *fiber.App, projectID, name, cron string) client.Schedule {
	t.Helper()
	body := `{"projectId": "` + projectID + `", "name": "` + name + `", "cron": "` + cron + `"}`
	resp := doRequest(t, app, http.MethodPost, "/v1/schedules", strings.NewReader(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	var sched client.Schedule
	if err := json.NewDecoder(resp.Body).Decode(&sched); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return sched
}

func TestScheduleHandlers_CreateSchedule(t *testing.T) {
	app, c := createFullTestServer(t)
	project := testutils.CreateTestProject(t, c, "crawler")

	sched := createSchedule(t, app, project.ID, "hourly", "0 * * * *")
	if !sched.Active || !sched.NextRun.Valid {
		t.Errorf("Expected an active schedule with NextRun, got %+v", sched)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing cron", `{"projectId": "` + project.ID + `", "name": "x"}`, http.StatusBadRequest},
		{"invalid cron", `{"projectId": "` + project.ID + `", "name": "x", "cron": "every tuesday"}`, http.StatusBadRequest},
		{"unknown project", `{"projectId": "missing", "name": "x", "cron": "@daily"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodPost, "/v1/schedules", strings.NewReader(tt.body))
			if resp.StatusCode != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestScheduleHandlers_SetActive(t *testing.T) {
	app, c := createFullTestServer(t)
	project := testutils.CreateTestProject(t, c, "crawler")
	sched := createSchedule(t, app, project.ID, "hourly", "0 * * * *")

	resp := doRequest(t, app, http.MethodPut, "/v1/schedules/"+sched.ID+"/active", strings.NewReader(`{"active": false}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var updated client.Schedule
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if updated.Active || updated.NextRun.Valid {
		t.Errorf("Expected an inactive schedule without NextRun, got %+v", updated)
	}

	resp = doRequest(t, app, http.MethodPut, "/v1/schedules/"+sched.ID+"/active", strings.NewReader(`{}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 without active, got %d", resp.StatusCode)
	}
	resp = doRequest(t, app, http.MethodPut, "/v1/schedules/missing/active", strings.NewReader(`{"active": true}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestScheduleHandlers_MarkRunAndDispatch(t *testing.T) {
	app, c := createFullTestServer(t)
	project := testutils.CreateTestProject(t, c, "crawler")
	sched := createSchedule(t, app, project.ID, "hourly", "0 * * * *")

	resp := doRequest(t, app, http.MethodPost, "/v1/schedules/dispatch", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var dispatched handlers.DispatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&dispatched); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(dispatched.Created) != 0 {
		t.Fatalf("Expected nothing due yet, got %d tasks", len(dispatched.Created))
	}

	resp = doRequest(t, app, http.MethodPost, "/v1/schedules/"+sched.ID+"/run?at=2020-01-01T00:30:00Z", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var marked client.Schedule
	if err := json.NewDecoder(resp.Body).Decode(&marked); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !marked.LastRun.Valid || !marked.NextRun.Valid || !marked.NextRun.Time.After(marked.LastRun.Time) {
		t.Errorf("Expected NextRun after LastRun, got %+v", marked)
	}

	resp = doRequest(t, app, http.MethodGet, "/v1/schedules/due", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var due []client.Schedule
	if err := json.NewDecoder(resp.Body).Decode(&due); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(due) != 1 || due[0].ID != sched.ID {
		t.Fatalf("Expected the marked schedule to be due, got %+v", due)
	}

	resp = doRequest(t, app, http.MethodPost, "/v1/schedules/dispatch", nil)
	dispatched = handlers.DispatchResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&dispatched); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(dispatched.Created) != 1 || dispatched.Errors != "" {
		t.Fatalf("Expected one task, got %+v", dispatched)
	}
	task := dispatched.Created[0]
	if task.Title != "hourly" || task.ScheduleID == nil || *task.ScheduleID != sched.ID {
		t.Errorf("Expected a task linked to the schedule, got %+v", task)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/v1/schedules/due?at=yesterday", http.StatusBadRequest},
		{"/v1/schedules/missing/run", http.StatusNotFound},
	}
	for _, tt := range tests {
		method := http.MethodPost
		if strings.HasPrefix(tt.path, "/v1/schedules/due") {
			method = http.MethodGet
		}
		resp := doRequest(t, app, method, tt.path, nil)
		if resp.StatusCode != tt.want {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.want, resp.StatusCode)
		}
	}
}
