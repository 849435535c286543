package handlers_test

import (
	"context"
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
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/debug"
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

func TestDebugHandlers_SessionLifecycle(t *testing.T) {
	app, _ := createFullTestServer(t)

	resp := doRequest(t, app, http.MethodPost, "/v1/debug/sessions", strings.NewReader(`{"type": "INSPECTOR"}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	var session client.DebugSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if session.Type != client.DebugTypeInspector || session.Status != client.DebugStatusRunning {
		t.Errorf("Unexpected session %+v", session)
	}

	exchange := `{
		"request": {"url": "http://example.com/", "method": "GET"},
		"response": {"statusCode": 200, "body": "ok"}
	}`
	resp = doRequest(t, app, http.MethodPost, "/v1/debug/sessions/"+session.ID+"/exchanges", strings.NewReader(exchange))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	var recorded client.Request
	if err := json.NewDecoder(resp.Body).Decode(&recorded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if recorded.Response == nil || recorded.Response.StatusCode != 200 {
		t.Errorf("Expected a linked 200 response, got %+v", recorded.Response)
	}

	resp = doRequest(t, app, http.MethodPost, "/v1/debug/sessions/"+session.ID+"/exchanges",
		strings.NewReader(`{"request": {"url": "http://example.com/pending", "method": "GET"}}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}

	resp = doRequest(t, app, http.MethodGet, "/v1/debug/sessions/"+session.ID+"/summary", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var summary debug.SessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if summary.Requests != 2 || summary.Responses != 1 || summary.Unanswered != 1 {
		t.Errorf("Expected 2 requests, 1 response, 1 unanswered, got %+v", summary)
	}

	resp = doRequest(t, app, http.MethodPut, "/v1/debug/sessions/"+session.ID+"/status", strings.NewReader(`{"status": "STOPPED"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"resume stopped", http.MethodPut, "/v1/debug/sessions/" + session.ID + "/status", `{"status": "RUNNING"}`, http.StatusConflict},
		{"record on stopped", http.MethodPost, "/v1/debug/sessions/" + session.ID + "/exchanges", `{"request": {"url": "http://example.com/", "method": "GET"}}`, http.StatusConflict},
		{"missing status", http.MethodPut, "/v1/debug/sessions/" + session.ID + "/status", `{}`, http.StatusBadRequest},
		{"unknown status", http.MethodPut, "/v1/debug/sessions/" + session.ID + "/status", `{"status": "FROZEN"}`, http.StatusBadRequest},
		{"missing url", http.MethodPost, "/v1/debug/sessions/" + session.ID + "/exchanges", `{"request": {"method": "GET"}}`, http.StatusBadRequest},
		{"unknown session", http.MethodPut, "/v1/debug/sessions/missing/status", `{"status": "PAUSED"}`, http.StatusNotFound},
		{"unknown project", http.MethodPost, "/v1/debug/sessions", `{"debugProjectId": "missing"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, tt.method, tt.path, strings.NewReader(tt.body))
			if resp.StatusCode != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	resp = doRequest(t, app, http.MethodGet, "/v1/debug/sessions/missing/summary", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestDebugHandlers_SaveScript(t *testing.T) {
	app, c := createFullTestServer(t)
	project, err := c.DebugProject.Create(context.Background(), client.DebugProjectCreateArgs{
		Data: client.DebugProjectCreateInput{Name: "spider"},
	})
	if err != nil {
		t.Fatalf("Failed to create debug project: %v", err)
	}

	resp := doRequest(t, app, http.MethodPut, "/v1/debug/projects/"+project.ID+"/script", strings.NewReader(`{"script": "print(1)"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var saved client.DebugProject
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if saved.Script == nil || *saved.Script != "print(1)" || len(saved.ScriptHistory) != 1 {
		t.Errorf("Expected the script with one history entry, got %+v", saved)
	}

	resp = doRequest(t, app, http.MethodPut, "/v1/debug/projects/"+project.ID+"/script", strings.NewReader(`{}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 without script, got %d", resp.StatusCode)
	}
	resp = doRequest(t, app, http.MethodPut, "/v1/debug/projects/missing/script", strings.NewReader(`{"script": "x"}`))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}
