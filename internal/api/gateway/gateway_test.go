package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/api/gateway"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/testutils"
)

func TestHealthCheck(t *testing.T) {
	gw := gateway.NewAPIGateway(testutils.GetTestConfig(), zaptest.NewLogger(t), nil)
	if gw.Client() != nil {
		t.Error("Expected no client without a database")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := gw.Router().Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

func TestV1RequiresToken(t *testing.T) {
	db := testutils.SetupTestDB(t)
	gw := gateway.NewAPIGateway(testutils.GetTestConfig(), zaptest.NewLogger(t), db)
	app := gw.Router()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + testutils.CreateTestAccessToken(t, "tester"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/project/count", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("Failed to make request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	gw := gateway.NewAPIGateway(testutils.GetTestConfig(), zaptest.NewLogger(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	resp, err := gw.Router().Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON error body, got content type %q", ct)
	}
}
