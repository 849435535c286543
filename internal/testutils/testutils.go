package testutils

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/db"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/auth"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

func GetTestConfig() config.Config {
	return config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite",
		},
		Server: config.ServerConfig{
			Host:              "localhost",
			Port:              8080,
			CORSAllowOrigins:  "*",
			RateLimitMax:      1000,
			RateLimitDuration: time.Minute,
		},
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Issuer:     "nxwebui",
			Expiration: time.Hour,
		},
		Client: config.ClientConfig{
			LogQueries:         true,
			TransactionTimeout: 5 * time.Second,
		},
		API: config.APIConfig{
			AllowRaw: true,
		},
		Scheduler: config.SchedulerConfig{
			Interval: "@every 1m",
		},
	}
}

// SetupTestDB opens a migrated database in a temp file. A file rather than
// :memory: lets the pool hold several connections, as in production.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := GetTestConfig().Database
	cfg.Path = filepath.Join(t.TempDir(), "test.db")
	conn, err := db.OpenDB(cfg)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.RunMigrations(conn, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return conn
}

// SetupTestClient returns a client on a fresh database with query logging
// routed to the test log.
func SetupTestClient(t *testing.T) *client.Client {
	t.Helper()
	cfg := GetTestConfig().Client
	return client.New(SetupTestDB(t), zaptest.NewLogger(t),
		client.WithQueryLogging(),
		client.WithTransactionTimeout(cfg.TransactionTimeout),
	)
}

func CreateTestProject(t *testing.T, c *client.Client, name string) *client.Project {
	t.Helper()
	p, err := c.Project.Create(context.Background(), client.ProjectCreateArgs{
		Data: client.ProjectCreateInput{Name: name},
	})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return p
}

func CreateTestTask(t *testing.T, c *client.Client, projectID, title string, parentID *string) *client.Task {
	t.Helper()
	task, err := c.Task.Create(context.Background(), client.TaskCreateArgs{
		Data: client.TaskCreateInput{Title: title, ProjectID: projectID, ParentID: parentID},
	})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	return task
}

func CreateTestDebugSession(t *testing.T, c *client.Client, debugProjectID *string) *client.DebugSession {
	t.Helper()
	s, err := c.DebugSession.Create(context.Background(), client.DebugSessionCreateArgs{
		Data: client.DebugSessionCreateInput{DebugProjectID: debugProjectID},
	})
	if err != nil {
		t.Fatalf("Failed to create debug session: %v", err)
	}
	return s
}

func CreateTestAccessToken(t *testing.T, subject string) string {
	t.Helper()
	cfg := GetTestConfig()
	token, err := auth.NewService(cfg.JWT, zaptest.NewLogger(t)).GenerateToken(subject)
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}
	return token
}
