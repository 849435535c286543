package tasks

import (
	"context"
	"errors"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidParent   = errors.New("parent task belongs to another project")
)

// MaxSubtreeDepth bounds how many levels Subtree will descend.
const MaxSubtreeDepth = 16

type CreateTaskParams struct {
	ProjectID   string          `json:"projectId"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Priority    client.Priority `json:"priority,omitempty"`
	ParentID    *string         `json:"parentId,omitempty"`
	ScheduleID  *string         `json:"scheduleId,omitempty"`
}

type AppendLogParams struct {
	Message  string          `json:"message"`
	Level    client.LogLevel `json:"level,omitempty"`
	Metadata types.JSON      `json:"metadata,omitempty"`
}

// StatusStats summarizes the tasks of a project in one status.
type StatusStats struct {
	Status      client.TaskStatus `json:"status"`
	Count       int64             `json:"count"`
	AvgProgress float64           `json:"avgProgress"`
}

type Service interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*client.Task, error)
	MoveTask(ctx context.Context, taskID string, parentID *string) (*client.Task, error)
	Subtree(ctx context.Context, taskID string, depth int) (*client.Task, error)
	AppendLog(ctx context.Context, taskID string, params AppendLogParams) (*client.TaskLog, error)
	UpdateProgress(ctx context.Context, taskID string, progress float64) (*client.Task, error)
	Stats(ctx context.Context, projectID string) ([]StatusStats, error)
}
