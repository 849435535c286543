package tasks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

type tasksService struct {
	config config.Config
	logger *zap.Logger
	client *client.Client
}

func NewTaskService(cfg config.Config, logger *zap.Logger, c *client.Client) Service {
	return &tasksService{
		config: cfg,
		logger: logger,
		client: c,
	}
}

func (s *tasksService) CreateTask(ctx context.Context, params CreateTaskParams) (*client.Task, error) {
	var created *client.Task
	err := s.client.Transaction(ctx, func(tx *client.Client) error {
		project, err := tx.Project.FindUnique(ctx, client.ProjectFindUniqueArgs{
			Where:  client.ProjectWhereUniqueInput{ID: &params.ProjectID},
			Select: client.FieldSet[client.ProjectField]{client.ProjectFieldID},
		})
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if project == nil {
			return ErrProjectNotFound
		}
		if params.ParentID != nil {
			parent, err := tx.Task.FindUnique(ctx, client.TaskFindUniqueArgs{
				Where:  client.TaskWhereUniqueInput{ID: params.ParentID},
				Select: client.FieldSet[client.TaskField]{client.TaskFieldID, client.TaskFieldProjectID},
			})
			if err != nil {
				return fmt.Errorf("failed to load parent task: %w", err)
			}
			if parent == nil {
				return ErrTaskNotFound
			}
			if parent.ProjectID != params.ProjectID {
				return ErrInvalidParent
			}
		}
		created, err = tx.Task.Create(ctx, client.TaskCreateArgs{Data: client.TaskCreateInput{
			Title:       params.Title,
			Description: params.Description,
			Priority:    params.Priority,
			ProjectID:   params.ProjectID,
			ParentID:    params.ParentID,
			ScheduleID:  params.ScheduleID,
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("task created", zap.String("task_id", created.ID), zap.String("project_id", created.ProjectID))
	return created, nil
}

// MoveTask reparents a task. A nil parentID makes it a root task.
func (s *tasksService) MoveTask(ctx context.Context, taskID string, parentID *string) (*client.Task, error) {
	var moved *client.Task
	err := s.client.Transaction(ctx, func(tx *client.Client) error {
		task, err := s.load(ctx, tx, taskID)
		if err != nil {
			return err
		}
		data := client.TaskUpdateInput{ParentID: client.SetNull[string]()}
		if parentID != nil {
			parent, err := s.load(ctx, tx, *parentID)
			if err != nil {
				return err
			}
			if parent.ProjectID != task.ProjectID {
				return ErrInvalidParent
			}
			data.ParentID = client.SetValue(*parentID)
		}
		moved, err = tx.Task.Update(ctx, client.TaskUpdateArgs{
			Where: client.TaskWhereUniqueInput{ID: &taskID},
			Data:  data,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Subtree returns the task with depth levels of descendants loaded into
// Children, oldest first.
func (s *tasksService) Subtree(ctx context.Context, taskID string, depth int) (*client.Task, error) {
	if depth < 0 {
		depth = 0
	}
	if depth > MaxSubtreeDepth {
		depth = MaxSubtreeDepth
	}
	var include *client.TaskInclude
	for i := 0; i < depth; i++ {
		include = &client.TaskInclude{Children: &client.TaskFindManyArgs{
			OrderBy: client.Orderings[client.TaskField]{{Field: client.TaskFieldCreatedAt}},
			Include: include,
		}}
	}
	task, err := s.client.Task.FindUnique(ctx, client.TaskFindUniqueArgs{
		Where:   client.TaskWhereUniqueInput{ID: &taskID},
		Include: include,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load task subtree: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *tasksService) AppendLog(ctx context.Context, taskID string, params AppendLogParams) (*client.TaskLog, error) {
	entry, err := s.client.TaskLog.Create(ctx, client.TaskLogCreateArgs{Data: client.TaskLogCreateInput{
		TaskID:   taskID,
		Message:  params.Message,
		Level:    params.Level,
		Metadata: params.Metadata,
	}})
	if err != nil {
		if errors.Is(err, client.ErrForeignKeyConstraint) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return entry, nil
}

// UpdateProgress records progress clamped to 0..100. Reaching 100 completes
// the task; any progress moves a pending task to running. StartedAt is only
// ever set once.
func (s *tasksService) UpdateProgress(ctx context.Context, taskID string, progress float64) (*client.Task, error) {
	if math.IsNaN(progress) {
		return nil, fmt.Errorf("%w: progress is not a number", client.ErrValidation)
	}
	progress = math.Max(0, math.Min(100, progress))

	var updated *client.Task
	err := s.client.Transaction(ctx, func(tx *client.Client) error {
		task, err := s.load(ctx, tx, taskID)
		if err != nil {
			return err
		}
		now := time.Now()
		status := task.Status
		data := client.TaskUpdateInput{Progress: client.SetTo(progress)}
		switch {
		case progress >= 100:
			status = client.TaskStatusCompleted
			data.CompletedAt = client.SetValue(now)
		case progress > 0 && status == client.TaskStatusPending:
			status = client.TaskStatusRunning
		}
		if status != task.Status {
			data.Status = &status
		}
		if !task.StartedAt.Valid && (status == client.TaskStatusRunning || status == client.TaskStatusCompleted) {
			data.StartedAt = client.SetValue(now)
		}
		updated, err = tx.Task.Update(ctx, client.TaskUpdateArgs{
			Where: client.TaskWhereUniqueInput{ID: &taskID},
			Data:  data,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated.Status != client.TaskStatusRunning {
		s.logger.Info("task progress settled",
			zap.String("task_id", taskID),
			zap.String("status", string(updated.Status)),
			zap.Float64("progress", updated.Progress))
	}
	return updated, nil
}

// Stats groups the tasks of a project by status.
func (s *tasksService) Stats(ctx context.Context, projectID string) ([]StatusStats, error) {
	groups, err := s.client.Task.GroupBy(ctx, client.TaskGroupByArgs{
		By:       []client.TaskField{client.TaskFieldStatus},
		Where:    &client.TaskWhereInput{ProjectID: &client.StringFilter{Equals: &projectID}},
		CountAll: true,
		Avg:      client.FieldSet[client.TaskField]{client.TaskFieldProgress},
		OrderBy:  []client.GroupOrderBy[client.TaskField]{{Field: client.TaskFieldStatus}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to group tasks: %w", err)
	}
	stats := make([]StatusStats, 0, len(groups))
	for _, g := range groups {
		status, _ := g.Key["status"].(string)
		avg, _ := g.Avg["progress"].(float64)
		stats = append(stats, StatusStats{
			Status:      client.TaskStatus(status),
			Count:       g.Count["_all"],
			AvgProgress: avg,
		})
	}
	return stats, nil
}

func (s *tasksService) load(ctx context.Context, c *client.Client, taskID string) (*client.Task, error) {
	task, err := c.Task.FindUnique(ctx, client.TaskFindUniqueArgs{Where: client.TaskWhereUniqueInput{ID: &taskID}})
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}
