package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/tasks"
)

type TaskHandlers struct {
	taskSvc tasks.Service
	logger  *zap.Logger
}

func NewTaskHandlers(taskSvc tasks.Service, logger *zap.Logger) *TaskHandlers {
	return &TaskHandlers{
		taskSvc: taskSvc,
		logger:  logger,
	}
}

type MoveTaskRequest struct {
	ParentID *string `json:"parentId"`
}

type UpdateProgressRequest struct {
	Progress *float64 `json:"progress"`
}

// CreateTask handles POST /v1/tasks
func (h *TaskHandlers) CreateTask(c *fiber.Ctx) error {
	var req tasks.CreateTaskParams
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ProjectID == "" || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "projectId and title are required",
		})
	}

	task, err := h.taskSvc.CreateTask(c.Context(), req)
	if err != nil {
		return h.fail(c, "failed to create task", err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// MoveTask handles PUT /v1/tasks/:id/parent
func (h *TaskHandlers) MoveTask(c *fiber.Ctx) error {
	var req MoveTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	task, err := h.taskSvc.MoveTask(c.Context(), c.Params("id"), req.ParentID)
	if err != nil {
		return h.fail(c, "failed to move task", err)
	}
	return c.Status(fiber.StatusOK).JSON(task)
}

// GetSubtree handles GET /v1/tasks/:id/subtree?depth=N
func (h *TaskHandlers) GetSubtree(c *fiber.Ctx) error {
	depth := tasks.MaxSubtreeDepth
	if raw := c.Query("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "depth must be a non-negative integer",
			})
		}
		depth = n
	}

	task, err := h.taskSvc.Subtree(c.Context(), c.Params("id"), depth)
	if err != nil {
		return h.fail(c, "failed to load subtree", err)
	}
	return c.Status(fiber.StatusOK).JSON(task)
}

// AppendLog handles POST /v1/tasks/:id/logs
func (h *TaskHandlers) AppendLog(c *fiber.Ctx) error {
	var req tasks.AppendLogParams
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}

	entry, err := h.taskSvc.AppendLog(c.Context(), c.Params("id"), req)
	if err != nil {
		return h.fail(c, "failed to append task log", err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// UpdateProgress handles PUT /v1/tasks/:id/progress
func (h *TaskHandlers) UpdateProgress(c *fiber.Ctx) error {
	var req UpdateProgressRequest
	if err := c.BodyParser(&req); err != nil || req.Progress == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "progress is required",
		})
	}

	task, err := h.taskSvc.UpdateProgress(c.Context(), c.Params("id"), *req.Progress)
	if err != nil {
		return h.fail(c, "failed to update progress", err)
	}
	return c.Status(fiber.StatusOK).JSON(task)
}

// GetStats handles GET /v1/tasks/stats?projectId=
func (h *TaskHandlers) GetStats(c *fiber.Ctx) error {
	projectID := c.Query("projectId")
	if projectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "projectId is required",
		})
	}

	stats, err := h.taskSvc.Stats(c.Context(), projectID)
	if err != nil {
		return h.fail(c, "failed to load task stats", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"projectId": projectID,
		"stats":     stats,
	})
}

func (h *TaskHandlers) fail(c *fiber.Ctx, msg string, err error) error {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound), errors.Is(err, tasks.ErrProjectNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, tasks.ErrInvalidParent), errors.Is(err, client.ErrTaskCycle):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, client.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
