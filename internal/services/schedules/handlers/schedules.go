package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/schedules"
)

type ScheduleHandlers struct {
	scheduleSvc schedules.Service
	logger      *zap.Logger
}

func NewScheduleHandlers(scheduleSvc schedules.Service, logger *zap.Logger) *ScheduleHandlers {
	return &ScheduleHandlers{
		scheduleSvc: scheduleSvc,
		logger:      logger,
	}
}

type SetActiveRequest struct {
	Active *bool `json:"active"`
}

type DispatchResponse struct {
	Created []*client.Task `json:"created"`
	Errors  string         `json:"errors,omitempty"`
}

// CreateSchedule handles POST /v1/schedules
func (h *ScheduleHandlers) CreateSchedule(c *fiber.Ctx) error {
	var req schedules.CreateScheduleParams
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ProjectID == "" || req.Name == "" || req.Cron == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "projectId, name and cron are required",
		})
	}

	sched, err := h.scheduleSvc.CreateSchedule(c.Context(), req)
	if err != nil {
		return h.fail(c, "failed to create schedule", err)
	}
	return c.Status(fiber.StatusCreated).JSON(sched)
}

// SetActive handles PUT /v1/schedules/:id/active
func (h *ScheduleHandlers) SetActive(c *fiber.Ctx) error {
	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "active is required",
		})
	}

	sched, err := h.scheduleSvc.SetActive(c.Context(), c.Params("id"), *req.Active)
	if err != nil {
		return h.fail(c, "failed to toggle schedule", err)
	}
	return c.Status(fiber.StatusOK).JSON(sched)
}

// ListDue handles GET /v1/schedules/due?at=RFC3339
func (h *ScheduleHandlers) ListDue(c *fiber.Ctx) error {
	at, ok := h.parseAt(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at must be an RFC 3339 timestamp",
		})
	}

	due, err := h.scheduleSvc.Due(c.Context(), at)
	if err != nil {
		return h.fail(c, "failed to list due schedules", err)
	}
	return c.Status(fiber.StatusOK).JSON(due)
}

// MarkRun handles POST /v1/schedules/:id/run
func (h *ScheduleHandlers) MarkRun(c *fiber.Ctx) error {
	at, ok := h.parseAt(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "at must be an RFC 3339 timestamp",
		})
	}

	sched, err := h.scheduleSvc.MarkRun(c.Context(), c.Params("id"), at)
	if err != nil {
		return h.fail(c, "failed to mark schedule run", err)
	}
	return c.Status(fiber.StatusOK).JSON(sched)
}

// Dispatch handles POST /v1/schedules/dispatch
func (h *ScheduleHandlers) Dispatch(c *fiber.Ctx) error {
	created, err := h.scheduleSvc.Dispatch(c.Context(), time.Now())
	if created == nil && err != nil {
		return h.fail(c, "failed to dispatch schedules", err)
	}
	resp := DispatchResponse{Created: created}
	if err != nil {
		h.logger.Warn("partial dispatch", zap.Error(err))
		resp.Errors = err.Error()
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *ScheduleHandlers) parseAt(c *fiber.Ctx) (time.Time, bool) {
	raw := c.Query("at")
	if raw == "" {
		return time.Now(), true
	}
	at, err := time.Parse(time.RFC3339, raw)
	return at, err == nil
}

func (h *ScheduleHandlers) fail(c *fiber.Ctx, msg string, err error) error {
	switch {
	case errors.Is(err, schedules.ErrScheduleNotFound), errors.Is(err, schedules.ErrProjectNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, schedules.ErrInvalidCron), errors.Is(err, client.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
