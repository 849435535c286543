package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/debug"
)

type DebugHandlers struct {
	debugSvc debug.Service
	logger   *zap.Logger
}

func NewDebugHandlers(debugSvc debug.Service, logger *zap.Logger) *DebugHandlers {
	return &DebugHandlers{
		debugSvc: debugSvc,
		logger:   logger,
	}
}

type SetStatusRequest struct {
	Status client.DebugStatus `json:"status"`
}

type SaveScriptRequest struct {
	Script *string `json:"script"`
}

// StartSession handles POST /v1/debug/sessions
func (h *DebugHandlers) StartSession(c *fiber.Ctx) error {
	var req debug.StartSessionParams
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	session, err := h.debugSvc.StartSession(c.Context(), req)
	if err != nil {
		return h.fail(c, "failed to start debug session", err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// SetStatus handles PUT /v1/debug/sessions/:id/status
func (h *DebugHandlers) SetStatus(c *fiber.Ctx) error {
	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "status is required",
		})
	}

	session, err := h.debugSvc.SetStatus(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return h.fail(c, "failed to set debug session status", err)
	}
	return c.Status(fiber.StatusOK).JSON(session)
}

// RecordExchange handles POST /v1/debug/sessions/:id/exchanges
func (h *DebugHandlers) RecordExchange(c *fiber.Ctx) error {
	var req debug.ExchangeParams
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Request.URL == "" || req.Request.Method == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "request url and method are required",
		})
	}

	recorded, err := h.debugSvc.RecordExchange(c.Context(), c.Params("id"), req)
	if err != nil {
		return h.fail(c, "failed to record exchange", err)
	}
	return c.Status(fiber.StatusCreated).JSON(recorded)
}

// GetSummary handles GET /v1/debug/sessions/:id/summary
func (h *DebugHandlers) GetSummary(c *fiber.Ctx) error {
	summary, err := h.debugSvc.SessionSummary(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "failed to summarize debug session", err)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// SaveScript handles PUT /v1/debug/projects/:id/script
func (h *DebugHandlers) SaveScript(c *fiber.Ctx) error {
	var req SaveScriptRequest
	if err := c.BodyParser(&req); err != nil || req.Script == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "script is required",
		})
	}

	project, err := h.debugSvc.SaveScript(c.Context(), c.Params("id"), *req.Script)
	if err != nil {
		return h.fail(c, "failed to save script", err)
	}
	return c.Status(fiber.StatusOK).JSON(project)
}

func (h *DebugHandlers) fail(c *fiber.Ctx, msg string, err error) error {
	switch {
	case errors.Is(err, debug.ErrSessionNotFound), errors.Is(err, debug.ErrDebugProjectNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, debug.ErrSessionStopped), errors.Is(err, client.ErrUniqueConstraint):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, client.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
