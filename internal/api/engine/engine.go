package engine

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

// EngineHandlers exposes every delegate operation over HTTP:
// POST /v1/:model/:operation with the operation's arguments as the body.
type EngineHandlers struct {
	client *client.Client
	cfg    config.APIConfig
	logger *zap.Logger
}

func NewEngineHandlers(c *client.Client, cfg config.Config, logger *zap.Logger) *EngineHandlers {
	return &EngineHandlers{
		client: c,
		cfg:    cfg.API,
		logger: logger,
	}
}

type RawRequest struct {
	Query string `json:"query"`
	Args  []any  `json:"args"`
}

// Register mounts the engine routes on r. Routes with fixed second
// segments must be mounted on r before this.
func (h *EngineHandlers) Register(r fiber.Router) {
	r.Post("/$transaction", h.Transaction)
	r.Post("/$queryRaw", h.QueryRaw)
	r.Post("/$executeRaw", h.ExecuteRaw)
	r.Post("/:model/:operation", h.Execute)
}

// Execute handles POST /v1/:model/:operation
func (h *EngineHandlers) Execute(c *fiber.Ctx) error {
	var args json.RawMessage
	if body := c.Body(); len(body) > 0 {
		args = json.RawMessage(body)
	}

	out, err := h.client.Execute(c.Context(), c.Params("model"), c.Params("operation"), args)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": out})
}

// Transaction handles POST /v1/$transaction
func (h *EngineHandlers) Transaction(c *fiber.Ctx) error {
	var reqs []client.BatchRequest
	if err := json.Unmarshal(c.Body(), &reqs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "body must be an array of {model, operation, args}",
			"code":  client.CodeValidation,
		})
	}

	out, err := h.client.ExecuteBatch(c.Context(), reqs)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": out})
}

// QueryRaw handles POST /v1/$queryRaw
func (h *EngineHandlers) QueryRaw(c *fiber.Ctx) error {
	req, ok := h.rawRequest(c)
	if !ok {
		return nil
	}

	rows, err := h.client.QueryRawUnsafe(c.Context(), req.Query, req.Args...)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": rows})
}

// ExecuteRaw handles POST /v1/$executeRaw
func (h *EngineHandlers) ExecuteRaw(c *fiber.Ctx) error {
	req, ok := h.rawRequest(c)
	if !ok {
		return nil
	}

	affected, err := h.client.ExecuteRawUnsafe(c.Context(), req.Query, req.Args...)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": affected})
}

// rawRequest decodes a raw statement. When it returns false the response
// has already been written.
func (h *EngineHandlers) rawRequest(c *fiber.Ctx) (RawRequest, bool) {
	var req RawRequest
	if !h.cfg.AllowRaw {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "raw queries are disabled",
		})
		return req, false
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Query == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "body must be {query, args}",
			"code":  client.CodeValidation,
		})
		return req, false
	}
	return req, true
}

// StatusFor maps a client error to an HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, client.ErrUnknownModel) || errors.Is(err, client.ErrUnknownOperation) {
		return fiber.StatusNotFound
	}
	switch client.ErrorCode(err) {
	case client.CodeValidation:
		return fiber.StatusBadRequest
	case client.CodeRecordNotFound:
		return fiber.StatusNotFound
	case client.CodeUniqueConstraint, client.CodeForeignKeyConstraint, client.CodeConstraintFailed:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func (h *EngineHandlers) fail(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	code := client.ErrorCode(err)
	body := fiber.Map{"error": err.Error(), "code": code}

	var known *client.KnownRequestError
	if errors.As(err, &known) && known.Meta != nil {
		body["meta"] = known.Meta
	}
	if status == fiber.StatusInternalServerError {
		h.logger.Error("engine request failed",
			zap.String("model", c.Params("model")),
			zap.String("operation", c.Params("operation")),
			zap.Error(err))
		if code == "" {
			body["error"] = "internal server error"
		}
	}
	return c.Status(status).JSON(body)
}
