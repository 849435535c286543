package gateway

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/api/engine"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/middleware"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/debug"
	debugHandlers "github.com/igtmtakan/pyspiderNx-sub000/internal/services/debug/handlers"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/schedules"
	scheduleHandlers "github.com/igtmtakan/pyspiderNx-sub000/internal/services/schedules/handlers"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/tasks"
	taskHandlers "github.com/igtmtakan/pyspiderNx-sub000/internal/services/tasks/handlers"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/auth"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

// APIGateway handles the central routing and global middleware.
type APIGateway struct {
	router *fiber.App
	logger *zap.Logger
	cfg    config.Config
	client *client.Client
}

// NewClient builds the data client with the options in cfg.Client.
func NewClient(cfg config.Config, logger *zap.Logger, conn *sql.DB) *client.Client {
	opts := []client.Option{client.WithTransactionTimeout(cfg.Client.TransactionTimeout)}
	if cfg.Client.LogQueries {
		opts = append(opts, client.WithQueryLogging())
	}
	return client.New(conn, logger, opts...)
}

// NewAPIGateway creates a new instance of APIGateway with a configured Fiber router.
func NewAPIGateway(cfg config.Config, logger *zap.Logger, conn *sql.DB) *APIGateway {
	app := fiber.New(fiber.Config{
		AppName: "nxwebui data API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.Error("gateway error", zap.Error(err))
			}
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	gw := &APIGateway{
		router: app,
		logger: logger,
		cfg:    cfg,
	}

	gw.applyMiddleware()
	gw.setupHealthCheck()

	if conn != nil {
		gw.client = NewClient(cfg, logger, conn)
		taskSvc := tasks.NewTaskService(cfg, logger, gw.client)
		scheduleSvc := schedules.NewScheduleService(cfg, logger, gw.client)
		debugSvc := debug.NewDebugService(cfg, logger, gw.client)

		gw.registerRoutes(taskSvc, scheduleSvc, debugSvc)
	}

	return gw
}

func (g *APIGateway) registerRoutes(
	taskSvc tasks.Service,
	scheduleSvc schedules.Service,
	debugSvc debug.Service,
) {
	authMiddleware := middleware.AuthMiddleware(auth.NewService(g.cfg.JWT, g.logger), g.logger)
	v1 := g.MountGroup("/v1", authMiddleware)

	// Task routes
	taskH := taskHandlers.NewTaskHandlers(taskSvc, g.logger)
	v1.Post("/tasks", taskH.CreateTask)
	v1.Get("/tasks/stats", taskH.GetStats)
	v1.Put("/tasks/:id/parent", taskH.MoveTask)
	v1.Get("/tasks/:id/subtree", taskH.GetSubtree)
	v1.Post("/tasks/:id/logs", taskH.AppendLog)
	v1.Put("/tasks/:id/progress", taskH.UpdateProgress)

	// Schedule routes
	scheduleH := scheduleHandlers.NewScheduleHandlers(scheduleSvc, g.logger)
	v1.Post("/schedules", scheduleH.CreateSchedule)
	v1.Get("/schedules/due", scheduleH.ListDue)
	v1.Post("/schedules/dispatch", scheduleH.Dispatch)
	v1.Put("/schedules/:id/active", scheduleH.SetActive)
	v1.Post("/schedules/:id/run", scheduleH.MarkRun)

	// Debug routes
	debugH := debugHandlers.NewDebugHandlers(debugSvc, g.logger)
	v1.Post("/debug/sessions", debugH.StartSession)
	v1.Put("/debug/sessions/:id/status", debugH.SetStatus)
	v1.Post("/debug/sessions/:id/exchanges", debugH.RecordExchange)
	v1.Get("/debug/sessions/:id/summary", debugH.GetSummary)
	v1.Put("/debug/projects/:id/script", debugH.SaveScript)

	// Generic model operations come last so the fixed routes above win.
	engine.NewEngineHandlers(g.client, g.cfg, g.logger).Register(v1)
}

// applyMiddleware sets up global middleware for the gateway.
func (g *APIGateway) applyMiddleware() {
	g.router.Use(cors.New(cors.Config{
		AllowOrigins: g.cfg.Server.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	g.router.Use(fiberLogger.New())
	g.router.Use(recover.New())
	g.router.Use(limiter.New(limiter.Config{
		Max:        g.cfg.Server.RateLimitMax,
		Expiration: g.cfg.Server.RateLimitDuration,
	}))
}

// setupHealthCheck adds a basic health check endpoint to the gateway.
func (g *APIGateway) setupHealthCheck() {
	g.router.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})
}

// MountGroup allows services to mount their own route groups on the gateway.
func (g *APIGateway) MountGroup(prefix string, handlers ...fiber.Handler) fiber.Router {
	return g.router.Group(prefix, handlers...)
}

// Router returns the underlying Fiber app (useful for testing).
func (g *APIGateway) Router() *fiber.App {
	return g.router
}

// Client returns the data client the routes share, or nil when the gateway
// was built without a database.
func (g *APIGateway) Client() *client.Client {
	return g.client
}

// Start begins listening on the configured host and port.
func (g *APIGateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.cfg.Server.Host, g.cfg.Server.Port)
	g.logger.Info("Starting API Gateway", zap.String("address", addr))
	return g.router.Listen(addr)
}

// Shutdown gracefully stops the gateway.
func (g *APIGateway) Shutdown(ctx context.Context) error {
	g.logger.Info("Shutting down API Gateway...")
	return g.router.ShutdownWithContext(ctx)
}
