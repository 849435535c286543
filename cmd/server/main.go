package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/api/gateway"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/db"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/schedules"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/auth"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/logging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Handle subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			handleMigrate(cfg, logger)
			return
		case "token":
			handleToken(cfg, logger)
			return
		case "help":
			printUsage()
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	// Initialize database
	dbConn, err := db.OpenDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.Migrate(dbConn, logger, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize API Gateway
	gw := gateway.NewAPIGateway(*cfg, logger, dbConn)

	var scheduler *schedules.Scheduler
	if cfg.Scheduler.Enabled {
		svc := schedules.NewScheduleService(*cfg, logger, gw.Client())
		scheduler, err = schedules.NewScheduler(cfg.Scheduler, svc, logger)
		if err != nil {
			logger.Fatal("Failed to create scheduler", zap.Error(err))
		}
		scheduler.Start()
	}

	// Start server in background
	go func() {
		if err := gw.Start(); err != nil {
			logger.Fatal("Gateway failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Error("Scheduler shutdown failed", zap.Error(err))
		}
	}
	if err := gw.Shutdown(ctx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func handleMigrate(cfg *config.Config, logger *zap.Logger) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: server migrate [up|down|status|version]")
		os.Exit(1)
	}

	dbConn, err := db.OpenDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer dbConn.Close()

	dir := cfg.Database.MigrationsPath
	var errMig error
	command := os.Args[2]
	switch command {
	case "up":
		errMig = db.Migrate(dbConn, logger, dir)
	case "down":
		if dir == "" {
			errMig = db.Rollback(dbConn, logger)
		} else {
			errMig = db.RollbackWithDir(dbConn, logger, dir)
		}
	case "status":
		if dir == "" {
			errMig = db.Status(dbConn, logger)
		} else {
			errMig = db.StatusWithDir(dbConn, logger, dir)
		}
	case "version":
		var v int64
		v, errMig = db.Version(dbConn, logger)
		if errMig == nil {
			fmt.Println(v)
		}
	default:
		fmt.Printf("Unknown migration command: %s\n", command)
		os.Exit(1)
	}

	if errMig != nil {
		logger.Fatal("Migration failed", zap.Error(errMig))
	}
}

func handleToken(cfg *config.Config, logger *zap.Logger) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: server token <subject>")
		os.Exit(1)
	}

	token, err := auth.NewService(cfg.JWT, logger).GenerateToken(os.Args[2])
	if err != nil {
		logger.Fatal("Failed to generate token", zap.Error(err))
	}
	fmt.Println(token)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  server                  - Start the API server")
	fmt.Println("  server migrate up       - Run pending migrations")
	fmt.Println("  server migrate down     - Rollback the last migration")
	fmt.Println("  server migrate status   - Show migration status")
	fmt.Println("  server migrate version  - Print the schema version")
	fmt.Println("  server token <subject>  - Issue an API bearer token")
	fmt.Println("  server help             - Show this help message")
}
