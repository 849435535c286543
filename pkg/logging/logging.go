package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a configured zap.Logger from the LOG_LEVEL (default
// "info") and LOG_ENCODING ("json" or "console") environment variables.
func NewLogger() (*zap.Logger, error) {
	return Build(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_ENCODING"))
}

// Build creates a logger with an explicit level and encoding. Unknown levels
// fall back to info; any encoding other than "console" produces JSON.
func Build(level, encoding string) (*zap.Logger, error) {
	var config zap.Config
	if encoding == "console" {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level = strings.ToLower(level)
	if level == "" {
		level = "info"
	}
	var zapLevel zapcore.Level
	if err := zapLevel.Set(level); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	return config.Build()
}

// MustNewLogger creates a logger and panics if initialization fails.
func MustNewLogger() *zap.Logger {
	logger, err := NewLogger()
	if err != nil {
		panic(err)
	}
	return logger
}

// PrintfLogger adapts a zap.Logger to the Printf/Fatalf interface expected by
// libraries such as goose.
type PrintfLogger struct {
	logger *zap.Logger
}

// NewPrintfLogger wraps logger; messages are logged at info level.
func NewPrintfLogger(logger *zap.Logger) *PrintfLogger {
	return &PrintfLogger{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *PrintfLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *PrintfLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// CronLogger adapts a zap.Logger to the robfig/cron Logger interface.
// Routine scheduler chatter is logged at debug level.
type CronLogger struct {
	logger *zap.SugaredLogger
}

func NewCronLogger(logger *zap.Logger) *CronLogger {
	return &CronLogger{logger: logger.Sugar()}
}

func (l *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
