package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.SugaredLogger

// Init builds the process logger. Production logs at info, everything else
// at debug, unless level names one of zap's levels. Every line carries the
// service name and environment.
func Init(appEnv, level string) error {
	cfg := zap.NewDevelopmentConfig()
	if appEnv == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
		cfg.Level = lvl
	}

	logger, err := cfg.Build(zap.Fields(
		zap.String("service", "gatehouse"),
		zap.String("env", appEnv),
	))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	globalLogger = logger.Sugar()
	return nil
}

// GetLogger falls back to a no-op logger until Init runs, so packages can
// log from tests and tools.
func GetLogger() *zap.SugaredLogger {
	if globalLogger == nil {
		globalLogger = zap.NewNop().Sugar()
	}
	return globalLogger
}

// Close flushes buffered entries.
func Close() error {
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Sync()
}

func Info(message string, fields ...interface{}) {
	GetLogger().Infow(message, fields...)
}

func Debug(message string, fields ...interface{}) {
	GetLogger().Debugw(message, fields...)
}

func Warn(message string, fields ...interface{}) {
	GetLogger().Warnw(message, fields...)
}

func Error(message string, fields ...interface{}) {
	GetLogger().Errorw(message, fields...)
}

// Fatal logs and exits with status 1.
func Fatal(message string, fields ...interface{}) {
	GetLogger().Fatalw(message, fields...)
	os.Exit(1)
}

// WithRequest scopes a logger to one HTTP request. An anonymous request
// has no user_id field.
func WithRequest(requestID, userID, route string) *zap.SugaredLogger {
	l := GetLogger().With("request_id", requestID, "route", route)
	if userID != "" {
		l = l.With("user_id", userID)
	}
	return l
}

// WithApplication scopes a logger to one application and its submitter.
func WithApplication(applicationID, userID string) *zap.SugaredLogger {
	return GetLogger().With("application_id", applicationID, "user_id", userID)
}
