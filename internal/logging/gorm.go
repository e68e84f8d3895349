package logging

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// gormWriter adapts zap.Logger to logger.Writer interface
type gormWriter struct {
	logger *zap.Logger
}

func (w *gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

// NewGormLogger 将 gorm 的日志输出接入 zap，level 取值同 LoggingConfig.Level。
func NewGormLogger(level string) logger.Interface {
	var gormLevel logger.LogLevel
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		gormLevel = logger.Info
	case "warn", "warning":
		gormLevel = logger.Error
	case "error":
		gormLevel = logger.Silent
	default:
		gormLevel = logger.Warn
	}

	return logger.New(
		&gormWriter{logger: WithComponent("gorm")},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
