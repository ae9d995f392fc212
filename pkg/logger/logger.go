package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clubhouse/membership/pkg/config"
)

// New builds the process logger. Production JSON encoding everywhere; dev
// additionally logs at debug level.
func New(cfg *config.Config) (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.TimeKey = "time"
	if cfg != nil && cfg.Env == config.EnvDev {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := zc.Build(zap.Fields(zap.String("service", "clubhouse")))
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Desugar exposes the structured logger for components that need *zap.Logger, such as fx's event log.
func Desugar(l *zap.SugaredLogger) *zap.Logger {
	return l.Desugar()
}

var Module = fx.Options(
	fx.Provide(New, Desugar),
)
