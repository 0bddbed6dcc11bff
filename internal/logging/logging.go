// Package logging builds the zap logger used by the CLI and adapts it to the
// key/value Logger interface the core service writes to.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. Format "json" selects the production encoder,
// anything else the console encoder. An empty level means info.
func New(level, format string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Logger adapts a zap logger to Debug/Info/Warn/Error(msg, keysAndValues...).
type Logger struct {
	sugar *zap.SugaredLogger
}

// Adapt wraps logger. A nil logger discards everything.
func Adapt(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Logger{sugar: logger.Sugar()}
}

func (l Logger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l Logger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l Logger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l Logger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
