package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trading-journal-go/internal/config"
)

// New builds the logger for the named binary. A "json" format selects the production
// encoder, anything else the human-readable development encoder. Logs go to stderr so
// command output on stdout stays clean; cfg.File adds a second sink.
func New(cfg config.Logger, app string) (*zap.Logger, error) {
	logLevel, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	}

	zc.Level = zap.NewAtomicLevelAt(logLevel)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
		zc.ErrorOutputPaths = append(zc.ErrorOutputPaths, cfg.File)
	}
	if app != "" {
		zc.InitialFields = map[string]interface{}{"app": app}
	}

	return zc.Build()
}

// Trade returns the fields identifying a trade in log lines.
func Trade(id, pair string) []zap.Field {
	return []zap.Field{zap.String("trade_id", id), zap.String("pair", pair)}
}
