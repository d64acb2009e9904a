package config

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const environmentProduction = "production"

// NewLogger builds the process logger. Production writes JSON for log
// collectors; every other environment writes colored console lines.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	return loggerConfig(cfg).Build(zap.Fields(
		zap.String("service", "tradewise"),
		zap.String("environment", environmentName(cfg.Environment)),
	))
}

func loggerConfig(cfg LogConfig) zap.Config {
	var zc zap.Config
	if strings.EqualFold(cfg.Environment, environmentProduction) {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		zc.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		// Stack traces on every warning drown out provider errors.
		zc.Development = false
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(parseLogLevel(cfg.Level))
	return zc
}

func environmentName(env string) string {
	if env == "" {
		return "development"
	}
	return strings.ToLower(env)
}

// parseLogLevel accepts zap level names plus "warning". Unknown values fall back to info.
func parseLogLevel(level string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil || name == "" {
		return zapcore.InfoLevel
	}
	return l
}
