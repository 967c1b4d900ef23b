package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap builds the process logger. Fields left unset in cfg take their
// default values.
func NewZap(cfg *Config) (*zap.Logger, error) {

	cfg = DefaultConfig().Merge(cfg)

	lvl, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	enc := "console"
	ts := zapcore.ISO8601TimeEncoder

	if *cfg.JSON {
		enc = "json"
		ts = zapcore.RFC3339NanoTimeEncoder
	}

	baseCfg := zap.NewProductionConfig()
	baseCfg.DisableStacktrace = !*cfg.EnableStacktrace
	baseCfg.Level = lvl
	baseCfg.Encoding = enc
	baseCfg.DisableCaller = !*cfg.IncludeLine
	baseCfg.EncoderConfig.NameKey = "component"
	baseCfg.EncoderConfig.TimeKey = "timestamp"
	baseCfg.EncoderConfig.EncodeTime = ts

	return baseCfg.Build()
}
