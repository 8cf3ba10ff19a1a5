// pkg/logger/logger.go
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Sugared = *zap.SugaredLogger

func New(env string) Sugared {
	var z *zap.Logger
	if env == "prod" {
		z, _ = zap.NewProduction()
	} else {
		z, _ = zap.NewDevelopment()
	}
	return z.Sugar()
}

// Options selects a labelled logger from the provider.
type Options struct {
	Level string // TRACE|DEBUG|INFO|WARN|ERROR|SILENT, case-insensitive; empty means INFO
	Label string
}

var (
	mu      sync.Mutex
	byLabel = map[string]Sugared{}
)

// GetOrCreate returns the logger registered under opts.Label, creating it at
// opts.Level on first use. Later calls with the same label get the cached
// logger regardless of the level they ask for.
func GetOrCreate(opts Options) Sugared {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := byLabel[opts.Label]; ok {
		return l
	}
	l := build(opts)
	byLabel[opts.Label] = l
	return l
}

func build(opts Options) Sugared {
	lvl, silent := ParseLevel(opts.Level)
	if silent {
		return zap.NewNop().Sugar()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	z, err := zc.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return z.Sugar().Named(opts.Label)
}

// ParseLevel maps a level name onto zap. TRACE has no zap equivalent and is
// folded into DEBUG. The second result reports SILENT.
func ParseLevel(s string) (zapcore.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE", "DEBUG":
		return zapcore.DebugLevel, false
	case "WARN", "WARNING":
		return zapcore.WarnLevel, false
	case "ERROR":
		return zapcore.ErrorLevel, false
	case "SILENT":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}
