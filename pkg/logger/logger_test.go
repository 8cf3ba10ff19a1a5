package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"info":  zapcore.InfoLevel,
		"TRACE": zapcore.DebugLevel,
		"debug": zapcore.DebugLevel,
		"Warn":  zapcore.WarnLevel,
		"ERROR": zapcore.ErrorLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range cases {
		got, silent := ParseLevel(in)
		assert.Equal(t, want, got, in)
		assert.False(t, silent, in)
	}
	_, silent := ParseLevel("silent")
	assert.True(t, silent)
}

func TestGetOrCreateCachesByLabel(t *testing.T) {
	a := GetOrCreate(Options{Label: "logger-test-a", Level: "DEBUG"})
	b := GetOrCreate(Options{Label: "logger-test-a", Level: "ERROR"})
	c := GetOrCreate(Options{Label: "logger-test-c"})

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.True(t, a.Desugar().Core().Enabled(zapcore.DebugLevel), "first level wins")
	assert.False(t, c.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestSilentLoggerDiscards(t *testing.T) {
	l := GetOrCreate(Options{Label: "logger-test-silent", Level: "SILENT"})
	assert.False(t, l.Desugar().Core().Enabled(zapcore.ErrorLevel))
}
