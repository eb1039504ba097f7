package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContextFallsBack verifies a bare context yields the global logger.
func TestFromContextFallsBack(t *testing.T) {
	t.Parallel()

	require.NotNil(t, FromContext(context.Background()))
}

// TestToContextRoundtrip verifies a scoped logger is carried by the context.
func TestToContextRoundtrip(t *testing.T) {
	t.Parallel()

	scoped := zap.NewNop().Sugar()
	ctx := ToContext(context.Background(), scoped)

	require.Same(t, scoped, FromContext(ctx))
}

// TestWithName verifies naming replaces the context logger without touching
// the parent context.
func TestWithName(t *testing.T) {
	t.Parallel()

	parent := ToContext(context.Background(), zap.NewNop().Sugar())
	named := WithName(parent, "component")

	require.NotSame(t, FromContext(parent), FromContext(named))
}
