package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, want := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, want, got, s)
	}

	_, ok := ParseLogLevel("loud")
	require.False(t, ok)
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	require.Same(t, Logger(), FromContext(context.Background()))
	//nolint:staticcheck // nil context is part of the contract.
	require.Same(t, Logger(), FromContext(nil))
}

func TestContextLoggerCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "climate")
	ctx = WithKV(ctx, "bus", "/dev/i2c-1")

	WarnKV(ctx, "sensor degraded", "faults", 4)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "sensor degraded", entries[0].Message)
	require.Equal(t, "climate", entries[0].LoggerName)

	fields := entries[0].ContextMap()
	require.Equal(t, "/dev/i2c-1", fields["bus"])
	require.EqualValues(t, 4, fields["faults"])
}
