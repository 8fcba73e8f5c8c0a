/*
Package logger provides loggers for tests, the output is routed through t.Log
so it is shown only for failing tests (or with -v flag).
*/
package logger

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alphabill-org/resource-billing/logger"
)

// New returns DEBUG level logger writing into t.Log.
func New(t testing.TB) *slog.Logger {
	return NewLvl(t, slog.LevelDebug)
}

func NewLvl(t testing.TB, level slog.Level) *slog.Logger {
	cfg := &logger.LogConfiguration{Level: level.String(), Format: "text", TimeFormat: "15:04:05.0000"}
	h, err := cfg.Handler(&testWriter{t: t})
	if err != nil {
		t.Fatalf("creating test logger: %v", err)
	}
	return slog.New(h)
}

// NOP returns logger which discards everything.
func NOP() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
}

type testWriter struct {
	t  testing.TB
	mu sync.Mutex
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}
