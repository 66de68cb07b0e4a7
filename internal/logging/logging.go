package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	globalOutput   io.Writer = os.Stderr
	globalOutputMu sync.RWMutex
)

// SetOutput redirects every subsystem logger's output (stderr by
// default), e.g. into a buffer in tests.
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}

type dynamicWriter struct{}

func (dynamicWriter) Write(p []byte) (int, error) {
	globalOutputMu.RLock()
	w := globalOutput
	globalOutputMu.RUnlock()
	return w.Write(p)
}

var (
	loggers  sync.Map // map[string]*slog.Logger
	handlers sync.Map // map[string]*subsystemHandler
)

// Logger returns the cached logger for a subsystem, creating it on
// first use. Repeated calls with the same name return the same
// instance.
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	level := cfg.LevelFor(subsystem)

	h := newHandler(subsystem, level, cfg.Format, cfg.AddSource)
	l := slog.New(h)

	actual, loaded := loggers.LoadOrStore(subsystem, l)
	if !loaded {
		handlers.Store(subsystem, h)
	}
	return actual.(*slog.Logger)
}

// SetLevel adjusts a subsystem's level at runtime without restarting.
func SetLevel(subsystem string, level slog.Level) {
	if v, ok := handlers.Load(subsystem); ok {
		v.(*subsystemHandler).SetLevel(level)
	}
}

// subsystemHandler is a slog.Handler whose level can be changed after
// construction.
type subsystemHandler struct {
	level *atomicLevel
	inner slog.Handler
}

type atomicLevel struct {
	mu    sync.RWMutex
	level slog.Level
}

func (a *atomicLevel) get() slog.Level {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.level
}

func (a *atomicLevel) set(l slog.Level) {
	a.mu.Lock()
	a.level = l
	a.mu.Unlock()
}

func newHandler(subsystem string, level slog.Level, format Format, addSource bool) *subsystemHandler {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	var inner slog.Handler
	if format == FormatJSON {
		inner = slog.NewJSONHandler(dynamicWriter{}, opts)
	} else {
		inner = slog.NewTextHandler(dynamicWriter{}, opts)
	}
	inner = inner.WithAttrs([]slog.Attr{slog.String("subsystem", subsystem)})

	h := &subsystemHandler{inner: inner, level: &atomicLevel{}}
	h.level.set(level)
	return h
}

func (h *subsystemHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.get()
}

func (h *subsystemHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *subsystemHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &subsystemHandler{level: h.level, inner: h.inner.WithAttrs(attrs)}
}

func (h *subsystemHandler) WithGroup(name string) slog.Handler {
	return &subsystemHandler{level: h.level, inner: h.inner.WithGroup(name)}
}

func (h *subsystemHandler) SetLevel(level slog.Level) {
	h.level.set(level)
}
