package spine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// loggerHooks receive every logger passed to SetLogger. Internal packages
// with their own logger register here.
var (
	loggerHooksMu sync.RWMutex
	loggerHooks   []func(*slog.Logger)
)

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for spine and its internal packages.
// By default, spine produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by spine:
//   - [slog.LevelDebug]: pipeline creation, buffer uploads, recorded draws
//   - [slog.LevelInfo]: renderer lifecycle (GPU adapter in use)
//   - [slog.LevelWarn]: non-fatal issues (unsupported atlas filter, skipped mesh)
//
// Example:
//
//	spine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	loggerHooksMu.RLock()
	hooks := loggerHooks
	loggerHooksMu.RUnlock()
	for _, hook := range hooks {
		hook(l)
	}
}

// Logger returns the current logger used by spine.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// registerLoggerHook adds fn to the SetLogger fan-out and hands it the
// current logger.
func registerLoggerHook(fn func(*slog.Logger)) {
	loggerHooksMu.Lock()
	loggerHooks = append(loggerHooks, fn)
	loggerHooksMu.Unlock()
	fn(Logger())
}
