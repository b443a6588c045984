//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

// current logs GPU resource events, tagged with component=gpu.
// spine.SetLogger replaces it.
var current atomic.Pointer[slog.Logger]

func init() {
	SetLogger(nil)
}

func slogger() *slog.Logger { return current.Load() }

// SetLogger installs l for this package. A nil l discards output.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	current.Store(l.With("component", "gpu"))
}
