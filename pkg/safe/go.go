package safe

import (
	"log/slog"
	"runtime/debug"
)

// Go runs f on a new goroutine. A panic in f is logged instead of crashing
// the process.
func Go(f func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("[safe] go panic", "error", err, "stack", string(debug.Stack()))
			}
		}()

		f()
	}()
}
