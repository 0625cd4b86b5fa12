// Package notify surfaces transient user-facing notices, the toast
// analog of the browser UI. The default sink writes structured logs;
// embedding applications provide their own.
package notify

import (
	"log/slog"

	"github.com/target/webui-auth/internal/ports"
)

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier backed by logger, or the default
// logger when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Success logs a success notice.
func (n *LogNotifier) Success(message string) {
	n.logger.Info("notice", slog.String("kind", "success"), slog.String("message", message))
}

// Error logs an error notice.
func (n *LogNotifier) Error(message string) {
	n.logger.Warn("notice", slog.String("kind", "error"), slog.String("message", message))
}

// Funcs adapts a pair of functions to the Notifier interface (useful
// for tests and embedders with their own toast layer).
type Funcs struct {
	OnSuccess func(message string)
	OnError   func(message string)
}

var _ ports.Notifier = Funcs{}

// Success implements the Notifier interface.
func (f Funcs) Success(message string) {
	if f.OnSuccess != nil {
		f.OnSuccess(message)
	}
}

// Error implements the Notifier interface.
func (f Funcs) Error(message string) {
	if f.OnError != nil {
		f.OnError(message)
	}
}
