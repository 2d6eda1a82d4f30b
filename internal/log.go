package internal

import (
	"context"
	"log/slog"
)

// LogEnabled reports whether l would emit a record at lvl. Nil loggers
// are silent.
func LogEnabled(l *slog.Logger, lvl slog.Level) bool {
	return l != nil && l.Handler().Enabled(context.Background(), lvl)
}

// LogAttrs is the nil-safe logging helper shared by the package-level
// loggers.
func LogAttrs(l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if l != nil {
		l.LogAttrs(context.Background(), level, msg, attrs...)
	}
}
