package logger

import (
	"log/slog"
	"time"
)

// LogQuery logs database operations
func LogQuery(operation string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", operation),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Query failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Debug("Query executed", attrs...)
	}
}
