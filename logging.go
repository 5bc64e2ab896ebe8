package mongokit

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// slogSink adapts a slog.Logger to the driver's LogSink, so driver-internal
// messages (command monitoring, server selection, connection churn) flow
// through the application logger. Wired by WithDriverLog.
type slogSink struct {
	logger *slog.Logger
}

// Info implements options.LogSink. The driver's internal level is one higher
// than the exported options.LogLevel values.
func (s slogSink) Info(level int, msg string, keysAndValues ...any) {
	lvl := slog.LevelInfo
	if options.LogLevel(level+1) == options.LogLevelDebug {
		lvl = slog.LevelDebug
	}
	s.logger.Log(context.Background(), lvl, msg, keysAndValues...)
}

// Error implements options.LogSink.
func (s slogSink) Error(err error, msg string, keysAndValues ...any) {
	s.logger.Error(msg, append(keysAndValues, "error", err)...)
}
