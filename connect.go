package mongokit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Connect resolves cfg into a connection target and driver options, dials the
// server, and verifies the connection with a ping. Configuration problems are
// reported before any network activity; driver errors are surfaced verbatim,
// joined under ErrConnectFailed.
//
// Exactly one connection attempt is made per call. Retry policy belongs to
// the caller.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Connection, error) {
	co := defaultConnectOptions()
	for _, opt := range opts {
		opt(co)
	}

	target, clientOpts, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	if co.poolStats != nil {
		clientOpts.SetPoolMonitor(co.poolStats.Monitor())
	}
	if co.driverLog != nil {
		clientOpts.SetLoggerOptions(options.Logger().
			SetSink(slogSink{logger: co.driverLog}).
			SetComponentLevel(options.LogComponentAll, co.driverLogLevel))
	}

	co.logger.DebugContext(ctx, "connecting to mongodb",
		slog.String("target", redactTarget(target)))

	client, err := co.deps.connect(clientOpts)
	if err != nil {
		return nil, errors.Join(ErrConnectFailed, err)
	}
	if client == nil {
		return nil, ErrNoClient
	}

	// The driver connects lazily, so the ping is the actual network attempt.
	if err := co.deps.ping(ctx, client); err != nil {
		_ = co.deps.disconnect(ctx, client)
		return nil, errors.Join(ErrConnectFailed, err)
	}

	conn := &Connection{
		id:     uuid.NewString(),
		client: client,
		dbName: cfg.databaseName(),
		logger: co.logger,
		deps:   co.deps,
	}
	if conn.dbName != "" {
		conn.db = client.Database(conn.dbName)
	}

	co.logger.DebugContext(ctx, "connected to mongodb",
		slog.String("connection_id", conn.id),
		slog.String("database", conn.dbName))

	return conn, nil
}
