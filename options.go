package mongokit

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Option is a functional option for configuring a connection.
type Option func(*connectOptions)

type connectOptions struct {
	logger         *slog.Logger
	poolStats      *PoolStats
	driverLog      *slog.Logger
	driverLogLevel options.LogLevel
	deps           clientDeps
}

// clientDeps abstracts the driver primitives invoked by this package so they
// can be substituted in tests without a running server.
type clientDeps struct {
	connect          func(opts *options.ClientOptions) (*mongo.Client, error)
	ping             func(ctx context.Context, client *mongo.Client) error
	disconnect       func(ctx context.Context, client *mongo.Client) error
	createCollection func(ctx context.Context, db *mongo.Database, name string) error
	createIndex      func(ctx context.Context, coll *mongo.Collection, model mongo.IndexModel) (string, error)
	dropCollection   func(ctx context.Context, coll *mongo.Collection) error
}

func defaultDeps() clientDeps {
	return clientDeps{
		connect: func(opts *options.ClientOptions) (*mongo.Client, error) {
			return mongo.Connect(opts)
		},
		ping: func(ctx context.Context, client *mongo.Client) error {
			return client.Ping(ctx, nil)
		},
		disconnect: func(ctx context.Context, client *mongo.Client) error {
			return client.Disconnect(ctx)
		},
		createCollection: func(ctx context.Context, db *mongo.Database, name string) error {
			return db.CreateCollection(ctx, name)
		},
		createIndex: func(ctx context.Context, coll *mongo.Collection, model mongo.IndexModel) (string, error) {
			return coll.Indexes().CreateOne(ctx, model)
		},
		dropCollection: func(ctx context.Context, coll *mongo.Collection) error {
			return coll.Drop(ctx)
		},
	}
}

func defaultConnectOptions() *connectOptions {
	return &connectOptions{
		logger: slog.Default(),
		deps:   defaultDeps(),
	}
}

// WithLogger sets the logger for connection lifecycle events. Events are
// logged at debug level; errors are never logged, they propagate to callers.
func WithLogger(logger *slog.Logger) Option {
	return func(o *connectOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPoolStats attaches pool metrics to the connection. The driver feeds the
// collectors through a pool event monitor.
func WithPoolStats(stats *PoolStats) Option {
	return func(o *connectOptions) {
		if stats != nil {
			o.poolStats = stats
		}
	}
}

// WithDriverLog routes the driver's internal log messages (commands, server
// selection, connection churn) to the given logger at the given verbosity.
func WithDriverLog(logger *slog.Logger, level options.LogLevel) Option {
	return func(o *connectOptions) {
		if logger != nil {
			o.driverLog = logger
			o.driverLogLevel = level
		}
	}
}

// withDeps replaces the driver primitives. Tests only.
func withDeps(deps clientDeps) Option {
	return func(o *connectOptions) {
		o.deps = deps
	}
}
