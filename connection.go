package mongokit

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Connection owns exactly one live driver client and the database selected by
// the configuration. It is created by Connect and is safe for concurrent use;
// the handle is never mutated after construction and the driver manages its
// own connection pool internally.
type Connection struct {
	id     string
	client *mongo.Client
	db     *mongo.Database
	dbName string
	logger *slog.Logger
	deps   clientDeps

	mu     sync.RWMutex
	closed bool
}

// ID returns the identifier assigned to this connection, used to correlate
// its lifecycle events in logs.
func (c *Connection) ID() string { return c.id }

// Client exposes the underlying driver client for operations beyond this
// package's surface.
func (c *Connection) Client() *mongo.Client { return c.client }

// Database returns the database handle selected by the configuration, or nil
// when the configuration named no database.
func (c *Connection) Database() *mongo.Database { return c.db }

// DatabaseName returns the name of the selected database, or an empty string
// when the configuration named none.
func (c *Connection) DatabaseName() string { return c.dbName }

// Collection returns a handle to the named collection in the selected
// database, or nil when the configuration named no database.
func (c *Connection) Collection(name string) *mongo.Collection {
	if c.db == nil {
		return nil
	}
	return c.db.Collection(name)
}

// CreateCollection creates the named collection and then ensures every index
// declared in spec, returning only after both steps complete. When index
// provisioning fails the collection is left in place with whatever indexes
// were established; the first index error is returned and the caller decides
// whether to retry or drop.
func (c *Connection) CreateCollection(ctx context.Context, name string, spec CollectionSpec) (*mongo.Collection, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	if c.db == nil {
		return nil, ErrDatabaseRequired
	}

	if err := c.deps.createCollection(ctx, c.db, name); err != nil {
		return nil, errors.Join(ErrCreateCollection, err)
	}
	c.logger.DebugContext(ctx, "created mongodb collection",
		slog.String("connection_id", c.id),
		slog.String("collection", name))

	if err := c.EnsureIndexes(ctx, name, spec.Indexes); err != nil {
		return nil, err
	}
	return c.db.Collection(name), nil
}

// DropCollection drops the named collection. A direct passthrough to the
// driver with no cascading cleanup.
func (c *Connection) DropCollection(ctx context.Context, name string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if c.db == nil {
		return ErrDatabaseRequired
	}

	if err := c.deps.dropCollection(ctx, c.db.Collection(name)); err != nil {
		return errors.Join(ErrDropCollection, err)
	}
	c.logger.DebugContext(ctx, "dropped mongodb collection",
		slog.String("connection_id", c.id),
		slog.String("collection", name))
	return nil
}

// Ping verifies the server is still reachable. The driver error is returned
// as-is.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	return c.deps.ping(ctx, c.client)
}

// Close disconnects the underlying client; a driver failure is joined under
// ErrDisconnect. Close is idempotent; operations issued after it return
// ErrClosed.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.deps.disconnect(ctx, c.client); err != nil {
		return errors.Join(ErrDisconnect, err)
	}
	c.logger.DebugContext(ctx, "closed mongodb connection",
		slog.String("connection_id", c.id))
	return nil
}

func (c *Connection) guard() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
