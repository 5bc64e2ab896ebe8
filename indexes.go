package mongokit

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CollectionSpec declares the secondary indexes a collection must carry
// before it is considered ready. Index order is irrelevant and duplicates are
// the caller's responsibility.
type CollectionSpec struct {
	Indexes []mongo.IndexModel
}

// EnsureIndexes creates every index model on the named collection. Creation
// requests are issued concurrently since each index build is independent and
// I/O-bound; the call returns once all of them completed.
//
// The first failure observed is returned immediately without waiting for or
// cancelling the remaining requests, so siblings may still complete as side
// effects. An empty model list succeeds without touching the driver.
func (c *Connection) EnsureIndexes(ctx context.Context, collection string, models []mongo.IndexModel) error {
	if err := c.guard(); err != nil {
		return err
	}
	if len(models) == 0 {
		return nil
	}
	if c.db == nil {
		return ErrDatabaseRequired
	}

	coll := c.db.Collection(collection)

	// Buffered to the fan-out width so abandoned siblings never block.
	results := make(chan error, len(models))
	for _, model := range models {
		go func(model mongo.IndexModel) {
			name, err := c.deps.createIndex(ctx, coll, model)
			if err == nil {
				c.logger.DebugContext(ctx, "ensured mongodb index",
					slog.String("connection_id", c.id),
					slog.String("collection", collection),
					slog.String("index", name))
			}
			results <- err
		}(model)
	}

	for range models {
		if err := <-results; err != nil {
			return errors.Join(ErrEnsureIndexes, err)
		}
	}
	return nil
}
