package mongokit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestEnsureIndexes_EmptyListIsNoop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	deps := successDeps()
	deps.createIndex = func(context.Context, *mongo.Collection, mongo.IndexModel) (string, error) {
		calls.Add(1)
		return "", nil
	}

	conn := newTestConnection(t, testConfig(), deps)

	require.NoError(t, conn.EnsureIndexes(context.Background(), "orders", nil))
	require.NoError(t, conn.EnsureIndexes(context.Background(), "orders", []mongo.IndexModel{}))
	assert.Equal(t, int32(0), calls.Load(), "an empty index list must not touch the driver")
}

func TestEnsureIndexes_AllSucceed(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	deps := successDeps()
	deps.createIndex = func(context.Context, *mongo.Collection, mongo.IndexModel) (string, error) {
		calls.Add(1)
		return "idx", nil
	}

	conn := newTestConnection(t, testConfig(), deps)

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	require.NoError(t, conn.EnsureIndexes(context.Background(), "orders", models))
	assert.Equal(t, int32(len(models)), calls.Load())
}

func TestEnsureIndexes_FirstErrorWinsWithoutCancellation(t *testing.T) {
	t.Parallel()

	errBuild := errors.New("index build rejected")
	gate := make(chan struct{})
	var completed atomic.Int32

	deps := successDeps()
	deps.createIndex = func(_ context.Context, _ *mongo.Collection, model mongo.IndexModel) (string, error) {
		keys, ok := model.Keys.(bson.D)
		if !ok || keys[0].Key == "fail" {
			return "", errBuild
		}
		// Siblings stall until released, proving the aggregate returns on the
		// first failure without waiting for them.
		<-gate
		completed.Add(1)
		return "ok", nil
	}

	conn := newTestConnection(t, testConfig(), deps)

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "fail", Value: 1}}},
		{Keys: bson.D{{Key: "a", Value: 1}}},
		{Keys: bson.D{{Key: "b", Value: 1}}},
		{Keys: bson.D{{Key: "c", Value: -1}}},
	}

	err := conn.EnsureIndexes(context.Background(), "orders", models)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEnsureIndexes)
	assert.ErrorIs(t, err, errBuild, "the first failure observed must be the one surfaced")
	assert.Equal(t, int32(0), completed.Load(), "the aggregate must not wait for stalled siblings")

	// In-flight siblings were not cancelled; once released they all complete.
	close(gate)
	require.Eventually(t, func() bool { return completed.Load() == int32(len(models)-1) },
		time.Second, 10*time.Millisecond, "abandoned siblings must still run to completion")
}

func TestEnsureIndexes_RequiresDatabase(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	deps := successDeps()
	deps.createIndex = func(context.Context, *mongo.Collection, mongo.IndexModel) (string, error) {
		calls.Add(1)
		return "", nil
	}

	conn := newTestConnection(t, Config{URL: "mongodb://localhost:27017"}, deps)

	err := conn.EnsureIndexes(context.Background(), "orders", []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}},
	})
	assert.ErrorIs(t, err, ErrDatabaseRequired)
	assert.Equal(t, int32(0), calls.Load())
}
