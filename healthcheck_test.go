package mongokit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	t.Run("healthy connection", func(t *testing.T) {
		t.Parallel()

		conn := newTestConnection(t, testConfig(), successDeps())
		check := Healthcheck(conn)

		assert.NoError(t, check(context.Background()))
	})

	t.Run("ping failure is reported", func(t *testing.T) {
		t.Parallel()

		deps := successDeps()
		pinged := false
		deps.ping = func(context.Context, *mongo.Client) error {
			if pinged {
				return assert.AnError
			}
			pinged = true // first ping belongs to Connect
			return nil
		}

		conn := newTestConnection(t, testConfig(), deps)
		err := Healthcheck(conn)(context.Background())

		assert.ErrorIs(t, err, ErrHealthcheckFailed)
		assert.ErrorIs(t, err, assert.AnError, "the driver error stays inspectable")
	})

	t.Run("closed connection fails the check", func(t *testing.T) {
		t.Parallel()

		conn := newTestConnection(t, testConfig(), successDeps())
		check := Healthcheck(conn)
		require.NoError(t, conn.Close(context.Background()))

		err := check(context.Background())
		assert.ErrorIs(t, err, ErrHealthcheckFailed)
		assert.ErrorIs(t, err, ErrClosed)
	})
}
