package mongokit

import (
	"context"
	"errors"
)

// Healthcheck returns a health check function suitable for Kubernetes
// readiness/liveness probes or HTTP health endpoints.
//
// The returned function performs a lightweight Ping to verify MongoDB
// connectivity. Failures are joined under ErrHealthcheckFailed so callers can
// match them with errors.Is while keeping the driver error inspectable.
func Healthcheck(conn *Connection) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := conn.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
