package mongokit

import "errors"

// Sentinel errors for the connection lifecycle and collection provisioning.
// Driver errors are attached with errors.Join, so both the sentinel and the
// underlying cause remain matchable via errors.Is and errors.As.
var (
	// ErrDatabaseRequired is returned when credentials are configured without a
	// target database, or when a collection operation needs a database and the
	// configuration never named one.
	ErrDatabaseRequired = errors.New("mongodb database is required")

	// ErrInvalidConfig is returned when a configuration value cannot be
	// translated into a driver option (unreadable TLS material, unknown cipher
	// suite, unknown read preference or read concern).
	ErrInvalidConfig = errors.New("invalid mongodb configuration")

	// ErrConnectFailed is returned when the driver cannot establish or verify
	// a connection. The driver error is attached verbatim.
	ErrConnectFailed = errors.New("failed to connect to mongodb")

	// ErrNoClient is returned when the driver reports success but hands back
	// no client. Treated the same as a connect failure.
	ErrNoClient = errors.New("mongodb driver returned no client handle")

	// ErrCreateCollection is returned when the collection-create call fails.
	ErrCreateCollection = errors.New("failed to create mongodb collection")

	// ErrDropCollection is returned when the collection-drop call fails.
	ErrDropCollection = errors.New("failed to drop mongodb collection")

	// ErrEnsureIndexes is returned when any index-create call fails. It
	// carries the first failure observed.
	ErrEnsureIndexes = errors.New("failed to ensure mongodb indexes")

	// ErrClosed is returned by operations on a connection after Close.
	ErrClosed = errors.New("mongodb connection is closed")

	// ErrDisconnect is returned when releasing the client on Close fails. The
	// driver error is attached verbatim; the connection counts as closed
	// regardless.
	ErrDisconnect = errors.New("failed to disconnect from mongodb")

	// ErrInvalidManifest is returned when a provisioning manifest cannot be
	// parsed or fails validation.
	ErrInvalidManifest = errors.New("invalid provisioning manifest")

	// ErrHealthcheckFailed is returned by the healthcheck probe when the
	// server does not respond to a ping.
	ErrHealthcheckFailed = errors.New("mongodb healthcheck failed")
)
