package mongokit

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config describes a single MongoDB connection. Every field maps 1:1 to a
// documented driver option; zero values mean "use the driver default" and are
// never passed through as literals.
//
// Either URL carries a complete connection string, or the discrete
// Host/Port/User/Password/Database fields are used to build one. When URL is
// set, options encoded in its query string win over the discrete fields below.
type Config struct {
	URL      string `env:"MONGODB_URL"`      // URL is a complete connection string; takes precedence over the discrete fields.
	Host     string `env:"MONGODB_HOST"`     // Host is the server host when no URL is given.
	Port     int    `env:"MONGODB_PORT"`     // Port is the server port when no URL is given.
	User     string `env:"MONGODB_USER"`     // User is the username for authentication.
	Password string `env:"MONGODB_PASSWORD"` // Password is the password for authentication.
	Database string `env:"MONGODB_DATABASE"` // Database is the database this connection operates on; required when credentials are set.

	AuthSource string `env:"MONGODB_AUTH_SOURCE"` // AuthSource is the database used to verify credentials; defaults to the target database.
	AppName    string `env:"MONGODB_APP_NAME"`    // AppName is reported to the server for profiler and log attribution.

	TLSEnabled     bool     `env:"MONGODB_TLS_ENABLED"`      // TLSEnabled turns TLS on for the connection.
	TLSInsecure    bool     `env:"MONGODB_TLS_INSECURE"`     // TLSInsecure disables certificate and hostname verification.
	TLSCAFile      string   `env:"MONGODB_TLS_CA_FILE"`      // TLSCAFile is a PEM file with certificate authorities to trust.
	TLSCertFile    string   `env:"MONGODB_TLS_CERT_FILE"`    // TLSCertFile is a PEM file with the client certificate.
	TLSKeyFile     string   `env:"MONGODB_TLS_KEY_FILE"`     // TLSKeyFile is a PEM file with the client key; defaults to TLSCertFile for combined files.
	TLSKeyPassword string   `env:"MONGODB_TLS_KEY_PASSWORD"` // TLSKeyPassword decrypts an encrypted PKCS#8 client key.
	TLSCRLFile     string   `env:"MONGODB_TLS_CRL_FILE"`     // TLSCRLFile is a certificate revocation list checked during the handshake.
	TLSCiphers     []string `env:"MONGODB_TLS_CIPHERS"`      // TLSCiphers restricts the handshake to the named cipher suites.

	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE"`      // MaxPoolSize caps the driver connection pool.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE"`      // MinPoolSize keeps a floor of idle connections in the pool.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME"` // MaxConnIdleTime is how long a pooled connection may sit idle.

	ConnectTimeout         time.Duration `env:"MONGODB_CONNECT_TIMEOUT"`          // ConnectTimeout bounds establishing a single socket connection.
	Timeout                time.Duration `env:"MONGODB_TIMEOUT"`                  // Timeout bounds each operation end to end.
	ServerSelectionTimeout time.Duration `env:"MONGODB_SERVER_SELECTION_TIMEOUT"` // ServerSelectionTimeout bounds picking a server for an operation.
	HeartbeatInterval      time.Duration `env:"MONGODB_HEARTBEAT_INTERVAL"`       // HeartbeatInterval is how often the driver checks server state.

	ReplicaSet     string        `env:"MONGODB_REPLICA_SET"`     // ReplicaSet names the replica set to require on discovered servers.
	LocalThreshold time.Duration `env:"MONGODB_LOCAL_THRESHOLD"` // LocalThreshold is the acceptable latency window for selecting among secondaries.
	Direct         *bool         `env:"MONGODB_DIRECT"`          // Direct forces a direct connection to the given host, skipping topology discovery.

	WriteConcernW  string `env:"MONGODB_WRITE_CONCERN"`   // WriteConcernW is the write concern: a number, "majority", or a custom tag set name.
	Journal        *bool  `env:"MONGODB_JOURNAL"`         // Journal requires writes to be committed to the journal.
	ReadPreference string `env:"MONGODB_READ_PREFERENCE"` // ReadPreference is one of primary, primaryPreferred, secondary, secondaryPreferred, nearest.
	ReadConcern    string `env:"MONGODB_READ_CONCERN"`    // ReadConcern is one of local, majority, available, linearizable, snapshot.

	RetryWrites *bool `env:"MONGODB_RETRY_WRITES"` // RetryWrites lets the driver retry write operations once on transient errors.
	RetryReads  *bool `env:"MONGODB_RETRY_READS"`  // RetryReads lets the driver retry read operations once on transient errors.
}

// Validate checks the invariants that must hold before any network attempt.
// Authentication requires a target database: configuring User and Password
// without one returns ErrDatabaseRequired. A database named by either the
// Database field or the URL path satisfies the requirement. Host and port are
// intentionally not validated here; a malformed target is surfaced by the
// driver at connect time.
func (c Config) Validate() error {
	if c.User != "" && c.Password != "" && c.databaseName() == "" {
		return ErrDatabaseRequired
	}
	return nil
}

// databaseName is the database this connection operates on: the explicit
// Database field, or the path database of the URL when only a URL was given.
// The path is read with splitTarget so multi-host URLs resolve the same
// database the driver sees.
func (c Config) databaseName() string {
	if c.Database != "" {
		return c.Database
	}
	if c.URL == "" {
		return ""
	}
	path, _ := splitTarget(c.URL)
	name := strings.TrimPrefix(path, "/")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name
}

var dotenvLoaded sync.Once

// LoadConfig reads the connection configuration from MONGODB_* environment
// variables. A .env file in the working directory is loaded once per process
// if present; a missing file is not an error.
func LoadConfig() (Config, error) {
	dotenvLoaded.Do(func() {
		_ = godotenv.Load()
	})

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}
