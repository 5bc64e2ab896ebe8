// Package mongokit establishes and manages a single logical MongoDB
// connection and provisions per-collection secondary indexes.
//
// The package translates a flat configuration record into a connection target
// and a normalized driver option set, correctly deriving authentication, TLS,
// replica-set, and pooling parameters from overlapping sources: discrete
// fields on one hand, an embedded connection string on the other. After a
// collection is created, every index it declares is ensured before the
// collection is considered ready.
//
// Key features:
//   - One configuration record whose fields map 1:1 to documented driver options
//   - Connection-string construction from discrete host/port/credential fields
//   - URL query options (ssl, authSource, replicaSet, ...) win over discrete fields
//   - TLS material loaded from files: CA bundle, client cert, encrypted PKCS#8
//     key, cipher suite names, certificate revocation list
//   - Concurrent index provisioning with first-error-wins semantics
//   - Declarative YAML manifests for deploy-time collection provisioning
//   - Prometheus pool metrics and health check integration
//   - Error types compatible with errors.Is() for clean error handling
//
// # Usage
//
//	import (
//		"context"
//		"log"
//
//		"github.com/dmitrymomot/mongokit"
//		"go.mongodb.org/mongo-driver/v2/bson"
//		"go.mongodb.org/mongo-driver/v2/mongo"
//		"go.mongodb.org/mongo-driver/v2/mongo/options"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		cfg, err := mongokit.LoadConfig()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		conn, err := mongokit.Connect(ctx, cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer conn.Close(ctx)
//
//		orders, err := conn.CreateCollection(ctx, "orders", mongokit.CollectionSpec{
//			Indexes: []mongo.IndexModel{
//				{
//					Keys:    bson.D{{Key: "sku", Value: 1}},
//					Options: options.Index().SetUnique(true),
//				},
//			},
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = orders
//
//		// Wire health check
//		health := mongokit.Healthcheck(conn)
//		if err := health(ctx); err != nil {
//			log.Println("mongo is unavailable:", err)
//		}
//	}
//
// # Configuration
//
// Configuration is environment-driven through MONGODB_* variables (see
// LoadConfig), or a Config can be populated directly. Either MONGODB_URL
// carries a complete connection string, or the discrete host, port, user,
// password, and database fields are used to build one. When both are present
// the URL wins, and options encoded in its query string override the discrete
// fields. Credentials require a target database; this is validated before any
// network attempt.
//
// # Provisioning
//
// Collections and their indexes can be declared in a YAML manifest and
// applied in one step with Connection.Provision, which tolerates collections
// that already exist so the manifest can be re-applied on every deploy:
//
//	manifest, err := mongokit.LoadManifest("collections.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := conn.Provision(ctx, manifest); err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// Failures are joined with sentinel errors (ErrConnectFailed,
// ErrDatabaseRequired, ErrEnsureIndexes, ...) so application code can match
// them with errors.Is while the underlying driver error stays available
// through errors.As. Nothing is retried and nothing is logged on the error
// path; callers own retry and reporting policy.
//
// # See Also
//
// Documentation for the official driver: https://pkg.go.dev/go.mongodb.org/mongo-driver/v2.
package mongokit
