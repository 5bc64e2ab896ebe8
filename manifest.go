package mongokit

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gopkg.in/yaml.v3"
)

// Manifest declares collections and their indexes in a reviewable YAML file,
// so provisioning runs as one step at deploy time instead of being scattered
// across call sites.
//
//	collections:
//	  - name: orders
//	    indexes:
//	      - keys:
//	          - field: sku
//	            order: 1
//	        unique: true
//	      - keys:
//	          - field: created_at
//	            order: -1
//	        expire_after_seconds: 2592000
type Manifest struct {
	Collections []CollectionManifest `yaml:"collections"`
}

// CollectionManifest declares one collection and its indexes.
type CollectionManifest struct {
	Name    string          `yaml:"name"`
	Indexes []IndexManifest `yaml:"indexes,omitempty"`
}

// IndexManifest declares a single index. Key order is significant for
// compound indexes, so keys are a list rather than a map.
type IndexManifest struct {
	Keys               []IndexKey     `yaml:"keys"`
	Name               string         `yaml:"name,omitempty"`
	Unique             bool           `yaml:"unique,omitempty"`
	Sparse             bool           `yaml:"sparse,omitempty"`
	ExpireAfterSeconds *int32         `yaml:"expire_after_seconds,omitempty"`
	PartialFilter      map[string]any `yaml:"partial_filter,omitempty"`
}

// IndexKey is one field of an index definition. Order is 1 (ascending),
// -1 (descending), or a named index type such as "text" or "2dsphere";
// omitted means ascending.
type IndexKey struct {
	Field string `yaml:"field"`
	Order any    `yaml:"order,omitempty"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, errors.Join(ErrInvalidManifest, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses and validates manifest YAML.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Join(ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks that every collection is named exactly once and every index
// has well-formed keys.
func (m Manifest) Validate() error {
	if len(m.Collections) == 0 {
		return fmt.Errorf("%w: no collections declared", ErrInvalidManifest)
	}

	seen := make(map[string]struct{}, len(m.Collections))
	for _, coll := range m.Collections {
		if coll.Name == "" {
			return fmt.Errorf("%w: collection with empty name", ErrInvalidManifest)
		}
		if _, dup := seen[coll.Name]; dup {
			return fmt.Errorf("%w: duplicate collection %q", ErrInvalidManifest, coll.Name)
		}
		seen[coll.Name] = struct{}{}

		for i, idx := range coll.Indexes {
			if len(idx.Keys) == 0 {
				return fmt.Errorf("%w: collection %q index %d has no keys", ErrInvalidManifest, coll.Name, i)
			}
			for _, key := range idx.Keys {
				if key.Field == "" {
					return fmt.Errorf("%w: collection %q index %d has a key without a field", ErrInvalidManifest, coll.Name, i)
				}
				if err := validateIndexOrder(key.Order); err != nil {
					return fmt.Errorf("%w: collection %q index %d field %q: %w", ErrInvalidManifest, coll.Name, i, key.Field, err)
				}
			}
		}
	}
	return nil
}

func validateIndexOrder(order any) error {
	switch v := order.(type) {
	case nil:
		return nil
	case int:
		if v != 1 && v != -1 {
			return fmt.Errorf("numeric order must be 1 or -1, got %d", v)
		}
		return nil
	case string:
		if v == "" {
			return errors.New("named order must not be empty")
		}
		return nil
	default:
		return fmt.Errorf("unsupported order type %T", order)
	}
}

// Model converts the declaration into the driver's index model.
func (im IndexManifest) Model() mongo.IndexModel {
	keys := make(bson.D, 0, len(im.Keys))
	for _, key := range im.Keys {
		order := key.Order
		if order == nil {
			order = 1
		}
		keys = append(keys, bson.E{Key: key.Field, Value: order})
	}

	opts := options.Index()
	if im.Name != "" {
		opts.SetName(im.Name)
	}
	if im.Unique {
		opts.SetUnique(true)
	}
	if im.Sparse {
		opts.SetSparse(true)
	}
	if im.ExpireAfterSeconds != nil {
		opts.SetExpireAfterSeconds(*im.ExpireAfterSeconds)
	}
	if len(im.PartialFilter) > 0 {
		opts.SetPartialFilterExpression(im.PartialFilter)
	}
	return mongo.IndexModel{Keys: keys, Options: opts}
}

// Models converts every index declaration of the collection.
func (cm CollectionManifest) Models() []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(cm.Indexes))
	for _, idx := range cm.Indexes {
		models = append(models, idx.Model())
	}
	return models
}

// namespaceExistsCode is the server error code returned when creating a
// collection that already exists.
const namespaceExistsCode = 48

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode
}

// Provision applies the manifest to the connection's database: every declared
// collection is created if missing and its indexes are ensured. Collections
// that already exist are provisioned in place, so a manifest can be re-applied
// on every deploy. The first failure aborts the run.
func (c *Connection) Provision(ctx context.Context, m Manifest) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if c.db == nil {
		return ErrDatabaseRequired
	}

	for _, coll := range m.Collections {
		if err := c.deps.createCollection(ctx, c.db, coll.Name); err != nil && !isNamespaceExists(err) {
			return errors.Join(ErrCreateCollection, err)
		}
		if err := c.EnsureIndexes(ctx, coll.Name, coll.Models()); err != nil {
			return err
		}
	}
	return nil
}
