package credential

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/brianorwhatever/sign-and-verify/pkg/storage"
)

// Store providers selectable through StoreConfig.Provider.
const (
	FixtureProvider  = "fixture"
	MemoryProvider   = "memory"
	BoltProvider     = "bolt"
	RedisProvider    = "redis"
	PostgresProvider = "postgres"
	MongoProvider    = "mongo"
)

// RecordStore resolves credential records. Open scopes a handle to one credential type.
type RecordStore interface {
	Open(ctx context.Context, credentialType string) (RecordHandle, error)
	// Close releases the store itself; handles must be closed first.
	Close() error
}

// RecordHandle is an open view of the records of one credential type.
type RecordHandle interface {
	// Query returns the record for key, or nil without error when there is none.
	Query(ctx context.Context, key string) (*Record, error)
	Close(ctx context.Context) error
}

// StoreConfig selects and configures the RecordStore implementation.
type StoreConfig struct {
	Provider            string `toml:"provider" conf:"default:fixture"`
	FixtureFile         string `toml:"fixture_file"`
	BoltFile            string `toml:"bolt_file" conf:"default:records.db"`
	RedisAddress        string `toml:"redis_address" conf:"default:localhost:6379"`
	RedisPassword       string `toml:"redis_password" conf:"noprint"`
	SQLConnectionString string `toml:"sql_connection_string" conf:"noprint"`
	MongoURI            string `toml:"mongo_uri" conf:"noprint"`
	MongoDatabase       string `toml:"mongo_database" conf:"default:mitdcc"`
	MongoCollection     string `toml:"mongo_collection" conf:"default:Credential"`
	WaitRetries         int    `toml:"wait_retries" conf:"default:10"`
}

// Validate checks that the provider is known.
func (c StoreConfig) Validate() error {
	switch c.Provider {
	case FixtureProvider, MemoryProvider, BoltProvider, RedisProvider, PostgresProvider, MongoProvider:
		return nil
	default:
		return errors.Errorf("unknown record store provider<%s>", c.Provider)
	}
}

// KeyValueOptions returns the storage type and options for key/value providers.
func (c StoreConfig) KeyValueOptions() (storage.Type, []storage.Option, error) {
	switch c.Provider {
	case MemoryProvider:
		return storage.Memory, nil, nil
	case BoltProvider:
		return storage.Bolt, []storage.Option{{ID: storage.BoltDBFilePathOption, Option: c.BoltFile}}, nil
	case RedisProvider:
		return storage.Redis, []storage.Option{
			{ID: storage.RedisAddressOption, Option: c.RedisAddress},
			{ID: storage.RedisPasswordOption, Option: c.RedisPassword},
		}, nil
	case PostgresProvider:
		return storage.DatabaseSQL, []storage.Option{{ID: storage.SQLConnectionString, Option: c.SQLConnectionString}}, nil
	default:
		return "", nil, errors.Errorf("record store provider<%s> is not key/value backed", c.Provider)
	}
}

// NewRecordStore builds the RecordStore named by cfg.Provider.
func NewRecordStore(ctx context.Context, cfg StoreConfig) (RecordStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logrus.WithField("provider", cfg.Provider).Info("creating record store")

	switch cfg.Provider {
	case FixtureProvider:
		if cfg.FixtureFile == "" {
			return NewDemoFixtureStore(), nil
		}
		records, err := LoadFixtureFile(cfg.FixtureFile)
		if err != nil {
			return nil, err
		}
		return NewFixtureStore(records), nil
	case MongoProvider:
		return NewMongoStore(ctx, MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	}

	t, opts, err := cfg.KeyValueOptions()
	if err != nil {
		return nil, err
	}
	db, err := storage.NewStorage(t, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating record storage")
	}
	if err = storage.WaitUntilOpen(db, time.Second, uint64(cfg.WaitRetries)); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "waiting for %s storage", t)
	}
	return NewKeyValueStore(db), nil
}
