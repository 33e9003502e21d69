package storage

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type (
	Type      string
	OptionKey string
)

const (
	Bolt        Type = "bolt"
	Redis       Type = "redis"
	DatabaseSQL Type = "postgres"
	Memory      Type = "memory"
)

// Option is a provider specific setting handed to ServiceStorage.Init.
type Option struct {
	ID     OptionKey `json:"id,omitempty"`
	Option any       `json:"option,omitempty"`
}

// ServiceStorage describes the api for storage independent of DB providers
type ServiceStorage interface {
	Init(opts ...Option) error
	Type() Type
	URI() string
	IsOpen() bool
	Close() error
	Write(ctx context.Context, namespace, key string, value []byte) error
	// Read returns nil without error when the key does not exist.
	Read(ctx context.Context, namespace, key string) ([]byte, error)
	ReadAll(ctx context.Context, namespace string) (map[string][]byte, error)
	Delete(ctx context.Context, namespace, key string) error
	DeleteNamespace(ctx context.Context, namespace string) error
}

var availableStorages = make(map[Type]func() ServiceStorage)

// RegisterStorage makes a provider available to NewStorage. Each type may register once.
func RegisterStorage(t Type, factory func() ServiceStorage) error {
	if _, ok := availableStorages[t]; ok {
		return errors.Errorf("storage type<%s> already registered", t)
	}
	availableStorages[t] = factory
	return nil
}

// IsStorageAvailable reports whether a provider of type t is registered.
func IsStorageAvailable(t Type) bool {
	_, ok := availableStorages[t]
	return ok
}

// NewStorage creates and initializes a registered storage provider.
func NewStorage(t Type, opts ...Option) (ServiceStorage, error) {
	factory, ok := availableStorages[t]
	if !ok {
		return nil, errors.Errorf("unsupported storage type: %s", t)
	}
	s := factory()
	if err := s.Init(opts...); err != nil {
		return nil, errors.Wrapf(err, "initializing %s storage", t)
	}
	return s, nil
}

// WaitUntilOpen polls s once per interval until it reports open or retries are exhausted.
func WaitUntilOpen(s ServiceStorage, interval time.Duration, retries uint64) error {
	return backoff.Retry(func() error {
		if s.IsOpen() {
			return nil
		}
		logrus.Debugf("storage<%s> at %s not ready yet", s.Type(), s.URI())
		return errors.Errorf("storage<%s> is not open", s.Type())
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), retries))
}

// MakeNamespace takes a set of possible namespace values and combines them as a convention
func MakeNamespace(ns ...string) string {
	return strings.Join(ns, "-")
}
