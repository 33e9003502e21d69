package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	PONG               = "PONG"
	RedisScanBatchSize = 1000

	RedisAddressOption  OptionKey = "redis-address-option"
	RedisPasswordOption OptionKey = "redis-password-option"
)

func init() {
	if err := RegisterStorage(Redis, func() ServiceStorage { return new(RedisDB) }); err != nil {
		panic(err)
	}
}

type RedisDB struct {
	db *goredislib.Client
}

func (b *RedisDB) Init(opts ...Option) error {
	var address, password string
	for _, opt := range opts {
		switch opt.ID {
		case RedisAddressOption:
			address, _ = opt.Option.(string)
		case RedisPasswordOption:
			password, _ = opt.Option.(string)
		}
	}
	if address == "" {
		return errors.New("redis address must not be empty")
	}

	b.db = goredislib.NewClient(&goredislib.Options{
		Addr:     address,
		Password: password,
	})
	if err := redisotel.InstrumentTracing(b.db); err != nil {
		return errors.Wrap(err, "instrumenting redis client")
	}
	return nil
}

func (b *RedisDB) URI() string {
	return b.db.Options().Addr
}

func (b *RedisDB) IsOpen() bool {
	pong, err := b.db.Ping(context.Background()).Result()
	if err != nil {
		logrus.WithError(err).Error("pinging redis")
		return false
	}
	return pong == PONG
}

func (b *RedisDB) Type() Type {
	return Redis
}

func (b *RedisDB) Close() error {
	return b.db.Close()
}

func (b *RedisDB) Write(ctx context.Context, namespace, key string, value []byte) error {
	// Zero expiration means the key has no expiration time.
	return b.db.Set(ctx, getRedisKey(namespace, key), value, 0).Err()
}

func (b *RedisDB) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	res, err := b.db.Get(ctx, getRedisKey(namespace, key)).Bytes()
	if errors.Is(err, goredislib.Nil) {
		return nil, nil
	}
	return res, err
}

func (b *RedisDB) ReadAll(ctx context.Context, namespace string) (map[string][]byte, error) {
	keys, err := readAllKeys(ctx, b, namespace)
	if err != nil {
		return nil, errors.Wrap(err, "read all keys error")
	}
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	values, err := b.db.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "getting multiple keys")
	}
	if len(keys) != len(values) {
		return nil, errors.New("key length does not match value length")
	}

	prefix := getRedisKey(namespace, "")
	for i, val := range values {
		s, ok := val.(string)
		if !ok {
			continue
		}
		result[strings.TrimPrefix(keys[i], prefix)] = []byte(s)
	}
	return result, nil
}

// TODO: page through keys with the cursor instead of collecting every key of the namespace in memory
func readAllKeys(ctx context.Context, b *RedisDB, namespace string) ([]string, error) {
	var cursor uint64
	allKeys := make([]string, 0)
	match := getRedisKey(namespace, "*")

	for {
		keys, nextCursor, err := b.db.Scan(ctx, cursor, match, RedisScanBatchSize).Result()
		if err != nil {
			return nil, errors.Wrap(err, "scan error")
		}
		allKeys = append(allKeys, keys...)
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return allKeys, nil
}

func (b *RedisDB) Delete(ctx context.Context, namespace, key string) error {
	return b.db.Del(ctx, getRedisKey(namespace, key)).Err()
}

func (b *RedisDB) DeleteNamespace(ctx context.Context, namespace string) error {
	keys, err := readAllKeys(ctx, b, namespace)
	if err != nil {
		return errors.Wrap(err, "read all keys")
	}
	if len(keys) == 0 {
		return fmt.Errorf("namespace<%s> does not exist", namespace)
	}
	return b.db.Del(ctx, keys...).Err()
}

func getRedisKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}
