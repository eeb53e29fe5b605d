package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"lockscreen-todo/config"
)

// namespacesKey holds the set of provisioned namespaces.
const namespacesKey = "namespaces"

// Redis stores snapshots as plain Redis strings. SET replaces the value
// atomically, so readers see either the previous or the next snapshot.
type Redis struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, logger *log.Logger) *Redis {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Redis{client: client, logger: logger}
}

func redisClient(conn string) *redis.Client {
	return redis.NewClient(config.RedisOptions(conn))
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Provision(ctx context.Context, namespace string) error {
	return r.client.SAdd(ctx, namespacesKey, namespace).Err()
}

func (r *Redis) provisioned(ctx context.Context, namespace string) (bool, error) {
	return r.client.SIsMember(ctx, namespacesKey, namespace).Result()
}

func (r *Redis) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	ok, err := r.provisioned(ctx, namespace)
	if err != nil {
		r.logger.WithError(err).WithField("namespace", namespace).Debug("snapshot namespace lookup failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	data, err := r.client.Get(ctx, snapshotKey(namespace, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.WithError(err).WithFields(log.Fields{"namespace": namespace, "key": key}).Debug("snapshot read failed")
		}
		return nil, false
	}
	return data, true
}

func (r *Redis) Set(ctx context.Context, namespace, key string, value []byte) error {
	ok, err := r.provisioned(ctx, namespace)
	if err != nil {
		return unavailable(namespace, key, err)
	}
	if !ok {
		return unavailable(namespace, key, nil)
	}
	if err := r.client.Set(ctx, snapshotKey(namespace, key), value, 0).Err(); err != nil {
		return unavailable(namespace, key, err)
	}
	return nil
}

func snapshotKey(namespace, key string) string {
	return namespace + ":" + key
}
