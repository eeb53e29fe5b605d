// Package storage provides the namespace-scoped snapshot stores shared by the
// application and the widget host.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"lockscreen-todo/config"
)

// ErrStoreUnavailable is returned by Set when the namespace is not
// provisioned or the backend cannot be reached.
var ErrStoreUnavailable = errors.New("store unavailable")

// Store is a key-addressed store with atomic whole-value reads and writes.
// Get never returns a partially written value. Backend failures on Get are
// reported as absence.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool)
	Set(ctx context.Context, namespace, key string, value []byte) error
}

// Provisioner creates a namespace so that writes to it succeed.
type Provisioner interface {
	Provision(ctx context.Context, namespace string) error
}

// ProvisionedStore is implemented by every backend in this package. Close
// releases connections held by the backend.
type ProvisionedStore interface {
	Store
	Provisioner
	io.Closer
}

// Open builds the backend selected by cfg.
func Open(cfg config.Store, logger *log.Logger) (ProvisionedStore, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	switch cfg.Backend {
	case "file":
		return NewFile(cfg.Dir, logger), nil
	case "redis":
		return NewRedis(redisClient(cfg.RedisConn), logger), nil
	case "table":
		return NewTableFromConnectionString(cfg.TableConn, cfg.Table, logger)
	case "memory":
		m := NewMemory()
		if err := m.Provision(context.Background(), cfg.Namespace); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func unavailable(namespace, key string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: namespace %q key %q", ErrStoreUnavailable, namespace, key)
	}
	return fmt.Errorf("%w: namespace %q key %q: %v", ErrStoreUnavailable, namespace, key, err)
}
