// Package config reads process configuration from the environment.
package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultNamespace       = "group.com.example.lockscreentodo"
	DefaultKey             = "todos"
	DefaultRefreshInterval = 900 * time.Second
	DefaultIdempotencyTTL  = 24 * time.Hour
	DefaultListenAddr      = ":8080"
)

// Store selects and configures the snapshot store backend.
type Store struct {
	Backend   string
	Namespace string
	Key       string
	// Dir is the root directory of the file backend.
	Dir string
	// RedisConn is either a redis:// URL or host:port,password=..,ssl=true.
	RedisConn string
	// TableConn and Table configure the Azure Table backend.
	TableConn string
	Table     string
}

// Config holds settings shared by the application and the widget host.
type Config struct {
	Debug           bool
	Store           Store
	RefreshInterval time.Duration
	ListenAddr      string
	IdempotencyTTL  time.Duration
	AuthSecret      string
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	cfg := Config{
		Store: Store{
			Backend:   envOr("STORE_BACKEND", "file"),
			Namespace: envOr("STORE_NAMESPACE", DefaultNamespace),
			Key:       envOr("STORE_KEY", DefaultKey),
			Dir:       os.Getenv("STORE_DIR"),
			RedisConn: os.Getenv("REDIS_CONNECTION_STRING"),
			TableConn: os.Getenv("STORAGE_CONNECTION_STRING"),
			Table:     envOr("SNAPSHOT_TABLE", "snapshots"),
		},
		RefreshInterval: DefaultRefreshInterval,
		ListenAddr:      DefaultListenAddr,
		IdempotencyTTL:  DefaultIdempotencyTTL,
		AuthSecret:      os.Getenv("LOCAL_AUTH_SHARED_SECRET"),
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		cfg.Debug = true
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid REFRESH_INTERVAL %q", v)
		}
		cfg.RefreshInterval = d
	}
	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid IDEMPOTENCY_TTL %q", v)
		}
		cfg.IdempotencyTTL = d
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		cfg.ListenAddr = ":" + v
	}

	switch cfg.Store.Backend {
	case "file":
		if cfg.Store.Dir == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return Config{}, fmt.Errorf("resolve STORE_DIR: %w", err)
			}
			cfg.Store.Dir = dir
		}
	case "redis":
		if cfg.Store.RedisConn == "" {
			return Config{}, fmt.Errorf("missing redis config")
		}
	case "table":
		if cfg.Store.TableConn == "" {
			return Config{}, fmt.Errorf("missing storage config")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	return cfg, nil
}

// RedisOptions parses a Redis URL, falling back to the
// "host:port,password=...,ssl=true" connection string form.
func RedisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
