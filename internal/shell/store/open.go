package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Supported backends.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Config selects and configures a backend.
type Config struct {
	Driver string
	DSN    string // SQLite only
	Redis  RedisConfig
}

// Open creates the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return NewSQLiteStore(cfg.DSN)
	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s, err := NewRedisStore(ctx, rdb, WithKeyPrefix(cfg.Redis.KeyPrefix))
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
