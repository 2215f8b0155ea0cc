package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Password string
}

// Store wraps one Redis logical database.
type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

// Connect opens a client for the given database and pings it. An error
// means Redis is offline and the caller should fall back to memory.
func Connect(ctx context.Context, opts Options, dbType int) (*Store, error) {
	addr := opts.Addr
	if addr == "" {
		addr = config.RedisAddr
	}
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              opts.Password,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	logger := logger_i.NewLogger("redis_store").With("db", dbType)
	pingCtx, cancel := context.WithTimeout(ctx, config.RedisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Warn("Redis is offline", "addr", addr, "error", err)
		return nil, fmt.Errorf("redis %s db %d offline: %w", addr, dbType, err)
	}

	logger.Info("Redis store connected", "addr", addr)
	return &Store{client: client, Type: dbType, logger: logger}, nil
}

// NewStore wraps an existing client, as used by tests against miniredis.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, logger: logger_i.NewLogger("redis_store")}
}

func (s *Store) Close() error {
	s.logger.Info("Closing Redis store")
	return s.client.Close()
}
