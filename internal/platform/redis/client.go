// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides a managed client for volatile data storage.

The identity server keeps its short-lived, single-use secrets here: email
verification tokens and password recovery or approval tokens. Every entry
carries a TTL, so expired tokens disappear without a cleanup job.

Core Responsibilities:

  - Connection: Parses REDIS_URL and sizes the pool for the token stores.
  - Health: Exposes [Ping] for startup and the readiness probe.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Timeouts for token-store round trips. Every command is a single small key
// read or write, so anything slower than this is a sick server.
const (
	dialTimeout     = 3 * time.Second
	readTimeout     = time.Second
	writeTimeout    = time.Second
	poolTimeout     = 2 * time.Second
	pingTimeout     = 2 * time.Second
	connMaxIdleTime = 5 * time.Minute
)

// clientName is reported by CLIENT LIST.
const clientName = "yomira-auth"

// PoolOptions returns client options for redisURL with the pool sized for
// poolSize concurrent token operations.
//
// # Pool Sizing
//
// Consuming a token runs WATCH/MULTI/EXEC, which pins one connection for the
// whole transaction. Sign-up and resend bursts therefore need headroom beyond
// the request count, so a quarter of the pool is kept warm and half may idle.
// Network errors are retried; a WATCH conflict is not, the stores decide.
func PoolOptions(redisURL string, poolSize int) (*redis.Options, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	if poolSize <= 0 {
		return nil, fmt.Errorf("redis: pool size must be positive, got %d", poolSize)
	}

	options.ClientName = clientName
	options.PoolSize = poolSize
	options.MinIdleConns = max(1, poolSize/4)
	options.MaxIdleConns = max(options.MinIdleConns, poolSize/2)
	options.ConnMaxIdleTime = connMaxIdleTime
	options.PoolTimeout = poolTimeout
	options.MaxRetries = 2

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	return options, nil
}

// NewClient connects to Redis and verifies the connection with [Ping].
//
// # Parameters
//   - context: Context for the initial ping.
//   - redisURL: Redis connection URL.
//   - poolSize: Maximum number of open connections.
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, redisURL string, poolSize int, logger *slog.Logger) (*redis.Client, error) {
	options, err := PoolOptions(redisURL, poolSize)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)

	// Fail startup instead of the first sign-up
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
		slog.Int("min_idle", options.MinIdleConns),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
