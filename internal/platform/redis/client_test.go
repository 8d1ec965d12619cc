// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/taibuivan/yomira-auth/internal/platform/redis"
)

/*
TestPoolOptions derives idle limits from the pool size.
*/
func TestPoolOptions(t *testing.T) {
	tests := []struct {
		name     string
		poolSize int
		minIdle  int
		maxIdle  int
	}{
		{"default", 20, 5, 10},
		{"tiny", 1, 1, 1},
		{"small", 3, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := redisstore.PoolOptions("redis://localhost:6379/2", tt.poolSize)
			require.NoError(t, err)

			assert.Equal(t, tt.poolSize, options.PoolSize)
			assert.Equal(t, tt.minIdle, options.MinIdleConns)
			assert.Equal(t, tt.maxIdle, options.MaxIdleConns)
			assert.Equal(t, 2, options.DB)
			assert.Equal(t, "yomira-auth", options.ClientName)
		})
	}
}

/*
TestPoolOptions_Rejects covers malformed URLs and empty pools.
*/
func TestPoolOptions_Rejects(t *testing.T) {
	_, err := redisstore.PoolOptions("http://localhost:6379", 10)
	assert.ErrorContains(t, err, "invalid URL")

	_, err = redisstore.PoolOptions("redis://localhost:6379/0", 0)
	assert.ErrorContains(t, err, "pool size")
}

/*
TestNewClient connects, names the connection and answers Ping.
*/
func TestNewClient(t *testing.T) {
	server := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := redisstore.NewClient(context.Background(), "redis://"+server.Addr()+"/0", 4, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, redisstore.Ping(context.Background(), client))

	name, err := client.ClientGetName(context.Background()).Result()
	require.NoError(t, err)
	assert.Equal(t, "yomira-auth", name)

	// A stopped server fails the readiness check
	server.Close()
	assert.Error(t, redisstore.Ping(context.Background(), client))
}

/*
TestNewClient_Unreachable fails fast when nothing listens.
*/
func TestNewClient_Unreachable(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := redisstore.NewClient(context.Background(), "redis://"+addr+"/0", 4, logger)
	assert.ErrorContains(t, err, "ping failed")
}
