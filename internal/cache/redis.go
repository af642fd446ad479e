// Package cache holds the process-wide Redis client and the helpers built on
// it. Every helper treats a missing client as a cache that always misses.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vidtube/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

var client *redis.Client

// errorCounter feeds vidtube_redis_errors_total. Misses are not errors.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(command string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		middleware.RedisErrors.WithLabelValues(command).Inc()
	}
}

// clientOptions accepts a redis:// or rediss:// URL, or a bare host:port.
func clientOptions(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("no redis address")
	}
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

// Connect dials addr, installs the client for the package helpers and
// returns it. It returns nil, leaving the cache disabled, when addr is
// unusable or the server does not answer a ping.
func Connect(ctx context.Context, addr string) *redis.Client {
	opts, err := clientOptions(addr)
	if err != nil {
		middleware.Logger.Warn("redis disabled", slog.String("error", err.Error()))
		SetClient(nil)
		return nil
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		middleware.Logger.Warn("redis unreachable, running without it",
			slog.String("addr", opts.Addr), slog.String("error", err.Error()))
		_ = rdb.Close()
		SetClient(nil)
		return nil
	}

	middleware.Logger.Info("redis connected", slog.String("addr", opts.Addr))
	SetClient(rdb)
	return rdb
}

// SetClient installs c for the package helpers. Tests point it at miniredis.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}
