package cache

import (
	"context"
	"time"
)

// TokenBlacklist records revoked access token ids until they would have
// expired anyway. With Redis disabled nothing is revoked.
type TokenBlacklist struct{}

// NewTokenBlacklist returns a blacklist backed by the package client.
func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{}
}

// Revoke blacklists jti for ttl. Non-positive ttls are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti was blacklisted.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
