package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix         = "user:%d"
	ChannelStatsKeyPrefix = "channel:%d:stats"
	BlacklistKeyPrefix    = "blacklist:"
	WSTicketKeyPrefix     = "ws_ticket:"
)

const (
	UserTTL         = 5 * time.Minute
	ChannelStatsTTL = time.Minute
	WSTicketTTL     = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ChannelStatsKey(channelID uint) string {
	return fmt.Sprintf(ChannelStatsKeyPrefix, channelID)
}

// BlacklistKey is the key marking an access token id as revoked.
func BlacklistKey(jti string) string {
	return BlacklistKeyPrefix + jti
}

// WSTicketKey maps a single-use websocket ticket to a user id.
func WSTicketKey(ticket string) string {
	return WSTicketKeyPrefix + ticket
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateChannelStats(ctx context.Context, channelID uint) {
	Invalidate(ctx, ChannelStatsKey(channelID))
}
