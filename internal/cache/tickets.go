package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTicketsUnavailable is returned when tickets are requested without Redis.
var ErrTicketsUnavailable = errors.New("websocket tickets require redis")

// WSTickets issues short-lived single-use tickets that let a browser open a
// websocket without putting its access token in the URL.
type WSTickets struct{}

func NewWSTickets() *WSTickets {
	return &WSTickets{}
}

// Issue stores a new ticket for userID and returns it.
func (t *WSTickets) Issue(ctx context.Context, userID uint) (string, error) {
	if client == nil {
		return "", ErrTicketsUnavailable
	}
	ticket := uuid.NewString()
	if err := client.Set(ctx, WSTicketKey(ticket), userID, WSTicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// Redeem consumes ticket and returns the user it was issued to. Unknown,
// expired and already used tickets all return ok=false.
func (t *WSTickets) Redeem(ctx context.Context, ticket string) (uint, bool, error) {
	if client == nil || ticket == "" {
		return 0, false, nil
	}
	raw, err := client.GetDel(ctx, WSTicketKey(ticket)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false, nil
	}
	return uint(id), true, nil
}
