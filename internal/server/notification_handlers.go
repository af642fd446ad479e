package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vidtube/internal/cache"
	"vidtube/internal/middleware"
	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	notificationPingInterval = 25 * time.Second
	notificationWriteTimeout = 10 * time.Second
)

// IssueNotificationTicket handles POST /api/v1/notifications/ticket
// @Summary Issue a websocket ticket
// @Description Returns a single-use ticket, valid for 30 seconds, for opening the notification socket.
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.APIResponse{data=object{ticket=string}}
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /notifications/ticket [post]
func (s *Server) IssueNotificationTicket(c *fiber.Ctx) error {
	ticket, err := s.wsTickets.Issue(c.UserContext(), middleware.CurrentUserID(c))
	if errors.Is(err, cache.ErrTicketsUnavailable) {
		return models.NewUnavailableError("Notifications are unavailable")
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{"ticket": ticket}, "Ticket issued")
}

// requireWSTicket redeems the ticket query parameter and stores its user id
// for the socket handler. Browsers cannot set headers on a websocket
// handshake, so access tokens are never accepted here.
func (s *Server) requireWSTicket() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, ok, err := s.wsTickets.Redeem(c.UserContext(), c.Query("ticket"))
		if err != nil {
			return models.NewInternalError(err)
		}
		if !ok {
			return models.NewUnauthenticatedError("Invalid or expired websocket ticket")
		}
		c.Locals(middleware.LocalUserID, userID)
		return c.Next()
	}
}

// NotificationSocket handles GET /api/v1/notifications/ws
// @Summary Activity notifications socket
// @Description Streams JSON events for new subscribers, comments and likes on the caller's content, and videos published by channels the caller follows. Open with ?ticket= from POST /notifications/ticket.
// @Tags notifications
// @Param ticket query string true "Single-use ticket"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /notifications/ws [get]
func (s *Server) NotificationSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userID, _ := conn.Locals(middleware.LocalUserID).(uint)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		channels, err := s.subscriptionService.ListSubscribedChannels(ctx, userID)
		if err != nil {
			middleware.Logger.Warn("notification socket: load subscriptions failed",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			_ = conn.Close()
			return
		}
		followed := make([]uint, 0, len(channels))
		for _, ch := range channels {
			followed = append(followed, ch.ID)
		}

		events, err := s.notifier.Subscribe(ctx, userID, followed)
		if err != nil {
			middleware.Logger.Warn("notification socket: subscribe failed",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			_ = conn.Close()
			return
		}

		// The client never sends anything we act on; reading only detects close.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := writeSocketJSON(conn, fiber.Map{"type": "ready", "userId": userID}); err != nil {
			return
		}

		ticker := time.NewTicker(notificationPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				if err := writeSocketJSON(conn, e); err != nil {
					middleware.Logger.Debug("notification socket closed",
						slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
					return
				}
			case <-ticker.C:
				deadline := time.Now().Add(notificationWriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	})
}

func writeSocketJSON(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(notificationWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
