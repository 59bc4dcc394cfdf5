package websocket

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/askwhyharsh/deskfinder/internal/directory"
	"github.com/askwhyharsh/deskfinder/internal/ratelimit"
	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
)

// SessionValidator checks a session before the connection is upgraded.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string) error
}

type Handler struct {
	hub         *Hub
	sessions    SessionValidator
	controller  *directory.Controller
	rateLimiter ratelimit.RateLimiter
	logger      logger.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(
	hub *Hub,
	sessions SessionValidator,
	controller *directory.Controller,
	rateLimiter ratelimit.RateLimiter,
	log logger.Logger,
	allowedOrigins []string,
) *Handler {
	return &Handler{
		hub:         hub,
		sessions:    sessions,
		controller:  controller,
		rateLimiter: rateLimiter,
		logger:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// GET /ws
func (h *Handler) HandleWebSocket(c *gin.Context) {
	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}

	if err := h.sessions.ValidateSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(apperrors.StatusFor(err), gin.H{
			"success": false,
			"error":   gin.H{"message": "invalid session", "code": apperrors.Code(err)},
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "session_id", sessionID, "error", err)
		return
	}

	client := NewClient(h.hub, conn, sessionID, h, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}

// handleMessage runs each action on its own goroutine so a slow fetch never
// blocks the read loop. Ordering between actions is settled by the
// controller, which drops superseded results.
func (h *Handler) handleMessage(client *Client, msg *IncomingMessage) {
	switch msg.Type {
	case MessageTypePing:
		client.enqueue(NewPongMessage())

	case MessageTypeLocate:
		if msg.Report == nil {
			client.SendError("report required", "INVALID_REQUEST")
			return
		}
		report := *msg.Report
		h.dispatch(client, func(ctx context.Context) (*Message, error) {
			result, err := h.controller.Start(ctx, client.sessionID, report)
			if err != nil {
				return nil, err
			}
			if result.Alert != "" {
				client.enqueue(NewAlertMessage(result.Alert))
			}
			return NewRenderMessage(result), nil
		})

	case MessageTypeSearch:
		query := msg.Query
		h.dispatch(client, func(ctx context.Context) (*Message, error) {
			if err := h.allow(ctx, h.rateLimiter.AllowSearch, client.sessionID); err != nil {
				return nil, err
			}
			result, err := h.controller.Search(ctx, client.sessionID, query)
			if err != nil {
				return nil, err
			}
			return NewRenderMessage(result), nil
		})

	case MessageTypeFilter:
		criteria := msg.Filter
		h.dispatch(client, func(ctx context.Context) (*Message, error) {
			result, err := h.controller.Filter(ctx, client.sessionID, criteria)
			if err != nil {
				return nil, err
			}
			return NewRenderMessage(result), nil
		})

	case MessageTypeDirections:
		if msg.Destination == nil {
			client.SendError("destination required", "INVALID_REQUEST")
			return
		}
		destination, origin := *msg.Destination, msg.Origin
		h.dispatch(client, func(ctx context.Context) (*Message, error) {
			if err := h.allow(ctx, h.rateLimiter.AllowDirections, client.sessionID); err != nil {
				return nil, err
			}
			route, err := h.controller.Directions(ctx, client.sessionID, destination, origin)
			if err != nil {
				return nil, err
			}
			return NewRouteMessage(route), nil
		})

	default:
		client.SendError(apperrors.ErrInvalidMessageType.Error(), "INVALID_MESSAGE_TYPE")
	}
}

func (h *Handler) dispatch(client *Client, action func(ctx context.Context) (*Message, error)) {
	go func() {
		msg, err := action(client.Context())
		if err != nil {
			h.sendFailure(client, err)
			return
		}
		client.enqueue(msg)
	}()
}

// sendFailure turns an action error into what the client sees. AppErrors
// carry an alert for the user; superseded results are dropped silently.
func (h *Handler) sendFailure(client *Client, err error) {
	if errors.Is(err, apperrors.ErrSuperseded) || errors.Is(err, context.Canceled) {
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		client.enqueue(NewAlertMessage(appErr.Error()))
		return
	}

	message := err.Error()
	if apperrors.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error("Websocket action failed", "session_id", client.sessionID, "error", err)
		message = "Internal server error"
	}
	client.SendError(message, apperrors.Code(err))
}

func (h *Handler) allow(ctx context.Context, check func(context.Context, string) (bool, error), sessionID string) error {
	allowed, err := check(ctx, sessionID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.ErrRateLimitExceeded
	}
	return nil
}
