package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messenger-service/internal/middleware"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/realtime"
)

// Handler upgrades realtime connections and feeds inbound events to the
// router.
type Handler struct {
	hub      *Hub
	router   *realtime.Router
	verifier *middleware.TokenVerifier
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, router *realtime.Router, verifier *middleware.TokenVerifier) *Handler {
	return &Handler{hub: hub, router: router, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, binds the authenticated identity and runs
// the read/write pumps until the peer goes away.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	client := newClient(userID, conn, info)

	observability.IncWSActive("realtime")
	observability.IncWSEvent("realtime", "ws_connect")
	publishLifecycle(ctx, info, "ws_connect", "")

	go client.writePump()
	go func() {
		reason := client.readPump(func(event models.ClientEvent) {
			h.router.Dispatch(context.Background(), client, event)
		})
		h.router.Disconnect(client)
		observability.DecWSActive("realtime")
		observability.IncWSEvent("realtime", "ws_disconnect")
		publishLifecycle(ctx, info, "ws_disconnect", reason)
		if reason != "" {
			observability.IncWSEvent("realtime", "ws_error")
			publishLifecycle(ctx, info, "ws_error", reason)
		}
	}()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

func publishLifecycle(ctx context.Context, info ConnInfo, event string, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "realtime",
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.realtime", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
