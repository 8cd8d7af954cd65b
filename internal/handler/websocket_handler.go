package handler

import (
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jeninefer/commercial-view/internal/websocket"
)

// JWTValidator validates JWT tokens and returns the token subject
type JWTValidator interface {
	ValidateToken(token string) (subject string, err error)
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	validator      JWTValidator
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		validator:      validator,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles WebSocket connection requests at GET /ws. Clients pick
// what they want to hear via the topic query parameter.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return NewUnauthorizedError(c, "Missing authentication token")
	}

	subject, err := h.validator.ValidateToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return NewUnauthorizedError(c, "Invalid authentication token")
	}

	topic := c.QueryParam("topic")
	switch topic {
	case "":
		topic = websocket.TopicAlerts
	case websocket.TopicAlerts, websocket.TopicSnapshots:
	default:
		return NewValidationError(c, "Unknown topic", nil)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, topic, h.hub)
	h.hub.Register(client)

	log.Info().
		Str("subject", subject).
		Str("topic", topic).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
