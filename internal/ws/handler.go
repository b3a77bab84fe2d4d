package ws

import (
	"net/http"
	"strings"

	jwtpkg "skill-swap/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (jwtpkg.Claims, error)
}

type Handler struct {
	hub      *Hub
	tokens   TokenValidator
	opts     ClientOptions
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, tokens TokenValidator, opts ClientOptions, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		opts:   opts.withDefaults(),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleSwapEvents mounts the socket endpoint on a fiber route.
func (h *Handler) HandleSwapEvents(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}
	return adaptor.HTTPHandler(h)(c)
}

// ServeHTTP authenticates before upgrading so a rejected client gets a plain
// 401 instead of a socket that is immediately closed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" || h.tokens == nil {
		http.Error(w, "missing access token", http.StatusUnauthorized)
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil || claims.TokenType != jwtpkg.TokenTypeAccess {
		http.Error(w, "invalid access token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, claims.UserID, h.opts, h.logger)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
