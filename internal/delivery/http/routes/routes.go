package routes

import (
	"skill-swap/internal/delivery/http/handler"
	"skill-swap/internal/delivery/http/middleware"
	"skill-swap/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	health *handler.HealthHandler
	swaps  *handler.SwapHandler
	socket *ws.Handler
	auth   *middleware.AuthMiddleware
}

func NewRegistry(health *handler.HealthHandler, swaps *handler.SwapHandler, socket *ws.Handler, auth *middleware.AuthMiddleware) *Registry {
	return &Registry{health: health, swaps: swaps, socket: socket, auth: auth}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.health != nil {
		r.health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	v1 := app.Group("/api").Group("/v1")

	// The socket authenticates itself so browsers can pass the token as a
	// query parameter.
	if r.socket != nil {
		v1.Get("/ws", r.socket.HandleSwapEvents)
	}

	protected := v1.Group("", r.auth.Middleware())
	r.swaps.RegisterRoutes(protected)
}
