package app

import (
	"context"
	"fmt"
	"strings"

	"skill-swap/internal/config"
	"skill-swap/internal/delivery/http/handler"
	"skill-swap/internal/delivery/http/middleware"
	"skill-swap/internal/delivery/http/routes"
	"skill-swap/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP application on top of an initialised container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName: c.Config.App.AppName,
	})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container and the HTTP app. The returned cleanup
// releases the store and broker connections.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	ct, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return New(ct), ct.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	accessMw := middleware.NewAccessLogMiddleware(c.Logger)
	errMw := middleware.NewErrorMiddleware(c.Logger.Named("http"))
	app.Use(accessMw.Middleware())
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	checks := map[string]handler.Pinger{}
	if c.DB != nil {
		checks["postgres"] = c.DB
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}

	socket := ws.NewHandler(c.Hub, c.Tokens, ws.ClientOptions{
		SendBuffer: c.Config.WS.SendBuffer,
		PingPeriod: c.Config.WS.PingPeriod,
		WriteWait:  c.Config.WS.WriteWait,
	}, c.Logger.Named("ws"))

	routes.NewRegistry(
		handler.NewHealthHandler(checks),
		handler.NewSwapHandler(c.Lifecycle),
		socket,
		middleware.NewAuthMiddleware(c.Tokens),
	).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
