// Package api exposes the daily-login engine over HTTP for the web
// dashboard: claim, status, reward-config management and the admin reset.
package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/config"
	"nomercy-bot/internal/features/dailylogin"
)

// Server is the JSON API server.
type Server struct {
	app          *fiber.App
	cfg          *config.Config
	dailyService *dailylogin.Service
}

// NewServer builds the fiber app and registers all routes.
func NewServer(cfg *config.Config, dailyService *dailylogin.Service) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "nomercy-api",
		DisableStartupMessage: true,
	})

	s := &Server{app: app, cfg: cfg, dailyService: dailyService}
	s.registerRoutes()
	return s
}

// Listen serves the API until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.cfg.HTTPPort)
	log.WithField("addr", addr).Info("HTTP API listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
