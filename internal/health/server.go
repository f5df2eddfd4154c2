// Package health exposes a small status server so operators can probe
// a scheduled miner between runs.
package health

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

// Server serves GET /health and GET /status.
type Server struct {
	app    *fiber.App
	status *Status
}

func NewServer(status *Status) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})
	app.Use(recover.New())

	s := &Server{app: app, status: status}
	app.Get("/health", s.handleHealth)
	app.Get("/status", s.handleStatus)
	return s
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(s.status.View())
}

// Start listens on the given port and blocks until shutdown.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("addr", addr).Msg("status server listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
