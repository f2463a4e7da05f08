package httpapi

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"hrassist/internal/domain"
)

// Asker answers a single question. Satisfied by the ask use case.
type Asker interface {
	Ask(ctx context.Context, question string) domain.Answer
}

// Server exposes the assistant over HTTP.
type Server struct {
	app    *fiber.App
	asker  Asker
	logger *zap.Logger
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer   string   `json:"answer"`
	Fallback bool     `json:"fallback"`
	Model    string   `json:"model,omitempty"`
	Sources  []string `json:"sources,omitempty"`
}

func NewServer(asker Asker, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:    app,
		asker:  asker,
		logger: logger,
	}

	app.Get("/healthz", s.handleHealth)
	app.Post("/ask", s.handleAsk)

	return s
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	answer := s.asker.Ask(c.UserContext(), question)

	s.logger.Info("question answered",
		zap.Bool("fallback", answer.Fallback),
		zap.String("model", answer.Model),
		zap.Int("question_len", len(question)),
	)

	return c.JSON(askResponse{
		Answer:   answer.Text,
		Fallback: answer.Fallback,
		Model:    answer.Model,
		Sources:  answer.Sources,
	})
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
