// Package web serves the stateless request/response surface: image
// narration, grounded questions, speaker segmentation, health, metrics and a
// live websocket feed of alerts.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-wayfinder/internal/observe"
	"github.com/teslashibe/go-wayfinder/pkg/alert"
	"github.com/teslashibe/go-wayfinder/pkg/detection"
	"github.com/teslashibe/go-wayfinder/pkg/hub"
	"github.com/teslashibe/go-wayfinder/pkg/narration"
	"github.com/teslashibe/go-wayfinder/pkg/speaker"
)

// recentLimit bounds the in-memory alert history.
const recentLimit = 100

// Deps are the collaborators a Server needs. Detector, Gateway and Analyzer
// are required.
type Deps struct {
	Detector detection.Detector
	Gateway  *narration.Gateway
	Analyzer *speaker.Analyzer

	// Throttle gates /detect narration when non-nil and enabled. The
	// request/response surface narrates every request by default.
	Throttle *alert.Throttle

	// Alerts receives every narration; nil disables /ws/alerts.
	Alerts *hub.Hub

	Metrics *observe.Metrics
	Logger  *slog.Logger

	// MaxUploadMB caps request bodies. Zero means 25.
	MaxUploadMB int
}

// Server is the HTTP API.
type Server struct {
	app    *fiber.App
	deps   Deps
	logger *slog.Logger

	recent   []hub.Event
	recentMu sync.RWMutex
}

// New builds the fiber app and registers all routes.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxUploadMB <= 0 {
		deps.MaxUploadMB = 25
	}

	s := &Server{
		deps:   deps,
		logger: deps.Logger.With("component", "web"),
		recent: make([]hub.Event, 0, recentLimit),
	}

	app := fiber.New(fiber.Config{
		AppName:               "wayfinder",
		DisableStartupMessage: true,
		BodyLimit:             deps.MaxUploadMB << 20,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New())
	app.Use(s.observeRequests)

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Post("/detect", s.handleDetect)
	app.Post("/ask", s.handleAsk)
	app.Post("/audio", s.handleAudio)
	app.Get("/alerts", s.handleRecentAlerts)
	app.Get("/throttle", s.handleGetThrottle)
	app.Put("/throttle", s.handleSetThrottle)

	if deps.Alerts != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/alerts", websocket.New(s.handleAlertsWS))
	}

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// publish records ev in the recent history and pushes it to listeners.
func (s *Server) publish(ev hub.Event) {
	s.recentMu.Lock()
	s.recent = append(s.recent, ev)
	if len(s.recent) > recentLimit {
		s.recent = s.recent[1:]
	}
	s.recentMu.Unlock()

	if s.deps.Alerts != nil {
		if err := s.deps.Alerts.Publish(ev); err != nil {
			s.logger.Warn("publish failed", "error", err)
		}
	}
}

func (s *Server) observeRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
	}
	path := c.Route().Path
	s.deps.Metrics.RecordHTTP(c.UserContext(), c.Method(), path, status, time.Since(start))
	s.logger.Debug("request", "method", c.Method(), "path", path, "status", status,
		"request_id", requestID(c), "elapsed", time.Since(start))
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "request_id", requestID(c), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return string(c.Response().Header.Peek(fiber.HeaderXRequestID))
}
