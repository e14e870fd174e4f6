// Package web serves the robot dashboard API: status, traffic counters,
// mode switching, and websocket mirrors of telemetry and status.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/server"
	"github.com/teslashibe/go-rover/pkg/state"
)

// ModeSetter switches drive authority.
type ModeSetter interface {
	SetMode(m state.Mode) error
}

// ControlInfo describes the control channel.
type ControlInfo interface {
	Stats() server.StatsSnapshot
	Session() *server.Session
}

// Deps are the components the dashboard reads and drives.
type Deps struct {
	State   *state.Robot
	Modes   ModeSetter
	Control ControlInfo
	Camera  *camera.Manager // nil disables the camera endpoints
	Logger  *slog.Logger
}

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	addr string
	deps Deps
	log  *slog.Logger

	statusInterval time.Duration

	// Hubs for websocket broadcast
	telemetryHub *hub.Hub
	statusHub    *hub.Hub
}

// NewServer creates a dashboard listening on addr.
func NewServer(addr string, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		addr:           addr,
		deps:           deps,
		log:            log.With("component", "web"),
		statusInterval: 500 * time.Millisecond,
		telemetryHub:   hub.New("telemetry", log),
		statusHub:      hub.New("status", log),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Rover Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Get("/stats", s.handleStats)
	api.Post("/mode/:mode", s.handleSetMode)

	if deps.Camera != nil {
		api.Get("/camera", s.handleCameraConfig)
		api.Get("/camera/presets", s.handleCameraPresets)
		api.Post("/camera/preset/:name", s.handleCameraPreset)
		api.Post("/camera/quality/:q", s.handleCameraQuality)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App returns the fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Mirror forwards a control frame to telemetry subscribers. It has the
// signature of server.Config.Mirror.
func (s *Server) Mirror(frame []byte) {
	s.telemetryHub.BroadcastFrame(frame)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("dashboard listening", "addr", s.addr)

	go s.telemetryHub.Run(ctx)
	go s.statusHub.Run(ctx)
	go s.publishStatus(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.log.Warn("dashboard shutdown", "err", err)
		}
	}()

	return s.app.Listen(s.addr)
}

// publishStatus pushes a status document while anyone is listening.
func (s *Server) publishStatus(ctx context.Context) {
	ticker := time.NewTicker(s.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.statusHub.ClientCount() == 0 {
				continue
			}
			if err := s.statusHub.BroadcastJSON(s.status()); err != nil {
				s.log.Warn("status not broadcast", "err", err)
			}
		}
	}
}
