package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/mode"
	"github.com/teslashibe/go-rover/pkg/state"
)

// Status is the dashboard view of the robot.
type Status struct {
	state.Snapshot
	Connected bool   `json:"connected"`
	Session   string `json:"session,omitempty"`
	Remote    string `json:"remote,omitempty"`
}

func (s *Server) status() Status {
	st := Status{Snapshot: s.deps.State.Snapshot()}
	if sess := s.deps.Control.Session(); sess != nil {
		st.Connected = true
		st.Session = sess.ID.String()
		st.Remote = sess.Remote
	}
	return st
}

// handleHealth is a liveness probe
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns the current robot state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleStats returns control channel counters
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.deps.Control.Stats())
}

// handleSetMode switches mode, same as a MODE command
func (s *Server) handleSetMode(c *fiber.Ctx) error {
	m, err := state.ParseMode(c.Params("mode"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := s.deps.Modes.SetMode(m); err != nil {
		var ime *mode.InvalidModeError
		code := fiber.StatusInternalServerError
		if errors.As(err, &ime) {
			code = fiber.StatusBadRequest
		}
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.log.Info("mode set from dashboard", "mode", m.String())
	return c.JSON(fiber.Map{"mode": m.String()})
}

// handleTelemetryWS mirrors every frame sent to the control client
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	hub.NewClient(s.telemetryHub, c).Run()
}

// handleStatusWS sends the status immediately, then periodically
func (s *Server) handleStatusWS(c *websocket.Conn) {
	if err := c.WriteJSON(s.status()); err != nil {
		return
	}
	hub.NewClient(s.statusHub, c).Run()
}
