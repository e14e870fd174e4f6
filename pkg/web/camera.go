package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-rover/pkg/camera"
)

// handleCameraConfig returns the current capture settings
func (s *Server) handleCameraConfig(c *fiber.Ctx) error {
	return c.JSON(s.deps.Camera.GetConfig())
}

// handleCameraPresets lists the preset names
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"presets": camera.PresetNames()})
}

// handleCameraPreset applies a named preset
func (s *Server) handleCameraPreset(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.deps.Camera.ApplyPreset(name); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.log.Info("camera preset applied", "preset", name)
	return c.JSON(s.deps.Camera.GetConfig())
}

// handleCameraQuality sets the JPEG quality
func (s *Server) handleCameraQuality(c *fiber.Ctx) error {
	q, err := c.ParamsInt("q")
	if err == nil {
		err = s.deps.Camera.SetQuality(q)
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.deps.Camera.GetConfig())
}
