package handlers

import (
	"strconv"

	"plan-kernel/internal/converter/mapper"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Render Handler
// ============================================================

type RenderHandler struct {
	scene *mapper.Scene
}

func NewRenderHandler(scene *mapper.Scene) *RenderHandler {
	return &RenderHandler{scene: scene}
}

// RenderSVG отдает текущий план ядра в SVG.
func (h *RenderHandler) RenderSVG(c fiber.Ctx) error {
	c.Set("Content-Type", "image/svg+xml")
	c.Set("X-Scene-Revision", strconv.Itoa(h.scene.Revision()))
	return c.SendString(h.scene.Render())
}
