package handlers

import (
	"github.com/gofiber/fiber/v3"

	"plan-kernel/internal/common/middleware"
	"plan-kernel/internal/kernel/service"
)

// Register вешает маршруты ядра на r. plans может быть nil (без БД).
func Register(r fiber.Router, k *service.Kernel, plans PlanStore, toolToken string) {
	tools := NewToolHandler(k)
	elements := NewElementHandler(k)

	// ============================================================
	// Tools
	// ============================================================

	r.Get("/tools", tools.List)
	r.Post("/tools/:name", middleware.ToolToken(toolToken), tools.Call)

	// ============================================================
	// Elements
	// ============================================================

	r.Get("/elements", elements.List)
	r.Get("/elements/:id", elements.Get)
	r.Post("/elements/:type", middleware.ToolToken(toolToken), elements.Create)
	r.Delete("/elements/:id", middleware.ToolToken(toolToken), elements.Delete)
	r.Get("/templates", elements.Templates)
	r.Get("/joinery/last", elements.LastPass)

	// ============================================================
	// Plans
	// ============================================================

	if plans == nil {
		return
	}
	p := NewPlanHandler(k, plans)
	r.Get("/plans", p.List)
	r.Post("/plans/:id", middleware.ToolToken(toolToken), p.Save)
	r.Get("/plans/:id", p.Load)
	r.Delete("/plans/:id", middleware.ToolToken(toolToken), p.Delete)
}
