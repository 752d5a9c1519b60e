package main

import (
	"fmt"
	"log"
	"time"

	"plan-kernel/internal/common/config"
	"plan-kernel/internal/common/middleware"
	"plan-kernel/internal/gateway/handlers"
	"plan-kernel/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "API Gateway",
	})

	kernel := proxy.New(cfg.KernelURL, time.Duration(cfg.WriteTimeout)*time.Second)

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(kernel))
	app.Get("/health/startup", handlers.StartupProbe)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Plan Kernel API v1",
			"status":  "ok",
		})
	})

	// Агентские инструменты: /api/tools/wall.create → /tools/wall.create
	app.Get("/api/tools", kernel.To("/tools"))
	app.Post("/api/tools/:name", func(c fiber.Ctx) error {
		return kernel.To("/tools/" + c.Params("name"))(c)
	})

	// Остальное уходит в ядро без префикса
	api.All("/*", kernel.Strip("/api/v1"))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying /api/v1 to %s", cfg.KernelURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
