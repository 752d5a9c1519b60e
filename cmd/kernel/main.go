package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plan-kernel/internal/common/config"
	"plan-kernel/internal/common/middleware"
	chandlers "plan-kernel/internal/converter/handlers"
	"plan-kernel/internal/converter/mapper"
	"plan-kernel/internal/kernel/catalog"
	"plan-kernel/internal/kernel/handlers"
	"plan-kernel/internal/kernel/joinery"
	"plan-kernel/internal/kernel/metrics"
	"plan-kernel/internal/kernel/notify"
	"plan-kernel/internal/kernel/repository"
	"plan-kernel/internal/kernel/scheduler"
	"plan-kernel/internal/kernel/service"
	"plan-kernel/internal/kernel/store"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================
// Kernel Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3001"
	}

	cat := catalog.Default()
	if cfg.TemplatesPath != "" {
		loaded, err := catalog.LoadFile(cfg.TemplatesPath)
		if err != nil {
			log.Fatalf("load templates: %v", err)
		}
		cat = loaded
	}

	style, err := joinery.ParseStyle(cfg.JointStyle)
	if err != nil {
		log.Fatalf("joint style: %v", err)
	}

	reg := prometheus.NewRegistry()
	st := store.New(nil)
	kernel := service.New(st, cat, service.Options{
		Tolerance:      cfg.JoineryTolerance,
		Style:          style,
		OverlapEpsilon: cfg.OverlapEpsilon,
		Window:         cfg.SettleWindow,
		Metrics:        metrics.NewRecorder(reg),
	})

	// ============================================================
	// Geometry Backends
	// ============================================================

	scene := mapper.NewScene(0)
	st.Subscribe(store.NewBackendObserver(scene))

	if cfg.NATSURL != "" {
		pub, err := notify.Connect(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer pub.Close()
		st.Subscribe(store.NewBackendObserver(pub))
	}

	// ============================================================
	// Plan Storage
	// ============================================================

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	ticker, err := scheduler.NewTicker(kernel.Scheduler(), cfg.SettleInterval)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	ticker.Start()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Plan Kernel",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready", "pending": kernel.Scheduler().Pending()})
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.HTTPHandler(reg)))

	// ============================================================
	// Kernel Routes
	// ============================================================

	handlers.Register(app, kernel, repo, cfg.ToolToken)

	importer := mapper.NewImporter(kernel, mapper.ImportOptions{})
	app.Post("/convert", middleware.ToolToken(cfg.ToolToken), chandlers.NewConvertHandler(importer).ConvertSVG)
	app.Get("/render", chandlers.NewRenderHandler(scene).RenderSVG)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Plan Kernel on %s (env: %s)", addr, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Printf("Failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down Plan Kernel")

	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := ticker.Stop(); err != nil {
		log.Printf("scheduler stop: %v", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := kernel.Flush(flushCtx); err != nil {
		log.Printf("final joinery pass: %v", err)
	}
}
