package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cafe-inventory/internal/cache"
	"cafe-inventory/internal/config"
	"cafe-inventory/internal/handler"
	"cafe-inventory/internal/metrics"
	"cafe-inventory/internal/middleware"
	"cafe-inventory/internal/repository"
	"cafe-inventory/internal/scheduler"
	"cafe-inventory/internal/service"
	"cafe-inventory/internal/ws"
	"cafe-inventory/pkg/database"
	"cafe-inventory/pkg/jwt"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// 2. Setup Database
	db, err := database.Open(database.Options{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DSN(),
		LogLevel: cfg.DB.LogLevel,
	})
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// 3. Setup WebSocket Hub and metrics
	wsHub := ws.NewHub()
	go wsHub.Run()
	defer wsHub.Close()

	metrics.Init()

	// 4. Optional dashboard cache
	var dashCache service.DashboardCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Warn("redis unreachable, dashboard cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			dashCache = cache.NewDashboardCache(rdb, cfg.Redis.TTL)
			slog.Info("dashboard cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
		}
	}

	// 5. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)

	invService := service.NewInventoryService(db, productRepo, txRepo, wsHub, dashCache)
	dashService := service.NewDashboardService(db, productRepo, txRepo, dashCache)
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(userService, tokens)

	if err := seedAdmin(userRepo, userService, cfg); err != nil {
		slog.Warn("failed to seed admin user", "error", err)
	}

	// 6. Low stock scan
	sched, err := scheduler.Start(scheduler.NewLowStockScanner(dashService, wsHub), cfg.Inventory.LowStockScanInterval)
	if err != nil {
		return err
	}
	defer sched.Stop()

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS
	app.Use(middleware.Prometheus())

	handler.RegisterRoutes(app, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Inventory: handler.NewInventoryHandler(invService),
		User:      handler.NewUserHandler(userService),
		Dashboard: handler.NewDashboardHandler(dashService),
	}, middleware.RequireAuth(tokens, userRepo))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Join(c) {
			return
		}
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(fmt.Sprintf(":%d", cfg.App.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}

// seedAdmin creates the configured admin account when the directory is empty.
func seedAdmin(userRepo repository.UserRepository, users service.UserService, cfg *config.Config) error {
	ctx := context.Background()

	count, err := userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = users.CreateUser(ctx, &service.CreateUserRequest{
		Username:    cfg.Seed.AdminUsername,
		Password:    cfg.Seed.AdminPassword,
		Position:    "Administrator",
		IDNumber:    "ADMIN-001",
		PhoneNumber: "-",
	}, "system")
	if errors.Is(err, service.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("admin user created", "username", cfg.Seed.AdminUsername)
	return nil
}
