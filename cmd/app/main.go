package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/moolgranth/storefront/internal/account"
	"github.com/moolgranth/storefront/internal/admin"
	"github.com/moolgranth/storefront/internal/api"
	"github.com/moolgranth/storefront/internal/cart"
	"github.com/moolgranth/storefront/internal/catalog"
	"github.com/moolgranth/storefront/internal/checkout"
	"github.com/moolgranth/storefront/internal/config"
	"github.com/moolgranth/storefront/internal/contact"
	"github.com/moolgranth/storefront/internal/metrics"
	"github.com/moolgranth/storefront/internal/session"
	"github.com/moolgranth/storefront/internal/storage"
	"github.com/moolgranth/storefront/internal/store"
)

// main wires dependencies and starts the HTTP server.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	db, err := storage.OpenPebble(cfg.DataDir)
	if err != nil {
		logger.Fatal("opening local storage", zap.String("dir", cfg.DataDir), zap.Error(err))
	}
	defer db.Close()

	st := store.New(db, logger.Named("store"))
	m := metrics.NewRegistry()
	wireGauges(st, m)

	client := api.New(cfg.APIBase, logger.Named("api"))

	app := fiber.New()
	setupCORS(app)
	app.Use(requestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	catalog.NewHandler(catalog.NewCache(client, logger.Named("catalog")), logger.Named("catalog")).RegisterRoutes(app)
	cart.NewHandler(st, m, client, logger.Named("cart")).RegisterRoutes(app)
	checkout.NewHandler(st, m, logger.Named("checkout")).RegisterRoutes(app)
	session.NewHandler(st, client, cfg.AdminSecret, logger.Named("session")).RegisterRoutes(app)
	contact.NewHandler(client, logger.Named("contact")).RegisterRoutes(app)
	admin.NewHandler(st, m, logger.Named("admin")).RegisterRoutes(app)

	// account routes need a verified customer token
	app.Use("/api/account", jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))
	account.NewHandler(st, client, logger.Named("account")).RegisterProtectedRoutes(app)

	go func() {
		logger.Info("storefront listening", zap.String("addr", cfg.Addr))
		if err := app.Listen(cfg.Addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	_ = app.Shutdown()
}

// wireGauges keeps the metric gauges in step with the store via its
// subscription mechanism.
func wireGauges(st *store.Store, m *metrics.Registry) {
	st.Subscribe(func(ch store.Change) {
		switch ch {
		case store.ChangeCart:
			m.CartItems.Set(float64(len(st.Items())))
		case store.ChangeOrders:
			s := admin.Compute(st.Orders())
			m.Revenue.Set(float64(s.TotalRevenue))
			m.PendingOrders.Set(float64(s.Pending))
		}
	})
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}
