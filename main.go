package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"
	"go.uber.org/zap"

	"classroom_backend/internals/configs"
	database "classroom_backend/internals/databases"
	assignmentRepo "classroom_backend/internals/features/school/assignments/repository"
	"classroom_backend/internals/features/school/assignments/scheduler"
	helper "classroom_backend/internals/helpers"
	helperOSS "classroom_backend/internals/helpers/oss"
	middlewares "classroom_backend/internals/middlewares"
	routes "classroom_backend/internals/route"
	routeDetails "classroom_backend/internals/route/details"
)

// archive downloads stream their body; buffering middlewares must stay out of the way.
func isArchive(c *fiber.Ctx) bool {
	return strings.HasSuffix(c.Path(), "/archive")
}

func main() {
	configs.LoadEnv()
	lg := configs.NewLogger()
	defer func() { _ = lg.Sync() }()
	engine := configs.LoadEngineConfig()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		BodyLimit:               int(engine.MaxUploadSize) + 1<<20,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // narrow to the proxy CIDR in production
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.FromAppError(c, err)
		},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault, Next: isArchive}))
	app.Use(etag.New(etag.Config{Next: isArchive}))

	// 🔎 Request-ID + timing
	reqLog := lg.Named("http")
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		err := c.Next()
		reqLog.Debug("request",
			zap.String("reqid", id),
			zap.String("method", c.Method()),
			zap.String("url", c.OriginalURL()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("dur", time.Since(start)),
		)
		return err
	})

	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + schema
	database.ConnectDB(lg)
	database.TunePool()
	if err := database.Migrate(database.DB); err != nil {
		lg.Fatal("db migrate failed", zap.Error(err))
	}

	// 🗄️ object store
	var objects helperOSS.ObjectStore
	switch engine.ObjectStore {
	case "memory":
		lg.Warn("using in-memory object store, data is lost on restart")
		objects = helperOSS.NewMemoryStore()
	default:
		svc, err := helperOSS.NewOSSServiceFromEnv()
		if err != nil {
			lg.Fatal("oss init failed", zap.Error(err))
		}
		objects = svc
	}

	// ⏱ scheduler after DB is ready
	reaper := &scheduler.CleanupReaper{
		Store:   assignmentRepo.NewStore(database.DB),
		Objects: objects,
		Log:     lg.Named("reaper"),
		Batch:   engine.ReaperBatch,
	}
	cron, err := scheduler.StartCleanupReaperCron(reaper, engine.ReaperCron)
	if err != nil {
		lg.Fatal("cleanup reaper cron", zap.Error(err))
	}

	// ✅ Routes
	routes.SetupRoutes(app, routeDetails.SchoolDeps{
		DB:      database.DB,
		Objects: objects,
		Log:     lg,
		Engine:  engine,
	}, configs.JWTSecret)

	// 🔒 Keep-Alive & server timeouts. Writes stay unbounded so archive streams can finish.
	app.Server().ReadTimeout = 60 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		lg.Info("listening", zap.String("port", port))
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: http, cron, DB pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	select {
	case <-cron.Stop().Done():
	case <-ctx.Done():
		lg.Warn("cleanup reaper still running at shutdown")
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
