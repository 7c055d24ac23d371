package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"directory-backend/internal/apperr"
	"directory-backend/internal/assets"
	"directory-backend/internal/audit"
	"directory-backend/internal/auth"
	"directory-backend/internal/branch"
	"directory-backend/internal/brand"
	"directory-backend/internal/config"
	"directory-backend/internal/currency"
	"directory-backend/internal/database"
	"directory-backend/internal/jobs"
	"directory-backend/internal/logger"
	"directory-backend/internal/metrics"
	"directory-backend/internal/middleware"
	"directory-backend/internal/reference"
	"directory-backend/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const imagesPrefix = "/images"

func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Log

	database.Init(cfg)
	defer database.Close()
	db := database.DB

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newAssetBackend(ctx, cfg)
	if err != nil {
		log.Fatal("image storage init failed", zap.Error(err))
	}
	images := assets.NewManager(backend, cfg.ImageMaxKB, logger.Named("assets"))

	authSvc := auth.NewService(db, cfg.JWTSecret, cfg.JWTTTL)
	userSvc := user.NewService(db, logger.Named("user"))
	brandSvc := brand.NewService(db, images, logger.Named("brand"))
	branchSvc := branch.NewService(db, images, logger.Named("branch"))
	refSvc := reference.NewService(db)
	currencySvc := currency.NewService(db, currency.NewClient(cfg.CurrencyAPIURL, cfg.CurrencyAppID), logger.Named("currency"))

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler(log),
		BodyLimit:    32 * 1024 * 1024,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(middleware.ZapLogger(logger.Named("http")))
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": false, "message": "database unavailable"})
		}
		return c.JSON(fiber.Map{"status": true, "message": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if local, ok := backend.(*assets.LocalBackend); ok {
		app.Static(imagesPrefix, local.Root())
	}

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(authSvc))
	api.Post("/auth/login", auth.LoginHandler(authSvc))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(authSvc))

	// Users
	protected.Get("/users", user.ListUsersHandler(userSvc))
	protected.Get("/user/:phone", user.GetUserByPhoneHandler(userSvc))
	protected.Put("/user/:id", user.UpdateUserHandler(userSvc))
	protected.Delete("/user/:id", user.DeleteUserHandler(userSvc))

	// Brands
	protected.Get("/brands", brand.ListBrandsHandler(brandSvc))
	protected.Post("/brand", brand.CreateBrandHandler(brandSvc))
	protected.Post("/brand/:id", brand.UpdateBrandHandler(brandSvc))
	protected.Delete("/brand/:id", brand.DeleteBrandHandler(brandSvc))

	// Branches
	protected.Get("/branches", branch.ListBranchesHandler(branchSvc))
	protected.Post("/branches/import", branch.ImportBranchesHandler(branchSvc))
	protected.Post("/branch", branch.CreateBranchHandler(branchSvc))
	protected.Post("/branch/:id", branch.UpdateBranchHandler(branchSvc))
	protected.Delete("/branch/:id", branch.DeleteBranchHandler(branchSvc))
	protected.Get("/branch/:region_id", branch.CountsByRegionHandler(branchSvc))
	protected.Get("/branch/:region_id/export", branch.ExportCountsHandler(branchSvc))

	// Reference data
	protected.Get("/regions", reference.ListRegionsHandler(refSvc))
	protected.Get("/districts", reference.ListDistrictsHandler(refSvc))
	protected.Post("/district", reference.CreateDistrictHandler(refSvc))
	protected.Get("/currencies", currency.ListCurrenciesHandler(currencySvc))

	// Audit
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	scheduler := jobs.NewScheduler(log, 30*time.Minute)
	if err := jobs.Register(scheduler, jobs.Registry(cfg, userSvc, currencySvc)); err != nil {
		log.Fatal("job registration failed", zap.Error(err))
	}
	scheduler.Start()

	go func() {
		addr := ":" + cfg.HTTPPort
		log.Info("server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
}

func newAssetBackend(ctx context.Context, cfg *config.Config) (assets.Backend, error) {
	if cfg.Storage.Enabled() {
		b, err := assets.NewS3Backend(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return assets.NewLocalBackend(cfg.ImageRoot, imagesPrefix), nil
}
