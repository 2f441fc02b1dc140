package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-catalog-api/internal/handler"
	"go-catalog-api/internal/repository"
	"go-catalog-api/internal/service"
	"go-catalog-api/internal/ws"
	"go-catalog-api/pkg/config"
	"go-catalog-api/pkg/database"
	"go-catalog-api/pkg/jwt"
	"go-catalog-api/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.LoadEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.Server.AppEnv, cfg.Logger)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer zl.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(zl.Named("ws"))
	go wsHub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	attributeRepo := repository.NewAttributeRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	itemRepo := repository.NewItemRepo(db)
	userRepo := repository.NewUserRepo(db)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	integrity := service.NewIntegrityCoordinator(db, attributeRepo, categoryRepo, itemRepo, cfg.Catalog.OrphanPolicy, zl.Named("integrity"))
	resolver := service.NewFilterResolver(categoryRepo, attributeRepo, itemRepo)

	services := handler.Services{
		Auth:      service.NewAuthService(userRepo, tokens),
		User:      service.NewUserService(userRepo, zl.Named("users")),
		Attribute: service.NewAttributeService(attributeRepo, categoryRepo, integrity, wsHub, zl.Named("attributes")),
		Category:  service.NewCategoryService(db, categoryRepo, attributeRepo, itemRepo, integrity, wsHub, zl.Named("categories")),
		Item:      service.NewItemService(db, itemRepo, categoryRepo, attributeRepo, resolver, wsHub, zl.Named("items")),
		Dashboard: service.NewDashboardService(categoryRepo, attributeRepo, itemRepo),
	}

	// 5. Seed default admin user
	if created, err := services.User.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		zl.Warn("failed to seed admin user", zap.Error(err))
	} else if created {
		zl.Info("default admin user created", zap.String("email", cfg.Admin.Email))
	}

	// 6. Setup Fiber and Routes
	app := handler.NewApp(services, handler.Options{
		Catalog:   cfg.Catalog,
		AccessLog: true,
		Hub:       wsHub,
	}, zl)

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zl.Panic("server stopped", zap.Error(err))
		}
	}()
	zl.Info("server started",
		zap.String("port", cfg.Server.Port),
		zap.String("orphan_policy", cfg.Catalog.OrphanPolicy),
	)

	<-ctx.Done()

	zl.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zl.Fatal("server forced to shutdown", zap.Error(err))
	}
	<-wsHub.Done()

	zl.Info("server exited")
}
