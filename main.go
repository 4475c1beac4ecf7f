package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations

	"github.com/veronikad26/chemical-equip-analyser/pkg/auth"
	"github.com/veronikad26/chemical-equip-analyser/pkg/blob"
	"github.com/veronikad26/chemical-equip-analyser/pkg/config"
	"github.com/veronikad26/chemical-equip-analyser/pkg/database"
	"github.com/veronikad26/chemical-equip-analyser/pkg/handlers"
	"github.com/veronikad26/chemical-equip-analyser/pkg/logging"
	"github.com/veronikad26/chemical-equip-analyser/pkg/middleware"
	"github.com/veronikad26/chemical-equip-analyser/pkg/repositories"
	"github.com/veronikad26/chemical-equip-analyser/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Migrations run through database/sql (required by golang-migrate).
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to open migration connection: %v", err)
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	_ = sqlDB.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	blobStore, err := blob.NewFilesystemStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)
	datasetRepo := repositories.NewDatasetRepository(db)

	authService := auth.NewService(userRepo, &cfg.Auth, logger)
	reportService := services.NewReportService(redisClient, logger)
	ingestionService := services.NewIngestionService(datasetRepo, blobStore, reportService, &cfg.Upload, logger)
	datasetService := services.NewDatasetService(datasetRepo, blobStore, reportService, logger)

	authMiddleware := auth.NewMiddleware(authService, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	authHandler := handlers.NewAuthHandler(authService, logger)
	authHandler.RegisterRoutes(mux)

	datasetHandler := handlers.NewDatasetHandler(
		ingestionService, datasetService, reportService,
		cfg.Upload.MaxBytes, cfg.Upload.RetainPerUser, logger)
	datasetHandler.RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Sugar().Infof("Starting chemical-equip-analyser on %s (version: %s)", addr, cfg.Version)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
