package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/Gichie/CloudFileStorage/internal/auth"
	blobS3 "github.com/Gichie/CloudFileStorage/internal/blob/s3"
	"github.com/Gichie/CloudFileStorage/internal/config"
	"github.com/Gichie/CloudFileStorage/internal/handler"
	"github.com/Gichie/CloudFileStorage/internal/middleware"
	"github.com/Gichie/CloudFileStorage/internal/repository/postgres"
	postgresStorage "github.com/Gichie/CloudFileStorage/internal/repository/postgres/storage"
	serviceStorage "github.com/Gichie/CloudFileStorage/internal/service/storage"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create S3 client and blob store
	s3Client, err := blobS3.NewClient(ctx, blobS3.ClientConfig{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	blobStore, err := blobS3.New(ctx, blobS3.Config{
		Client:    s3Client,
		Bucket:    cfg.S3Bucket,
		KeyPrefix: cfg.S3KeyPrefix,
	})
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}

	logger.Info("object store connected", "bucket", cfg.S3Bucket)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgresStorage.NewNodeRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create services
	pathResolver := serviceStorage.NewPathResolver(nodeRepo)
	treeService := serviceStorage.NewTreeService(nodeRepo, blobStore, pathResolver, txManager, logger)
	uploadService := serviceStorage.NewUploadService(nodeRepo, blobStore, serviceStorage.UploadLimits{
		MaxFiles:     cfg.MaxUploadFiles,
		MaxBatchSize: cfg.MaxUploadBatchSize,
		MaxFileSize:  cfg.MaxUploadFileSize,
	}, logger)
	downloadService := serviceStorage.NewDownloadService(nodeRepo, blobStore, logger)
	searchService := serviceStorage.NewSearchService(nodeRepo, logger)

	// Create handlers
	folderHandler := handler.NewFolderHandler(treeService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)
	downloadHandler := handler.NewDownloadHandler(treeService, downloadService, logger)
	searchHandler := handler.NewSearchHandler(searchService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", folderHandler.HealthCheck)

	// Node routes
	mux.HandleFunc("GET /api/nodes", folderHandler.ListNodes)
	mux.HandleFunc("PATCH /api/nodes/{id}", folderHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", folderHandler.DeleteNode)

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("GET /api/folders/{id}/download", downloadHandler.DownloadArchive)

	// File routes
	mux.HandleFunc("GET /api/files/{id}/download", downloadHandler.DownloadFile)

	// Upload routes
	mux.HandleFunc("POST /api/uploads", uploadHandler.Upload)

	// Search routes
	mux.HandleFunc("GET /api/search", searchHandler.Search)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.AuthMiddleware(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-running upload/archive streams
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
