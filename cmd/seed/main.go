package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	blobS3 "github.com/Gichie/CloudFileStorage/internal/blob/s3"
	"github.com/Gichie/CloudFileStorage/internal/config"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
	"github.com/Gichie/CloudFileStorage/internal/repository/postgres"
	postgresStorage "github.com/Gichie/CloudFileStorage/internal/repository/postgres/storage"
	serviceStorage "github.com/Gichie/CloudFileStorage/internal/service/storage"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	clearData := flag.Bool("clear-data", false, "Clear all nodes for the seed user (keep schema)")
	seedUserID := flag.String("user", "", "Owner ID to seed demo data under")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	// Exit early if schema-only mode
	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *seedUserID == "" {
		log.Fatalf("--user is required unless --schema-only is set")
	}

	// Exit early if clear-data mode (just clear and exit)
	if *clearData {
		log.Printf("🧹 Clearing nodes for user %s...", *seedUserID)
		if err := clearUserData(ctx, pool, tables, *seedUserID); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Create S3 client and blob store (seeded files carry real bytes)
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

	// Create repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgresStorage.NewNodeRepository(repoConfig)
	uploadService := serviceStorage.NewUploadService(nodeRepo, blobStore, serviceStorage.DefaultUploadLimits(), logger)

	// Clear existing data first so reseeding is deterministic
	log.Println("⚠️  Clearing existing nodes...")
	if err := clearUserData(ctx, pool, tables, *seedUserID); err != nil {
		log.Printf("Warning: Could not clear data: %v", err)
	}

	// Seed a demo tree through the service layer so folder chains, storage
	// keys, and blobs are created exactly as they would be by the API.
	log.Println("📝 Seeding demo files...")
	items := getSeedItems()
	result, err := uploadService.Ingest(ctx, &storageSvc.UploadBatchRequest{
		OwnerID: *seedUserID,
		Items:   items,
	})
	if err != nil {
		log.Fatalf("Failed to seed files: %v", err)
	}

	for i, r := range result.Results {
		if r.Status == storageSvc.UploadStatusSuccess {
			log.Printf("✅ Created file %d/%d: %s (ID: %s)", i+1, len(result.Results), r.RelativePath, r.ID)
		} else {
			log.Printf("❌ Failed to create '%s': %s", r.RelativePath, r.Error)
		}
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Create nodes table. Sibling uniqueness treats NULL parent_id (root) as
	// a single location, hence NULLS NOT DISTINCT (PostgreSQL 15+).
	createNodes := `
		CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			parent_id UUID REFERENCES ` + tables.Nodes + `(id),
			node_type TEXT NOT NULL CHECK (node_type IN ('file', 'directory')),
			name TEXT NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			storage_key TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE NULLS NOT DISTINCT (owner_id, parent_id, name)
		)
	`
	if _, err := pool.Exec(ctx, createNodes); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `nodes_owner_parent ON ` + tables.Nodes + `(owner_id, parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `nodes_parent ON ` + tables.Nodes + `(parent_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	dropSQL := "DROP TABLE IF EXISTS " + tables.Nodes + " CASCADE"
	if _, err := pool.Exec(ctx, dropSQL); err != nil {
		return err
	}
	log.Printf("  ✓ Dropped %s", tables.Nodes)
	return nil
}

// clearUserData clears all nodes owned by a user. The self-referencing
// foreign key means children must go before parents, so deletion walks the
// tree bottom-up in one statement.
func clearUserData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, ownerID string) error {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id, 0 AS depth FROM ` + tables.Nodes + ` WHERE owner_id = $1 AND parent_id IS NULL
			UNION ALL
			SELECT n.id, s.depth + 1 FROM ` + tables.Nodes + ` n
			JOIN subtree s ON n.parent_id = s.id
		)
		DELETE FROM ` + tables.Nodes + ` WHERE id IN (
			SELECT id FROM subtree ORDER BY depth DESC
		)
	`
	_, err := pool.Exec(ctx, query, ownerID)
	return err
}

func getSeedItems() []storageSvc.UploadItem {
	files := []struct {
		path        string
		contentType string
		content     string
	}{
		{
			path:        "Documents/welcome.txt",
			contentType: "text/plain",
			content:     "Welcome to your cloud storage.\n\nUpload files, organize them into folders, and download whole folders as zip archives.\n",
		},
		{
			path:        "Documents/Reports/q1-summary.md",
			contentType: "text/markdown",
			content:     "# Q1 Summary\n\n- Revenue up 12%\n- Churn down 3%\n- Two new regions launched\n",
		},
		{
			path:        "Documents/Reports/q2-summary.md",
			contentType: "text/markdown",
			content:     "# Q2 Summary\n\n- Revenue up 8%\n- Hiring freeze lifted\n",
		},
		{
			path:        "Photos/notes.txt",
			contentType: "text/plain",
			content:     "Drop vacation photos here.\n",
		},
		{
			path:        "readme.txt",
			contentType: "text/plain",
			content:     "Root-level files live alongside your folders.\n",
		},
	}

	items := make([]storageSvc.UploadItem, 0, len(files))
	for _, f := range files {
		items = append(items, storageSvc.UploadItem{
			RelativePath: f.path,
			Size:         int64(len(f.content)),
			ContentType:  f.contentType,
			Content:      strings.NewReader(f.content),
		})
	}
	return items
}
