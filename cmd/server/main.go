package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flyerkit/backend/config"
	httpDelivery "github.com/flyerkit/backend/internal/delivery/http"
	"github.com/flyerkit/backend/internal/domain"
	"github.com/flyerkit/backend/internal/infrastructure/cache"
	"github.com/flyerkit/backend/internal/infrastructure/filestore"
	"github.com/flyerkit/backend/internal/infrastructure/render"
	"github.com/flyerkit/backend/internal/infrastructure/sqlite"
	"github.com/flyerkit/backend/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting FlyerKit Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	ctx := context.Background()

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache(cache.DefaultCleanupInterval)
	defer memoryCache.Close()
	log.Printf("Draft TTL: %s", cfg.Drafts.TTL)

	store, err := sqlite.NewStore(ctx, cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("Database: %s", cfg.Database.Path)

	var (
		files      domain.FileStorage
		storageDir string
	)
	switch cfg.Storage.Type {
	case "gcs":
		gcs, err := filestore.NewGCSStorage(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSCredentialsFile)
		if err != nil {
			log.Fatalf("Failed to initialize GCS storage: %v", err)
		}
		defer gcs.Close()
		files = gcs
		log.Printf("Storage: gcs bucket %s", cfg.Storage.GCSBucket)
	default:
		local, err := filestore.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicURLPrefix)
		if err != nil {
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
		files = local
		storageDir = local.BaseDir()
		log.Printf("Storage: local dir %s served at %s", cfg.Storage.LocalDir, cfg.Storage.PublicURLPrefix)
	}

	renderer := render.NewRenderer(
		render.NewChromeRasterizer(cfg.Render.ChromePath, cfg.Render.Timeout),
		files,
		render.Config{
			ChunkSize:      cfg.Render.ChunkSize,
			Width:          cfg.Render.Width,
			Height:         cfg.Render.Height,
			Scale:          cfg.Render.Scale,
			Currency:       cfg.Render.Currency,
			AssetBaseURL:   cfg.Render.AssetBaseURL,
			MaxConcurrency: cfg.Render.MaxConcurrency,
		},
	)
	log.Printf("Render: %s, %d items per flyer, %dx%d@%.0fx, up to %d browsers",
		cfg.Render.ChromePath,
		cfg.Render.ChunkSize,
		cfg.Render.Width,
		cfg.Render.Height,
		cfg.Render.Scale,
		cfg.Render.MaxConcurrency)

	// Initialize usecase layer
	campaignService := usecase.NewCampaignService(
		memoryCache,
		store,
		store,
		store,
		renderer,
		usecase.CampaignServiceConfig{
			DraftTTL:           cfg.Drafts.TTL,
			MaxMatchDistance:   cfg.Matching.MaxDistance,
			EnableDebugLogging: cfg.Server.Environment == "development",
		},
	)
	catalogService := usecase.NewCatalogService(store, store)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(campaignService, catalogService, files)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, storageDir)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
