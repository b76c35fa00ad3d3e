// main.go - The entry point and server wiring.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bosocmputer/fleet_capture_ocr/configs"
	"github.com/bosocmputer/fleet_capture_ocr/internal/ai"
	"github.com/bosocmputer/fleet_capture_ocr/internal/api"
	"github.com/bosocmputer/fleet_capture_ocr/internal/form"
	"github.com/bosocmputer/fleet_capture_ocr/internal/processor"
	"github.com/bosocmputer/fleet_capture_ocr/internal/ratelimit"
	"github.com/bosocmputer/fleet_capture_ocr/internal/storage"
	"github.com/bosocmputer/fleet_capture_ocr/internal/submission"
	"github.com/gin-gonic/gin"
)

func main() {
	// Step 0: Load configuration from environment variables
	configs.LoadConfig()

	if ginMode := os.Getenv("GIN_MODE"); ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Step 1: Completion provider and rate limit
	provider, err := ai.CreateProvider(ai.ProviderConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to create completion provider: %v", err)
	}
	ratelimit.Configure(configs.RATE_LIMIT_PER_MINUTE)

	extractOpts := ai.ExtractOptionsFromConfig()
	extractOpts.Limiter = ratelimit.Global()
	documentOpts := ai.DocumentOptionsFromConfig()
	documentOpts.Limiter = ratelimit.Global()

	// Step 2: Document schema
	schema := ai.DeliveryDocumentSchema()
	if configs.DOCUMENT_SCHEMA_FILE != "" {
		schema, err = ai.LoadSchemaFile(configs.DOCUMENT_SCHEMA_FILE)
		if err != nil {
			log.Fatalf("Failed to load document schema: %v", err)
		}
		log.Printf("Loaded document schema %q with %d fields", schema.Document, len(schema.Fields))
	}

	// Step 3: Record storage
	var repo form.Repository
	switch configs.STORAGE_BACKEND {
	case "mongodb":
		if err := storage.InitMongoDB(); err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer storage.CloseMongoDB()

		mongoRepo := storage.NewMongoRepository(storage.GetMongoDB())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			log.Printf("⚠️  Failed to create indexes: %v", err)
		}
		cancel()
		repo = mongoRepo
	default:
		log.Println("Using in-memory record storage")
		repo = storage.NewMemoryRepository()
	}

	var preprocess *processor.PreprocessOptions
	if configs.ENABLE_IMAGE_PREPROCESSING {
		preprocess = &processor.PreprocessOptions{
			MaxDimension: configs.MAX_IMAGE_DIMENSION,
			Enhance:      true,
		}
	}

	server := api.NewServer(api.Deps{
		Extractor:         ai.NewExtractor(provider, extractOpts),
		Parser:            ai.NewDocumentParser(provider, documentOpts),
		Schema:            schema,
		Repository:        repo,
		Submitter:         submission.NewClient(configs.SUBMISSION_URL),
		DefaultCredential: ai.DefaultCredential(),
		RequestTimeout:    time.Duration(configs.REQUEST_TIMEOUT_SECONDS) * time.Second,
		MaxUploadBytes:    int64(configs.MAX_UPLOAD_MB) << 20,
		Preprocess:        preprocess,
	})

	// Step 4: Router and HTTP server with timeouts
	router := api.NewRouter(server, configs.ALLOWED_ORIGINS)

	srv := &http.Server{
		Addr:           ":" + configs.PORT,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   time.Duration(configs.REQUEST_TIMEOUT_SECONDS+30) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Starting server on :%s (provider: %s)", configs.PORT, provider.GetProviderName())
		log.Println("API Endpoints:")
		log.Println("  POST /api/v1/extract")
		log.Println("  POST /api/v1/documents/parse")
		log.Println("  POST /api/v1/submit-km")
		log.Println("  POST /api/v1/records, GET|PATCH /api/v1/records/:id")
		log.Println("  POST /api/v1/records/:id/{extract,parse,submit}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
