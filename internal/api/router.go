// router.go - Gin engine and route table

package api

import (
	"context"
	"strings"
	"time"

	"github.com/bosocmputer/fleet_capture_ocr/internal/ai"
	"github.com/bosocmputer/fleet_capture_ocr/internal/form"
	"github.com/bosocmputer/fleet_capture_ocr/internal/processor"
	"github.com/bosocmputer/fleet_capture_ocr/internal/submission"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Submitter sends a km report to the back office. *submission.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req submission.SubmitRequest) error
}

// Deps are the collaborators a Server needs
type Deps struct {
	Extractor         *ai.Extractor
	Parser            *ai.DocumentParser
	Schema            ai.FieldSchema
	Repository        form.Repository
	Submitter         Submitter
	DefaultCredential string        // used when a request carries no Authorization header
	RequestTimeout    time.Duration // bound on one capture; 0 means 60s
	MaxUploadBytes    int64         // multipart upload limit; 0 means 10 MB
	Preprocess        *processor.PreprocessOptions
}

// Server holds the handlers' state
type Server struct {
	Deps
	guard *form.Guard
}

// NewServer creates a Server
func NewServer(deps Deps) *Server {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 60 * time.Second
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 10 << 20
	}
	if len(deps.Schema.Fields) == 0 {
		deps.Schema = ai.DeliveryDocumentSchema()
	}
	return &Server{Deps: deps, guard: form.NewGuard()}
}

// NewRouter builds the gin engine with CORS and every route registered
func NewRouter(s *Server, allowedOrigins string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = s.MaxUploadBytes

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        24 * time.Hour,
	}
	if allowedOrigins == "" || allowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", s.HealthHandler)

	v1 := router.Group("/api/v1")
	v1.POST("/extract", s.ExtractHandler)
	v1.POST("/documents/parse", s.ParseDocumentHandler)
	v1.POST("/submit-km", s.SubmitKmHandler)

	records := v1.Group("/records")
	records.POST("", s.CreateRecordHandler)
	records.GET("/:id", s.GetRecordHandler)
	records.PATCH("/:id", s.UpdateRecordHandler)
	records.POST("/:id/extract", s.ExtractIntoRecordHandler)
	records.POST("/:id/parse", s.ParseIntoRecordHandler)
	records.POST("/:id/submit", s.SubmitRecordHandler)

	return router
}
