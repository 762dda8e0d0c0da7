package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/canvass-labs/canvass-engine/pkg/analysis"
	"github.com/canvass-labs/canvass-engine/pkg/cache"
	"github.com/canvass-labs/canvass-engine/pkg/config"
	"github.com/canvass-labs/canvass-engine/pkg/database"
	"github.com/canvass-labs/canvass-engine/pkg/handlers"
	"github.com/canvass-labs/canvass-engine/pkg/llm"
	"github.com/canvass-labs/canvass-engine/pkg/logging"
	"github.com/canvass-labs/canvass-engine/pkg/middleware"
	"github.com/canvass-labs/canvass-engine/pkg/preview"
	"github.com/canvass-labs/canvass-engine/pkg/repositories"
	"github.com/canvass-labs/canvass-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Float64("similarity_threshold", cfg.Search.SimilarityThreshold))

	ctx := context.Background()

	// Migrations run over database/sql; the pgx pool connects after so the
	// vector types exist before registration.
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	taxonomyRepo := repositories.NewTaxonomyRepository(db)
	documentRepo := repositories.NewDocumentRepository(db)
	associationRepo := repositories.NewAssociationRepository(db)

	// Shared TTL cache: Redis when configured, in-process otherwise.
	var ttlCache cache.Cache
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process cache", zap.Error(err))
	}
	if redisClient != nil {
		ttlCache = cache.NewRedis(redisClient, "canvass", logger)
		logger.Info("Using Redis cache", zap.String("host", cfg.Redis.Host))
	} else {
		memCache := cache.NewMemory(4096)
		memCache.StartCleanup(time.Minute)
		defer memCache.StopCleanup()
		ttlCache = memCache
	}

	embedder, err := llm.NewClient(&llm.Config{
		Endpoint:   cfg.Embedding.Endpoint,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create embedding client", zap.Error(err))
	}

	// Services
	resolver := services.NewTermResolver(taxonomyRepo, logger)
	classifier := services.NewClassifier(resolver, associationRepo, cfg.Search.MaxAssociations, logger)
	expander := services.NewQueryExpander(taxonomyRepo, ttlCache, cfg.Search.ExpansionCacheTTL(), logger)
	retriever := services.NewHybridRetriever(documentRepo, embedder, cfg.Search.SimilarityThreshold, logger)
	facetService := services.NewFacetService(associationRepo, ttlCache, cfg.Search.FacetCacheTTL(), logger)
	searchService := services.NewSearchService(expander, retriever, facetService, associationRepo, preview.Unavailable{}, &cfg.Search, logger)

	var extractor analysis.CandidateExtractor
	if cfg.Analysis.IsAvailable() {
		extractor, err = analysis.NewExtractor(&analysis.Config{
			APIKey: cfg.Analysis.APIKey,
			Model:  cfg.Analysis.Model,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create candidate extractor", zap.Error(err))
		}
	} else {
		logger.Warn("Analysis collaborator not configured; document analysis disabled")
		extractor = analysis.Unavailable{}
	}

	documentService := services.NewDocumentService(documentRepo, associationRepo, classifier, extractor, embedder, logger)

	if cfg.TaxonomySeedPath != "" {
		importer := services.NewTaxonomyImporter(taxonomyRepo, logger)
		created, err := importer.ImportFile(ctx, cfg.TaxonomySeedPath)
		if err != nil {
			logger.Fatal("Failed to import taxonomy seed",
				zap.String("path", cfg.TaxonomySeedPath),
				zap.Error(err))
		}
		logger.Info("Taxonomy seed applied",
			zap.String("path", cfg.TaxonomySeedPath),
			zap.Int("created", created))
	}

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSearchHandler(searchService, logger).RegisterRoutes(mux)
	handlers.NewDocumentHandler(documentService, classifier, logger).RegisterRoutes(mux)
	handlers.NewTaxonomyHandler(taxonomyRepo, facetService, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting canvass-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
