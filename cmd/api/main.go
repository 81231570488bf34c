package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/andreypavlenko/autoapply/docs" // swagger docs

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/browser"
	"github.com/andreypavlenko/autoapply/internal/platform/embedding"
	httpPlatform "github.com/andreypavlenko/autoapply/internal/platform/http"
	"github.com/andreypavlenko/autoapply/internal/platform/llm"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	"github.com/andreypavlenko/autoapply/internal/platform/mail"
	"github.com/andreypavlenko/autoapply/internal/platform/postgres"
	"github.com/andreypavlenko/autoapply/internal/platform/redis"
	"github.com/andreypavlenko/autoapply/internal/platform/storage"

	analyticsHandler "github.com/andreypavlenko/autoapply/modules/analytics/handler"
	analyticsRepo "github.com/andreypavlenko/autoapply/modules/analytics/repository"
	analyticsService "github.com/andreypavlenko/autoapply/modules/analytics/service"

	companyRepo "github.com/andreypavlenko/autoapply/modules/companies/repository"
	companyService "github.com/andreypavlenko/autoapply/modules/companies/service"

	jobRepo "github.com/andreypavlenko/autoapply/modules/jobs/repository"
	jobService "github.com/andreypavlenko/autoapply/modules/jobs/service"

	vectorRepo "github.com/andreypavlenko/autoapply/modules/vectorstore/repository"
	vectorService "github.com/andreypavlenko/autoapply/modules/vectorstore/service"

	extractorService "github.com/andreypavlenko/autoapply/modules/extractor/service"
	processorService "github.com/andreypavlenko/autoapply/modules/processor/service"

	matcherModel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	matcherRepo "github.com/andreypavlenko/autoapply/modules/matcher/repository"
	matcherService "github.com/andreypavlenko/autoapply/modules/matcher/service"

	decisionService "github.com/andreypavlenko/autoapply/modules/decision/service"

	submitterPorts "github.com/andreypavlenko/autoapply/modules/submitter/ports"
	submitterRepo "github.com/andreypavlenko/autoapply/modules/submitter/repository"
	submitterService "github.com/andreypavlenko/autoapply/modules/submitter/service"

	pipelineHandler "github.com/andreypavlenko/autoapply/modules/pipeline/handler"
	pipelineService "github.com/andreypavlenko/autoapply/modules/pipeline/service"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Autoapply Pipeline API
// @version 1.0
// @description Job-application pipeline controller: triggers runs and exposes read-side reports and analytics over the pipeline store.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pipelinePath := os.Getenv("PIPELINE_CONFIG")
	if pipelinePath != "" {
		if _, err := os.Stat(pipelinePath); err != nil {
			log.Fatalf("Pipeline config %s not readable: %v", pipelinePath, err)
		}
	}
	pcfg, err := config.LoadPipelineConfig(pipelinePath)
	if err != nil {
		log.Fatalf("Failed to load pipeline configuration: %v", err)
	}

	// Initialize logger
	logger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting autoapply API server",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize Sentry (optional)
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Server.Env}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()

	// Initialize PostgreSQL
	pgClient, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgClient.Close()
	logger.Info("Connected to PostgreSQL")

	// Run database migrations (MANDATORY: must run before anything reads the store)
	migrationsPath := "./migrations"
	if err := postgres.RunMigrations(ctx, cfg.Database, logger, migrationsPath); err != nil {
		logger.Fatal("Failed to run database migrations",
			zap.Error(err),
			zap.String("migrations_path", migrationsPath),
		)
	}

	// Initialize Redis
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Initialize S3 snapshot archive (optional)
	var s3Client *storage.S3Client
	if cfg.S3.Endpoint != "" && cfg.S3.Bucket != "" {
		s3Client, err = storage.NewS3Client(cfg.S3)
		if err != nil {
			logger.Warn("Failed to initialize S3 client, snapshot archival disabled", zap.Error(err))
		} else {
			logger.Info("S3 snapshot archive initialized", zap.String("bucket", cfg.S3.Bucket))
		}
	} else {
		logger.Info("S3 configuration not provided, snapshot archival disabled")
	}

	// External capabilities
	extractor, err := llm.NewAnthropicExtractor(cfg.Anthropic)
	if err != nil {
		logger.Fatal("Failed to initialize structured extractor", zap.Error(err))
	}
	embedder, err := embedding.NewOpenAIEmbedder(cfg.OpenAI)
	if err != nil {
		logger.Fatal("Failed to initialize embedder", zap.Error(err))
	}

	// The browser is launched lazily, on the first stage that needs it
	session := browser.NewSession(nil, func(ctx context.Context) (browser.Driver, error) {
		return browser.NewRodDriver(cfg.Browser)
	})
	defer session.Quit()

	// Repositories and services
	jobRepository := jobRepo.NewJobRepository(pgClient.Pool)
	jobs := jobService.NewJobService(jobRepository)

	documentRepository := vectorRepo.NewDocumentRepository(pgClient.Pool)
	vectors := vectorService.NewVectorService(documentRepository, embedder)

	companyRepository := companyRepo.NewCompanyRepository(pgClient.Pool)
	companies := companyService.NewCompanyService(companyRepository, redisClient)

	matchRepository := matcherRepo.NewMatchRepository(pgClient.Pool)
	matcher := matcherService.NewMatcherService(vectors, pcfg.Match, logger)

	submissionRepository := submitterRepo.NewSubmissionRepository(pgClient.Pool)

	decider := decisionService.NewDecisionService(matchRepository, companies, submissionRepository, pcfg.Decide, logger)

	applySelectors := make(map[string][]string)
	var siteExtractors []pipelineService.Extractor
	for _, site := range pcfg.Extract.Sites {
		applySelectors[site.Name] = site.ApplySelectors
		siteExtractors = append(siteExtractors,
			extractorService.NewExtractorService(session, jobs, pcfg.Extract, site, logger))
	}

	processor := processorService.NewProcessorService(jobs, vectors, extractor, pcfg.Process, pcfg.Control.CheckpointInterval, logger)

	var archiver submitterPorts.SnapshotArchiver
	if s3Client != nil {
		archiver = s3Client
	}
	submitter := submitterService.NewSubmitterService(session, submissionRepository, jobs, archiver,
		applySelectors, pcfg.Submit, pcfg.Decide.MaxSubmissionsPerDay, logger)

	health := map[string]pipelineService.HealthChecker{
		"postgres": pgClient.Health,
		"redis":    redisClient.Health,
	}

	mailer := mail.NewClient(cfg.Mail)

	pipeline := pipelineService.NewPipelineService(
		pipelineService.MultiSiteExtractor(siteExtractors),
		processor, matcher, decider, submitter, jobs,
		health, mailer, pcfg.Control, pcfg.Decide.MaxSubmissionsPerDay, logger,
	)

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(httpPlatform.RequestIDMiddleware())
	router.Use(httpPlatform.LoggerMiddleware(logger))
	router.Use(httpPlatform.CORSMiddleware())

	// Swagger documentation (available in development)
	if cfg.Server.Env != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		logger.Info("Swagger UI available at /swagger/index.html")
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		httpPlatform.RespondWithHealth(c, pipeline.HealthCheck(c.Request.Context()))
	})

	// API routes
	api := router.Group("/api/v1")
	pipelineHandler.NewPipelineHandler(pipeline, logger).RegisterRoutes(api)
	analyticsHandler.NewAnalyticsHandler(
		analyticsService.NewAnalyticsService(analyticsRepo.NewAnalyticsRepository(pgClient.Pool)),
	).RegisterRoutes(api)

	// Scheduled runs
	if pcfg.Schedule.Cron != "" {
		profilePath := os.Getenv("PROFILE_PATH")
		profile, err := matcherModel.LoadProfile(profilePath)
		if err != nil {
			logger.Fatal("Scheduled runs require a valid PROFILE_PATH", zap.Error(err))
		}
		c := cron.New()
		if _, err := c.AddFunc(pcfg.Schedule.Cron, func() {
			logger.Info("Scheduled pipeline run starting")
			pipeline.RunFullPipeline(context.Background(), pcfg.Schedule.Keywords, profile)
		}); err != nil {
			logger.Fatal("Invalid schedule cron expression", zap.Error(err))
		}
		c.Start()
		defer c.Stop()
		logger.Info("Scheduled pipeline runs enabled", zap.String("cron", pcfg.Schedule.Cron))
	}

	// Start the server with graceful shutdown
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	logger.Info("Server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
