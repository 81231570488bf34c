package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/browser"
	"github.com/andreypavlenko/autoapply/internal/platform/embedding"
	"github.com/andreypavlenko/autoapply/internal/platform/llm"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	"github.com/andreypavlenko/autoapply/internal/platform/mail"
	"github.com/andreypavlenko/autoapply/internal/platform/postgres"
	"github.com/andreypavlenko/autoapply/internal/platform/redis"
	"github.com/andreypavlenko/autoapply/internal/platform/storage"

	companyRepo "github.com/andreypavlenko/autoapply/modules/companies/repository"
	companyService "github.com/andreypavlenko/autoapply/modules/companies/service"
	decisionService "github.com/andreypavlenko/autoapply/modules/decision/service"
	extractorService "github.com/andreypavlenko/autoapply/modules/extractor/service"
	jobRepo "github.com/andreypavlenko/autoapply/modules/jobs/repository"
	jobService "github.com/andreypavlenko/autoapply/modules/jobs/service"
	matcherModel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	matcherRepo "github.com/andreypavlenko/autoapply/modules/matcher/repository"
	matcherService "github.com/andreypavlenko/autoapply/modules/matcher/service"
	pipelineModel "github.com/andreypavlenko/autoapply/modules/pipeline/model"
	pipelineService "github.com/andreypavlenko/autoapply/modules/pipeline/service"
	processorService "github.com/andreypavlenko/autoapply/modules/processor/service"
	submitterPorts "github.com/andreypavlenko/autoapply/modules/submitter/ports"
	submitterRepo "github.com/andreypavlenko/autoapply/modules/submitter/repository"
	submitterService "github.com/andreypavlenko/autoapply/modules/submitter/service"
	vectorRepo "github.com/andreypavlenko/autoapply/modules/vectorstore/repository"
	vectorService "github.com/andreypavlenko/autoapply/modules/vectorstore/service"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var (
		keywordsFlag = flag.String("keywords", "", "comma-separated search keywords (required)")
		profilePath  = flag.String("profile", "profile.yaml", "candidate profile yaml")
		configPath   = flag.String("config", "", "pipeline config yaml (defaults apply when empty)")
		stage        = flag.String("stage", "", "run a single stage instead of the full pipeline")
		dryRun       = flag.Bool("dry-run", false, "suppress the final apply click, log DRY_RUN")
	)
	flag.Parse()

	keywords := splitKeywords(*keywordsFlag)
	if len(keywords) == 0 && *stage != "process" && *stage != "submit" {
		log.Fatal("at least one -keywords entry is required")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	pcfg, err := config.LoadPipelineConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load pipeline configuration: %v", err)
	}
	if *dryRun {
		pcfg.Submit.DryRun = true
	}

	profile, err := matcherModel.LoadProfile(*profilePath)
	if err != nil {
		log.Fatalf("Failed to load profile: %v", err)
	}

	logger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Server.Env}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Cancellation is terminal: completed units stay persisted
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pgClient, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgClient.Close()

	if err := postgres.RunMigrations(ctx, cfg.Database, logger, "./migrations"); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	var s3Client *storage.S3Client
	if cfg.S3.Endpoint != "" && cfg.S3.Bucket != "" {
		if s3Client, err = storage.NewS3Client(cfg.S3); err != nil {
			logger.Warn("Snapshot archival disabled", zap.Error(err))
		}
	}

	extractor, err := llm.NewAnthropicExtractor(cfg.Anthropic)
	if err != nil {
		logger.Fatal("Failed to initialize structured extractor", zap.Error(err))
	}
	embedder, err := embedding.NewOpenAIEmbedder(cfg.OpenAI)
	if err != nil {
		logger.Fatal("Failed to initialize embedder", zap.Error(err))
	}

	session := browser.NewSession(nil, func(ctx context.Context) (browser.Driver, error) {
		return browser.NewRodDriver(cfg.Browser)
	})
	defer session.Quit()

	jobs := jobService.NewJobService(jobRepo.NewJobRepository(pgClient.Pool))
	vectors := vectorService.NewVectorService(vectorRepo.NewDocumentRepository(pgClient.Pool), embedder)
	companies := companyService.NewCompanyService(companyRepo.NewCompanyRepository(pgClient.Pool), redisClient)
	matchRepository := matcherRepo.NewMatchRepository(pgClient.Pool)
	matcher := matcherService.NewMatcherService(vectors, pcfg.Match, logger)
	submissionRepository := submitterRepo.NewSubmissionRepository(pgClient.Pool)
	decider := decisionService.NewDecisionService(matchRepository, companies, submissionRepository, pcfg.Decide, logger)
	processor := processorService.NewProcessorService(jobs, vectors, extractor, pcfg.Process, pcfg.Control.CheckpointInterval, logger)

	applySelectors := make(map[string][]string)
	var siteExtractors []pipelineService.Extractor
	for _, site := range pcfg.Extract.Sites {
		applySelectors[site.Name] = site.ApplySelectors
		siteExtractors = append(siteExtractors,
			extractorService.NewExtractorService(session, jobs, pcfg.Extract, site, logger))
	}

	var archiver submitterPorts.SnapshotArchiver
	if s3Client != nil {
		archiver = s3Client
	}
	submitter := submitterService.NewSubmitterService(session, submissionRepository, jobs, archiver,
		applySelectors, pcfg.Submit, pcfg.Decide.MaxSubmissionsPerDay, logger)

	pipeline := pipelineService.NewPipelineService(
		pipelineService.MultiSiteExtractor(siteExtractors),
		processor, matcher, decider, submitter, jobs,
		map[string]pipelineService.HealthChecker{
			"postgres": pgClient.Health,
			"redis":    redisClient.Health,
		},
		mail.NewClient(cfg.Mail), pcfg.Control, pcfg.Decide.MaxSubmissionsPerDay, logger,
	)

	var report = runPipeline(ctx, pipeline, *stage, keywords, profile, logger)

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	os.Exit(report.ExitCode)
}

func runPipeline(ctx context.Context, pipeline *pipelineService.PipelineService, stage string, keywords []string, profile *matcherModel.ResumeProfile, logger *logger.Logger) *pipelineModel.ExecutionReport {
	if stage != "" {
		report, err := pipeline.RunStage(ctx, stage, keywords, profile)
		if err != nil {
			logger.Fatal("Stage run failed", zap.Error(err))
		}
		return report
	}
	return pipeline.RunFullPipeline(ctx, keywords, profile)
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
