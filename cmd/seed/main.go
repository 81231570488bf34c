// Seeds demo jobs so the match → decide → submit path can be exercised
// in dry-run mode without a browser or model keys.
package main

import (
	"context"
	"log"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	"github.com/andreypavlenko/autoapply/internal/platform/postgres"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	jobRepo "github.com/andreypavlenko/autoapply/modules/jobs/repository"
	jobService "github.com/andreypavlenko/autoapply/modules/jobs/service"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type seedJob struct {
	raw    jobmodel.RawJob
	fields jobmodel.StructuredFields
}

var seedJobs = []seedJob{
	{
		raw: jobmodel.RawJob{
			JobID: "demo-001", Title: "Python后端开发工程师", Company: "星云科技",
			Location: "上海", SalaryRaw: "18-24K·13薪", URL: "https://jobs.example.com/demo-001", Site: "demo",
			Description: "岗位职责\n负责后端服务开发\n任职要求\n熟悉Python、Django",
		},
		fields: jobmodel.StructuredFields{
			Responsibilities: []string{"负责后端服务开发", "参与系统架构设计"},
			Requirements:     []string{"3年以上后端开发经验", "熟悉Python、Django"},
			Skills:           []string{"Python", "Django", "MySQL"},
			Experience:       "3-5年",
		},
	},
	{
		raw: jobmodel.RawJob{
			JobID: "demo-002", Title: "Java开发工程师", Company: "蓝海信息",
			Location: "北京", SalaryRaw: "20-30K", URL: "https://jobs.example.com/demo-002", Site: "demo",
			Description: "岗位职责\n负责交易系统开发\n任职要求\n熟悉Java、Spring",
		},
		fields: jobmodel.StructuredFields{
			Responsibilities: []string{"负责交易系统开发"},
			Requirements:     []string{"5年以上Java经验", "熟悉Spring"},
			Skills:           []string{"Java", "Spring", "Kafka"},
			Experience:       "5年以上",
		},
	},
	{
		raw: jobmodel.RawJob{
			JobID: "demo-003", Title: "Python实习生", Company: "晨光数据",
			Location: "深圳", SalaryRaw: "8-12K", URL: "https://jobs.example.com/demo-003", Site: "demo",
			Description: "岗位职责\n数据处理脚本开发\n任职要求\n了解Python",
		},
		fields: jobmodel.StructuredFields{
			Responsibilities: []string{"数据处理脚本开发"},
			Requirements:     []string{"了解Python"},
			Skills:           []string{"Python"},
			Experience:       "",
		},
	},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	pgClient, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgClient.Close()

	if err := postgres.RunMigrations(ctx, cfg.Database, logger, "./migrations"); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	jobs := jobService.NewJobService(jobRepo.NewJobRepository(pgClient.Pool))

	for _, seed := range seedJobs {
		raw := seed.raw
		jobID, wasNew, err := jobs.InsertIfNew(ctx, &raw)
		if err != nil {
			logger.Fatal("Seed insert failed", zap.String("title", raw.Title), zap.Error(err))
		}
		if !wasNew {
			logger.Info("Seed job already present", zap.String("title", raw.Title))
			continue
		}
		fields := seed.fields
		if err := jobs.MarkProcessed(ctx, jobID, &fields, ""); err != nil {
			logger.Fatal("Seed mark processed failed", zap.String("title", raw.Title), zap.Error(err))
		}
		logger.Info("Seeded job", zap.String("title", raw.Title), zap.String("job_id", jobID))
	}

	logger.Info("Seeding complete", zap.Int("jobs", len(seedJobs)))
}
