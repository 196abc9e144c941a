package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gitlab.com/bluapt.net/internal/adapter/docker"
	"gitlab.com/bluapt.net/internal/adapter/logging"
	"gitlab.com/bluapt.net/internal/adapter/postgres"
	"gitlab.com/bluapt.net/internal/adapter/postgres/containerrepo"
	"gitlab.com/bluapt.net/internal/adapter/postgres/executionrepo"
	"gitlab.com/bluapt.net/internal/adapter/postgres/plagiarismrepo"
	"gitlab.com/bluapt.net/internal/adapter/postgres/submissionrepo"
	"gitlab.com/bluapt.net/internal/adapter/redis/executionlock"
	"gitlab.com/bluapt.net/internal/config"
	"gitlab.com/bluapt.net/internal/core/ports/primary"
	"gitlab.com/bluapt.net/internal/core/services/execution"
	"gitlab.com/bluapt.net/internal/core/services/grading"
	"gitlab.com/bluapt.net/internal/core/services/plagiarism"
	"gitlab.com/bluapt.net/internal/dispatch"
	"gitlab.com/bluapt.net/internal/domain"
	logger2 "gitlab.com/bluapt.net/internal/global/logger"
	http2 "gitlab.com/bluapt.net/internal/http"
)

func main() {
	InitReader()
	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger2.Info("Starting execution core service")

	logger := logger2.Logger
	if os.Getenv("DEBUG_MODE") == "true" {
		logger = logging.NewZapLoggerDebug()
	}

	sysCfg := config.NewSystemConfig()

	db, err := setupDatabase(sysCfg)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctxBg := context.Background()
	if err := postgres.EnsureSchema(ctxBg, db); err != nil {
		logger.Error("Failed to ensure schema", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password, // no password set
		DB:       sysCfg.RedisConfig.DB,       // use default DB
	})
	defer redisClient.Close()

	engine, err := docker.NewEngine(logger)
	if err != nil {
		logger.Error("Failed to connect to docker daemon", "error", err)
		os.Exit(1)
	}
	defer engine.Close()
	prePullImages(ctxBg, engine, logger)

	// SECONDARY PORTS
	executionRepo := executionrepo.NewExecutionRepository(db, logger)
	containerRepo := containerrepo.NewContainerRepository(db, logger)
	submissionRepo := submissionrepo.NewSubmissionRepository(db, logger)
	plagiarismRepo := plagiarismrepo.NewPlagiarismRepository(db, logger)
	executionLock := executionlock.NewExecutionLock(redisClient, logger)

	// services
	executionSvc := execution.NewExecutionService(executionRepo, containerRepo, engine, executionLock, logger, sysCfg.SandboxConfig)
	gradingSvc := grading.NewGradingService(executionSvc, logger)
	plagiarismSvc := plagiarism.NewPlagiarismService(submissionRepo, plagiarismRepo, logger)
	serviceProvider := http2.NewServiceProvider(executionSvc, gradingSvc, plagiarismSvc)

	dispatchCtx, stopDispatch := context.WithCancel(ctxBg)
	dispatcher := dispatch.NewDispatcher(sysCfg.DispatchConfig.Workers, sysCfg.DispatchConfig.QueueCapacity, logger)
	dispatcher.Start(dispatchCtx)

	//server
	httServer := http2.NewServer(sysCfg.HTTPConfig.Port, "executionCore", *serviceProvider, dispatcher, logger)
	if err := httServer.Init(); err != nil {
		panic(err)
	}
	httServer.Start(ctxBg)

	<-quit
	logger.Info("Shutting down server...")

	httServer.Stop()
	stopDispatch()
	dispatcher.Wait()

	logger.Info("successfully shutdown server")
}

// prePullImages warms the sandbox image cache so the first execution of each
// language does not pay the pull latency.
func prePullImages(ctx context.Context, engine *docker.Engine, logger primary.Logger) {
	for _, lang := range domain.SupportedLanguages() {
		profile, err := domain.ProfileFor(lang)
		if err != nil {
			continue
		}
		pullCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		if err := engine.EnsureImage(pullCtx, profile.Image); err != nil {
			logger.Warn("Failed to pre-pull sandbox image", "image", profile.Image, "error", err)
		}
		cancel()
	}
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(cfg *config.AppConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.PostgresConfig.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func InitReader() {
	environment := ""
	if len(os.Args) < 2 {
		log.Fatalf("Env not supplied in argument")
	} else {
		environment = os.Args[1]
	}

	err := godotenv.Load(environment + ".env")
	if err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
