package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/hairsim-backend/internal/clients/gcp"
	redisclient "github.com/yungbote/hairsim-backend/internal/clients/redis"
	"github.com/yungbote/hairsim-backend/internal/data/db"
	"github.com/yungbote/hairsim-backend/internal/data/repos"
	"github.com/yungbote/hairsim-backend/internal/engine"
	enginemock "github.com/yungbote/hairsim-backend/internal/engine/mock"
	"github.com/yungbote/hairsim-backend/internal/engine/stablehair"
	httpserver "github.com/yungbote/hairsim-backend/internal/http"
	httpH "github.com/yungbote/hairsim-backend/internal/http/handlers"
	"github.com/yungbote/hairsim-backend/internal/imaging"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
	"github.com/yungbote/hairsim-backend/internal/services"
	"github.com/yungbote/hairsim-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.Migrate(); err != nil {
		log.Error("Postgres migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	requestRepo := repos.NewRequestRepo(thePG, log)
	assessmentRepo := repos.NewAssessmentRepo(thePG, log)
	recommendationRepo := repos.NewRecommendationRepo(thePG, log)
	simulationRunRepo := repos.NewSimulationRunRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}

	var guard redisclient.RunGuard = redisclient.NoopGuard{}
	if os.Getenv("REDIS_ADDR") != "" {
		g, err := redisclient.NewRunGuard(log)
		if err != nil {
			log.Error("Could not init RunGuard", "error", err)
			os.Exit(1)
		}
		guard = g
	}
	defer guard.Close()

	// Imaging
	var remover imaging.BackgroundRemover
	if url := os.Getenv("MATTING_URL"); url != "" {
		r, err := imaging.NewHTTPRemover(url, 60*time.Second)
		if err != nil {
			log.Error("Could not init matting client", "error", err)
			os.Exit(1)
		}
		remover = r
	}
	loader := imaging.NewLoader(log, bucketService, remover)

	// Engine
	engineType := utils.GetEnv("ENGINE_TYPE", "stablehair", log)
	var factory engine.Factory
	switch engineType {
	case "mock":
		factory = func(ctx context.Context) (engine.Engine, error) {
			return enginemock.New(), nil
		}
	default:
		factory = func(ctx context.Context) (engine.Engine, error) {
			return stablehair.New(stablehair.Config{
				BaseURL: os.Getenv("ENGINE_URL"),
				APIKey:  os.Getenv("ENGINE_API_KEY"),
			})
		}
	}
	session := engine.NewSession(log, factory, engine.SessionConfig{
		WorkingWidth:    utils.GetEnvAsInt("ENGINE_WIDTH", 512, log),
		WorkingHeight:   utils.GetEnvAsInt("ENGINE_HEIGHT", 512, log),
		AcquireTimeout:  time.Duration(utils.GetEnvAsInt("ENGINE_ACQUIRE_TIMEOUT", 120, log)) * time.Second,
		TransferTimeout: time.Duration(utils.GetEnvAsInt("ENGINE_TRANSFER_TIMEOUT", 300, log)) * time.Second,
	})
	defer session.Close()

	if utils.GetEnvAsBool("ENGINE_WARMUP", false, log) {
		warmupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		if err := session.Warmup(warmupCtx); err != nil {
			log.Warn("Engine warmup failed, first request will retry init", "error", err)
		}
		cancel()
	}

	params, err := engine.LoadParams()
	if err != nil {
		log.Error("Could not load engine params", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up services from main...")
	publisher := services.NewPublisher(log, bucketService)
	notifier, err := services.NewResultNotifier(log)
	if err != nil {
		log.Error("Could not init ResultNotifier", "error", err)
		os.Exit(1)
	}
	simulationService := services.NewSimulationService(
		log,
		services.SimulationConfig{
			FailurePolicy:        utils.GetEnv("FAILURE_POLICY", services.FailurePolicyAbort, log),
			EmptyCandidatePolicy: utils.GetEnv("EMPTY_CANDIDATE_POLICY", services.EmptyCandidatePolicyFail, log),
			RemoveBackground:     utils.GetEnvAsBool("REMOVE_BACKGROUND", false, log),
			Params:               params,
		},
		requestRepo,
		assessmentRepo,
		recommendationRepo,
		simulationRunRepo,
		loader,
		session,
		publisher,
		notifier,
		guard,
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	simulationHandler := httpH.NewSimulationHandler(simulationService)
	healthHandler := httpH.NewHealthHandler()

	// Router
	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:               log,
		SimulationHandler: simulationHandler,
		HealthHandler:     healthHandler,
	})

	port := utils.GetEnv("PORT", "8090", log)
	log.Info("Server listening", "port", port)
	if err := server.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
