package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"freshlogic/internal/advisor"
	"freshlogic/internal/aggregator"
	"freshlogic/internal/config"
	"freshlogic/internal/crops"
	"freshlogic/internal/engine"
	"freshlogic/internal/ensemble"
	"freshlogic/internal/events"
	"freshlogic/internal/handler"
	"freshlogic/internal/metrics"
	"freshlogic/internal/ml_client"
	"freshlogic/internal/models"
	"freshlogic/internal/reference"
	"freshlogic/internal/repository"
	"freshlogic/internal/server"
	"freshlogic/internal/service"
	"freshlogic/internal/session"
)

const (
	modelReadyTimeout    = 60 * time.Second
	sessionCleanupPeriod = time.Minute
)

func main() {
	cfgPath := flag.String("config", "configs/config.yml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Crop profiles
	store, err := crops.Load(cfg.Crops.Path)
	if err != nil {
		logger.Fatal("Failed to load crop profiles", zap.Error(err))
	}
	logger.Info("Crop profiles loaded", zap.Int("count", store.Len()))

	// Predictive models
	predictor, modelInfo, err := newPredictor(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to initialize models", zap.Error(err))
	}

	params := aggregator.Params{
		ReferenceHours:        cfg.Engine.ReferenceHours,
		InitialExposureHours:  cfg.Engine.InitialExposureHours,
		TemperatureToleranceC: cfg.Tolerance(),
	}
	eng, err := engine.New(store, predictor, params, cfg.Engine.Parallelism, logger)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}

	// Database connection
	db, err := repository.Open(cfg.Database.Type, cfg.Database.Path, cfg.Database.URL, cfg.Database.Migrations, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	m := metrics.NewMetrics()

	sessions := session.New[*models.AnalysisRecord](time.Duration(cfg.Session.TTLMinutes)*time.Minute, m)
	go sessions.Run(ctx, sessionCleanupPeriod)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info("Publishing summaries to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	defer publisher.Close()

	deps := service.Deps{
		Engine:    eng,
		Crops:     store,
		Sessions:  sessions,
		Repo:      repository.NewAnalysisRepository(db, logger),
		Publisher: publisher,
		Models:    modelInfo,
		Metrics:   m,
		Logger:    logger,
	}

	// Explanatory advisor (optional)
	if cfg.Advisor.Enabled {
		adv, err := advisor.NewClient(ctx, advisor.Config{
			APIKey:     cfg.Advisor.APIKey,
			ModelName:  cfg.Advisor.ModelName,
			MaxRetries: cfg.Advisor.MaxRetries,
		}, logger)
		if err != nil {
			logger.Warn("Failed to initialize advisor, continuing without it", zap.Error(err))
		} else {
			defer adv.Close()
			deps.Advisor = adv
		}
	}

	analyzer := service.NewAnalyzer(deps)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.NewServer(handler.NewHandler(analyzer, m.Handler(), logger), logger)
	if err := srv.Run(ctx, cfg.Server.Port); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	logger.Info("Application stopped.")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Development {
		return zap.NewDevelopment()
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func newPredictor(ctx context.Context, cfg *config.Config, store *crops.Store, logger *zap.Logger) (*ensemble.Predictor, service.ModelInfoSource, error) {
	if cfg.Models.Backend == config.BackendReference {
		ref := reference.New(store, cfg.Models.HorizonHours)
		logger.Info("Using reference models", zap.Float64("horizon_hours", cfg.Models.HorizonHours))
		return ensemble.NewPredictor(store, ensemble.NewRegressionSignal(ref), ensemble.NewClassificationSignal(ref)), ref, nil
	}

	client := ml_client.NewClient(cfg.Models.URL, time.Duration(cfg.Models.TimeoutSeconds)*time.Second)
	readyCtx, cancel := context.WithTimeout(ctx, modelReadyTimeout)
	defer cancel()
	health, err := client.WaitReady(readyCtx, 2*time.Second)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Model server ready",
		zap.String("url", cfg.Models.URL),
		zap.String("status", health.Status))
	return ensemble.NewPredictor(store, ensemble.NewRegressionSignal(client), ensemble.NewClassificationSignal(client)), client, nil
}
