package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gait-backend/internal/analysis"
	"gait-backend/internal/assets"
	"gait-backend/internal/config"
	"gait-backend/internal/database"
	"gait-backend/internal/handlers"
	"gait-backend/internal/narrative"
	"gait-backend/internal/pose"
	"gait-backend/internal/queue"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	var store assets.Store
	switch cfg.AssetStore {
	case "s3":
		store, err = assets.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.S3PublicURL, cfg.TempDir)
		if err != nil {
			return err
		}
	default:
		store = assets.NewHTTPStore(cfg.UploadURL, cfg.UploadPreset, cfg.TempDir)
	}

	taskQueue, err := queue.NewNATSQueue(cfg.NATSUrl, cfg.QueueSubject)
	if err != nil {
		return err
	}
	defer taskQueue.Close()

	poseClient := pose.NewHTTPClient(cfg.PoseServiceURL, cfg.TempDir)

	orchestrator := analysis.NewOrchestrator(analysis.Deps{
		Store:      analysis.NewGormStore(db),
		Queue:      taskQueue,
		Extractor:  poseClient,
		Annotator:  poseClient,
		Assets:     store,
		Narrative:  narrative.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.NarrativeModel),
		FFmpegPath: cfg.FFmpegPath,
		TempDir:    cfg.TempDir,
		Logger:     logger,
	})

	unsubscribe, err := taskQueue.Subscribe(ctx, func(ctx context.Context, sessionID uint) {
		// Process owns its error handling; the queue only sees completion.
		_ = orchestrator.Process(ctx, sessionID)
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	orchestrator.StartReconciler(ctx, 5*time.Minute, cfg.StaleAfter)

	router := handlers.NewRouter(
		handlers.NewPatientHandler(db, logger),
		handlers.NewSessionHandler(db, orchestrator, logger),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(":" + cfg.ListenPort)
	}()

	logger.Info("server started", zap.String("port", cfg.ListenPort))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	}
}
