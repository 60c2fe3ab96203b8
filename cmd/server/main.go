// Package main runs the interview platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/career-mentor/backend/config"
	"github.com/career-mentor/backend/internal/ai"
	"github.com/career-mentor/backend/internal/auth"
	"github.com/career-mentor/backend/internal/capture"
	"github.com/career-mentor/backend/internal/middleware"
	"github.com/career-mentor/backend/internal/monitor"
	"github.com/career-mentor/backend/internal/realtime"
	"github.com/career-mentor/backend/internal/report"
	"github.com/career-mentor/backend/internal/sessions"
	"github.com/career-mentor/backend/internal/vision"
	"github.com/career-mentor/backend/internal/worker"
	"github.com/career-mentor/backend/pkg/database"
	"github.com/career-mentor/backend/pkg/queue"
	"github.com/career-mentor/backend/pkg/redis"
	"github.com/career-mentor/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ReportsBucket:        cfg.AWS.ReportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	// Text generation. With no API key everything runs on deterministic
	// fallbacks, so the server stays usable offline.
	var generator ai.Generator
	if cfg.Gemini.APIKey != "" {
		gemini, err := ai.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warn("gemini disabled", zap.Error(err))
		} else {
			generator = gemini
			logger.Info("gemini generator ready", zap.String("model", gemini.Model()))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Interview session state and persistence
	store := sessions.NewStore(time.Duration(cfg.Storage.SessionTTL) * time.Minute)
	sessionRepo := sessions.NewRepository(pool)

	questionGen := ai.NewQuestionGenerator(generator, logger)
	answerChain := ai.NewAnswerChain(generator, logger)
	codeChain := ai.NewCodeChain(generator, logger)
	assessor := ai.NewAssessor(generator, logger)
	narrator := ai.NewNarrator(generator, logger)
	compiler := report.NewCompiler(cfg.Storage.ReportsDir, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Monitoring: the factory binds camera, detector, and report plumbing per
	// run; the completion callback persists the sealed log and hands the
	// artifact to the upload queue.
	monitorCfg := cfg.Monitor
	var openExtractor func() (vision.Extractor, error)
	if monitorCfg.DetectorCommand != "" {
		openExtractor = func() (vision.Extractor, error) {
			return vision.NewProcessExtractor(monitorCfg.DetectorCommand, vision.Options{
				Face:     monitorCfg.EnableFace,
				Pose:     monitorCfg.EnablePose,
				Hands:    monitorCfg.EnableHands,
				MaxHands: monitorCfg.MaxHands,
			}, logger)
		}
	}
	factory := func(sessionID string) *monitor.Runner {
		return monitor.NewRunner(monitor.RunnerConfig{
			SessionID: sessionID,
			OpenSource: func() (capture.Source, error) {
				return capture.OpenCamera(capture.DeviceConfig{
					Device:         monitorCfg.CameraDevice,
					FallbackDevice: monitorCfg.FallbackDevice,
					InputFormat:    monitorCfg.InputFormat,
					Width:          monitorCfg.FrameWidth,
					Height:         monitorCfg.FrameHeight,
					FrameRate:      monitorCfg.FrameRate,
				}, logger)
			},
			OpenExtractor: openExtractor,
			Sampler: monitor.NewSampler(cfg.Storage.EvidenceDir, sessionID, map[string]int{
				monitor.TagGazeDown:         monitorCfg.GazeStride,
				monitor.TagPostureIncorrect: monitorCfg.PostureStride,
				monitor.TagHandMove:         monitorCfg.HandStride,
			}, logger),
			Thresholds: monitor.Thresholds{
				ShoulderTilt: monitorCfg.ShoulderTiltThreshold,
				NeckSlumpDeg: monitorCfg.NeckSlumpDegThreshold,
				HandMove:     monitorCfg.HandMoveThreshold,
				GazeDown:     monitorCfg.GazeDownThreshold,
			},
			ExampleCap:      monitorCfg.ExampleCap,
			ResetHandOnLoss: monitorCfg.ResetHandOnLoss,
			Narrator:        narrator,
			Compiler:        compiler,
			Logger:          logger,
		})
	}
	onComplete := func(sessionID string, status monitor.RunStatus) {
		bgCtx := context.Background()
		sid, err := uuid.Parse(sessionID)
		if err != nil {
			return
		}
		if err := sessionRepo.SaveMonitorRun(bgCtx, sid, string(status.State), status.Log, status.ReportPath); err != nil {
			logger.Warn("persist monitor run", zap.Error(err))
		}
		if s3Client != nil {
			worker.EnqueueIfConfigured(bgCtx, jobQueue, sid, status.ReportPath, "monitoring", logger)
		}
	}
	monitorSvc := monitor.NewService(factory, onComplete, logger)

	sessionHandler := sessions.NewHandler(
		store, sessionRepo,
		questionGen, answerChain, codeChain, assessor,
		compiler, monitorSvc,
		cfg.Storage.UploadsDir, logger,
	)

	progressFeed := realtime.NewFeed(monitorSvc, time.Second, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/api/healthz", sessionHandler.Health)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)
		api.GET("/sessions", middleware.RequireRole("admin"), sessionHandler.ListSessions)

		api.POST("/upload-resume", sessionHandler.UploadResume)
		api.POST("/submit-answer", sessionHandler.SubmitAnswer)
		api.POST("/start-monitoring", sessionHandler.StartMonitoring)
		api.GET("/monitoring/:id", sessionHandler.MonitoringStatus)
		api.POST("/generate-report", sessionHandler.GenerateReport)
		api.GET("/download-report/:id", sessionHandler.DownloadReport)
	}

	// WebSocket progress feed (token not required; session id is unguessable)
	router.GET("/ws/monitor/:id", progressFeed.ServeWS)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (report upload to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		reportProcessor := worker.NewReportProcessor(sessionRepo, store, s3Client, jobQueue, logger)
		go reportProcessor.Run(workerCtx)
		logger.Info("report worker started")
	}

	// Session store sweeper
	sweeperStop := make(chan struct{})
	store.StartSweeper(5*time.Minute, sweeperStop)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	close(sweeperStop)
	workerCancel()
	monitorSvc.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
