package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-report-cards/api/swagger"
	"github.com/noah-isme/sma-report-cards/internal/grading"
	"github.com/noah-isme/sma-report-cards/internal/handler"
	"github.com/noah-isme/sma-report-cards/internal/middleware"
	"github.com/noah-isme/sma-report-cards/internal/models"
	"github.com/noah-isme/sma-report-cards/internal/repository"
	"github.com/noah-isme/sma-report-cards/internal/service"
	"github.com/noah-isme/sma-report-cards/pkg/cache"
	"github.com/noah-isme/sma-report-cards/pkg/config"
	"github.com/noah-isme/sma-report-cards/pkg/database"
	"github.com/noah-isme/sma-report-cards/pkg/jobs"
	"github.com/noah-isme/sma-report-cards/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-report-cards/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-report-cards/pkg/middleware/requestid"
	"github.com/noah-isme/sma-report-cards/pkg/storage"
)

// @title SMA Report Cards API
// @version 1.0.0
// @description Report card generation, grading, publication and export
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report card cache disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, "sma-report-cards", logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.ReportCards.CacheTTL, logr, cfg.ReportCards.CacheEnabled && redisClient != nil)

	reportRepo := repository.NewReportCardRepository(db)
	accessSvc := service.NewAccessService(repository.NewIdentityRepository(db))
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	reconciler := service.NewReportCardReconciler(reportRepo, service.ReconcilerConfig{
		KeepVersionHistory: cfg.ReportCards.KeepVersionHistory,
		CodeRetries:        cfg.ReportCards.ReportCodeRetries,
	}, logr)

	reportCardSvc := service.NewReportCardService(service.ReportCardDeps{
		Access:     accessSvc,
		Students:   repository.NewStudentRepository(db),
		Classes:    repository.NewClassRepository(db),
		Exams:      repository.NewExamRepository(db),
		Marks:      repository.NewSubjectMarkRepository(db),
		Names:      repository.NewReferenceRepository(db),
		Scales:     service.NewGradingScaleService(repository.NewGradingScaleRepository(db), logr),
		Reconciler: reconciler,
		Reports:    reportRepo,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
	}, grading.PercentagePolicy(cfg.ReportCards.ZeroMaxScorePolicy), validate, logr)

	exportHandler, stopExports, err := setupExports(ctx, cfg, db, reportRepo, accessSvc, metricsSvc, validate, logr)
	if err != nil {
		logr.Fatal("failed to set up exports", zap.Error(err))
	}
	defer stopExports()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    cache.Pinger{Client: redisClient},
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if exportHandler != nil {
		api.GET("/export/:token", exportHandler.Download)
	}

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	cards := handler.NewReportCardHandler(reportCardSvc)

	secured := api.Group("/report-cards", middleware.JWT(tokenSvc))
	secured.POST("/generate", staff, middleware.Audit(logr, "generate"), cards.Generate)
	secured.POST("/generate/class", staff, middleware.Audit(logr, "generate_class"), cards.GenerateClass)
	secured.POST("/bulk-delete", adminOnly, middleware.Audit(logr, service.TransitionBulkDelete), cards.BulkDelete)
	secured.GET("", staff, cards.List)
	secured.GET("/:id", staff, cards.Get)
	secured.GET("/:id/versions", staff, cards.Versions)
	secured.POST("/:id/publish", staff, middleware.Audit(logr, service.TransitionPublish), cards.Publish)
	secured.POST("/:id/unpublish", staff, middleware.Audit(logr, service.TransitionUnpublish), cards.Unpublish)
	secured.DELETE("/:id", adminOnly, middleware.Audit(logr, service.TransitionDelete), cards.Delete)
	if exportHandler != nil {
		secured.POST("/exports", staff, exportHandler.Create)
		secured.GET("/exports/:id", staff, exportHandler.Status)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// setupExports builds the export pipeline. It returns a nil handler when
// exports are disabled.
func setupExports(ctx context.Context, cfg *config.Config, db *sqlx.DB, reports *repository.ReportCardRepository, access *service.AccessService, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) (*handler.ExportHandler, func(), error) {
	if !cfg.Exports.Enabled {
		return nil, func() {}, nil
	}

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportRepo := repository.NewExportRepository(db)
	exportCfg := service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	}

	exportSvc := service.NewExportService(exportRepo, access, nil, files, signer, validate, logr, exportCfg)
	worker := service.NewExportWorker(exportRepo, reports, files, signer, nil, nil, metrics, logr, exportCfg)
	queue := jobs.NewQueue("report-card-exports", worker.Handle, jobs.QueueConfig{
		Workers:     cfg.Exports.WorkerConcurrency,
		MaxRetries:  cfg.Exports.WorkerRetries,
		OnExhausted: worker.Fail,
		Logger:      logr,
	})
	exportSvc.SetQueue(queue)

	queue.Start(ctx)
	exportSvc.RecoverPendingJobs(ctx)
	exportSvc.StartCleanup(ctx)

	return handler.NewExportHandler(exportSvc), queue.Stop, nil
}
