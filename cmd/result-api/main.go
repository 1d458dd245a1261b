package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ipu-result-api/api/swagger"
	"github.com/noah-isme/ipu-result-api/internal/handler"
	"github.com/noah-isme/ipu-result-api/internal/middleware"
	"github.com/noah-isme/ipu-result-api/internal/repository"
	"github.com/noah-isme/ipu-result-api/internal/service"
	"github.com/noah-isme/ipu-result-api/internal/walker"
	"github.com/noah-isme/ipu-result-api/pkg/cache"
	"github.com/noah-isme/ipu-result-api/pkg/config"
	"github.com/noah-isme/ipu-result-api/pkg/database"
	"github.com/noah-isme/ipu-result-api/pkg/jobs"
	"github.com/noah-isme/ipu-result-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ipu-result-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ipu-result-api/pkg/middleware/requestid"
	"github.com/noah-isme/ipu-result-api/pkg/pdftext"
	"github.com/noah-isme/ipu-result-api/pkg/storage"
)

const (
	queueBuffer     = 64
	resumeLimit     = 500
	shutdownTimeout = 15 * time.Second
)

// @title IPU Result API
// @version 1.0.0
// @description Extracts student results from university result and scheme PDFs.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	issueFor := flag.String("issue-token", "", "print an import token for `subject` and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})
	if *issueFor != "" {
		issued, err := tokens.Issue(*issueFor)
		if err != nil {
			logr.Fatal("failed to issue token", zap.Error(err))
		}
		fmt.Println(issued.Token)
		return
	}

	if err := run(cfg, logr, tokens); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger, tokens *service.TokenService) error {
	tpl := walker.FromConfig(cfg.Template)
	if err := tpl.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close()

	metrics := service.NewMetricsService()
	validate := validator.New()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	subjects := repository.NewSubjectRepository(db)
	students := repository.NewStudentRepository(db)
	results := repository.NewResultRepository(db)
	importJobs := repository.NewImportJobRepository(db)
	records := repository.NewRecordRepository(db, subjects, students, results)

	archive, err := storage.NewLocalStorage(cfg.Import.ArchiveDir)
	if err != nil {
		return err
	}
	converter := pdftext.NewConverter(cfg.Import.PdftotextPath, cfg.Import.ConvertTimeout, pdftext.WithLogger(logr))

	importSvc := service.NewImportService(importJobs, records, subjects, service.ImportServiceConfig{
		Converter: converter,
		Archive:   archive,
		Cache:     cacheSvc,
		Metrics:   metrics,
		Template:  tpl,
		Validator: validate,
		Logger:    logr,
	})
	queue := jobs.NewQueue("imports", importSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Import.Workers,
		BufferSize: queueBuffer,
		MaxRetries: cfg.Import.Retries,
		RetryDelay: cfg.Import.RetryDelay,
		JobTimeout: cfg.Import.JobTimeout,
		OnGiveUp:   importSvc.GiveUp,
		Logger:     logr,
	})
	importSvc.SetQueue(queue)
	metrics.TrackQueue(queue.Pending)
	queue.Start(ctx)
	defer queue.Stop()
	if _, err := importSvc.Resume(ctx, resumeLimit); err != nil {
		logr.Warn("failed to resume unfinished imports", zap.Error(err))
	}

	inboxDone := make(chan struct{})
	if cfg.Import.InboxDir != "" {
		inbox := service.NewInboxWatcher(cfg.Import.InboxDir, importSvc, 0, logr)
		go func() {
			defer close(inboxDone)
			if err := inbox.Run(ctx); err != nil {
				logr.Error("inbox watcher stopped", zap.Error(err))
			}
		}()
	} else {
		close(inboxDone)
	}
	defer func() {
		stop()
		<-inboxDone
	}()

	studentSvc := service.NewStudentService(students, results, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjects, validate)
	exportSvc := service.NewExportService(results, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"database": db,
		"redis":    handler.PingFunc(cacheRepo.Ping),
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	importHandler := handler.NewImportHandler(importSvc, cfg.Import.MaxUploadBytes)
	studentHandler := handler.NewStudentHandler(studentSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	api := r.Group(cfg.APIPrefix)
	imports := api.Group("/imports", middleware.JWT(tokens))
	imports.POST("", importHandler.Create)
	imports.POST("/pdf", importHandler.UploadPDF)
	imports.GET("/:id", importHandler.Get)
	imports.GET("/:id/source", importHandler.Source)

	api.GET("/students/:roll", studentHandler.Get)
	api.GET("/students/:roll/results/:semester", studentHandler.Result)
	api.GET("/subjects", subjectHandler.List)
	api.GET("/exports/semesters/:semester", exportHandler.Semester)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
