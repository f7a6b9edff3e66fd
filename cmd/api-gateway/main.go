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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Teymccall/UCAES2025-fullstack-system-sub006/api/swagger"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/handler"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/middleware"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/repository"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/service"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/cache"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/config"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/database"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/jobs"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/logger"
	corsmiddleware "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/middleware/cors"
	reqidmiddleware "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/middleware/requestid"
)

// @title UCAES Academic Lifecycle API
// @version 1.0.0
// @description Transcripts, course registration and level progression for the student portal
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to primary database", zap.Error(err))
	}
	defer db.Close()

	legacyDB, err := database.NewLegacyMirror(cfg.LegacyDatabase)
	if err != nil {
		logr.Fatal("failed to connect to legacy mirror", zap.Error(err))
	}
	defer legacyDB.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	students := repository.NewStudentRepository(db)
	legacyStudents := repository.NewLegacyStudentRepository(legacyDB)
	grades := repository.NewGradeRepository(db)
	legacyGrades := repository.NewLegacyGradeRepository(legacyDB)
	courses := repository.NewCourseRepository(db)
	registrations := repository.NewRegistrationRepository(db)
	calendars := repository.NewCalendarRepository(db)
	audits := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)
	identitySvc := service.NewIdentityService(students, legacyStudents, logr)
	gradebookSvc := service.NewGradebookService(grades, legacyGrades, courses, cfg.Transcripts.SourceTimeout, logr)
	transcriptSvc := service.NewTranscriptService(identitySvc, gradebookSvc, cacheRepo, metricsSvc, cfg.Transcripts.CacheTTL, logr)
	registrationSvc := service.NewRegistrationService(identitySvc, registrations, calendars, courses, logr)
	progressionSvc := service.NewProgressionService(students, grades, calendars, audits, cacheRepo, cfg.Progression.AuditHistorySize, logr)

	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc, identitySvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	progressionHandler := handler.NewProgressionHandler(progressionSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "primary database"})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalJWT(tokenSvc))
	{
		api.GET("/transcripts", transcriptHandler.Get)
		api.POST("/transcripts", transcriptHandler.Search)
		api.GET("/transcripts/export", transcriptHandler.Export)

		api.GET("/registrations", registrationHandler.List)
		api.GET("/registrations/eligibility", registrationHandler.Eligibility)
		api.POST("/registrations", registrationHandler.Create)

		api.POST("/progression/scheduler", progressionHandler.Run)
		api.GET("/progression/scheduler", progressionHandler.RunManual)
		api.GET("/progression/audit", progressionHandler.Audit)

		guarded := api.Group("/progression")
		guarded.Use(middleware.JWT(tokenSvc))
		guarded.POST("/halt", progressionHandler.Halt)
		guarded.DELETE("/halt", progressionHandler.Resume)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := jobs.NewQueue("progression", func(ctx context.Context, job jobs.Job) error {
		mode, ok := job.Payload.(models.StudyMode)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		_, err := progressionSvc.RunSchedule(ctx, mode, false, models.ActorScheduled)
		return err
	}, jobs.QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Minute, Logger: logr})

	if cfg.Progression.Enabled {
		queue.Start(ctx)
		defer queue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Progression.TriggerInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					for _, mode := range []models.StudyMode{models.StudyModeRegular, models.StudyModeWeekend} {
						job := jobs.Job{Type: "progression-run", Payload: mode}
						if err := queue.Enqueue(job); err != nil {
							logr.Warn("failed to enqueue progression run", zap.Error(err))
						}
					}
				}
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
