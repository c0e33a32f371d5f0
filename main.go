package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legalport/config"
	_ "legalport/docs"
	"legalport/internal/realtime"
	"legalport/internal/repository"
	"legalport/internal/scheduler"
	"legalport/internal/service"
	"legalport/internal/storage"
	"legalport/internal/transport/rest"
	"legalport/internal/transport/websocket"
	"legalport/pkg/database"
	"legalport/pkg/logger"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title LegalPort API
// @version 1.0
// @description Consultation requests, chats, presence and video sessions between clients and lawyers

// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Environment, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("running database migrations")
	if err := database.RunMigrations(ctx, db, cfg.Postgres.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("migrations applied")

	if cfg.S3.Endpoint == "" {
		log.Fatal("S3_ENDPOINT is required for chat attachments")
	}
	fileStorage, err := storage.NewS3Storage(ctx, cfg.S3, log)
	if err != nil {
		log.Fatal("failed to initialize S3 storage", zap.Error(err))
	}
	log.Info("S3 storage initialized", zap.String("endpoint", cfg.S3.Endpoint), zap.String("bucket", cfg.S3.Bucket))

	broker := realtime.NewBroker()
	var publisher realtime.Publisher = broker
	if cfg.Realtime.Driver == "postgres" {
		notifier := realtime.NewPGNotifier(db, cfg.Realtime.Channel, broker, log)
		publisher = notifier
		go func() {
			if err := notifier.Run(ctx); err != nil {
				log.Error("change listener stopped", zap.Error(err))
			}
		}()
	}
	log.Info("realtime driver selected", zap.String("driver", cfg.Realtime.Driver))

	authService, err := service.NewAuthService(ctx, cfg.Auth, log)
	if err != nil {
		log.Fatal("failed to initialize auth", zap.Error(err))
	}

	repos := repository.NewRepositories(db)

	services := service.NewServices(service.Deps{
		Repos:       repos,
		Logger:      log,
		Config:      cfg,
		FileStorage: fileStorage,
		Auth:        authService,
		Publisher:   publisher,
		Subscriber:  broker,
	})

	sched := scheduler.NewScheduler(services.Presence, cfg.Presence, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	hub := websocket.NewHub(services, cfg.Presence, log)
	go hub.Run(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := rest.NewHandler(services, log, cfg, hub)
	handler.InitRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderMB << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	log.Info("server started", zap.String("addr", srv.Addr))

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("server stopped")
}
