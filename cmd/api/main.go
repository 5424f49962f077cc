package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/uptask/project-system/internal/api"
	"github.com/uptask/project-system/internal/core/service"
	"github.com/uptask/project-system/internal/infrastructure/config"
	"github.com/uptask/project-system/internal/infrastructure/db/mongo"
	"github.com/uptask/project-system/internal/infrastructure/db/redis"
	"github.com/uptask/project-system/internal/infrastructure/mail"
	"github.com/uptask/project-system/internal/realtime"
	"github.com/uptask/project-system/pkg/logger"
)

const sessionTokenTTL = 30 * 24 * time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		l := logger.Get()
		l.Fatal().Err(err).Msg("configuration error")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	// --- MongoDB ---
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(shutdownCtx)
	}()

	userRepo := mongo.NewUserRepository(db)
	projectRepo := mongo.NewProjectRepository(db)
	taskRepo := mongo.NewTaskRepository(db)
	for _, idx := range []interface {
		EnsureIndexes(context.Context) error
	}{userRepo, projectRepo, taskRepo} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	// --- Redis (optional cross-instance relay) ---
	var rdb *goredis.Client
	var relay realtime.Relay
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer func() { _ = rdb.Close() }()
		relay = redis.NewRelay(rdb, logger.For("relay"))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("event relay enabled")
	}

	// --- Realtime hub ---
	hub := realtime.NewHub(realtime.Options{
		Authorize: service.RoomAuthorizer(projectRepo),
		Relay:     relay,
		Logger:    logger.For("hub"),
	})
	go hub.Run(ctx)

	// --- Services ---
	mailer := mail.NewMailer(mail.Config{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		User:        cfg.SMTP.User,
		Password:    cfg.SMTP.Password,
		From:        cfg.SMTP.From,
		FrontendURL: cfg.FrontendURL,
	}, logger.For("mail"))

	authService := service.NewAuthService(userRepo, mailer, cfg.JWTSecret, sessionTokenTTL, logger.For("auth"))
	projectService := service.NewProjectService(projectRepo, taskRepo, userRepo, logger.For("projects"))
	taskService := service.NewTaskService(taskRepo, projectRepo, userRepo, hub, logger.For("tasks"))

	e := api.NewRouter(api.Deps{
		AuthService:    authService,
		ProjectService: projectService,
		TaskService:    taskService,
		Hub:            hub,
		Mongo:          db,
		Redis:          rdb,
		JWTSecret:      cfg.JWTSecret,
		FrontendURL:    cfg.FrontendURL,
		Logger:         log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
