package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chefascend/cook-server-go/internal/config"
	"github.com/chefascend/cook-server-go/internal/database"
	"github.com/chefascend/cook-server-go/internal/handler"
	"github.com/chefascend/cook-server-go/internal/jobs"
	"github.com/chefascend/cook-server-go/internal/middleware"
	"github.com/chefascend/cook-server-go/internal/redis"
	"github.com/chefascend/cook-server-go/internal/repository"
	"github.com/chefascend/cook-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	// Redis is an accelerator, not a dependency. A missing or broken
	// Redis leaves redisClient nil and the server runs DB-only.
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info().Msg("redis connected")
		}
	} else {
		log.Info().Msg("redis disabled by config")
	}

	dishRepo := repository.NewDishRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	recordRepo := repository.NewRecordRepository(db.DB)

	dishService := service.NewDishService(dishRepo, redisClient)
	sessionService := service.NewSessionService(db, dishRepo, sessionRepo, redisClient)
	recordService := service.NewRecordService(db, recordRepo, redisClient)

	dishHandler := handler.NewDishHandler(dishService)
	recordHandler := handler.NewRecordHandler(recordService)
	sessionHandler := handler.NewSessionHandler(sessionService, recordHandler)

	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	rateLimitMiddleware := middleware.NewIPRateLimitMiddleware(redisClient, cfg.RateLimitPerIP)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		cache := "disabled"
		if redisClient != nil {
			cache = "connected"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"cache":     cache,
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/dishes", dishHandler.Routes())
		r.Mount("/cook-sessions", sessionHandler.Routes())
		r.Mount("/users", recordHandler.UserRoutes())
	})

	sweeperJob := jobs.NewSweeperJob(sessionRepo, config.SweeperInterval, config.StaleSessionCutoff)
	sweeperJob.Start()
	defer sweeperJob.Stop()

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
