package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/auth"
	"github.com/freeeve/age-of-conquest/internal/config"
	"github.com/freeeve/age-of-conquest/internal/handler"
	"github.com/freeeve/age-of-conquest/internal/logger"
	"github.com/freeeve/age-of-conquest/internal/repository"
	redisrepo "github.com/freeeve/age-of-conquest/internal/repository/redis"
	"github.com/freeeve/age-of-conquest/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("port", cfg.Port).Bool("redis", cfg.RedisURL != "").
		Str("generator", string(cfg.Rules.Generator)).Str("combat", string(cfg.Rules.Combat)).
		Dur("idleTimeout", cfg.IdleTimeout).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub
	wsHub := handler.NewHub()

	// Redis (optional). Left as a nil interface when disabled.
	var cache repository.MatchCache
	var redisClient *redisrepo.Client
	if cfg.RedisURL != "" {
		var err error
		redisClient, err = redisrepo.NewClient(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()
		cache = redisClient
	}

	// Services
	settings := service.DefaultSettings()
	settings.Rules = cfg.Rules
	settings.Opponent = cfg.Opponent
	matchSvc := service.NewMatchService(cache, wsHub, settings)

	go service.NewReaper(matchSvc, cfg.IdleTimeout).Start(ctx)
	if redisClient != nil {
		go service.NewEventRelay(redisClient.Underlying(), wsHub).Start(ctx)
	}

	// Auth + handlers
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	router := handler.NewRouter(
		handler.NewMatchHandler(matchSvc, jwtMgr),
		handler.NewWSHandler(wsHub, matchSvc, jwtMgr),
		jwtMgr,
		cfg.CORSOrigin,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	matchSvc.Shutdown()
	log.Info().Int("matches", matchSvc.Count()).Msg("Server stopped")
}
