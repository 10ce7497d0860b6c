package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"sunflower_web/internal/adapters/backend"
	server "sunflower_web/internal/adapters/http_server"
	"sunflower_web/internal/adapters/observability"
	redisad "sunflower_web/internal/adapters/redis"
	"sunflower_web/internal/domain"
	"sunflower_web/internal/session"
	"sunflower_web/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// sessions and lookup cache
	var (
		sessions session.Repository = session.NewMemoryRepository()
		cache    domain.Cache
	)
	if cfg.SessionBackend == "redis" {
		rdb := redisad.Dial(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		log.Info().Msg("redis connection ok")
		sessions = redisad.NewSessions(rdb, cfg.SessionTTL)
		cache = redisad.New(rdb)
	}

	api, err := backend.New(cfg.BackendBase, cfg.BackendRPS, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}

	h, err := server.NewHandlers(server.Deps{
		Backend:      api,
		Sessions:     sessions,
		Cache:        cache,
		CacheTTL:     cfg.CacheTTL(),
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("handlers init failed")
	}

	// http
	srv := server.New(15 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("backend", cfg.BackendBase).
		Str("sessions", cfg.SessionBackend).
		Msg("web listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
