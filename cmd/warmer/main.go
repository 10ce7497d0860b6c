package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"sunflower_web/internal/adapters/backend"
	"sunflower_web/internal/adapters/observability"
	redisad "sunflower_web/internal/adapters/redis"
	"sunflower_web/internal/app"
	"sunflower_web/internal/session"
	"sunflower_web/internal/shared"
)

// warmer fills the shared Redis lookup cache so the first search of each web
// instance does not wait on the backend.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.BackendBase).
		Dur("interval", cfg.WarmInterval).
		Msg("warmer starting")

	rdb := redisad.Dial(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	log.Info().Msg("redis ping ok")

	client, err := backend.New(cfg.BackendBase, cfg.BackendRPS, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}
	// lookup lists are public; the gateway never needs a token here
	q := app.NewQueryService(client.Gateway(session.NewMemoryStore(), nil), redisad.New(rdb), cfg.CacheTTL())

	warm := func() {
		start := time.Now()
		cat, err := q.RefreshCatalog(ctx)
		ev := log.Info()
		if err != nil {
			ev = log.Warn().Err(err)
		}
		ev.Int("room_types", len(cat.RoomTypes)).
			Int("amenities", len(cat.Amenities)).
			Int("view_types", len(cat.ViewTypes)).
			Int("hotel_chains", len(cat.HotelChains)).
			Dur("took", time.Since(start)).
			Msg("catalog warmed")
	}

	warm()
	if cfg.WarmInterval <= 0 {
		return
	}

	t := time.NewTicker(cfg.WarmInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("warmer stopped")
			return
		case <-t.C:
			warm()
		}
	}
}
