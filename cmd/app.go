package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/broker"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/cache"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/config"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/database"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/handler"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/logging"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/memstore"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/metrics"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/service"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// app is the wired object graph shared by every subcommand.
type app struct {
	pool     *pgxpool.Pool
	rdb      *redis.Client
	metrics  *metrics.Metrics
	services handler.Services
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	// ── 1. Storage ────────────────────────────────────────────────────────
	var stores service.Stores
	switch cfg.Storage {
	case config.DriverMemory:
		mem := memstore.New()
		stores = service.Stores{Venues: mem, EventTypes: mem, Frequencies: mem, Events: mem, Facts: mem, Dances: mem}
		logging.Warn("using in-memory storage; data is lost on exit")
	default:
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.pool = pool
		stores = service.Stores{
			Venues:      repository.NewVenueRepository(pool),
			EventTypes:  repository.NewEventTypeRepository(pool),
			Frequencies: repository.NewFrequencyRepository(pool),
			Events:      repository.NewEventRepository(pool),
			Facts:       repository.NewLessonFactRepository(pool),
			Dances:      repository.NewDanceRepository(pool),
		}
		logging.Info("connected to PostgreSQL")
	}

	// ── 2. Optional side services ─────────────────────────────────────────
	var danceCache service.DanceCache
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			logging.Warn("redis unavailable, dance search is uncached", "err", err)
		} else {
			a.rdb = rdb
			danceCache = cache.NewDanceCache(rdb, cfg.Redis.DanceCacheTTL)
		}
	}

	var pub broker.Publisher = broker.Noop{}
	if cfg.AMQP.URL != "" {
		pub = broker.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
	}

	if cfg.Metrics {
		a.metrics = metrics.New()
	}

	// ── 3. Services ───────────────────────────────────────────────────────
	loc := cfg.Location()
	clock := wallclock.SystemClock{}
	a.services = handler.Services{
		Catalog:     service.NewCatalogService(stores),
		Occurrences: service.NewOccurrenceService(stores, loc, cfg.MaxWindowDays, clock, a.metrics),
		Events:      service.NewEventService(stores, cfg.MaxWindowDays, a.metrics),
		Commits:     service.NewCommitService(stores, loc, clock, pub, a.metrics),
		Dances:      service.NewDanceService(stores.Dances, danceCache),
	}
	return a, nil
}

// Close releases the connections newApp opened.
func (a *app) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logging.Warn("close redis", "err", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
