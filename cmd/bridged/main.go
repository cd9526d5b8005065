package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/communeos/bridgenet/pkg/api"
	"github.com/communeos/bridgenet/pkg/archive"
	"github.com/communeos/bridgenet/pkg/config"
	"github.com/communeos/bridgenet/pkg/detect"
	"github.com/communeos/bridgenet/pkg/events"
	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/graphql"
	"github.com/communeos/bridgenet/pkg/health"
	"github.com/communeos/bridgenet/pkg/impact"
	"github.com/communeos/bridgenet/pkg/logging"
	"github.com/communeos/bridgenet/pkg/metrics"
	"github.com/communeos/bridgenet/pkg/pubsub"
	"github.com/communeos/bridgenet/pkg/recommend"
	"github.com/communeos/bridgenet/pkg/scheduler"
	"github.com/communeos/bridgenet/pkg/server"
	"github.com/communeos/bridgenet/pkg/source"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config, or set PORT)")
	flag.Parse()

	log := logging.NewDefaultLogger().With(logging.Component("bridged"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", logging.Error(err))
		os.Exit(1)
	}
	if *port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if p, err := strconv.Atoi(envPort); err == nil {
				*port = p
			}
		}
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log.Info("bridgenet engine starting", logging.Int("port", cfg.Server.Port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := metrics.NewRegistry()
	store := graph.NewStore()
	detector := detect.NewDetector(cfg.Detect, log)
	calculator := impact.NewCalculator(cfg.Impact)
	engine := recommend.NewEngine(cfg.Recommend)
	bus := pubsub.NewBus()

	// Platform data feed: Postgres behind a circuit breaker when a
	// database is configured, otherwise an empty static feed so the
	// read API still serves.
	var feed source.Feed
	var pgFeed *source.PGFeed
	if cfg.Source.DatabaseURL != "" {
		pgFeed, err = source.NewPGFeed(ctx, cfg.Source.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to platform database", logging.Error(err))
			os.Exit(1)
		}
		feed = source.NewBreakerFeed(pgFeed, log)
		log.Info("platform feed connected")
	} else {
		log.Warn("no database_url configured, serving an empty network")
		feed = source.NewStaticFeed(nil, nil, nil)
	}

	var archiver scheduler.Archiver
	if cfg.Archive.Enabled {
		s3, err := archive.NewS3Archiver(ctx, cfg.Archive, log)
		if err != nil {
			log.Error("failed to initialize snapshot archiver", logging.Error(err))
			os.Exit(1)
		}
		archiver = s3
		log.Info("snapshot archiving enabled", logging.String("bucket", cfg.Archive.Bucket))
	}

	sched := scheduler.New(cfg.Scheduler, store, detector, feed, bus, archiver, registry, log)

	// First snapshot before serving traffic. A failed startup run is not
	// fatal: the scheduler keeps retrying on its interval.
	if err := sched.RunOnce(ctx); err != nil {
		log.Warn("startup recompute failed", logging.Error(err))
	}
	sched.Start(ctx)

	if cfg.Source.EventsAddr != "" {
		sub, err := events.NewSubscriber(cfg.Source.EventsAddr, sched, log)
		if err != nil {
			log.Error("failed to connect to platform event stream", logging.Error(err))
			os.Exit(1)
		}
		go func() {
			if err := sub.Listen(ctx); err != nil && ctx.Err() == nil {
				log.Error("event subscriber stopped", logging.Error(err))
			}
		}()
		log.Info("subscribed to platform change events",
			logging.String("addr", cfg.Source.EventsAddr))
	}

	checker := health.NewChecker()
	checker.RegisterCheck("snapshot", health.SnapshotCheck(store, 3*cfg.Scheduler.Interval))
	checker.RegisterCheck("feed", health.FeedCheck(feed))
	checker.RegisterReadinessCheck("snapshot", health.SnapshotCheck(store, 3*cfg.Scheduler.Interval))

	gqlHandler, err := graphql.NewHandler(&graphql.Resolver{
		Store:      store,
		Calculator: calculator,
		Engine:     engine,
	}, log)
	if err != nil {
		log.Error("failed to build graphql schema", logging.Error(err))
		os.Exit(1)
	}

	apiServer := api.NewServer(store, calculator, engine, cfg.Server.Port, api.Options{
		Scheduler:       sched,
		HealthChecker:   checker,
		MetricsRegistry: registry,
		GraphQLHandler:  gqlHandler,
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		Logger:          log,
	})

	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, log, func(next config.Config) {
				// Detection thresholds take effect on the next recompute
				// cycle. Server, source and archive wiring is fixed at
				// startup and needs a restart.
				detector.SetConfig(next.Detect)
				log.Info("detection thresholds updated from config file")
			})
			if err != nil && ctx.Err() == nil {
				log.Warn("config watcher stopped", logging.Error(err))
			}
		}()
	}

	gs := server.NewGracefulServer(apiServer.Addr(), apiServer.Handler(), log)
	gs.OnShutdown(func() {
		cancel()
		sched.Stop()
		bus.Shutdown()
		if pgFeed != nil {
			pgFeed.Close()
		}
	})

	if err := gs.Start(); err != nil {
		log.Error("server exited with error", logging.Error(err))
		os.Exit(1)
	}
}
