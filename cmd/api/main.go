package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"

	"seniorguard/internal/api"
	"seniorguard/internal/api/handlers"
	apimiddleware "seniorguard/internal/api/middleware"
	"seniorguard/internal/config"
	"seniorguard/internal/domain/services"
	grpchealth "seniorguard/internal/grpc/health"
	"seniorguard/internal/infrastructure/cache"
	"seniorguard/internal/metrics"
	"seniorguard/internal/sources"
	"seniorguard/internal/sources/catalog"
	"seniorguard/internal/streaming"
	"seniorguard/pkg/logger"
)

func main() {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting SeniorGuard scan engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional: without it the verdict cache falls back to memory and rate limiting is off
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, scan events stay local")
			natsPublisher = nil
		}
	}

	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()
	wsHub := streaming.NewWebSocketHub(log)
	go wsHub.Run(ctx)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	registry := sources.NewRegistry(log)
	if err := catalog.Register(registry, cfg.Providers, log); err != nil {
		log.Fatal().Err(err).Msg("failed to register signal sources")
	}

	opts := []services.EngineOption{
		services.WithMetrics(m),
		services.WithPublisher(streaming.NewScanPublisher(eventBus, wsHub)),
		services.WithTranscriber(catalog.NewTranscriber(cfg.Providers, log)),
	}
	if memo := newMemoizer(cfg.Engine.Cache, redisCache, log); memo != nil {
		opts = append(opts, services.WithMemoizer(memo))
	}
	engine := services.NewEngine(cfg.Engine, registry, log, opts...)

	checks := map[string]handlers.Checker{}
	probes := map[string]grpchealth.Probe{}
	if redisCache != nil {
		checks["redis"] = redisCache
		probes["redis"] = redisCache.Ping
	}
	if natsPublisher != nil {
		natsCheck := func(context.Context) error {
			if !natsPublisher.IsConnected() {
				return streaming.ErrNotConnected
			}
			return nil
		}
		checks["nats"] = handlers.CheckerFunc(natsCheck)
		probes["nats"] = natsCheck
	}

	h := handlers.NewHandlers(handlers.Dependencies{
		Engine:        engine,
		Checks:        checks,
		EventBus:      eventBus,
		WSHub:         wsHub,
		MaxAudioBytes: cfg.Engine.MaxAudioBytes,
		Version:       cfg.App.Version,
		Logger:        log,
	})

	var limiter apimiddleware.Limiter
	if redisCache != nil {
		limiter = redisCache
	}
	router := api.NewRouter(*cfg, h, limiter, promRegistry, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	healthReporter := grpchealth.Register(grpcServer, probes, log)
	go healthReporter.Run(ctx)

	go func() {
		log.Info().Str("addr", grpcListener.Addr().String()).Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// newMemoizer picks the verdict cache backend. It returns nil when caching is off.
func newMemoizer(cfg config.CacheConfig, redisCache *cache.RedisCache, log *logger.Logger) *cache.Memoizer {
	if !cfg.Enabled {
		return nil
	}

	var backend cache.Backend
	switch {
	case cfg.Backend == "redis" && redisCache != nil:
		backend = redisCache
	case cfg.Backend == "redis":
		log.Warn().Msg("redis verdict cache requested but Redis is unavailable, using memory")
		fallthrough
	default:
		backend = cache.NewMemory(cfg.Capacity, cfg.TTL)
	}

	log.Info().Str("backend", cfg.Backend).Dur("ttl", cfg.TTL).Msg("verdict cache enabled")
	return cache.NewMemoizer(backend, cfg.TTL, log)
}
