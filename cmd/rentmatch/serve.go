package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/RentMatch/internal/adapter/chatapi"
	rmhttp "github.com/Strob0t/RentMatch/internal/adapter/http"
	rmnats "github.com/Strob0t/RentMatch/internal/adapter/nats"
	"github.com/Strob0t/RentMatch/internal/adapter/natskv"
	rmotel "github.com/Strob0t/RentMatch/internal/adapter/otel"
	"github.com/Strob0t/RentMatch/internal/adapter/postgres"
	rmredis "github.com/Strob0t/RentMatch/internal/adapter/redis"
	"github.com/Strob0t/RentMatch/internal/adapter/ristretto"
	"github.com/Strob0t/RentMatch/internal/adapter/tiered"
	"github.com/Strob0t/RentMatch/internal/config"
	"github.com/Strob0t/RentMatch/internal/middleware"
	"github.com/Strob0t/RentMatch/internal/port/cache"
	"github.com/Strob0t/RentMatch/internal/port/chat"
	"github.com/Strob0t/RentMatch/internal/port/messagequeue"
	"github.com/Strob0t/RentMatch/internal/port/ratelimit"
	"github.com/Strob0t/RentMatch/internal/resilience"
	"github.com/Strob0t/RentMatch/internal/scheduler"
	"github.com/Strob0t/RentMatch/internal/secrets"
	"github.com/Strob0t/RentMatch/internal/service"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, notification dispatch and scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			closer := setupLogger(cfg.Logging)
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"dispatch_mode", cfg.Dispatch.Mode,
		"auth_enabled", cfg.Auth.Enabled,
	)

	// --- Telemetry ---

	shutdownOtel, err := rmotel.Init(ctx, cfg.Logging.Service, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(sctx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()
	metrics, err := rmotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Secrets ---

	vault, err := secrets.NewVault(secrets.Chain(
		secrets.StaticLoader(map[string]string{
			secrets.KeyJWTSecret:  cfg.Auth.JWTSecret,
			secrets.KeyChatAPIKey: cfg.Chat.APIKey,
		}),
		secrets.EnvLoader(secrets.KeyJWTSecret, secrets.KeyChatAPIKey),
	))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	if cfg.Auth.Enabled {
		if err := vault.Require(secrets.KeyJWTSecret); err != nil {
			return err
		}
	}
	go reloadOnHangup(ctx, vault)

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")
	store := postgres.NewStore(pool)

	queue, err := connectQueue(ctx, cfg)
	if err != nil {
		return err
	}
	if queue != nil {
		defer func() { _ = queue.Drain() }()
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	rdb, err := rmredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		limiter = rmredis.NewLimiter(rdb)
		slog.Info("redis contact limiter enabled")
	} else {
		slog.Warn("redis not configured, contact rate limit disabled")
	}

	anonCache, closeCache, err := buildCache(ctx, cfg.Cache, queue)
	if err != nil {
		return err
	}
	defer closeCache()

	threads := buildThreadCreator(cfg, vault, store)

	// --- Services ---

	anon := service.NewAnonymizer(store, anonCache, cfg.Cache.L2TTL)
	consentSvc := service.NewConsentService(store)
	marketSvc := service.NewMarketplaceService(store, anon, metrics)
	notifySvc := service.NewNotificationService(store, threads, cfg.Marketplace.ThreadActionPath, cfg.Marketplace.NotificationLimit, metrics)

	var emitter service.Emitter
	if cfg.Dispatch.Mode == config.DispatchQueue {
		emitter = service.NewQueueEmitter(queue, cfg.Dispatch.Timeout)
		cancelSub, err := queue.Subscribe(ctx, messagequeue.SubjectContactCreated, notifySvc.HandleContactCreated)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", messagequeue.SubjectContactCreated, err)
		}
		defer cancelSub()
	} else {
		emitter = service.NewSyncEmitter(notifySvc, cfg.Dispatch.Timeout)
	}

	contactSvc := service.NewContactService(store, anon, limiter, emitter, service.ContactLimits{
		PerWindow:        cfg.Marketplace.ContactLimit,
		Window:           cfg.Marketplace.ContactWindow,
		MessageMaxLength: cfg.Marketplace.MessageMaxLength,
	}, metrics)

	// --- Scheduled jobs ---

	rl := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	sched := scheduler.New(slog.Default())
	redelivery := service.NewRedelivery(store, emitter, cfg.Dispatch.RedeliveryGrace, cfg.Dispatch.RedeliveryBatch)
	if err := sched.Add("contact-redelivery", cfg.Dispatch.RedeliverySchedule, time.Minute, redelivery.Run); err != nil {
		return err
	}
	if err := sched.Add("ratelimit-cleanup", "@every 5m", 0, func(context.Context) error {
		if n := rl.Cleanup(10 * time.Minute); n > 0 {
			slog.Debug("rate limit buckets evicted", "count", n)
		}
		return nil
	}); err != nil {
		return err
	}

	// --- HTTP ---

	health := rmhttp.NewHealth(rmhttp.Version)
	health.AddCheck("postgres", store.Ping)
	if queue != nil {
		health.AddCheck("nats", func(context.Context) error {
			if !queue.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		})
	}
	if rdb != nil {
		health.AddCheck("redis", rdb.Health)
	}

	handlers := &rmhttp.Handlers{
		Marketplace:   marketSvc,
		Contacts:      contactSvc,
		Privacy:       consentSvc,
		Notifications: notifySvc,
		Health:        health,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
	}

	var idempotent func(http.Handler) http.Handler
	if queue != nil {
		kv, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
		if err != nil {
			return fmt.Errorf("idempotency bucket: %w", err)
		}
		idempotent = middleware.Idempotency(kv)
	}

	verifier := middleware.NewTokenVerifier(vault.Getter(secrets.KeyJWTSecret), cfg.Auth.Issuer)
	if !cfg.Auth.Enabled {
		slog.Warn("authentication disabled, requests run as the dev principal")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(rmotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(rmhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(rmhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(rmhttp.SecurityHeaders)
	r.Use(middleware.Auth(verifier, cfg.Auth.Enabled))
	r.Use(rl.Handler)
	rmhttp.MountRoutes(r, handlers, idempotent)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	sched.Start()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		if serr := sched.Stop(sctx); serr != nil {
			slog.Warn("scheduler stop", "error", serr)
		}
		return err
	})
	return g.Wait()
}

// connectQueue connects to NATS. Queue dispatch cannot run without it; in
// sync mode it only backs the caches and idempotency, so failures degrade.
func connectQueue(ctx context.Context, cfg *config.Config) (*rmnats.Queue, error) {
	if cfg.NATS.URL == "" {
		return nil, nil
	}
	q, err := rmnats.Connect(ctx, cfg.NATS.URL)
	if err == nil {
		return q, nil
	}
	if cfg.Dispatch.Mode == config.DispatchQueue {
		return nil, fmt.Errorf("nats: %w", err)
	}
	slog.Warn("nats unavailable, continuing without shared cache and idempotency", "error", err)
	return nil, nil
}

// buildCache returns the anonymous-id cache: ristretto in process, backed by
// a NATS KV bucket when the queue is available.
func buildCache(ctx context.Context, cfg config.Cache, queue *rmnats.Queue) (cache.Cache, func(), error) {
	l1, err := ristretto.New(cfg.L1MaxSizeMB)
	if err != nil {
		return nil, nil, fmt.Errorf("l1 cache: %w", err)
	}
	var l2 cache.Cache
	if queue != nil {
		kv, err := queue.KeyValue(ctx, cfg.L2Bucket, cfg.L2TTL)
		if err != nil {
			l1.Close()
			return nil, nil, fmt.Errorf("l2 cache: %w", err)
		}
		l2 = natskv.New(kv)
	}
	return tiered.New(l1, l2, cfg.L2TTL), l1.Close, nil
}

// buildThreadCreator uses the external chat service when configured and the
// local chat_threads table otherwise.
func buildThreadCreator(cfg *config.Config, vault *secrets.Vault, store *postgres.Store) chat.ThreadCreator {
	if cfg.Chat.URL == "" {
		slog.Info("chat service not configured, recording threads locally")
		return store
	}
	client := chatapi.NewClient(cfg.Chat.URL, vault.Getter(secrets.KeyChatAPIKey), cfg.Chat.Timeout)
	client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
		resilience.WithStateChange(func(from, to resilience.State) {
			slog.Warn("chat breaker state changed", "from", from.String(), "to", to.String())
		}),
		// 4xx replies mean our request was wrong, not that the service is down.
		resilience.WithFailurePredicate(func(err error) bool {
			var se *chatapi.StatusError
			return !errors.As(err, &se) || se.Status >= 500
		}),
	))
	return client
}

// reloadOnHangup re-reads secrets on SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, vault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := vault.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded", "keys", vault.Keys())
		}
	}
}
