package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/voicedesk/redial/modules/calendarsync"
	"github.com/voicedesk/redial/modules/outboundcall"
	"github.com/voicedesk/redial/modules/webhookreplay"
	"github.com/voicedesk/redial/pkg/config"
	"github.com/voicedesk/redial/pkg/dispatch"
	"github.com/voicedesk/redial/pkg/eligibility"
	"github.com/voicedesk/redial/pkg/httpserver"
	"github.com/voicedesk/redial/pkg/logger"
	"github.com/voicedesk/redial/pkg/notify"
	"github.com/voicedesk/redial/pkg/operation"
	"github.com/voicedesk/redial/pkg/pg"
	"github.com/voicedesk/redial/pkg/redis"
	"github.com/voicedesk/redial/pkg/requestid"
	"github.com/voicedesk/redial/pkg/sweep"
)

type appConfig struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	OwnersFile string `env:"OWNERS_CONFIG_PATH" envDefault:"owners.yaml"`

	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	SweepBatchSize   int           `env:"SWEEP_BATCH_SIZE" envDefault:"100"`
	SweepConcurrency int           `env:"SWEEP_CONCURRENCY" envDefault:"10"`

	EffectTimeout    time.Duration `env:"EFFECT_TIMEOUT" envDefault:"1m"`
	ClaimLockTimeout time.Duration `env:"CLAIM_LOCK_TIMEOUT" envDefault:"5m"`

	RetentionAge      time.Duration `env:"RETENTION_AGE" envDefault:"720h"`
	RetentionInterval time.Duration `env:"RETENTION_INTERVAL" envDefault:"1h"`

	OutboundCallsEnabled bool `env:"OUTBOUND_CALLS_ENABLED" envDefault:"false"`
	EmailAlertsEnabled   bool `env:"EMAIL_ALERTS_ENABLED" envDefault:"false"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleTokenURL     string `env:"GOOGLE_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`

	AlertRecipientEmail string `env:"ALERT_RECIPIENT_EMAIL"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("rediald exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("failed to load app config: %w", err)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "rediald"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	// Postgres: durable operation store plus quota counters.
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return fmt.Errorf("failed to load postgres config: %w", err)
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	store, err := operation.NewPostgresStore(pool)
	if err != nil {
		return err
	}

	// Redis: shared daily quota counters across workers.
	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Owner eligibility: windows from the config file, quota from Redis.
	source, err := ownerSource(cfg, log)
	if err != nil {
		return err
	}
	// The evaluator must read the same counter that Release charges, or the
	// daily cap silently stops counting. The operation store charges quota
	// inside the release transaction, so it is also the reader here.
	evaluator, err := eligibility.NewEvaluator(source,
		eligibility.WithQuota(store),
	)
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}

	dispatcher, err := dispatch.NewDispatcher(store,
		dispatch.WithNotifier(notifier),
		dispatch.WithOwnerSource(source),
		dispatch.WithEffectTimeout(cfg.EffectTimeout),
		dispatch.WithLockTimeout(cfg.ClaimLockTimeout),
		dispatch.WithDispatcherLogger(log),
	)
	if err != nil {
		return err
	}
	tokens := calendarsync.NewPostgresTokenStore(pool)
	if err := registerHandlers(dispatcher, redisClient, tokens, cfg); err != nil {
		return err
	}

	// Sweep only the kinds this process can handle. Operations of a disabled
	// kind stay awaitable instead of dead-ending as failed_terminal.
	sweeper, err := sweep.NewSweeper(store, dispatcher,
		sweep.WithInterval(cfg.SweepInterval),
		sweep.WithBatchSize(cfg.SweepBatchSize),
		sweep.WithMaxConcurrent(cfg.SweepConcurrency),
		sweep.WithKinds(dispatcher.Kinds()...),
		sweep.WithEvaluator(evaluator),
		sweep.WithSweeperLogger(log),
	)
	if err != nil {
		return err
	}

	waker, err := sweep.NewWaker(store, dispatcher,
		sweep.WithWakerEvaluator(evaluator),
		sweep.WithWakerLogger(log),
	)
	if err != nil {
		return err
	}
	defer waker.Stop()

	canceller, err := sweep.NewCanceller(store,
		sweep.WithCancellerWaker(waker),
		sweep.WithCancellerLogger(log),
	)
	if err != nil {
		return err
	}

	enqueuer, err := operation.NewEnqueuer(store)
	if err != nil {
		return err
	}

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("failed to load http config: %w", err)
	}
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))

	api := &intakeAPI{
		enqueuer:   enqueuer,
		store:      store,
		dispatcher: dispatcher,
		waker:      waker,
		canceller:  canceller,
		log:        log,
	}
	r.Route("/v1", api.routes)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeper.Run(ctx)
	})
	g.Go(func() error {
		return runRetention(ctx, store, cfg, log)
	})
	g.Go(func() error {
		return srv.Run(ctx, r)
	})

	log.InfoContext(ctx, "rediald started", slog.String("env", cfg.Env))

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// ownerSource loads the per-owner eligibility file, falling back to an
// always-open default when none exists so a fresh deployment still runs.
func ownerSource(cfg appConfig, log *slog.Logger) (eligibility.Source, error) {
	source, err := eligibility.NewFileSource(cfg.OwnersFile)
	if err == nil {
		return source, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load owner config %q: %w", cfg.OwnersFile, err)
	}

	log.Warn("owner config file not found, all owners get the default window",
		slog.String("path", cfg.OwnersFile))
	return eligibility.NewStaticSource(nil,
		eligibility.WithFallbackWindow(eligibility.Window{}),
	), nil
}

// buildNotifier assembles the alert fan-out: always the structured log,
// optionally Postmark email to the ops address.
func buildNotifier(cfg appConfig, log *slog.Logger) (notify.Notifier, error) {
	notifiers := []notify.Notifier{notify.NewLogNotifier(log)}

	if cfg.EmailAlertsEnabled {
		var emailCfg notify.EmailConfig
		if err := config.Load(&emailCfg); err != nil {
			return nil, fmt.Errorf("failed to load email alert config: %w", err)
		}
		email, err := notify.NewEmailNotifier(emailCfg, func(ctx context.Context, ownerID string) (string, error) {
			return cfg.AlertRecipientEmail, nil
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, email)
	}

	return notify.NewMulti(notifiers, notify.WithMultiLogger(log)), nil
}

func registerHandlers(d *dispatch.Dispatcher, redisClient *goredis.Client, tokens calendarsync.TokenStore, cfg appConfig) error {
	handlers := []dispatch.Handler{
		webhookreplay.NewReplayer().Handler(),
	}

	if cfg.OutboundCallsEnabled {
		var callCfg outboundcall.APIConfig
		if err := config.Load(&callCfg); err != nil {
			return fmt.Errorf("failed to load call platform config: %w", err)
		}
		caller := outboundcall.NewAPICaller(callCfg)
		module, err := outboundcall.NewModule(caller,
			outboundcall.WithDNCList(outboundcall.NewRedisDNCList(redisClient, "")),
		)
		if err != nil {
			return err
		}
		handlers = append(handlers, module.Handler())
	}

	if cfg.GoogleClientID != "" {
		refresher, err := calendarsync.NewRefresher(tokens,
			calendarsync.WithProvider("google", calendarsync.ProviderConfig{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				TokenURL:     cfg.GoogleTokenURL,
			}))
		if err != nil {
			return err
		}
		handlers = append(handlers, refresher.Handler())
	}

	return d.RegisterHandlers(handlers...)
}

// runRetention periodically deletes terminal operations past the retention
// age. Terminal states are sinks, so dropping old rows never changes engine
// behavior.
func runRetention(ctx context.Context, store operation.Store, cfg appConfig, log *slog.Logger) error {
	ticker := time.NewTicker(cfg.RetentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			purged, err := store.PurgeTerminal(ctx, time.Now().Add(-cfg.RetentionAge))
			if err != nil {
				log.ErrorContext(ctx, "retention sweep failed", logger.Error(err))
				continue
			}
			if purged > 0 {
				log.InfoContext(ctx, "purged terminal operations", slog.Int("count", purged))
			}
		}
	}
}
