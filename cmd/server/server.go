// cmd/server/server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/auth"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/bookings"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/booking"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/config"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/db"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/email"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/lock"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/mq"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/obs"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/payments"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/ratelimit"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/scheduler"
)

type publisher interface {
	booking.Publisher
	Close() error
}

// app owns every long-lived dependency of the server so shutdown can release
// them in reverse order of construction.
type app struct {
	server         *http.Server
	database       *db.DB
	redisLock      *lock.Redis
	publisher      publisher
	notifier       *email.Notifier
	limiter        *ratelimit.Limiter
	shutdownTracer func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.shutdown(context.Background())
		}
	}()

	a.shutdownTracer, err = obs.InitTracer(ctx, obs.Options{
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		Enabled:     cfg.Features.EnableTracing,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a.database, err = db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	tokens, err := auth.NewTokens(cfg.App.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("configure auth: %w", err)
	}

	deps := booking.Deps{
		DB: a.database,
		Options: booking.Options{
			RefundWindowHours: cfg.Booking.RefundWindowHours,
			Currency:          cfg.Booking.Currency,
			QueryTimeout:      cfg.Booking.QueryTimeout,
			PaymentIntentTTL:  cfg.Booking.PaymentIntentTTL,
		},
	}

	switch cfg.Lock.Driver {
	case "redis":
		a.redisLock = lock.NewRedis(lock.NewRedisPool(cfg.Lock.RedisAddr, cfg.Lock.Password), cfg.Lock.TTL)
		deps.Locker = a.redisLock
		log.Info().Str("addr", cfg.Lock.RedisAddr).Msg("Using redis event lock")
	default:
		deps.Locker = lock.NewLocal()
	}

	switch cfg.Payments.Provider {
	case "omise":
		gateway, err := payments.NewOmise(cfg.Payments.PublicKey, cfg.Payments.SecretKey, payments.OmiseOptions{
			SourceType: cfg.Payments.SourceType,
			ReturnURI:  cfg.Payments.ReturnURI,
			Timeout:    cfg.Payments.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("configure payments: %w", err)
		}
		deps.Gateway = gateway
	default:
		log.Warn().Msg("Payments disabled; paid drop-ins will be refused")
		deps.Gateway = payments.Disabled{}
	}

	if cfg.Events.Enabled {
		pub, err := mq.NewPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			return nil, fmt.Errorf("connect event publisher: %w", err)
		}
		a.publisher = pub
	} else {
		a.publisher = mq.Noop{}
	}
	deps.Publisher = a.publisher

	if cfg.Email.Enabled {
		sesClient, err := email.NewSESClient(ctx, email.SESOptions{
			Region:          cfg.Email.Region,
			Sender:          cfg.Email.Sender,
			AccessKeyID:     cfg.Email.AccessKeyID,
			SecretAccessKey: cfg.Email.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("configure email: %w", err)
		}
		a.notifier = email.NewNotifier(sesClient, 0)
		deps.Notifier = a.notifier
	}

	svc, err := booking.NewService(deps)
	if err != nil {
		return nil, fmt.Errorf("create booking service: %w", err)
	}

	if err := scheduler.Init(); err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	if err := scheduler.RegisterBookingJobs(svc, cfg.Scheduler, cfg.Booking.RefundBatchSize); err != nil {
		return nil, fmt.Errorf("register scheduler jobs: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	a.limiter = ratelimit.New(&ratelimit.Config{
		PerMinute:   cfg.Booking.RateLimitPerMinute,
		IPPerMinute: cfg.Booking.RateLimitIPPerMin,
	})

	a.server = newServer(cfg, routes(svc, a.database, tokens, a.limiter, cfg.App.TrustProxy))
	return a, nil
}

func newServer(cfg *config.Config, router http.Handler) *http.Server {
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func routes(svc bookings.BookingService, database *db.DB, tokens *auth.Tokens, limiter *ratelimit.Limiter, trustProxy bool) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	apiMux := http.NewServeMux()
	bookings.NewHandler(svc, database.Queries).Register(apiMux)
	mux.Handle("/api/", api.ChainMiddleware(
		apiMux,
		api.WithRateLimit(limiter, trustProxy),
		api.WithAuth(tokens),
	))

	return mux
}

func (a *app) shutdown(ctx context.Context) error {
	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown error: %w", err))
		}
	}
	if err := scheduler.Stop(); err != nil && !errors.Is(err, scheduler.ErrNotInitialized) {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if a.notifier != nil {
		waitWithContext(ctx, a.notifier.Wait)
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if a.redisLock != nil {
		if err := a.redisLock.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis lock: %w", err))
		}
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	return errors.Join(errs...)
}

// waitWithContext runs wait until it returns or ctx is done.
func waitWithContext(ctx context.Context, wait func()) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Msg("Timed out waiting for pending emails")
	}
}
