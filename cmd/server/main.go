package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	consenthandler "sapid/internal/consent/handler"
	consentservice "sapid/internal/consent/service"
	formshandler "sapid/internal/forms/handler"
	formsservice "sapid/internal/forms/service"
	"sapid/internal/platform/config"
	"sapid/internal/platform/httpserver"
	"sapid/internal/platform/logger"
	"sapid/internal/platform/metrics"
	"sapid/internal/platform/middleware"
	"sapid/internal/platform/scheduler"
	ratelimitmw "sapid/internal/ratelimit/middleware"
	"sapid/internal/ratelimit/store/bucket"
	httptransport "sapid/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("SAPID_TRUSTED_PROXIES: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	prefs, err := openPreferenceStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer prefs.close()

	consent := consentservice.New(prefs.store,
		consentservice.WithLogger(log),
		consentservice.WithMetrics(m),
		consentservice.WithSessionTTL(cfg.Sessions.TTL),
	)
	forms := formsservice.New(
		formsservice.WithLogger(log),
		formsservice.WithMetrics(m),
		formsservice.WithScheduler(scheduler.Timer{}),
		formsservice.WithTiming(formsservice.Timing{
			SubmitLatency:  cfg.Forms.SubmitLatency,
			SuccessDisplay: cfg.Forms.SuccessDisplay,
		}),
		formsservice.WithSessionTTL(cfg.Sessions.TTL),
	)
	defer forms.Close()

	buckets := bucket.NewInMemoryBucketStore()
	limiter := ratelimitmw.New(buckets, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithLimit(cfg.RateLimit.Limit, cfg.RateLimit.Window),
	)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Gatherer:       reg,
		CookieSecure:   cfg.CookieSecure,
		TrustedProxies: proxies,
		Ready:          []httptransport.ReadinessCheck{consent.Ready},
		APIs: []httptransport.Registrar{
			consenthandler.New(consent, log, m, consenthandler.WithWriteLimiter(limiter.Writes)),
			formshandler.New(forms, log, m, formshandler.WithWriteLimiter(limiter.Writes)),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sapid", "addr", cfg.Addr, "consent_store", cfg.ConsentStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(consent.Janitor(cfg.Sessions.SweepInterval).Run(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(forms.Janitor(cfg.Sessions.SweepInterval).Run(gctx))
	})
	g.Go(func() error {
		return pruneBuckets(gctx, buckets, cfg.RateLimit.Window, log)
	})
	return g.Wait()
}

func pruneBuckets(ctx context.Context, buckets *bucket.InMemoryBucketStore, every time.Duration, log *slog.Logger) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := buckets.Prune(); n > 0 {
				log.Debug("pruned rate limit buckets", "count", n)
			}
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
