package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	issuanceclient "talentmatch/internal/issuance/client"
	issuancehandler "talentmatch/internal/issuance/handler"
	"talentmatch/internal/platform/config"
	"talentmatch/internal/platform/health"
	"talentmatch/internal/platform/httpserver"
	"talentmatch/internal/platform/logger"
	"talentmatch/internal/platform/metrics"
	"talentmatch/internal/platform/tracer"
	resumehandler "talentmatch/internal/resume/handler"
	resumeservice "talentmatch/internal/resume/service"
	resumestore "talentmatch/internal/resume/store"
	httptransport "talentmatch/internal/transport/http"
	vhandler "talentmatch/internal/verification/handler"
	vmetrics "talentmatch/internal/verification/metrics"
	"talentmatch/internal/verification/poller"
	"talentmatch/internal/verification/session"
	"talentmatch/internal/verification/verifier"
)

// main wires dependencies, serves HTTP and shuts down on SIGINT/SIGTERM.
// Business logic lives in internal packages.
func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Config, log *slog.Logger) error {
	log.Info("initializing talentmatch",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"verifier", cfg.Verifier.BaseURL,
		"issuer", cfg.Issuer.BaseURL,
	)
	if cfg.Verifier.AccessToken == "" {
		log.Warn("VP_API_KEY is not set; verifier calls will be rejected")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	verificationMetrics := vmetrics.New(reg)
	tr := tracer.NewOTel()

	verifierClient := verifier.New(cfg.Verifier.BaseURL, cfg.Verifier.AccessToken, cfg.Verifier.Timeout,
		verifier.WithTracer(tr),
	)
	resultPoller := poller.New(verifierClient, poller.Config{
		Interval:    cfg.Poll.Interval,
		MaxAttempts: cfg.Poll.MaxAttempts,
		Timeout:     cfg.Poll.Timeout,
	},
		poller.WithLogger(log),
		poller.WithMetrics(verificationMetrics),
		poller.WithTracer(tr),
	)
	sessions := session.NewRegistry(verifierClient, resultPoller, cfg.SessionTTL,
		[]session.Option{
			session.WithRef(cfg.Verifier.Ref),
			session.WithLogger(log),
			session.WithMetrics(verificationMetrics),
		},
		session.WithRegistryMetrics(verificationMetrics),
	)
	defer sessions.Close()

	store := resumestore.NewInMemoryStore()
	if cfg.SeedDemoData {
		store = resumestore.NewInMemoryStore(resumestore.DemoResumes(time.Now())...)
	}
	resumes := resumeservice.New(store, resultPoller,
		resumeservice.WithLogger(log),
		resumeservice.WithMetrics(verificationMetrics),
	)

	issuer := issuanceclient.New(cfg.Issuer.BaseURL, cfg.Issuer.Path, cfg.Issuer.AccessToken,
		cfg.Issuer.Timeout, cfg.Issuer.MaxRetries,
		issuanceclient.WithTracer(tr),
		issuanceclient.WithLogger(log),
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("verifier", verifierClient.Health)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:   log,
		Metrics:  httpMetrics,
		Gatherer: reg,
		Health:   healthHandler,
		APIs: []httptransport.Registrar{
			vhandler.New(sessions, resumes, log),
			resumehandler.New(resumes, log),
			issuancehandler.New(issuer, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
