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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	accounthandler "starbeam/internal/account/handler"
	accountservice "starbeam/internal/account/service"
	accountstore "starbeam/internal/account/store"
	"starbeam/internal/audit"
	jwttoken "starbeam/internal/jwt_token"
	"starbeam/internal/ledger"
	"starbeam/internal/platform/config"
	"starbeam/internal/platform/health"
	"starbeam/internal/platform/logger"
	"starbeam/internal/platform/metrics"
	"starbeam/internal/platform/tracer"
	registryhandler "starbeam/internal/registry/handler"
	registryservice "starbeam/internal/registry/service"
	httptransport "starbeam/internal/transport/http"
	"starbeam/pkg/platform/middleware/request"
	"starbeam/pkg/platform/ratelimit"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "starbeam:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	l, err := openLedger(cfg, log, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Error("failed to close ledger", "error", err)
		}
	}()

	if cfg.GenesisFile != "" {
		genesis, err := ledger.LoadGenesisFile(cfg.GenesisFile)
		if err != nil {
			return err
		}
		applied, err := genesis.Apply(ctx, l)
		if err != nil {
			return fmt.Errorf("could not apply genesis: %w", err)
		}
		log.Info("genesis processed", "file", cfg.GenesisFile, "applied", applied)
	}

	var auditOpts []audit.PublisherOption
	auditOpts = append(auditOpts, audit.WithPublisherLogger(log))
	if cfg.AuditAsync {
		auditOpts = append(auditOpts, audit.WithAsyncBuffer(1024))
	}
	auditor := audit.NewPublisher(audit.NewLogStore(log), auditOpts...)
	defer auditor.Close()

	tr := tracer.NewOTel()

	verifier, err := accountservice.NewVerifier(string(cfg.ProofMode))
	if err != nil {
		return err
	}
	accounts := accountservice.NewService(l, verifier, log,
		accountservice.WithAuditor(auditor),
		accountservice.WithMetrics(m),
		accountservice.WithTracer(tr),
	)

	authorizer, err := registryservice.NewAuthorizer(cfg.ProvisionAttestorKey)
	if err != nil {
		return fmt.Errorf("PROVISION_ATTESTOR_KEY: %w", err)
	}
	cache, err := registryservice.NewLookupCache(cfg.LookupCacheSize)
	if err != nil {
		return err
	}
	defer cache.Close()
	registry := registryservice.NewService(l, accountstore.NewDeployer([]byte(cfg.FactorySalt)), authorizer, log,
		registryservice.WithCache(cache),
		registryservice.WithAuditor(auditor),
		registryservice.WithMetrics(m),
		registryservice.WithTracer(tr),
	)

	checks := health.New(cfg.Environment,
		health.WithDetail("proof_mode", verifier.Mode()),
		health.WithDetail("provisioning", authorizer.Name()),
		health.WithDetail("ledger", string(cfg.LedgerBackend)),
	)
	checks.RegisterCheck("ledger", l.Ping)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:           log,
		Accounts:         accounthandler.New(accounts, log),
		Registry:         registryhandler.New(registry, log),
		Health:           checks,
		TokenValidator:   jwttoken.NewJWTServiceAdapter(tokens),
		ProvisionLimiter: ratelimit.New(cfg.ProvisionRate, cfg.ProvisionBurst, 10*time.Minute),
		RequestMetrics:   request.NewMetrics(prometheus.DefaultRegisterer),
		MetricsHandler:   promhttp.Handler(),
		RequestTimeout:   cfg.RequestTimeout,
		MaxBodyBytes:     cfg.MaxBodyBytes,
		TrustedProxies:   cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting starbeam",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"proof_mode", verifier.Mode(),
		"provisioning", authorizer.Name(),
		"ledger", cfg.LedgerBackend,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func openLedger(cfg config.Server, log *slog.Logger, m *metrics.Metrics) (ledger.Ledger, error) {
	switch cfg.LedgerBackend {
	case config.LedgerBadger:
		opts := ledger.DefaultBadgerOptions(cfg.LedgerPath).WithLogger(ledger.NewBadgerLogger(log))
		return ledger.OpenBadger(opts, ledger.WithObserver(m))
	default:
		log.Warn("using in-memory ledger; state is lost on restart")
		return ledger.NewMemory(ledger.WithObserver(m)), nil
	}
}
