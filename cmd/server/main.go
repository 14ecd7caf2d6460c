package main

import (
	"context"
	"database/sql"
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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/blinds/internal/config"
	"github.com/Simplici0/blinds/internal/db"
	"github.com/Simplici0/blinds/internal/logger"
	"github.com/Simplici0/blinds/internal/metrics"
	"github.com/Simplici0/blinds/internal/migrations"
	"github.com/Simplici0/blinds/internal/priceconfig"
	"github.com/Simplici0/blinds/internal/pricing"
	"github.com/Simplici0/blinds/internal/product"
	"github.com/Simplici0/blinds/internal/quote"
	"github.com/Simplici0/blinds/internal/repo"
	"github.com/Simplici0/blinds/internal/seed"
	"github.com/Simplici0/blinds/internal/workflow"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	version, err := migrations.Version(database)
	if err != nil {
		return err
	}
	stats, err := seed.Run(database, seed.DefaultConfig())
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	log.Info("database ready", "path", cfg.DBPath, "schema_version", version, "seed_inserts", stats.Inserts)

	prices := priceconfig.New(log)
	if err := prices.Load(cfg.PriceDataPath); err != nil {
		return fmt.Errorf("load price data: %w", err)
	}

	var (
		m        *metrics.Metrics
		rec      workflow.Recorder
		metricsH http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if m, err = metrics.New(reg); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		rec = m
		metricsH = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	svc, store, err := newService(prices, database, rec, log)
	if err != nil {
		return err
	}
	if m != nil {
		defer m.ObserveStore(store)()
	}

	srv := &server{
		svc:     svc,
		rates:   repo.NewRates(database),
		metrics: metricsH,
		log:     log,
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", httpSrv.Addr, "env", cfg.Env)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}

// newService wires the quote store, pricing and persistence around prices.
func newService(prices *priceconfig.Provider, database *sql.DB, rec workflow.Recorder, log *slog.Logger) (*workflow.Service, *quote.Store, error) {
	products, err := product.NewFactory(product.NewRollerBlind(prices, log))
	if err != nil {
		return nil, nil, fmt.Errorf("register products: %w", err)
	}
	if err := products.Validate(prices.AccessoryPriceKeys()); err != nil {
		return nil, nil, fmt.Errorf("check accessory price keys: %w", err)
	}

	store := quote.NewStore(quote.NewReducer(prices, products, log), nil, log)
	svc, err := workflow.New(workflow.Deps{
		Store:      store,
		Rules:      prices,
		Products:   products,
		Engine:     pricing.NewEngine(prices, log),
		Calculator: pricing.NewCalculator(prices, log),
		Rates:      repo.NewRates(database),
		Quotes:     repo.NewQuotes(database),
		Recorder:   rec,
		Log:        log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build workflow service: %w", err)
	}
	return svc, store, nil
}
