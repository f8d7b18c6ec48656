package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	promclient "github.com/prometheus/client_golang/prometheus"

	cashier "github.com/goliatone/go-cashier-fastspring"
	promadapter "github.com/goliatone/go-cashier-fastspring/adapters/prometheus"
	"github.com/goliatone/go-cashier-fastspring/core"
	"github.com/goliatone/go-cashier-fastspring/migrations"
	sqlstore "github.com/goliatone/go-cashier-fastspring/store/sql"
)

func main() {
	configPath := flag.String("config", "cashier.yaml", "Path to the YAML configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := newSlogLogger(*logLevel)
	if err := run(*configPath, logger); err != nil {
		logger.Error("cashier webhooks stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger glog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := core.NewCfgxConfigProvider(core.FileConfigLoader{Path: configPath, Optional: true})
	cfg, err := provider.Load(ctx, core.DefaultConfig())
	if err != nil {
		return err
	}

	client, err := sqlstore.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer client.Close()

	dialect, err := migrations.DialectForDriver(cfg.Database.Driver)
	if err != nil {
		return err
	}
	if err := migrations.Apply(ctx, client, dialect); err != nil {
		return err
	}

	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = 5 * time.Minute
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return err
	}

	registry := promclient.NewRegistry()
	recorder, err := promadapter.NewRecorder("", registry)
	if err != nil {
		return err
	}

	service, err := cashier.Setup(cfg,
		cashier.WithLogger(logger),
		cashier.WithConfigProvider(provider),
		cashier.WithMetricsRecorder(recorder),
		cashier.WithPersistenceClient(client),
		cashier.WithRepositoryFactory(sqlstore.NewRepositoryFactory(sqlstore.WithCustomerCache(cacheService))),
	)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newRouter(service, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("cashier webhooks listening", "addr", server.Addr, "path", cfg.HTTP.WebhookPath)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("cashier webhooks shutting down")
	return server.Shutdown(shutdownCtx)
}
