package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/statuskit/statuskit/internal/api"
	"github.com/statuskit/statuskit/internal/config"
	"github.com/statuskit/statuskit/internal/notify"
	"github.com/statuskit/statuskit/internal/provider"
	"github.com/statuskit/statuskit/internal/store"

	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	st, err := openStore(cfg.DataFilePath)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}

	fetcher := provider.NewFetcher(provider.Options{
		Timeout:  cfg.ProviderTimeout,
		CacheTTL: cfg.ProviderCacheTTL,
	})

	notifier := notify.NewDispatcher()

	r := api.NewRouter(api.Deps{
		Logger:   logger,
		Store:    st,
		Fetcher:  fetcher,
		Notifier: notifier,
		Config:   cfg,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
}

func openStore(path string) (store.Store, error) {
	if strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
		return store.NewSQLiteStore(path)
	}
	return store.NewJSONStore(path)
}
