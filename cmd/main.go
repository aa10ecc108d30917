package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"inventory/internal/config"
	httpapi "inventory/internal/http"
	"inventory/internal/logging"
	"inventory/internal/repository"
	"inventory/internal/service"
	"inventory/internal/source"

	_ "inventory/docs"
)

// @title Inventory dashboard API
// @version 1.0
// @description Products, dashboard rendering and upstream loading.
// @host localhost:9091
// @BasePath /api/v1
func main() {
	configPath := flag.String("c", "", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	logger, err := logging.Init(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		zap.L().Fatal("inventory stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	ids, err := repository.NewIDGenerator(cfg.IDs.Strategy, cfg.IDs.Node)
	if err != nil {
		return err
	}

	bus := EventBus.New()
	store := repository.NewMemoryStore(bus, ids)

	productsSvc := service.NewProductService(store, cfg.Input.Strict)
	dashboardSvc, err := service.NewDashboardService(store, bus, service.DashboardOptions{
		Thresholds: cfg.Thresholds(),
		PageSize:   cfg.View.PageSize,
		CacheSize:  cfg.View.CacheSize,
		Location:   loc,
	})
	if err != nil {
		return err
	}

	src := source.NewHTTPSource(cfg.Source.BaseURL, &http.Client{Timeout: cfg.Source.Timeout})
	loader := source.NewLoader(src, store, cfg.Source.Timeout)
	if cfg.Source.LoadOnStart {
		// the dashboard still starts empty when the upstream is down
		if _, err := loader.Load(context.Background(), 0, cfg.Source.PageSize); err != nil {
			zap.L().Warn("initial load failed", zap.Error(err))
		}
	}
	if cfg.Source.Refresh != "" {
		refresher, err := source.NewRefresher(loader, cfg.Source.Refresh, 0, cfg.Source.PageSize, loc)
		if err != nil {
			return err
		}
		refresher.Start()
		defer refresher.Stop()
	}

	srv := httpapi.NewServer(productsSvc, dashboardSvc, loader)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zap.L().Error("shutdown error", zap.Error(err))
	}
	return nil
}
