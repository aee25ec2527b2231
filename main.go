// entry point of the application
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"hotsoonripper/internal/catalog"
	"hotsoonripper/internal/cli"
	"hotsoonripper/internal/config"
	"hotsoonripper/internal/entity"
	"hotsoonripper/internal/fetcher"
	httprouter "hotsoonripper/internal/infrastructure/delivery/http"
	"hotsoonripper/internal/observability"
	"hotsoonripper/internal/proxymgr"
	"hotsoonripper/internal/scheduler"
	"hotsoonripper/internal/storage"
	httpserver "hotsoonripper/pkg/http/server"
	"hotsoonripper/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, run, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, tokens []string) ([]entity.TargetReport, error) {
	log, err := logger.New(&logger.Options{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})
	if err != nil {
		log.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	metrics := observability.New()
	store := storage.New(log, cfg.Dir.Downloads)

	proxyMgr, err := proxymgr.New(log, cfg)
	if err != nil {
		return nil, fmt.Errorf("proxy manager: %w", err)
	}

	fetchOpts := fetcher.Options{
		PlaybackURL: cfg.API.PlaybackURL,
		Retries:     cfg.Fetch.Retries,
		Timeout:     cfg.Fetch.Timeout,
		ChunkSize:   cfg.Fetch.ChunkSize,
	}

	var mediaClient *http.Client
	if proxyMgr.HasProxies() {
		mediaClient = fetcher.NewClient(cfg.Fetch.Timeout, proxyMgr.ProxyFunc)
		fetchOpts.Proxies = proxyMgr

		proxyMgr.StartHealthChecker(ctx)

		log.InfoContext(ctx, "proxy manager initialized", slog.Int("proxy_count", proxyMgr.ProxyCount()))
	}

	dl := fetcher.New(log, mediaClient, store, metrics, fetchOpts)

	api := catalog.New(log, &http.Client{Timeout: cfg.API.Timeout}, metrics, catalog.Options{
		SearchURL: cfg.API.SearchURL,
		ListURL:   cfg.API.ListURL,
		MaxPages:  cfg.API.MaxPages,
		RateLimit: cfg.API.RateLimit,
	})

	sched := scheduler.New(log, cfg, dl, api, api, store, metrics)
	defer sched.Shutdown()

	if cfg.HTTP.Addr != "" {
		srv, err := httpserver.New(httprouter.New(log, sched, metrics.Handler()), httpserver.Options{
			Addr:            cfg.HTTP.Addr,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("start status server: %w", err)
		}

		defer func() {
			if err := srv.Shutdown(); err != nil {
				log.Error("status server shutdown", slog.Any("error", err))
			}
		}()

		go func() {
			if err := <-srv.Notify(); err != nil {
				log.ErrorContext(ctx, "status server stopped", slog.Any("error", err))
			}
		}()

		log.InfoContext(ctx, "status server listening", slog.String("addr", srv.Addr()))
	}

	log.InfoContext(ctx, "hotsoonripper started",
		slog.String("run_id", sched.RunID()),
		slog.Int("targets", len(tokens)),
		slog.Int("workers", cfg.Job.Workers),
		slog.String("download_dir", store.Root()))

	reports := sched.Run(ctx, tokens)

	if proxyMgr.HasProxies() {
		proxyMgr.LogStats(ctx)
	}

	if ctx.Err() != nil {
		log.WarnContext(ctx, "interrupted", slog.Int("processed", len(reports)))

		return reports, ctx.Err()
	}

	log.InfoContext(ctx, "hotsoonripper finished", slog.Int("targets", len(reports)))

	return reports, nil
}
