package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ccpp/internal/amqp"
	"ccpp/internal/auth"
	"ccpp/internal/backend"
	"ccpp/internal/cache"
	"ccpp/internal/cli"
	"ccpp/internal/config"
	apphttp "ccpp/internal/http"
	"ccpp/internal/loader"
	"ccpp/internal/log"
	"ccpp/internal/middleware/security"
	"ccpp/internal/services"
	"ccpp/internal/session"
	"ccpp/internal/worker"
)

const (
	shutdownTimeout      = 30 * time.Second
	sessionSweepInterval = 10 * time.Minute
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, cancel := cli.GracefulShutdown(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	mode, err := loader.ParseMode(cfg.DataCacheMode)
	if err != nil {
		return err
	}
	data := loader.New(res.Reader, loader.Options{
		Mode:        mode,
		CacheSize:   cfg.DataCacheSize,
		ReadTimeout: cfg.RequestTimeout,
		Logger:      logger.WithComponent(log.ComponentLoader).Slog(),
	})

	sessions := session.NewManager(res.Sessions, cfg.SessionTTL)
	sweeper := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	sweeper.Register(sessions.Sweeper(5 * time.Second))
	sweeper.StartCleanup(sessionSweepInterval)
	defer sweeper.Stop()

	sources := services.Sources{Contracts: cfg.ContractsSource, Users: cfg.UsersSource}
	svc := services.NewDashboardService(
		data,
		auth.New(cfg.AdminNames, logger.WithComponent(log.ComponentAuth).Slog()),
		sessions,
		sources,
		logger.Slog(),
	)

	if cfg.AMQPEnabled() {
		publisher, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reloads stay local", log.FieldError, err)
		} else {
			defer publisher.Close()
			svc.WithPublisher(publisher)
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	headers := security.DefaultHeadersConfig()
	headers.ForceHSTS = cfg.SessionCookieSecure
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:         logger.WithComponent(log.ComponentHTTP),
		CookieName:     cfg.SessionCookieName,
		CookieSecure:   cfg.SessionCookieSecure,
		SessionTTL:     cfg.SessionTTL,
		RequestTimeout: cfg.RequestTimeout,
		Headers:        &headers,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting ccpp server",
			"port", cfg.Port,
			"data_backend", cfg.DataBackend,
			"session_backend", cfg.SessionBackend,
			"cache_mode", data.Mode(),
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		return nil
	})

	if cfg.WatchDataFiles && bcfg.Data == backend.FileBackend {
		fw, err := worker.NewFileWatcher(cfg.DataDir, []string{sources.Contracts, sources.Users}, data,
			cfg.WatchDebounce, logger.WithComponent(log.ComponentWorker).Slog())
		if err != nil {
			return err
		}
		g.Go(func() error { return fw.Run(gctx) })
	}

	if cfg.AMQPEnabled() {
		reloads := worker.NewReloadWorker(data, logger.WithComponent(log.ComponentWorker).Slog())
		dial := func() (*amqp.Client, error) {
			return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		}
		g.Go(func() error {
			err := amqp.ConsumeWithReconnect(gctx, dial, reloads.HandleReload)
			if err != nil && !errors.Is(err, context.Canceled) {
				// Reloads from other instances stop but the dashboard keeps serving.
				logger.Error("Reload consumer stopped", log.FieldError, err)
			}
			return nil
		})
	}

	return g.Wait()
}
