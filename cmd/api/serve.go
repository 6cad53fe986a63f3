package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := buildComponents(ctx, cfg, logger, cfg.Postgres.RunMigrations)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return err
	}
	defer c.Close()

	worker.StartNotificationWorker(c.notifications, logger)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		worker.RunClosedSweep(ctx, meteredSweep{lifecycle: c.lifecycle, metrics: c.metrics}, cfg.Tickets.SweepInterval(), logger)
	}()
	go func() {
		defer wg.Done()
		c.resolver.RunJanitor(ctx, cfg.Access.SweepEvery())
	}()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ErrorHandler:          httptransport.ErrorHandler(logger, c.metrics),
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, c.metrics, cfg.App.RequestTimeout())

	var redisPing handlers.Pinger
	if c.redis != nil {
		redisPing = c.redis
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, handlers.PingFunc(c.store.Healthy), redisPing, c.metrics),
		Auth:           handlers.NewAuthHandler(c.auth),
		Tickets:        handlers.NewTicketsHandler(c.tickets, c.lifecycle),
		Profiles:       handlers.NewProfilesHandler(c.profiles),
		Me:             handlers.NewMeHandler(c.resolver),
		AuthMiddleware: auth.NewAuthMiddleware(c.auth.TokenManager(), c.store.Users),
		Access:         c.resolver,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("db_driver", cfg.Database.Driver))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err = <-listenErr:
		logger.Error("fiber listen", zap.Error(err))
	}

	cancel()
	_ = app.Shutdown()
	wg.Wait()
	return err
}
