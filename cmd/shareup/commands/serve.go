package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jessiellen/shareup-app/internal/application"
	httptransport "github.com/Jessiellen/shareup-app/internal/http"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd, opts)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *globalOptions) error {
	env, err := loadEnvironment(opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	cfg, logger := env.cfg, env.logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	bus, closeBus, err := openBus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeBus(); cerr != nil {
			logger.Error("failed to close event bus", "error", cerr)
		}
	}()

	svc := newServices(store, cfg, logger, bus)
	if svc.cache != nil {
		sub, err := bus.Subscribe(ctx, "")
		if err != nil {
			return fmt.Errorf("subscribe list cache to events: %w", err)
		}
		defer sub.Close()
		go svc.cache.Follow(ctx, sub.Events())
	} else if cfg.CacheSize > 0 {
		logger.Warn("list cache disabled, other processes writing to the store cannot invalidate it without redis",
			"storage", cfg.Storage)
	}

	sweeper := application.NewSweeper(svc.requests, svc.appointments, cfg.SweepInterval, cfg.Retention, logger)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		_ = sweeper.Run(ctx)
	}()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Requests:     httptransport.NewRequestHandler(svc.requests, logger),
		Appointments: httptransport.NewAppointmentHandler(svc.appointments, time.Now, logger),
		Events:       httptransport.NewEventsHandler(bus, logger),
		JWTSecret:    cfg.JWTSecret,
		Logger:       logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.Recovery(logger),
			httptransport.CORS(cfg.CORSOrigins),
			httptransport.RequestLogger(logger),
			httptransport.RateLimit(httptransport.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), logger),
		},
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("shareup API listening",
		"addr", server.Addr,
		"storage", cfg.Storage,
		"redis", cfg.RedisAddr != "",
		"timezone", cfg.Timezone,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-sweepDone
		return fmt.Errorf("http server: %w", err)
	}

	<-sweepDone
	logger.Info("shareup API stopped")
	return nil
}
