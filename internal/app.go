package internal

import (
	"chatpulse/internal/controllers"
	"chatpulse/internal/providers"
	"chatpulse/internal/structures"
	"chatpulse/internal/tracker/interfaces"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server

	conf      *structures.Config
	logger    providers.Logger
	scheduler interfaces.SchedulerInterface
}

// NewApp assembles the HTTP surface. The API routes sit behind the
// metrics middleware; /health and /metrics are mounted outside it so
// probes never show up in the request counters.
func NewApp(apiController *controllers.ApiController, healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) *App {
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", providers.MetricsMiddleware(metrics, apiMux))

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:      conf,
		logger:    logger,
		scheduler: scheduler,
	}
}

// Run restores the datasets, starts the flush timers and the HTTP
// server, then blocks until a termination signal or a listener
// failure. On the way out it stops the timers first, drains in-flight
// requests, and only then runs the final flush, so no handler can
// re-dirty a dataset after it was persisted.
func (a *App) Run() error {
	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)

	if err := a.scheduler.Restore(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	a.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", a.WebServer.Addr)
		if err := a.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		a.logger.Infof(providers.TypeApp, "Received %s, shutting down", sig)
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	a.scheduler.Stop()

	// A failed drain must not skip the final flush.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.WebServer.Shutdown(ctx); err != nil {
		a.logger.Errorf(providers.TypeApp, "HTTP shutdown: %s", err)
	}
	if err := a.scheduler.Persist(); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}

	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
