package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/router"
	"github.com/jiaming2012/backtest-workspace/src/backtester-api/services"
	"github.com/jiaming2012/backtest-workspace/src/backtester-api/store"
	"github.com/jiaming2012/backtest-workspace/src/config"
	"github.com/jiaming2012/backtest-workspace/src/eventpubsub"
	"github.com/jiaming2012/backtest-workspace/src/logger"
	"github.com/jiaming2012/backtest-workspace/src/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the workspace http server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("error getting config: %w", err)
		}

		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return fmt.Errorf("error getting port: %w", err)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if port > 0 {
			cfg.Server.Port = port
		}

		if err := logger.Init(cfg.Log.Level, cfg.Log.JSON); err != nil {
			return err
		}

		shutdownTelemetry, err := telemetry.Setup(cmd.Context(), cfg.Telemetry)
		if err != nil {
			return err
		}

		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				log.Warnf("failed to shut down telemetry: %v", err)
			}
		}()

		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	bus := eventpubsub.New()
	if err := eventpubsub.SubscribeAuditLog(bus); err != nil {
		return err
	}

	svc := services.NewWorkspaceService(
		store.NewStore(),
		services.NewSimulatorClient(cfg.Simulator.BaseURL, cfg.Simulator.Timeout),
		bus,
		services.NewResultsCache(cfg.Simulator.CacheTTL),
		cfg.Simulator.Timeout,
	)

	srv := &http.Server{
		Handler: newHandler(svc, cfg),
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
	}

	go func() {
		log.Infof("listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: failed to listen and serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	bus.WaitAsync()
	log.Info("Server gracefully stopped")

	return nil
}

// newHandler mounts the workspace routes under /workspace. The otelhttp span wraps the request
// logging so slow request warnings land on the span too.
func newHandler(svc *services.WorkspaceService, cfg *config.Config) http.Handler {
	r := mux.NewRouter()
	r.Use(logger.Middleware)
	router.SetupHandler(r.PathPrefix("/workspace").Subrouter(), svc, cfg.Stream.WriteTimeout)

	return otelhttp.NewHandler(r, cfg.Telemetry.ServiceName)
}
