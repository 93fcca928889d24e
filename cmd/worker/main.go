package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/integration-pipeline/config"
	"github.com/marcelsud/integration-pipeline/internal/app"
)

/* worker - só os workers de retry, para escalar horizontalmente
 * Cada processo drena a mesma fila do Redis; a garantia de uma única
 * execução por evento vem do compare-and-set no inbox, não do worker
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	logger := app.NewLogger("integration-pipeline-worker", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("starting pipeline")
		return
	}
	defer a.Close(context.Background())

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", a.Exporter.ServeHTTP())
	srv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: r, ReadTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn().Err(err).Msg("serving metrics")
		}
	}()

	if err := a.Worker().Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker stopped")
	}

	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctxTimeout)
}
