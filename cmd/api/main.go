package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/integration-pipeline/config"
	"github.com/marcelsud/integration-pipeline/internal/app"
	"github.com/marcelsud/integration-pipeline/internal/http/chi"
)

const TIMEOUT = 30 * time.Second

/* “a porta de entrada e saída da minha aplicação”
* É no main.go que é feita toda a “amarração” dos demais pacotes:
* configuração, conexões, o pipeline e o servidor HTTP.
* Os workers de retry rodam no mesmo processo; cmd/worker roda só os workers.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	logger := app.NewLogger("integration-pipeline-api", cfg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("starting pipeline")
		return
	}
	defer a.Close(context.Background())

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- a.Worker().Run(ctx)
	}()

	r := chi.Handlers(ctx, a.Pipeline, a.Verifier, a.Exporter.ServeHTTP(), logger)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("serving http")
		stop()
	}
	if err = <-errShutdown; err != nil {
		logger.Error().Err(err).Msg("shutting down http")
	}
	if err = <-workerDone; err != nil {
		logger.Error().Err(err).Msg("stopping workers")
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
