package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marcelsud/integration-pipeline/config"
	"github.com/marcelsud/integration-pipeline/internal/app"
	"github.com/marcelsud/integration-pipeline/polling"
)

/* printer - terminal de impressão de pedidos
 * Consulta POLL_URL com intervalo adaptativo e imprime cada pedido novo
 * SIGHUP força uma consulta imediata
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if cfg.PollURL == "" {
		fmt.Println("POLL_URL is required")
		os.Exit(1)
	}
	logger := app.NewLogger("integration-pipeline-printer", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := polling.NewHTTPFetcher(cfg.PollURL, cfg.PollToken, 0)
	poller := polling.New(polling.Config{
		InitialInterval: cfg.PollInitialInterval,
		MaxInterval:     cfg.PollMaxInterval,
		ErrorThreshold:  cfg.PollErrorThreshold,
	}, fetcher, func(items []polling.Item) {
		for _, item := range items {
			fmt.Printf("🧾 new order %s\n%s\n\n", item.ID, string(item.Raw))
		}
	}, func(err error) {
		logger.Warn().Err(err).Msg("poll failed")
	}, logger)

	poller.Start(ctx)
	defer poller.Stop()

	refresh := make(chan os.Signal, 1)
	signal.Notify(refresh, syscall.SIGHUP)
	defer signal.Stop(refresh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh:
			if err := poller.ForceRefresh(ctx); err != nil {
				logger.Warn().Err(err).Msg("forced refresh")
			}
		}
	}
}
