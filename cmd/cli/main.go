package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/marcelsud/integration-pipeline/config"
	"github.com/marcelsud/integration-pipeline/event"
	"github.com/marcelsud/integration-pipeline/internal/app"
	"github.com/marcelsud/integration-pipeline/pipeline"
	"github.com/rs/zerolog"
)

/*
CLI de operação do pipeline

Comandos:
  get <event_id>                          mostra um evento do inbox
  requeue <event_id>                      despacha o evento de novo
  replay <pending|failed> [limit]         reenfileira eventos parados num status
  register-instance <instance> <tenant>   associa uma instância do provedor a um tenant

Execute com:
  go run cmd/cli/main.go replay failed 100
*/

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, zerolog.Nop())
	if err != nil {
		fmt.Printf("❌ Error connecting: %v\n", err)
		os.Exit(1)
	}
	defer a.Close(ctx)

	if err := run(ctx, a.Pipeline, os.Args[1], os.Args[2:]); err != nil {
		fmt.Printf("❌ %v\n", err)
		a.Close(ctx)
		os.Exit(1)
	}
}

func run(ctx context.Context, uc pipeline.UseCase, cmd string, args []string) error {
	switch cmd {
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <event_id>")
		}
		ev, err := uc.GetEvent(ctx, args[0])
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(map[string]string{
			"id":            ev.ID,
			"tenant_id":     ev.TenantID,
			"type":          ev.Type,
			"source":        ev.Source,
			"status":        ev.Status.String(),
			"error_message": ev.ErrorMessage,
		}, "", "  ")
		fmt.Println(string(out))
		fmt.Println(string(ev.Payload))

	case "requeue":
		if len(args) != 1 {
			return fmt.Errorf("usage: requeue <event_id>")
		}
		jobID, err := uc.Requeue(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✅ Event %s requeued (job %s)\n", args[0], jobID)

	case "replay":
		if len(args) < 1 {
			return fmt.Errorf("usage: replay <pending|failed> [limit]")
		}
		limit := 100
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid limit: %w", err)
			}
			limit = n
		}
		status := event.NewStatus(args[0])
		if status.String() != args[0] {
			return fmt.Errorf("unknown status: %s", args[0])
		}
		n, err := uc.Replay(ctx, status, limit)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %d events requeued\n", n)

	case "register-instance":
		if len(args) != 2 {
			return fmt.Errorf("usage: register-instance <instance> <tenant>")
		}
		if err := uc.RegisterInstance(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("✅ Instance %s registered for tenant %s\n", args[0], args[1])

	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func usage() {
	fmt.Println("usage: cli <get|requeue|replay|register-instance> [args]")
}
