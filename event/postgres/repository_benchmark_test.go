//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marcelsud/integration-pipeline/event"
)

/*
Benchmarks do inbox em PostgreSQL

Execute com: go test -tags=integration -bench=. -benchmem ./event/postgres/

Para acelerar, habilite o reuso de containers:
  export TESTCONTAINERS_REUSE_ENABLE=true

A medição começa depois do b.ResetTimer para não incluir a subida do container.
*/

func newBenchEvent(id string) event.IntegrationEvent {
	now := time.Now().UTC()
	return event.IntegrationEvent{
		ID:        id,
		Type:      "connection.update",
		Source:    "inst-1",
		Payload:   []byte(`{"event":"connection.update","instance":"inst-1","data":{"state":"open"}}`),
		Status:    event.Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func BenchmarkCreate_Postgres(b *testing.B) {
	ctx := context.Background()

	pgContainer, cleanup := SetupPostgresContainer(b, ctx)
	defer cleanup()
	repo := CreateTestRepository(b, ctx, pgContainer.ConnStr)
	defer repo.Close(ctx)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.Create(ctx, newBenchEvent(fmt.Sprintf("evt-%d", i))); err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}
}

// Every redelivery after the first hits ON CONFLICT DO NOTHING
func BenchmarkCreateDuplicate_Postgres(b *testing.B) {
	ctx := context.Background()

	pgContainer, cleanup := SetupPostgresContainer(b, ctx)
	defer cleanup()
	repo := CreateTestRepository(b, ctx, pgContainer.ConnStr)
	defer repo.Close(ctx)

	ev := newBenchEvent("evt-dup")
	if _, err := repo.Create(ctx, ev); err != nil {
		b.Fatalf("Create failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		created, err := repo.Create(ctx, ev)
		if err != nil || created {
			b.Fatalf("expected duplicate, got created=%v err=%v", created, err)
		}
	}
}

func BenchmarkClaim_Postgres(b *testing.B) {
	ctx := context.Background()

	pgContainer, cleanup := SetupPostgresContainer(b, ctx)
	defer cleanup()
	repo := CreateTestRepository(b, ctx, pgContainer.ConnStr)
	defer repo.Close(ctx)

	ids := make([]string, b.N)
	for i := range ids {
		ids[i] = fmt.Sprintf("evt-%d", i)
		if _, err := repo.Create(ctx, newBenchEvent(ids[i])); err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}

	b.ResetTimer()
	for _, id := range ids {
		ok, err := repo.Transition(ctx, id, []event.Status{event.Pending, event.Failed}, event.Processing, "")
		if err != nil || !ok {
			b.Fatalf("claim failed: ok=%v err=%v", ok, err)
		}
	}
}
