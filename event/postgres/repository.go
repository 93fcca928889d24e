package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL driver
	"github.com/marcelsud/integration-pipeline/event"
)

/*
PostgreSQL Repository para o inbox de eventos

Esta implementação demonstra:
- O mesmo event.Repository da versão Redis, agora em SQL
- INSERT ... ON CONFLICT DO NOTHING para deduplicar entregas repetidas
- UPDATE ... WHERE status = ANY($n) como compare-and-set atômico:
  quem recebe RowsAffected == 1 ganhou a transição, o resto não faz nada
*/

type Repository struct {
	DB  *sql.DB
	now func() time.Time
}

// NewRepository cria o repositório com pool padrão (25, 5, 5 min)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig cria o repositório com configuração de pool customizável
// maxOpenConns: máximo de conexões simultâneas (0 = ilimitado)
// maxIdleConns: máximo de conexões inativas mantidas no pool
// maxLifeMinutes: duração máxima em minutos que uma conexão pode ser reutilizada
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return NewRepositoryWithDB(db), nil
}

// NewRepositoryWithDB usa uma conexão já aberta
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{
		DB:  db,
		now: time.Now,
	}
}

const selectColumns = "id, tenant_id, event_type, source, payload, status, error_message, created_at, updated_at"

// Create insere o evento se o id ainda não existe
func (r *Repository) Create(ctx context.Context, ev event.IntegrationEvent) (bool, error) {
	query := `INSERT INTO integration_events (id, tenant_id, event_type, source, payload, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8)
		ON CONFLICT (id) DO NOTHING`

	result, err := r.DB.ExecContext(ctx, query,
		ev.ID,
		ev.TenantID,
		ev.Type,
		ev.Source,
		ev.Payload,
		ev.Status.String(),
		ev.CreatedAt,
		ev.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}

	return rows == 1, nil
}

// Get busca um evento por id
func (r *Repository) Get(ctx context.Context, id string) (event.IntegrationEvent, error) {
	query := "SELECT " + selectColumns + " FROM integration_events WHERE id = $1"

	ev, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return event.IntegrationEvent{}, fmt.Errorf("%w: %s", event.ErrNotFound, id)
	}
	if err != nil {
		return event.IntegrationEvent{}, fmt.Errorf("selecting event: %w", err)
	}

	return ev, nil
}

// ListByStatus retorna os eventos mais antigos de um status
func (r *Repository) ListByStatus(ctx context.Context, status event.Status, limit int) ([]event.IntegrationEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT " + selectColumns + " FROM integration_events WHERE status = $1 ORDER BY created_at LIMIT $2"

	rows, err := r.DB.QueryContext(ctx, query, status.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("selecting events: %w", err)
	}
	defer rows.Close()

	events := []event.IntegrationEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

// CountByStatus conta eventos agrupados por status
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM integration_events GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for _, s := range event.AllStatuses() {
		counts[s.String()] = 0
	}

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}

	return counts, nil
}

// Transition muda o status só quando o status atual está em from
func (r *Repository) Transition(ctx context.Context, id string, from []event.Status, to event.Status, errorMessage string) (bool, error) {
	if err := event.ValidateTransition(from, to); err != nil {
		return false, fmt.Errorf("validating status: %w", err)
	}

	query := `UPDATE integration_events SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4 AND status = ANY($5)`

	result, err := r.DB.ExecContext(ctx, query,
		to.String(),
		errorMessage,
		r.now().UTC(),
		id,
		pq.Array(event.Strings(from)),
	)
	if err != nil {
		return false, fmt.Errorf("transitioning event to %s: %w", to, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}

	return rows == 1, nil
}

// AttachTenant grava o tenant resolvido
func (r *Repository) AttachTenant(ctx context.Context, id, tenantID string) error {
	query := "UPDATE integration_events SET tenant_id = $1, updated_at = $2 WHERE id = $3"

	result, err := r.DB.ExecContext(ctx, query, tenantID, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("attaching tenant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", event.ErrNotFound, id)
	}

	return nil
}

// Close fecha a conexão com o banco
func (r *Repository) Close(ctx context.Context) error {
	return r.DB.Close()
}

// CreateTable cria a tabela do inbox se não existir
func (r *Repository) CreateTable(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("creating integration_events table: %w", err)
	}
	return nil
}

// DropTable remove a tabela (útil para testes)
func (r *Repository) DropTable(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, "DROP TABLE IF EXISTS integration_events")
	if err != nil {
		return fmt.Errorf("dropping integration_events table: %w", err)
	}
	return nil
}

// Schema is the DDL the repository expects
const Schema = `
	CREATE TABLE IF NOT EXISTS integration_events (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL DEFAULT '',
		event_type TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		payload BYTEA,
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS integration_events_status_idx ON integration_events (status, created_at);
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(s scanner) (event.IntegrationEvent, error) {
	var ev event.IntegrationEvent
	var status string
	err := s.Scan(
		&ev.ID,
		&ev.TenantID,
		&ev.Type,
		&ev.Source,
		&ev.Payload,
		&status,
		&ev.ErrorMessage,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	)
	if err != nil {
		return event.IntegrationEvent{}, err
	}

	ev.Status = event.NewStatus(status)
	return ev, nil
}
