package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

/*
Suspender marca a assinatura como suspensa

O UPDATE é condicional (status <> 'suspended'), então rodar duas vezes
não reescreve suspended_at nem o motivo: só a primeira chamada muda a linha
*/

type Suspender struct {
	DB  *sql.DB
	now func() time.Time
}

// NewSuspender usa uma conexão já aberta
func NewSuspender(db *sql.DB) *Suspender {
	return &Suspender{DB: db, now: time.Now}
}

// Suspend retorna true quando esta chamada suspendeu a assinatura
func (s *Suspender) Suspend(ctx context.Context, subscriptionID, reason string) (bool, error) {
	query := `UPDATE subscriptions
		SET status = 'suspended', suspended_reason = $2, suspended_at = $3, updated_at = $3
		WHERE id = $1 AND status <> 'suspended'`

	result, err := s.DB.ExecContext(ctx, query, subscriptionID, reason, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("suspending subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows == 1, nil
}

// SubscriptionsSchema contém só as colunas que o pipeline usa
const SubscriptionsSchema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id               VARCHAR(255) PRIMARY KEY,
	tenant_id        VARCHAR(255) NOT NULL,
	status           VARCHAR(20)  NOT NULL DEFAULT 'active',
	suspended_reason TEXT,
	suspended_at     TIMESTAMP,
	updated_at       TIMESTAMP    NOT NULL DEFAULT NOW()
);
`
