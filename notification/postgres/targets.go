package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/marcelsud/integration-pipeline/notification"
)

/*
TargetStore lê os destinatários das notificações

O sistema de pedidos mantém notification_targets (tabela ou view) com
tudo o que um template precisa. A leitura é feita a cada tentativa,
nunca de cache, porque o envio pode acontecer minutos depois do pedido
*/

type TargetStore struct {
	DB *sql.DB
}

// NewTargetStore usa uma conexão já aberta (compartilhada com o inbox)
func NewTargetStore(db *sql.DB) *TargetStore {
	return &TargetStore{DB: db}
}

// Load busca o estado atual do destinatário
func (s *TargetStore) Load(ctx context.Context, targetID string) (notification.Target, error) {
	query := `SELECT id, tenant_id, instance, phone, customer_name, order_code, store_name
		FROM notification_targets
		WHERE id = $1`

	var t notification.Target
	var customer, orderCode, store sql.NullString
	err := s.DB.QueryRowContext(ctx, query, targetID).Scan(
		&t.ID,
		&t.TenantID,
		&t.Instance,
		&t.Phone,
		&customer,
		&orderCode,
		&store,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return notification.Target{}, fmt.Errorf("%w: %s", notification.ErrTargetNotFound, targetID)
	}
	if err != nil {
		return notification.Target{}, fmt.Errorf("loading target: %w", err)
	}

	t.CustomerName = customer.String
	t.OrderCode = orderCode.String
	t.StoreName = store.String
	return t, nil
}

// TargetsSchema cria a tabela usada em desenvolvimento e testes
// Em produção notification_targets é uma view do sistema de pedidos
const TargetsSchema = `
CREATE TABLE IF NOT EXISTS notification_targets (
	id            VARCHAR(255) PRIMARY KEY,
	tenant_id     VARCHAR(255) NOT NULL,
	instance      VARCHAR(255) NOT NULL,
	phone         VARCHAR(32)  NOT NULL,
	customer_name TEXT,
	order_code    VARCHAR(64),
	store_name    TEXT
);
`
