package app

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	eventpostgres "github.com/marcelsud/integration-pipeline/event/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	ddl := regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS integration_events")

	t.Run("applies the inbox schema", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(ddl).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, Migrate(ctx, eventpostgres.NewRepositoryWithDB(db)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("schema error stops startup", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(ddl).WillReturnError(errors.New("permission denied for schema public"))

		err = Migrate(ctx, eventpostgres.NewRepositoryWithDB(db))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "applying inbox schema")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
