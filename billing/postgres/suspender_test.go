package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspender_Suspend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	update := regexp.QuoteMeta(`UPDATE subscriptions`)

	newSuspender := func(t *testing.T) (*Suspender, sqlmock.Sqlmock) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		s := NewSuspender(db)
		s.now = func() time.Time { return now }
		return s, mock
	}

	t.Run("first suspension", func(t *testing.T) {
		s, mock := newSuspender(t)
		mock.ExpectExec(update).
			WithArgs("sub-1", "payment retries exhausted", now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		changed, err := s.Suspend(ctx, "sub-1", "payment retries exhausted")
		require.NoError(t, err)
		assert.True(t, changed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already suspended", func(t *testing.T) {
		s, mock := newSuspender(t)
		mock.ExpectExec(update).
			WithArgs("sub-1", "again", now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		changed, err := s.Suspend(ctx, "sub-1", "again")
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("database error", func(t *testing.T) {
		s, mock := newSuspender(t)
		mock.ExpectExec(update).WillReturnError(errors.New("connection reset"))

		_, err := s.Suspend(ctx, "sub-1", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "suspending subscription")
	})
}
