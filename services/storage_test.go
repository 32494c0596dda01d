package services

import (
	"context"
	"errors"
	"testing"

	"task-points-market/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestStoreFailuresSurfaceAsStorage(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewLedgerService(db, DefaultRules())
	ctx := context.Background()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
	_, err := ledger.Debit(ctx, 1, 10, models.EntryWithdrawal, "test", "")
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")

	mock.ExpectQuery(`SELECT \* FROM "accounts"`).WillReturnError(errors.New("relation does not exist"))
	_, err = ledger.GetAccount(ctx, 1)
	assert.Equal(t, KindStorage, KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedUpdateRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := NewLedgerService(db, DefaultRules())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET`).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := ledger.Credit(context.Background(), 1, 10, models.EntryRefund, "test", "")
	assert.Equal(t, KindStorage, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
