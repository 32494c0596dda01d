package services

import (
	"context"
	"testing"

	"task-points-market/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAdmin int64 = 1

type testEnv struct {
	DB          *gorm.DB
	Ledger      *LedgerService
	Market      *MarketplaceService
	Submissions *SubmissionService
	Recharges   *RechargeService
	Withdrawals *WithdrawalService
	Audit       *AuditService
	Review      *ReviewService
}

// newTestDB opens a private in-memory database. One connection means every
// transaction runs alone, like row locks would serialize them on PostgreSQL.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestEnv(t *testing.T, rules Rules) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		DB:          db,
		Ledger:      NewLedgerService(db, rules),
		Market:      NewMarketplaceService(db),
		Submissions: NewSubmissionService(db, rules),
		Recharges:   NewRechargeService(db, rules),
		Withdrawals: NewWithdrawalService(db, rules),
		Audit:       NewAuditService(db),
	}
	env.Review = NewReviewService(db, []int64{testAdmin}, Workflows{
		Submissions: env.Submissions,
		Recharges:   env.Recharges,
		Withdrawals: env.Withdrawals,
		Tasks:       env.Market,
		Audit:       env.Audit,
	})
	return env
}

func (e *testEnv) register(t *testing.T, id int64, referrer *int64) *models.Account {
	t.Helper()
	acct, _, err := e.Ledger.CreateAccount(context.Background(), RegisterInput{
		UserID:     id,
		Username:   "user" + string(rune('a'+id%26)),
		Name:       "User",
		ReferrerID: referrer,
	})
	require.NoError(t, err)
	return acct
}

// fund registers id and tops its balance up to exactly points.
func (e *testEnv) fund(t *testing.T, id, points int64) {
	t.Helper()
	acct := e.register(t, id, nil)
	ctx := context.Background()
	switch {
	case points > acct.Points:
		_, err := e.Ledger.Credit(ctx, id, points-acct.Points, models.EntryRefund, "test", "")
		require.NoError(t, err)
	case points < acct.Points:
		_, err := e.Ledger.Debit(ctx, id, acct.Points-points, models.EntryWithdrawal, "test", "")
		require.NoError(t, err)
	}
}

func (e *testEnv) points(t *testing.T, id int64) int64 {
	t.Helper()
	acct, err := e.Ledger.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return acct.Points
}

func (e *testEnv) postTask(t *testing.T, owner int64, kind models.ProofKind, total int, reward int64) *models.Task {
	t.Helper()
	task, err := e.Market.PostTask(context.Background(), PostTaskInput{
		OwnerID:      owner,
		Type:         models.TaskTypeYouTube,
		Title:        "Subscribe to my channel",
		Description:  "Subscribe and send a screenshot",
		ProofKind:    kind,
		TotalWorkers: total,
		Reward:       reward,
	})
	require.NoError(t, err)
	return task
}

func int64Ptr(v int64) *int64 { return &v }
