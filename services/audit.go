package services

import (
	"context"
	"time"

	"task-points-market/metrics"
	"task-points-market/models"
	"task-points-market/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// JournalMismatch is an account whose stored balance differs from the sum of its journal.
type JournalMismatch struct {
	UserID     int64 `json:"user_id"`
	Points     int64 `json:"points"`
	JournalSum int64 `json:"journal_sum"`
}

type AuditReport struct {
	CheckedAt          time.Time         `json:"checked_at"`
	NegativeBalances   []int64           `json:"negative_balances"`
	OverfilledTasks    []uint            `json:"overfilled_tasks"`
	JournalMismatches  []JournalMismatch `json:"journal_mismatches"`
	PendingSubmissions int64             `json:"pending_submissions"`
	PendingRecharges   int64             `json:"pending_recharges"`
	PendingWithdrawals int64             `json:"pending_withdrawals"`
}

// Healthy is false when any ledger invariant is broken. Pending queues do not count.
func (r *AuditReport) Healthy() bool {
	return len(r.NegativeBalances) == 0 && len(r.OverfilledTasks) == 0 && len(r.JournalMismatches) == 0
}

// AuditService re-checks the ledger invariants from the stored rows.
type AuditService struct {
	DB  *gorm.DB
	log *logrus.Entry
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db, log: utils.NewLogger("audit")}
}

func (s *AuditService) Run(ctx context.Context) (*AuditReport, error) {
	db := s.DB.WithContext(ctx)
	report := &AuditReport{CheckedAt: time.Now()}

	if err := db.Model(&models.Account{}).
		Where("points < 0").
		Pluck("user_id", &report.NegativeBalances).Error; err != nil {
		return nil, storageError("audit balances", err)
	}

	if err := db.Model(&models.Task{}).
		Where("completed > total_workers").
		Pluck("id", &report.OverfilledTasks).Error; err != nil {
		return nil, storageError("audit tasks", err)
	}

	if err := db.Table("accounts").
		Select("accounts.user_id, accounts.points, COALESCE(SUM(ledger_entries.amount), 0) AS journal_sum").
		Joins("LEFT JOIN ledger_entries ON ledger_entries.user_id = accounts.user_id").
		Group("accounts.user_id, accounts.points").
		Having("accounts.points <> COALESCE(SUM(ledger_entries.amount), 0)").
		Scan(&report.JournalMismatches).Error; err != nil {
		return nil, storageError("audit journal", err)
	}

	queues := []struct {
		model interface{}
		where string
		arg   interface{}
		dst   *int64
	}{
		{&models.Submission{}, "status = ?", models.SubmissionPending, &report.PendingSubmissions},
		{&models.RechargeRequest{}, "verified = ?", false, &report.PendingRecharges},
		{&models.WithdrawalRequest{}, "verified = ?", false, &report.PendingWithdrawals},
	}
	for _, q := range queues {
		if err := db.Model(q.model).Where(q.where, q.arg).Count(q.dst).Error; err != nil {
			return nil, storageError("audit queues", err)
		}
	}

	metrics.SetAudit("negative_balances", int64(len(report.NegativeBalances)))
	metrics.SetAudit("overfilled_tasks", int64(len(report.OverfilledTasks)))
	metrics.SetAudit("journal_mismatches", int64(len(report.JournalMismatches)))
	metrics.SetAudit("pending_submissions", report.PendingSubmissions)
	metrics.SetAudit("pending_recharges", report.PendingRecharges)
	metrics.SetAudit("pending_withdrawals", report.PendingWithdrawals)

	entry := s.log.WithFields(logrus.Fields{
		"negative_balances":   len(report.NegativeBalances),
		"overfilled_tasks":    len(report.OverfilledTasks),
		"journal_mismatches":  len(report.JournalMismatches),
		"pending_submissions": report.PendingSubmissions,
		"pending_recharges":   report.PendingRecharges,
		"pending_withdrawals": report.PendingWithdrawals,
	})
	if report.Healthy() {
		entry.Info("ledger audit passed")
	} else {
		entry.Error("ledger audit found broken invariants")
	}
	return report, nil
}
