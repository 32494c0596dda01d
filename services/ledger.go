// services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"

	"task-points-market/metrics"
	"task-points-market/models"
	"task-points-market/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entryRef names the record a balance change belongs to ("task", 12).
type entryRef struct {
	Type string
	ID   interface{}
}

func (r entryRef) id() string {
	if r.ID == nil {
		return ""
	}
	return fmt.Sprint(r.ID)
}

// RegisterInput is everything the client collected for a first contact.
type RegisterInput struct {
	UserID     int64
	Username   string
	Name       string
	ReferrerID *int64
}

// LedgerService owns the accounts table. Every balance change goes through
// applyCredit / applyDebit so it is a single guarded UPDATE plus a journal row.
type LedgerService struct {
	DB        *gorm.DB
	Rules     Rules
	referrals *ReferralEngine
	log       *logrus.Entry
}

func NewLedgerService(db *gorm.DB, rules Rules) *LedgerService {
	s := &LedgerService{
		DB:    db,
		Rules: rules,
		log:   utils.NewLogger("ledger"),
	}
	s.referrals = NewReferralEngine(s)
	return s
}

// CreateAccount registers a user. Registering an existing id is a no-op and
// returns the stored account with created=false.
func (s *LedgerService) CreateAccount(ctx context.Context, in RegisterInput) (*models.Account, bool, error) {
	if in.UserID == 0 {
		return nil, false, invalidInput("user_id", "is required")
	}

	var acct models.Account
	created := false
	err := inLedgerTx(ctx, s.DB, func(tx *gorm.DB) error {
		referrer, err := s.referrals.resolveReferrer(tx, in.UserID, in.ReferrerID)
		if err != nil {
			return err
		}

		acct = models.Account{
			UserID:     in.UserID,
			Username:   in.Username,
			Name:       in.Name,
			ReferredBy: referrer,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&acct)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.First(&acct, "user_id = ?", in.UserID).Error
		}
		created = true

		if err := s.referrals.Grant(tx, &acct); err != nil {
			return err
		}
		return tx.First(&acct, "user_id = ?", in.UserID).Error
	})
	if err != nil {
		return nil, false, asCoreError("create account", err)
	}

	if created {
		s.log.WithFields(logrus.Fields{
			"user_id":     acct.UserID,
			"referred_by": acct.ReferredBy,
			"points":      acct.Points,
		}).Info("account registered")
	}
	return &acct, created, nil
}

// GetAccount loads an account by its external id.
func (s *LedgerService) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	return getAccount(s.DB.WithContext(ctx), userID)
}

func getAccount(db *gorm.DB, userID int64) (*models.Account, error) {
	var acct models.Account
	if err := db.First(&acct, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("account", userID)
		}
		return nil, storageError("get account", err)
	}
	return &acct, nil
}

// Credit adds points to an account outside of any workflow (manual adjustment, refund).
func (s *LedgerService) Credit(ctx context.Context, userID, amount int64, kind models.EntryKind, refType, refID string) (int64, error) {
	var balance int64
	err := inLedgerTx(ctx, s.DB, func(tx *gorm.DB) error {
		var err error
		balance, err = applyCredit(tx, userID, amount, kind, entryRef{Type: refType, ID: refID})
		return err
	})
	if err != nil {
		return 0, asCoreError("credit", err)
	}
	return balance, nil
}

// Debit removes points, failing with InsufficientFunds instead of going negative.
func (s *LedgerService) Debit(ctx context.Context, userID, amount int64, kind models.EntryKind, refType, refID string) (int64, error) {
	var balance int64
	err := inLedgerTx(ctx, s.DB, func(tx *gorm.DB) error {
		var err error
		balance, err = applyDebit(tx, userID, amount, kind, entryRef{Type: refType, ID: refID})
		return err
	})
	if err != nil {
		return 0, asCoreError("debit", err)
	}
	return balance, nil
}

// AddEarnings bumps the lifetime earnings counter without touching the balance.
func (s *LedgerService) AddEarnings(ctx context.Context, userID, amount int64) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return addEarnings(tx, userID, amount)
	})
	return asCoreError("add earnings", err)
}

// History returns the newest journal rows of an account.
func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	db := s.DB.WithContext(ctx)
	if _, err := getAccount(db, userID); err != nil {
		return nil, err
	}

	var entries []models.LedgerEntry
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, storageError("ledger history", err)
	}
	return entries, nil
}

func applyCredit(tx *gorm.DB, userID, amount int64, kind models.EntryKind, ref entryRef) (int64, error) {
	if amount <= 0 {
		return 0, invalidInput("amount", "must be positive")
	}
	res := tx.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"points": gorm.Expr("points + ?", amount)})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, notFound("account", userID)
	}
	return journal(tx, userID, amount, kind, ref)
}

// applyDebit checks and subtracts in one statement so concurrent debits cannot both pass the check.
func applyDebit(tx *gorm.DB, userID, amount int64, kind models.EntryKind, ref entryRef) (int64, error) {
	if amount <= 0 {
		return 0, invalidInput("amount", "must be positive")
	}
	res := tx.Model(&models.Account{}).
		Where("user_id = ? AND points >= ?", userID, amount).
		Updates(map[string]interface{}{"points": gorm.Expr("points - ?", amount)})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		acct, err := getAccount(tx, userID)
		if err != nil {
			return 0, err
		}
		return 0, newError(KindInsufficientFunds, "account", userID,
			fmt.Sprintf("need %d, have %d", amount, acct.Points))
	}
	return journal(tx, userID, -amount, kind, ref)
}

func addEarnings(tx *gorm.DB, userID, amount int64) error {
	if amount <= 0 {
		return invalidInput("amount", "must be positive")
	}
	res := tx.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"earnings": gorm.Expr("earnings + ?", amount)})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("account", userID)
	}
	return nil
}

func journal(tx *gorm.DB, userID, delta int64, kind models.EntryKind, ref entryRef) (int64, error) {
	var balance int64
	if err := tx.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Pluck("points", &balance).Error; err != nil {
		return 0, err
	}

	entry := models.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Kind:         kind,
		Amount:       delta,
		BalanceAfter: balance,
		RefType:      ref.Type,
		RefID:        ref.id(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}

	if rec, ok := tx.Statement.Context.Value(ledgerMetricsKey{}).(*ledgerMetrics); ok {
		rec.add(kind, delta)
	}
	return balance, nil
}

type ledgerMetricsKey struct{}

// ledgerMetrics holds the journal rows written by one transaction until it commits.
type ledgerMetrics struct {
	kinds  []models.EntryKind
	deltas []int64
}

func (m *ledgerMetrics) add(kind models.EntryKind, delta int64) {
	m.kinds = append(m.kinds, kind)
	m.deltas = append(m.deltas, delta)
}

func (m *ledgerMetrics) flush() {
	for i, kind := range m.kinds {
		metrics.RecordLedger(string(kind), m.deltas[i])
	}
}

// inLedgerTx runs fn in a transaction and records the ledger metrics of the journal
// rows it wrote only after a successful commit.
func inLedgerTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	rec := &ledgerMetrics{}
	err := db.WithContext(context.WithValue(ctx, ledgerMetricsKey{}, rec)).Transaction(fn)
	if err == nil {
		rec.flush()
	}
	return err
}
