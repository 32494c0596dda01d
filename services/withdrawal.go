package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"task-points-market/metrics"
	"task-points-market/models"
	"task-points-market/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WithdrawalInput struct {
	UserID int64                `json:"-"`
	Amount int64                `json:"amount"`
	Method models.PaymentMethod `json:"method"`
	Number string               `json:"number"`
}

// WithdrawalService moves points out. The debit happens at request time so the
// same points cannot be withdrawn twice while the payout is waiting on an admin.
type WithdrawalService struct {
	DB    *gorm.DB
	Rules Rules
	log   *logrus.Entry
}

func NewWithdrawalService(db *gorm.DB, rules Rules) *WithdrawalService {
	return &WithdrawalService{DB: db, Rules: rules, log: utils.NewLogger("withdrawal")}
}

func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, in WithdrawalInput) (*models.WithdrawalRequest, error) {
	in.Number = strings.TrimSpace(in.Number)
	if in.Amount <= 0 {
		return nil, invalidInput("amount", "must be positive")
	}
	if !in.Method.Valid() {
		return nil, invalidInput("method", "must be bKash or Nagad")
	}
	if in.Number == "" {
		return nil, invalidInput("number", "is required")
	}
	cost, ok := s.Rules.ToPoints(in.Amount)
	if !ok {
		return nil, invalidInput("amount", "too large")
	}

	req := models.WithdrawalRequest{
		UserID:        in.UserID,
		Amount:        in.Amount,
		Method:        in.Method,
		Number:        in.Number,
		DebitedPoints: cost,
	}
	err := inLedgerTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		_, err := applyDebit(tx, in.UserID, cost, models.EntryWithdrawal, entryRef{Type: "withdrawal", ID: req.ID})
		return err
	})
	if err != nil {
		return nil, asCoreError("request withdrawal", err)
	}

	s.log.WithFields(logrus.Fields{
		"withdrawal_id": req.ID,
		"user_id":       req.UserID,
		"points":        cost,
		"method":        req.Method,
	}).Info("withdrawal requested")
	return &req, nil
}

func (s *WithdrawalService) listPending(ctx context.Context) ([]models.WithdrawalRequest, error) {
	var reqs []models.WithdrawalRequest
	if err := s.DB.WithContext(ctx).
		Where("verified = ?", false).
		Order("id ASC").
		Find(&reqs).Error; err != nil {
		return nil, storageError("pending withdrawals", err)
	}
	return reqs, nil
}

// verifyWithdrawal records that the money was sent. Balances do not change.
func (s *WithdrawalService) verifyWithdrawal(ctx context.Context, adminID int64, id uint) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("withdrawal", id)
			}
			return err
		}
		if req.Verified {
			return newError(KindAlreadyProcessed, "withdrawal", id, "")
		}

		now := time.Now()
		res := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND verified = ?", id, false).
			Updates(map[string]interface{}{
				"verified":    true,
				"verified_by": adminID,
				"verified_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(KindAlreadyProcessed, "withdrawal", id, "")
		}
		req.Verified = true
		req.VerifiedBy = &adminID
		req.VerifiedAt = &now
		return nil
	})
	if err != nil {
		return nil, asCoreError("verify withdrawal", err)
	}

	metrics.RecordReview("withdrawal", "verified")
	s.log.WithFields(logrus.Fields{
		"withdrawal_id": id,
		"admin_id":      adminID,
		"user_id":       req.UserID,
	}).Info("withdrawal verified")
	return &req, nil
}
