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

type RechargeInput struct {
	UserID int64                `json:"-"`
	Amount int64                `json:"amount"`
	Method models.PaymentMethod `json:"method"`
	TrxID  string               `json:"trx_id"`
}

// RechargeService handles top-ups paid outside the system. Points land only after an admin
// checks the transaction id against the wallet statement.
type RechargeService struct {
	DB    *gorm.DB
	Rules Rules
	log   *logrus.Entry
}

func NewRechargeService(db *gorm.DB, rules Rules) *RechargeService {
	return &RechargeService{DB: db, Rules: rules, log: utils.NewLogger("recharge")}
}

func (s *RechargeService) RequestRecharge(ctx context.Context, in RechargeInput) (*models.RechargeRequest, error) {
	in.TrxID = strings.TrimSpace(in.TrxID)
	if in.Amount <= 0 {
		return nil, invalidInput("amount", "must be positive")
	}
	if _, ok := s.Rules.ToPoints(in.Amount); !ok {
		return nil, invalidInput("amount", "too large")
	}
	if !in.Method.Valid() {
		return nil, invalidInput("method", "must be bKash or Nagad")
	}
	if in.TrxID == "" {
		return nil, invalidInput("trx_id", "is required")
	}

	req := models.RechargeRequest{
		UserID: in.UserID,
		Amount: in.Amount,
		Method: in.Method,
		TrxID:  in.TrxID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getAccount(tx, in.UserID); err != nil {
			return err
		}
		return tx.Create(&req).Error
	})
	if err != nil {
		return nil, asCoreError("request recharge", err)
	}

	s.log.WithFields(logrus.Fields{
		"recharge_id": req.ID,
		"user_id":     req.UserID,
		"amount":      req.Amount,
		"method":      req.Method,
	}).Info("recharge requested")
	return &req, nil
}

func (s *RechargeService) listPending(ctx context.Context) ([]models.RechargeRequest, error) {
	var reqs []models.RechargeRequest
	if err := s.DB.WithContext(ctx).
		Where("verified = ?", false).
		Order("id ASC").
		Find(&reqs).Error; err != nil {
		return nil, storageError("pending recharges", err)
	}
	return reqs, nil
}

// verifyRecharge flips verified once and credits amount*coin_rate in the same transaction.
func (s *RechargeService) verifyRecharge(ctx context.Context, adminID int64, id uint) (*models.RechargeRequest, error) {
	var req models.RechargeRequest
	err := inLedgerTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("recharge", id)
			}
			return err
		}
		if req.Verified {
			return newError(KindAlreadyProcessed, "recharge", id, "")
		}

		points, ok := s.Rules.ToPoints(req.Amount)
		if !ok {
			return invalidInput("amount", "too large")
		}

		now := time.Now()
		res := tx.Model(&models.RechargeRequest{}).
			Where("id = ? AND verified = ?", id, false).
			Updates(map[string]interface{}{
				"verified":        true,
				"credited_points": points,
				"verified_by":     adminID,
				"verified_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(KindAlreadyProcessed, "recharge", id, "")
		}
		req.Verified = true
		req.CreditedPoints = points
		req.VerifiedBy = &adminID
		req.VerifiedAt = &now

		_, err := applyCredit(tx, req.UserID, points, models.EntryRecharge, entryRef{Type: "recharge", ID: req.ID})
		return err
	})
	if err != nil {
		return nil, asCoreError("verify recharge", err)
	}

	metrics.RecordReview("recharge", "verified")
	s.log.WithFields(logrus.Fields{
		"recharge_id": id,
		"admin_id":    adminID,
		"user_id":     req.UserID,
		"points":      req.CreditedPoints,
	}).Info("recharge verified")
	return &req, nil
}
