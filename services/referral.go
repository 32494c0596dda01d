package services

import (
	"errors"

	"task-points-market/models"

	"gorm.io/gorm"
)

// ReferralEngine decides and pays the registration bonuses.
type ReferralEngine struct {
	ledger *LedgerService
}

func NewReferralEngine(ledger *LedgerService) *ReferralEngine {
	return &ReferralEngine{ledger: ledger}
}

// resolveReferrer drops self-referrals and referrers that never registered.
func (e *ReferralEngine) resolveReferrer(tx *gorm.DB, userID int64, referrerID *int64) (*int64, error) {
	if referrerID == nil || *referrerID == userID || *referrerID == 0 {
		return nil, nil
	}
	var referrer models.Account
	err := tx.Select("user_id").First(&referrer, "user_id = ?", *referrerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := referrer.UserID
	return &id, nil
}

// Grant pays the bonuses for a freshly inserted account. It runs inside the
// registration transaction, which only reaches here when the insert created a row.
func (e *ReferralEngine) Grant(tx *gorm.DB, acct *models.Account) error {
	rules := e.ledger.Rules
	ref := entryRef{Type: "account", ID: acct.UserID}

	if acct.ReferredBy == nil {
		if rules.JoiningBonus > 0 {
			if _, err := applyCredit(tx, acct.UserID, rules.JoiningBonus, models.EntryJoiningBonus, ref); err != nil {
				return err
			}
		}
		return nil
	}

	referrerID := *acct.ReferredBy
	if err := tx.Create(&models.Referral{
		ReferrerID:    referrerID,
		ReferredID:    acct.UserID,
		ReferrerBonus: rules.ReferrerBonus,
		ReferredBonus: rules.ReferredBonus,
	}).Error; err != nil {
		return err
	}

	if rules.ReferredBonus > 0 {
		if _, err := applyCredit(tx, acct.UserID, rules.ReferredBonus, models.EntryReferralBonus, ref); err != nil {
			return err
		}
	}
	if rules.ReferrerBonus > 0 {
		if _, err := applyCredit(tx, referrerID, rules.ReferrerBonus, models.EntryReferrerBonus, ref); err != nil {
			return err
		}
	}
	return nil
}
