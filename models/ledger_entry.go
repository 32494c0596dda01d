package models

import "time"

// EntryKind labels why a balance moved
type EntryKind string

const (
	EntryJoiningBonus  EntryKind = "joining_bonus"
	EntryReferralBonus EntryKind = "referral_bonus"
	EntryReferrerBonus EntryKind = "referrer_bonus"
	EntryTaskEscrow    EntryKind = "task_escrow"
	EntryTaskPayout    EntryKind = "task_payout"
	EntryRecharge      EntryKind = "recharge"
	EntryWithdrawal    EntryKind = "withdrawal"
	EntryRefund        EntryKind = "refund"
)

// LedgerEntry is one row of the points journal, written in the same transaction as the
// balance change it describes. Amount is signed: credits positive, debits negative.
type LedgerEntry struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       int64     `gorm:"index;not null" json:"user_id"`
	Kind         EntryKind `gorm:"type:varchar(32);not null" json:"kind"`
	Amount       int64     `gorm:"not null" json:"amount"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	RefType      string    `gorm:"type:varchar(32)" json:"ref_type,omitempty"`
	RefID        string    `gorm:"type:varchar(64)" json:"ref_id,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// All returns every model the service migrates.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&Referral{},
		&Task{},
		&Submission{},
		&RechargeRequest{},
		&WithdrawalRequest{},
		&LedgerEntry{},
	}
}
