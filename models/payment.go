package models

import "time"

// PaymentMethod is the mobile wallet used to move money in or out
type PaymentMethod string

const (
	PaymentBKash PaymentMethod = "bKash"
	PaymentNagad PaymentMethod = "Nagad"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentBKash || m == PaymentNagad
}

// RechargeRequest is a claimed top-up; points are credited only once an admin verifies it.
type RechargeRequest struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         int64         `gorm:"index;not null" json:"user_id"`
	Amount         int64         `gorm:"not null" json:"amount"` // external currency units
	Method         PaymentMethod `gorm:"type:varchar(16);not null" json:"method"`
	TrxID          string        `gorm:"not null" json:"trx_id"`
	Verified       bool          `gorm:"not null;default:false;index" json:"verified"`
	CreditedPoints int64         `gorm:"not null;default:0" json:"credited_points"`
	VerifiedBy     *int64        `json:"verified_by,omitempty"`
	VerifiedAt     *time.Time    `json:"verified_at,omitempty"`

	Timestamps
}

// WithdrawalRequest is a cash-out. The points were debited when it was created;
// verifying it only records that the payout was sent.
type WithdrawalRequest struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        int64         `gorm:"index;not null" json:"user_id"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Method        PaymentMethod `gorm:"type:varchar(16);not null" json:"method"`
	Number        string        `gorm:"not null" json:"number"`
	Verified      bool          `gorm:"not null;default:false;index" json:"verified"`
	DebitedPoints int64         `gorm:"not null" json:"debited_points"`
	VerifiedBy    *int64        `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time    `json:"verified_at,omitempty"`

	Timestamps
}
