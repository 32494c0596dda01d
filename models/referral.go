package models

import "time"

// Referral records the bonuses granted when ReferredID registered through ReferrerID.
// The unique index on referred_id keeps the grant to one per account.
type Referral struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ReferrerID    int64     `gorm:"index;not null" json:"referrer_id"`
	ReferredID    int64     `gorm:"uniqueIndex;not null" json:"referred_id"`
	ReferrerBonus int64     `gorm:"not null" json:"referrer_bonus"`
	ReferredBonus int64     `gorm:"not null" json:"referred_bonus"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
