package models

import "time"

// Account is a marketplace user and their point balance.
// UserID is assigned by the client (chat user id) and never generated here.
type Account struct {
	UserID     int64  `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username   string `gorm:"index" json:"username"`
	Name       string `gorm:"not null" json:"name"`
	Points     int64  `gorm:"not null;default:0" json:"points"`
	Earnings   int64  `gorm:"not null;default:0" json:"earnings"` // lifetime payouts, never decreases
	ReferredBy *int64 `gorm:"index" json:"referred_by,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
