package services

import (
	"fmt"
	"math"
)

// Rules are the tunable constants of the marketplace economy.
type Rules struct {
	CoinRate      int64 // points per unit of external currency
	JoiningBonus  int64 // new account without a referrer
	ReferredBonus int64 // new account that came through a referral
	ReferrerBonus int64 // paid to the referrer
	PayoutPercent int64 // share of a task reward paid to the worker; the rest is platform margin

	// VideoLinkMarkers let a text proof stand in for a video upload when it contains one of them.
	VideoLinkMarkers []string

	// ProofRefPrefixes are the URL or path prefixes of the proof store. When set, photo and
	// video proofs given as a URL or path must start with one of them.
	ProofRefPrefixes []string
}

// DefaultRules mirror the values the bot has always run with.
func DefaultRules() Rules {
	return Rules{
		CoinRate:         1,
		JoiningBonus:     200,
		ReferredBonus:    500,
		ReferrerBonus:    200,
		PayoutPercent:    90,
		VideoLinkMarkers: []string{"youtu"},
	}
}

func (r Rules) Validate() error {
	if r.CoinRate <= 0 {
		return fmt.Errorf("coin rate must be positive, got %d", r.CoinRate)
	}
	if r.PayoutPercent < 0 || r.PayoutPercent > 100 {
		return fmt.Errorf("payout percent must be within 0..100, got %d", r.PayoutPercent)
	}
	if r.JoiningBonus < 0 || r.ReferredBonus < 0 || r.ReferrerBonus < 0 {
		return fmt.Errorf("bonuses cannot be negative")
	}
	return nil
}

// Payout is floor(reward * PayoutPercent / 100).
func (r Rules) Payout(reward int64) int64 {
	return reward * r.PayoutPercent / 100
}

// ToPoints converts an external currency amount into points.
func (r Rules) ToPoints(amount int64) (int64, bool) {
	return mulChecked(amount, r.CoinRate)
}

func mulChecked(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, false
	}
	return a * b, true
}
