package models

import "time"

// GiftCode represents a redeemable credit voucher. The code string is the
// Firestore document ID, mirroring how profiles use the auth UID.
type GiftCode struct {
	Code       string     `json:"code" firestore:"-"`
	Credits    int64      `json:"credits" firestore:"credits"`
	Redeemed   bool       `json:"redeemed" firestore:"redeemed"`
	RedeemedBy string     `json:"redeemed_by,omitempty" firestore:"redeemed_by,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty" firestore:"redeemed_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" firestore:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" firestore:"created_at"`
}

// Expired reports whether the code can no longer be redeemed because its
// expiry has passed. Codes without an expiry never expire.
func (g *GiftCode) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}
