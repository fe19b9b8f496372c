package model

import "time"

// Identity is the authenticated user of the current session. Sessions are
// not refreshed: once ExpiresAt passes the user signs in again.
type Identity struct {
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	IDToken   string    `json:"id_token"`
}

// Expired reports whether the identity's token is past its expiry.
// A zero expiry never expires.
func (i *Identity) Expired(now time.Time) bool {
	if i == nil {
		return true
	}
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}
