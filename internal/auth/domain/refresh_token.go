package domain

import "time"

// RefreshToken is the persisted record of an opaque refresh token. Only the
// SHA-256 hex digest of the token is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (t RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired treats the expiry instant itself as expired.
func (t RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

func (t RefreshToken) IsUsable(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
