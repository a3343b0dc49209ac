package domain

import "time"

// Invite is a pending onboarding grant. The raw invite token is the sole
// capability to accept it; only its SHA-256 fingerprint is persisted.
type Invite struct {
	ID         string
	Email      string // lowercase-normalized target
	Role       Role   // role the accepted user will receive
	TokenHash  string // fingerprint of the opaque invite token, unique
	ExpiresAt  time.Time
	AcceptedAt *time.Time // set exactly once, on successful acceptance
	CreatedAt  time.Time
}

// Accepted reports whether the invite has already been used.
func (i Invite) Accepted() bool { return i.AcceptedAt != nil }

// Expired reports whether the invite is invalid at the given instant.
// Expiry is evaluated lazily at acceptance time; there is no sweeper.
func (i Invite) Expired(now time.Time) bool { return now.After(i.ExpiresAt) }
