package domain

import "time"

// Status is a user's activation state. Users are never hard-deleted;
// deactivation is the substitute.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether the status is one of the enumerated values.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

func (s Status) String() string { return string(s) }

type User struct {
	ID           string
	Name         string
	Email        string // lowercase-normalized, unique at the store level
	PasswordHash string // argon2 encoded, never serialized outward
	Role         Role
	Status       Status
	Seeded       bool // set only by the bootstrap path, backs the single-seed constraint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the user may authenticate and act.
func (u User) Active() bool { return u.Status == StatusActive }
