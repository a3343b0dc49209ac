package domain

import "time"

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "ACTIVE"
	ProjectArchived ProjectStatus = "ARCHIVED"
	ProjectDeleted  ProjectStatus = "DELETED"
)

// Valid reports whether the status is settable by a caller. DELETED is only
// ever set by the soft-delete path.
func (s ProjectStatus) Valid() bool {
	return s == ProjectActive || s == ProjectArchived
}

func (s ProjectStatus) String() string { return string(s) }

// Project is the resource gated by the RBAC layer. Creator identity is
// snapshotted at creation time.
type Project struct {
	ID           string
	Name         string
	Description  string
	Status       ProjectStatus
	Deleted      bool // soft delete flag; deleted projects are excluded from listings
	CreatorID    string
	CreatorName  string
	CreatorEmail string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
