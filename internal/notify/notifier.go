package notify

import (
	"context"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
)

// Invitation carries everything a delivery channel needs to reach an
// invited user.
type Invitation struct {
	Email     string
	InviteURL string
	Role      domain.Role
	ExpiresAt time.Time
}

// Notifier delivers invitation messages. Implementations must treat a
// returned error as "nothing was delivered"; callers roll back the
// invite record when delivery fails.
type Notifier interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}
