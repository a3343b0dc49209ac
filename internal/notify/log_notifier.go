package notify

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/crewdeck/crewdeck/pkg/slogx"
)

// LogNotifier writes invitations to the structured log instead of an
// outbound channel. It stands in for a mail provider in development and
// honours two env knobs for exercising failure paths:
//
//	NOTIFIER_SLEEP_MS  simulate a slow provider
//	NOTIFIER_FAIL=1    simulate a provider outage
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendInvitation(ctx context.Context, inv Invitation) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("notify: provider down (simulated)")
	}

	slogx.FromContext(ctx).Info("invitation delivered",
		"email", inv.Email,
		"role", inv.Role,
		"expires_at", inv.ExpiresAt,
		"invite_url", inv.InviteURL,
	)
	return nil
}
