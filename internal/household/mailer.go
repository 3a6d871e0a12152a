package household

import (
	"context"
	"time"
)

// InviteEmail is the message sent to an invitee.
type InviteEmail struct {
	To            string
	InviterEmail  string
	HouseholdName string
	InviteURL     string
	ExpiresAt     time.Time
}

// Mailer delivers invite emails.
type Mailer interface {
	SendInvite(ctx context.Context, msg InviteEmail) error
}

// DispatchResult is the outcome of a best-effort email send. A failed send
// never fails the operation that triggered it.
type DispatchResult struct {
	Sent bool
	Err  error
}

// DispatchObserver is notified of every dispatch outcome (metrics).
type DispatchObserver func(DispatchResult)

func dispatch(ctx context.Context, m Mailer, msg InviteEmail) DispatchResult {
	if m == nil {
		return DispatchResult{}
	}
	if err := m.SendInvite(ctx, msg); err != nil {
		return DispatchResult{Err: err}
	}
	return DispatchResult{Sent: true}
}
