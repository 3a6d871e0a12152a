package domain

import (
	"testing"
	"time"
)

func TestInvite_Status(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accepted := now.Add(-time.Hour)

	tests := []struct {
		name   string
		invite Invite
		want   InviteStatus
	}{
		{
			name:   "pending",
			invite: Invite{ExpiresAt: now.Add(time.Second)},
			want:   InviteStatusPending,
		},
		{
			name:   "expires exactly now is still pending",
			invite: Invite{ExpiresAt: now},
			want:   InviteStatusPending,
		},
		{
			name:   "expired",
			invite: Invite{ExpiresAt: now.Add(-time.Second)},
			want:   InviteStatusExpired,
		},
		{
			name:   "accepted",
			invite: Invite{ExpiresAt: now.Add(time.Hour), AcceptedAt: &accepted},
			want:   InviteStatusAccepted,
		},
		{
			name:   "accepted then expired stays accepted",
			invite: Invite{ExpiresAt: now.Add(-time.Minute), AcceptedAt: &accepted},
			want:   InviteStatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.invite.Status(now); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}
