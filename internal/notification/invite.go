// Package notification delivers invite emails through Resend or SMTP.
package notification

import (
	"fmt"
	"strings"

	"github.com/trackly/trackly-home/internal/household"
	"github.com/trackly/trackly-home/pkg/auth"
)

const inviteSubject = "Trackly Home invite"

// renderInvite returns the subject, HTML and text bodies of an invite email.
// User-controlled values are escaped for the HTML body.
func renderInvite(msg household.InviteEmail) (subject, htmlBody, textBody string) {
	subject = inviteSubject
	if name := strings.TrimSpace(msg.HouseholdName); name != "" {
		subject = fmt.Sprintf("You're invited to %s on Trackly Home", name)
	}

	target, htmlTarget := "a Trackly Home household", "a Trackly Home household"
	if msg.HouseholdName != "" {
		target = msg.HouseholdName + " on Trackly Home"
		htmlTarget = auth.SanitizeInput(msg.HouseholdName) + " on Trackly Home"
	}
	expires := msg.ExpiresAt.UTC().Format("January 2, 2006")
	link := auth.SanitizeInput(msg.InviteURL)

	htmlBody = fmt.Sprintf(`<html><body>
		<h2>You've been invited</h2>
		<p>You've been invited to join %s.</p>
		<p><a href="%s">Accept invite</a></p>
		<p>Or copy this link to your browser: %s</p>
		<p>This invite expires on %s.</p>
	</body></html>`, htmlTarget, link, link, expires)

	textBody = fmt.Sprintf("You've been invited to join %s.\n\nAccept the invite: %s\n\nThis invite expires on %s.\n",
		target, msg.InviteURL, expires)

	return subject, htmlBody, textBody
}
