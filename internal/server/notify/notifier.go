// Package notify delivers verification messages. SMTPSender talks to a mail
// server through gomail; LogSender only logs the link and is used when no
// SMTP host is configured.
package notify

import (
	"context"
	"net/url"
	"strings"
)

// Notifier sends the verification token to the account's email address.
type Notifier interface {
	SendVerification(ctx context.Context, token, email string) error
}

// VerificationLink joins the base URL and the escaped token.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(token)
}
