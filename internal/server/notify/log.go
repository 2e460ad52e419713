package notify

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// LogSender writes the verification link to the log instead of mailing it.
type LogSender struct {
	logger  logging.Logger
	baseURL string
}

func NewLogSender(logger logging.Logger, verificationBaseURL string) *LogSender {
	return &LogSender{logger: logger.With("module", "notify"), baseURL: verificationBaseURL}
}

func (s *LogSender) SendVerification(ctx context.Context, token, email string) error {
	s.logger.Info(ctx, "verification email", "to", email, "link", VerificationLink(s.baseURL, token))
	return nil
}
