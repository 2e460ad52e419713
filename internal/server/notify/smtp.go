package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

var verificationTemplate = template.Must(template.ParseFS(templatesFS, "templates/verification_email.html"))

const verificationSubject = "Verify your email address"

// dialer is the part of *gomail.Dialer the sender needs.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPSender struct {
	dialer  dialer
	from    string
	baseURL string

	// inflight counts DialAndSend calls, including ones whose caller gave up.
	inflight sync.WaitGroup
}

func NewSMTPSender(host string, port int, username, password, from, verificationBaseURL string) *SMTPSender {
	return &SMTPSender{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		baseURL: verificationBaseURL,
	}
}

// SendVerification renders the message and hands it to the mail server.
// Every failure wraps common.ErrDeliveryFailed.
func (s *SMTPSender) SendVerification(ctx context.Context, token, email string) error {
	body, err := s.renderVerification(token, email)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", verificationSubject)
	m.SetBody("text/html", body)

	// gomail has no context support; run the send so a cancelled ctx returns
	// early. The send itself carries on and Wait still sees it.
	done := make(chan error, 1)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, ctx.Err())
	}
}

// Wait blocks until every started DialAndSend has returned.
func (s *SMTPSender) Wait() {
	s.inflight.Wait()
}

func (s *SMTPSender) renderVerification(token, email string) (string, error) {
	var buf bytes.Buffer
	err := verificationTemplate.Execute(&buf, map[string]string{
		"Email": email,
		"Link":  VerificationLink(s.baseURL, token),
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
