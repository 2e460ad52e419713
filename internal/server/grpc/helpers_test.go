package grpc

import (
	"context"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type fakeAccounts struct {
	mu sync.Mutex

	registerOut *models.Account
	registerErr error
	gotProfile  services.Profile

	sessionOut *services.Session
	authErr    error

	endErr   error
	endedFor string

	currentOut *models.Account
	currentErr error

	redeemErr       error
	alreadyVerified bool
	resendErr       error

	avatarURL   string
	avatarErr   error
	avatarBytes []byte

	emails    []string
	emailsErr error

	resolveID  string
	resolveErr error
}

func (f *fakeAccounts) Register(_ context.Context, _, _ string, p services.Profile) (*models.Account, error) {
	f.gotProfile = p
	return f.registerOut, f.registerErr
}

func (f *fakeAccounts) Authenticate(context.Context, string, string) (*services.Session, error) {
	return f.sessionOut, f.authErr
}

func (f *fakeAccounts) EndSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endedFor = id
	return f.endErr
}

func (f *fakeAccounts) CurrentAccount(context.Context, string) (*models.Account, error) {
	return f.currentOut, f.currentErr
}

func (f *fakeAccounts) RedeemVerification(context.Context, string) (*models.Account, error) {
	if f.redeemErr != nil {
		return nil, f.redeemErr
	}
	return &models.Account{Verified: true}, nil
}

func (f *fakeAccounts) ResendVerification(context.Context, string) (bool, error) {
	return f.resendErr == nil && !f.alreadyVerified, f.resendErr
}

func (f *fakeAccounts) AttachAvatar(_ context.Context, _ string, r io.Reader) (string, error) {
	b, _ := io.ReadAll(r)
	f.avatarBytes = b
	return f.avatarURL, f.avatarErr
}

func (f *fakeAccounts) ListAllEmails(context.Context) ([]string, error) {
	return f.emails, f.emailsErr
}

func (f *fakeAccounts) ResolveSession(context.Context, string) (string, error) {
	return f.resolveID, f.resolveErr
}

func strPtr(s string) *string { return &s }
