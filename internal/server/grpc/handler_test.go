package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newHandlerServer(f *fakeAccounts) *GRPCServer {
	return NewGRPCServer("", logging.NewNopLogger(), f, 1024)
}

func authed(id string) context.Context {
	return context.WithValue(context.Background(), accountIDKey, id)
}

func requireCode(t *testing.T, err error, want codes.Code) *status.Status {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, want, st.Code(), st.Message())
	return st
}

func TestRegister_Handler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := &fakeAccounts{registerOut: &models.Account{
			ID: "id-1", Email: "a@x.com", AvatarURL: "http://avatar", VerificationToken: strPtr("tok"),
		}}
		s := newHandlerServer(f)

		resp, err := s.Register(context.Background(), &api.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "Alice"})
		require.NoError(t, err)
		assert.Equal(t, api.AccountInfo{ID: "id-1", Email: "a@x.com", AvatarURL: "http://avatar", VerificationToken: "tok"}, resp.Account)
		assert.Equal(t, services.Profile{Name: "Alice"}, f.gotProfile)
	})

	t.Run("conflict", func(t *testing.T) {
		s := newHandlerServer(&fakeAccounts{registerErr: common.ErrorConflict})

		_, err := s.Register(context.Background(), &api.RegisterRequest{Email: "a@x.com", Password: "secret1"})
		st := requireCode(t, err, codes.AlreadyExists)
		assert.Equal(t, "email in use", st.Message())
	})

	t.Run("validation", func(t *testing.T) {
		s := newHandlerServer(&fakeAccounts{})
		for _, req := range []*api.RegisterRequest{
			{Email: "not-an-email", Password: "secret1"},
			{Email: "a@x.com", Password: "abc"},
			{Email: "", Password: "secret1"},
			{Email: "a@x.com", Password: "secret1", Name: strings.Repeat("x", 101)},
		} {
			_, err := s.Register(context.Background(), req)
			st := requireCode(t, err, codes.InvalidArgument)
			assert.Equal(t, "bad request", st.Message())
		}
	})
}

func TestLogin_Handler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := &fakeAccounts{sessionOut: &services.Session{
			Token:   "jwt",
			Account: &models.Account{ID: "id-1", Email: "a@x.com", Verified: true},
		}}
		resp, err := newHandlerServer(f).Login(context.Background(), &api.LoginRequest{Email: "a@x.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "jwt", resp.Token)
		assert.True(t, resp.Account.Verified)
	})

	t.Run("unauthorized", func(t *testing.T) {
		s := newHandlerServer(&fakeAccounts{authErr: common.ErrorUnauthorized})
		_, err := s.Login(context.Background(), &api.LoginRequest{Email: "a@x.com", Password: "secret1"})
		st := requireCode(t, err, codes.Unauthenticated)
		assert.Equal(t, "email or password is wrong", st.Message())
	})

	t.Run("internal error hides details", func(t *testing.T) {
		s := newHandlerServer(&fakeAccounts{authErr: fmt.Errorf("%w: db down", common.ErrorInternal)})
		_, err := s.Login(context.Background(), &api.LoginRequest{Email: "a@x.com", Password: "secret1"})
		st := requireCode(t, err, codes.Internal)
		assert.NotContains(t, st.Message(), "db down")
	})
}

func TestLogout_Handler(t *testing.T) {
	f := &fakeAccounts{}
	s := newHandlerServer(f)

	_, err := s.Logout(authed("id-1"), &api.LogoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "id-1", f.endedFor)

	_, err = s.Logout(context.Background(), &api.LogoutRequest{})
	requireCode(t, err, codes.Unauthenticated)
}

func TestCurrent_Handler(t *testing.T) {
	f := &fakeAccounts{currentOut: &models.Account{Email: "a@x.com"}}
	resp, err := newHandlerServer(f).Current(authed("id-1"), &api.CurrentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", resp.Email)

	f = &fakeAccounts{currentErr: common.ErrorNotFound}
	_, err = newHandlerServer(f).Current(authed("id-1"), &api.CurrentRequest{})
	requireCode(t, err, codes.NotFound)
}

func TestVerify_Handler(t *testing.T) {
	resp, err := newHandlerServer(&fakeAccounts{}).Verify(context.Background(), &api.VerifyRequest{Token: "tok"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)

	_, err = newHandlerServer(&fakeAccounts{redeemErr: common.ErrorNotFound}).Verify(context.Background(), &api.VerifyRequest{Token: "tok"})
	st := requireCode(t, err, codes.NotFound)
	assert.Equal(t, "invalid token", st.Message())

	_, err = newHandlerServer(&fakeAccounts{}).Verify(context.Background(), &api.VerifyRequest{})
	requireCode(t, err, codes.InvalidArgument)
}

func TestResendVerification_Handler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", common.ErrorNotFound, codes.NotFound},
		{"delivery", fmt.Errorf("%w: smtp", common.ErrDeliveryFailed), codes.Unavailable},
		{"rate limited", common.ErrorRateLimited, codes.ResourceExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newHandlerServer(&fakeAccounts{resendErr: tt.err}).
				ResendVerification(context.Background(), &api.ResendVerificationRequest{Email: "a@x.com"})
			requireCode(t, err, tt.want)
		})
	}

	resp, err := newHandlerServer(&fakeAccounts{}).
		ResendVerification(context.Background(), &api.ResendVerificationRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "verification email sent", resp.Message)

	resp, err = newHandlerServer(&fakeAccounts{alreadyVerified: true}).
		ResendVerification(context.Background(), &api.ResendVerificationRequest{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "account already verified", resp.Message)
}

func TestUploadAvatar_Handler(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := &fakeAccounts{avatarURL: "http://cdn/a.png"}
		resp, err := newHandlerServer(f).UploadAvatar(authed("id-1"), &api.UploadAvatarRequest{Image: []byte("img")})
		require.NoError(t, err)
		assert.Equal(t, "http://cdn/a.png", resp.AvatarURL)
		assert.Equal(t, []byte("img"), f.avatarBytes)
	})

	t.Run("too large", func(t *testing.T) {
		f := &fakeAccounts{}
		_, err := newHandlerServer(f).UploadAvatar(authed("id-1"), &api.UploadAvatarRequest{Image: make([]byte, 1025)})
		requireCode(t, err, codes.InvalidArgument)
		assert.Nil(t, f.avatarBytes)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := newHandlerServer(&fakeAccounts{}).UploadAvatar(authed("id-1"), &api.UploadAvatarRequest{Image: []byte{}})
		requireCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid image", func(t *testing.T) {
		f := &fakeAccounts{avatarErr: fmt.Errorf("%w: png: invalid format", common.ErrorInvalidImage)}
		_, err := newHandlerServer(f).UploadAvatar(authed("id-1"), &api.UploadAvatarRequest{Image: []byte("x")})
		requireCode(t, err, codes.InvalidArgument)
	})

	t.Run("upload failure", func(t *testing.T) {
		f := &fakeAccounts{avatarErr: fmt.Errorf("%w: s3", common.ErrUploadFailed)}
		_, err := newHandlerServer(f).UploadAvatar(authed("id-1"), &api.UploadAvatarRequest{Image: []byte("x")})
		requireCode(t, err, codes.Unavailable)
	})
}

func TestListEmails_Handler(t *testing.T) {
	resp, err := newHandlerServer(&fakeAccounts{emails: []string{"a@x.com"}}).ListEmails(authed("id"), &api.ListEmailsRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, resp.Emails)

	_, err = newHandlerServer(&fakeAccounts{emailsErr: errors.New("boom")}).ListEmails(authed("id"), &api.ListEmailsRequest{})
	requireCode(t, err, codes.Internal)
}

func TestPing_Handler(t *testing.T) {
	resp, err := newHandlerServer(&fakeAccounts{}).Ping(context.Background(), &api.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
}
