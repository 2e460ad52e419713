package grpc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toAccountInfo(a *models.Account) api.AccountInfo {
	info := api.AccountInfo{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		AvatarURL: a.AvatarURL,
		Verified:  a.Verified,
	}
	if a.VerificationToken != nil {
		info.VerificationToken = *a.VerificationToken
	}
	return info
}

func (s *GRPCServer) checkRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return status.Error(codes.InvalidArgument, msgBadRequest)
	}
	return nil
}

func (s *GRPCServer) mustAccountID(ctx context.Context) (string, error) {
	id, ok := accountIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "not authorized")
	}
	return id, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	account, err := s.accounts.Register(ctx, req.Email, req.Password, services.Profile{Name: req.Name})
	if err != nil {
		return nil, s.toStatus(ctx, err, msgNotFound)
	}

	s.logger.Info(ctx, "Registered", "account_id", account.ID)
	return &api.RegisterResponse{Account: toAccountInfo(account)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	session, err := s.accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err, msgNotFound)
	}

	return &api.LoginResponse{Token: session.Token, Account: toAccountInfo(session.Account)}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *api.LogoutRequest) (*api.LogoutResponse, error) {
	id, err := s.mustAccountID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.EndSession(ctx, id); err != nil {
		return nil, s.toStatus(ctx, err, "user not found")
	}

	return &api.LogoutResponse{}, nil
}

func (s *GRPCServer) Current(ctx context.Context, _ *api.CurrentRequest) (*api.CurrentResponse, error) {
	id, err := s.mustAccountID(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.CurrentAccount(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err, "user not found")
	}

	return &api.CurrentResponse{Email: account.Email}, nil
}

func (s *GRPCServer) Verify(ctx context.Context, req *api.VerifyRequest) (*api.VerifyResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.accounts.RedeemVerification(ctx, req.Token); err != nil {
		return nil, s.toStatus(ctx, err, msgInvalidToken)
	}

	return &api.VerifyResponse{Message: "verification successful"}, nil
}

func (s *GRPCServer) ResendVerification(ctx context.Context, req *api.ResendVerificationRequest) (*api.ResendVerificationResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	sent, err := s.accounts.ResendVerification(ctx, req.Email)
	if err != nil {
		return nil, s.toStatus(ctx, err, "user not found")
	}
	if !sent {
		return &api.ResendVerificationResponse{Message: "account already verified"}, nil
	}

	return &api.ResendVerificationResponse{Message: "verification email sent"}, nil
}

func (s *GRPCServer) UploadAvatar(ctx context.Context, req *api.UploadAvatarRequest) (*api.UploadAvatarResponse, error) {
	id, err := s.mustAccountID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	if s.maxAvatarBytes > 0 && len(req.Image) > s.maxAvatarBytes {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("avatar larger than %d bytes", s.maxAvatarBytes))
	}

	url, err := s.accounts.AttachAvatar(ctx, id, bytes.NewReader(req.Image))
	if err != nil {
		return nil, s.toStatus(ctx, err, "user not found")
	}

	return &api.UploadAvatarResponse{AvatarURL: url}, nil
}

func (s *GRPCServer) ListEmails(ctx context.Context, _ *api.ListEmailsRequest) (*api.ListEmailsResponse, error) {
	emails, err := s.accounts.ListAllEmails(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err, msgNotFound)
	}

	return &api.ListEmailsResponse{Emails: emails}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}
