package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/api"
)

type Client interface {
	Close() error
	SetAccessToken(token string)
	Register(ctx context.Context, email, password, name string) (*api.AccountInfo, error)
	Login(ctx context.Context, email, password string) (string, *api.AccountInfo, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (string, error)
	Verify(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) (string, error)
	UploadAvatar(ctx context.Context, image []byte) (string, error)
	ListEmails(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}
