// Package services contains application services for the gophauth CLI.
// This file defines the session service: register, login and logout, the
// account operations that need a session, and the local cache that lets a
// session survive restarts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

// ErrNotLoggedIn is returned by operations that need a cached session.
var ErrNotLoggedIn = errors.New("not logged in")

// AuthService defines the account operations of the CLI. All methods honor
// context cancellation.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte, name string) (*api.AccountInfo, error)
	Login(ctx context.Context, email string, password []byte) (*api.AccountInfo, error)
	RestoreSession(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (string, error)
	Verify(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) (string, error)
	UploadAvatar(ctx context.Context, path string) (string, error)
	ListEmails(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client
// and the local sqlite session cache.
type authService struct {
	client         client.Client
	db             *sql.DB
	maxAvatarBytes int64
}

// NewAuthService constructs an AuthService bound to the given API client and
// DB. Avatar files larger than maxAvatarBytes are refused before upload;
// zero disables the check.
func NewAuthService(client client.Client, db *sql.DB, maxAvatarBytes int64) AuthService {
	return &authService{client: client, db: db, maxAvatarBytes: maxAvatarBytes}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

// Register creates an account on the server. It does not log in.
func (a *authService) Register(ctx context.Context, email string, password []byte, name string) (*api.AccountInfo, error) {
	return a.client.Register(ctx, email, string(password), name)
}

// Login authenticates against the server and caches the session token and
// email locally.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*api.AccountInfo, error) {
	token, info, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveSession(ctx, info.Email, token); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return info, nil
}

// saveSession stores email and token in a single transaction.
func (a *authService) saveSession(ctx context.Context, email, token string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metadata.KeyEmail, email); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeySessionToken, token)
	})
}

// RestoreSession loads a cached token into the client and returns the email
// it belongs to. ErrNotLoggedIn means nothing is cached.
func (a *authService) RestoreSession(ctx context.Context) (string, error) {
	repo := a.getMetadataRepo()

	token, ok, err := repo.Get(ctx, metadata.KeySessionToken)
	if err != nil {
		return "", err
	}
	if !ok || token == "" {
		return "", ErrNotLoggedIn
	}

	email, _, err := repo.Get(ctx, metadata.KeyEmail)
	if err != nil {
		return "", err
	}

	a.client.SetAccessToken(token)
	return email, nil
}

// Logout ends the session on the server and always clears the local cache.
// A session the server no longer accepts is not an error.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.client.SetAccessToken("")

	if cerr := a.getMetadataRepo().Clear(ctx); cerr != nil {
		return cerr
	}
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	return nil
}

// Current returns the email of the logged-in account. A rejected session is
// dropped from the cache.
func (a *authService) Current(ctx context.Context) (string, error) {
	email, err := a.client.Current(ctx)
	if err != nil {
		return "", a.dropRejectedSession(ctx, err)
	}
	return email, nil
}

func (a *authService) Verify(ctx context.Context, token string) error {
	return a.client.Verify(ctx, token)
}

// ResendVerification asks the server to resend the verification email and
// returns its reply. An empty email falls back to the cached one.
func (a *authService) ResendVerification(ctx context.Context, email string) (string, error) {
	if email == "" {
		cached, ok, err := a.getMetadataRepo().Get(ctx, metadata.KeyEmail)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrNotLoggedIn
		}
		email = cached
	}
	return a.client.ResendVerification(ctx, email)
}

// UploadAvatar reads the image at path and uploads it as the avatar.
func (a *authService) UploadAvatar(ctx context.Context, path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if a.maxAvatarBytes > 0 && fi.Size() > a.maxAvatarBytes {
		return "", fmt.Errorf("%w: file is larger than %d bytes", client.ErrInvalidArgument, a.maxAvatarBytes)
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	url, err := a.client.UploadAvatar(ctx, image)
	if err != nil {
		return "", a.dropRejectedSession(ctx, err)
	}
	return url, nil
}

func (a *authService) ListEmails(ctx context.Context) ([]string, error) {
	emails, err := a.client.ListEmails(ctx)
	if err != nil {
		return nil, a.dropRejectedSession(ctx, err)
	}
	return emails, nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// dropRejectedSession clears the cached session when err says the server
// no longer accepts it, and returns err unchanged.
func (a *authService) dropRejectedSession(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		a.client.SetAccessToken("")
		_ = a.getMetadataRepo().Clear(ctx)
	}
	return err
}
