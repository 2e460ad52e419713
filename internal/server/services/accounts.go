// Package services contains server-side business logic. AccountService owns
// every account state transition: registration, login and logout, email
// verification and avatar attachment.
package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/filex"
	"github.com/dmitrijs2005/gophauth/internal/imagex"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/objectstore"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenSigner mints and checks session tokens.
type TokenSigner interface {
	Sign(userID string) (string, error)
	Verify(token string) (string, error)
}

// Limiter throttles resend-verification requests per email.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Profile holds optional fields supplied at registration.
type Profile struct {
	Name string
}

// Session is the result of a successful login.
type Session struct {
	Token   string
	Account *models.Account
}

type Option func(*AccountService)

// WithLimiter throttles ResendVerification.
func WithLimiter(l Limiter) Option {
	return func(s *AccountService) { s.limiter = l }
}

// WithUploadDir stages avatar uploads in dir instead of the configured one.
func WithUploadDir(dir string) Option {
	return func(s *AccountService) { s.uploadDir = dir }
}

const avatarContentType = "image/png"

// AccountService mediates every account state transition. It keeps no
// account state of its own; the store is the only point of serialization.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      TokenSigner
	notifier    notify.Notifier
	store       objectstore.Store
	limiter     Limiter
	logger      logging.Logger

	hashCost            int
	dummyHash           []byte
	avatarFolder        string
	avatarSize          int
	avatarMaxPixels     int
	uploadDir           string
	notificationTimeout time.Duration

	// pending tracks fire-and-forget verification sends.
	pending sync.WaitGroup
}

// NewAccountService wires the service to its collaborators. db may be nil
// when m does not need a connection.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	signer TokenSigner, notifier notify.Notifier, store objectstore.Store,
	logger logging.Logger, opts ...Option) (*AccountService, error) {

	cost := cfg.PasswordHashCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), cost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	s := &AccountService{
		db:                  db,
		repomanager:         m,
		signer:              signer,
		notifier:            notifier,
		store:               store,
		logger:              logger.With("module", "accounts"),
		hashCost:            cost,
		dummyHash:           dummy,
		avatarFolder:        cfg.AvatarFolder,
		avatarSize:          cfg.AvatarSize,
		avatarMaxPixels:     cfg.MaxAvatarPixels,
		uploadDir:           cfg.UploadDir,
		notificationTimeout: cfg.NotificationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *AccountService) accounts() accounts.Repository {
	return s.repomanager.Accounts(s.db)
}

// Register creates an unverified account and sends the verification email in
// the background. A failed send is logged and does not fail registration.
func (s *AccountService) Register(ctx context.Context, email, password string, profile Profile) (*models.Account, error) {
	email = NormalizeEmail(email)
	repo := s.accounts()

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, internal(err)
	}

	token, err := common.MakeRandHexString(common.VerificationTokenSize)
	if err != nil {
		return nil, internal(err)
	}

	created, err := repo.Create(ctx, &models.Account{
		Email:             email,
		PasswordHash:      string(hash),
		Name:              strings.TrimSpace(profile.Name),
		VerificationToken: &token,
		AvatarURL:         PlaceholderAvatarURL(email),
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorConflict
		}
		return nil, internal(err)
	}

	s.logger.Info(ctx, "account registered", "account_id", created.ID)
	s.sendVerificationAsync(ctx, token, email)

	return created, nil
}

// Authenticate checks the credentials and starts a new session, replacing any
// previous one. Missing account, wrong password and unverified account all
// yield common.ErrorUnauthorized, and the password hash is compared in every
// case.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	repo := s.accounts()

	account, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, internal(err)
	}

	hash := s.dummyHash
	if account != nil {
		hash = []byte(account.PasswordHash)
	}
	match := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil

	if account == nil || !match || !account.Verified {
		return nil, common.ErrorUnauthorized
	}

	token, err := s.signer.Sign(account.ID)
	if err != nil {
		return nil, internal(err)
	}

	if err := repo.UpdateSessionToken(ctx, account.ID, &token); err != nil {
		return nil, internal(err)
	}
	account.SessionToken = &token

	return &Session{Token: token, Account: account}, nil
}

// EndSession clears the account's session token. Calling it again is a no-op.
func (s *AccountService) EndSession(ctx context.Context, accountID string) error {
	err := s.accounts().UpdateSessionToken(ctx, accountID, nil)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return internal(err)
	}
	return err
}

// CurrentAccount loads the account behind an already resolved session.
func (s *AccountService) CurrentAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internal(err)
	}
	return account, nil
}

// RedeemVerification marks the account holding token as verified. A token
// works once; unknown and already used tokens yield common.ErrorNotFound.
func (s *AccountService) RedeemVerification(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}

	account, err := s.accounts().ConsumeVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internal(err)
	}

	s.logger.Info(ctx, "account verified", "account_id", account.ID)
	return account, nil
}

// ResendVerification sends the existing verification token again and reports
// whether a message went out. Unlike Register, a failed send is returned to
// the caller. An account that is already verified has nothing to resend:
// sent is false and err is nil.
func (s *AccountService) ResendVerification(ctx context.Context, email string) (sent bool, err error) {
	email = NormalizeEmail(email)

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, email); err != nil {
			if errors.Is(err, common.ErrorRateLimited) {
				return false, common.ErrorRateLimited
			}
			s.logger.Warn(ctx, "resend limiter unavailable", "error", err)
		}
	}

	account, err := s.accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.ErrorNotFound
		}
		return false, internal(err)
	}

	if account.Verified || account.VerificationToken == nil {
		return false, nil
	}

	sendCtx, cancel := s.notificationContext(ctx)
	defer cancel()

	if err := s.notifier.SendVerification(sendCtx, *account.VerificationToken, email); err != nil {
		if errors.Is(err, common.ErrDeliveryFailed) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}
	return true, nil
}

// AttachAvatar pads the image to a square PNG, uploads it into the account's
// avatar slot and records the new URL. The upload is staged in a temp file
// under the upload dir, removed whether or not the upload succeeds.
func (s *AccountService) AttachAvatar(ctx context.Context, accountID string, image io.Reader) (string, error) {
	repo := s.accounts()

	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", internal(err)
	}

	slot := uuid.NewString()
	if account.AvatarStorageID != nil && *account.AvatarStorageID != "" {
		slot = objectstore.SlotFromStorageID(*account.AvatarStorageID, s.avatarFolder)
	}

	var result *objectstore.UploadResult
	err = filex.WithTempFile(s.uploadDir, "avatar-*", image, func(f *os.File) error {
		var padded bytes.Buffer
		if err := imagex.Pad(f, &padded, s.avatarSize, s.avatarMaxPixels); err != nil {
			if errors.Is(err, imagex.ErrUnsupportedImage) {
				return fmt.Errorf("%w: %v", common.ErrorInvalidImage, err)
			}
			return err
		}

		var err error
		result, err = s.store.Upload(ctx, bytes.NewReader(padded.Bytes()), objectstore.UploadOptions{
			SlotID:      slot,
			Folder:      s.avatarFolder,
			ContentType: avatarContentType,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorInvalidImage) || errors.Is(err, common.ErrUploadFailed) {
			return "", err
		}
		return "", internal(err)
	}

	if err := repo.UpdateAvatar(ctx, account.ID, result.URL, result.StorageID); err != nil {
		return "", internal(err)
	}

	return result.URL, nil
}

// ListAllEmails returns every registered email.
func (s *AccountService) ListAllEmails(ctx context.Context) ([]string, error) {
	emails, err := s.accounts().ListEmails(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return emails, nil
}

// ResolveSession maps a presented session token to its account id. The token
// must verify and must still be the account's current session token, so a
// token is dead after logout or a later login.
func (s *AccountService) ResolveSession(ctx context.Context, token string) (string, error) {
	accountID, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrorUnauthorized
	}

	account, err := s.accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", internal(err)
	}

	if account.SessionToken == nil ||
		subtle.ConstantTimeCompare([]byte(*account.SessionToken), []byte(token)) != 1 {
		return "", common.ErrorUnauthorized
	}

	return account.ID, nil
}

// Wait blocks until background verification sends have finished, including
// deliveries the notifier kept running after their context expired.
func (s *AccountService) Wait() {
	s.pending.Wait()
	if w, ok := s.notifier.(interface{ Wait() }); ok {
		w.Wait()
	}
}

func (s *AccountService) sendVerificationAsync(ctx context.Context, token, email string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		sendCtx, cancel := s.notificationContext(context.WithoutCancel(ctx))
		defer cancel()

		if err := s.notifier.SendVerification(sendCtx, token, email); err != nil {
			s.logger.Warn(sendCtx, "verification email not sent", "email", email, "error", err)
		}
	}()
}

func (s *AccountService) notificationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.notificationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.notificationTimeout)
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PlaceholderAvatarURL is the generated avatar an account starts with.
func PlaceholderAvatarURL(email string) string {
	sum := md5.Sum([]byte(NormalizeEmail(email)))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=250&d=robohash"
}

func internal(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}
