// Package accounts persists Account records. PostgresRepository is the
// production store; InMemoryRepository backs tests and the -m memory mode.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the account store. Lookups that match nothing return
// common.ErrorNotFound; Create returns common.ErrorAlreadyExists when the
// email is taken.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// ConsumeVerificationToken marks the account holding token as verified
	// and clears the token in one step, so a token can be redeemed only once.
	ConsumeVerificationToken(ctx context.Context, token string) (*models.Account, error)

	// UpdateSessionToken replaces the stored session token; nil clears it.
	UpdateSessionToken(ctx context.Context, id string, token *string) error
	UpdateAvatar(ctx context.Context, id string, url string, storageID string) error
	ListEmails(ctx context.Context) ([]string, error)
}
