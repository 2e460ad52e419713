package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository keeps accounts in process memory. Records are cloned on
// the way in and out so callers never alias stored state.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byEmail map[string]string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := time.Now().UTC()
	stored := account.Clone()
	stored.ID = uuid.NewString()
	stored.Verified = false
	stored.SessionToken = nil
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID

	return stored.Clone(), nil
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a.Clone(), nil
}

func (r *InMemoryRepository) ConsumeVerificationToken(_ context.Context, token string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.VerificationToken != nil && *a.VerificationToken == token {
			a.Verified = true
			a.VerificationToken = nil
			a.UpdatedAt = time.Now().UTC()
			return a.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *InMemoryRepository) UpdateSessionToken(_ context.Context, id string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if token == nil {
		a.SessionToken = nil
	} else {
		v := *token
		a.SessionToken = &v
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) UpdateAvatar(_ context.Context, id string, url string, storageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.AvatarURL = url
	a.AvatarStorageID = &storageID
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// ListEmails returns emails in creation order, matching the Postgres store.
func (r *InMemoryRepository) ListEmails(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Account, 0, len(r.byID))
	for _, a := range r.byID {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Email < all[j].Email
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	emails := make([]string, 0, len(all))
	for _, a := range all {
		emails = append(emails, a.Email)
	}
	return emails, nil
}
