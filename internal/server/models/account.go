// Package models defines server-side data models persisted by the account store.
package models

import "time"

// Account is a registered user's identity record.
//
// VerificationToken is set while the account is unverified and cleared
// (nil) once it has been redeemed. SessionToken holds the only token that
// ResolveSession accepts for the account; nil means no active session.
type Account struct {
	ID                string
	Email             string
	PasswordHash      string
	Name              string
	Verified          bool
	VerificationToken *string
	SessionToken      *string
	AvatarURL         string
	AvatarStorageID   *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone returns a deep copy so callers never share pointer fields with a store.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.VerificationToken = clonePtr(a.VerificationToken)
	c.SessionToken = clonePtr(a.SessionToken)
	c.AvatarStorageID = clonePtr(a.AvatarStorageID)
	return &c
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
