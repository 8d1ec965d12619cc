// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account provides administrative management of identity accounts.

Administrators list accounts, move them through the status lifecycle and
revoke their sessions. Sign-in, registration and password flows live in
package auth; this package reuses its account model and store.

# Security

Every endpoint in this package requires the ROLE_ADMIN role.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

// # Domain Views

// Summary is the administrative view of an account. It never carries the
// password hash or the refresh key.
type Summary struct {
	ID                string                 `json:"id"`
	Email             string                 `json:"email"`
	Name              string                 `json:"name"`
	Status            auth.Status            `json:"status"`
	Role              sec.UserRole           `json:"role"`
	CredentialKind    auth.CredentialKind    `json:"credentialKind"`
	EmailNotification auth.EmailNotification `json:"emailNotification"`
	Rating            float64                `json:"rating"`
	Language          string                 `json:"language"`
	RegisteredAt      time.Time              `json:"registeredAt"`
	LastActivityAt    time.Time              `json:"lastActivityAt"`
}

// NewSummary projects an [auth.Account] onto its administrative view.
func NewSummary(account *auth.Account) *Summary {
	return &Summary{
		ID:                account.ID,
		Email:             account.Email,
		Name:              account.Name,
		Status:            account.Status,
		Role:              account.Role,
		CredentialKind:    account.CredentialKind(),
		EmailNotification: account.EmailNotification,
		Rating:            account.Rating,
		Language:          account.Language,
		RegisteredAt:      account.RegisteredAt,
		LastActivityAt:    account.LastActivityAt,
	}
}

// Filter narrows an account listing. Zero values match everything.
type Filter struct {
	Statuses []auth.Status
	Role     sec.UserRole
	Query    string
}

// # Persistence Contracts

// AccountStore is the subset of [auth.AccountStore] the administration needs.
type AccountStore interface {
	FindByID(context context.Context, id string) (*auth.Account, error)
	UpdateStatus(context context.Context, accountID string, status auth.Status) error
	UpdateRefreshTokenKey(context context.Context, accountID, key string) error
}

// Directory lists accounts for administrators.
type Directory interface {
	// List returns one page of matching accounts and the total match count.
	List(context context.Context, filter Filter, limit, offset int) ([]*Summary, int, error)
}

// KeyGenerator produces fresh refresh-token keys.
type KeyGenerator interface {
	GenerateKey() string
}
