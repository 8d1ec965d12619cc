// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the own-security authentication core.

It defines the account entities (Account, Credential) and the workflows that
move an account through its lifecycle: sign-up, email verification, sign-in,
token renewal, password recovery, administrative registration and federated
provisioning.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
infrastructure dependencies; storage, hashing, token signing and email
delivery are reached through the interfaces declared in store.go.
*/
package auth

import (
	"strings"
	"time"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

// # Domain Entities

// Account represents a registered member of the platform.
//
// An Account without a [Credential] is federated-only: it can authenticate
// through an identity provider but not with a password.
type Account struct {
	ID                string            `json:"id"`
	Email             string            `json:"email"`
	Name              string            `json:"name"`
	Status            Status            `json:"status"`
	Role              sec.UserRole      `json:"role"`
	Credential        *Credential       `json:"-"`
	RefreshTokenKey   string            `json:"-"`
	EmailNotification EmailNotification `json:"email_notification"`
	Rating            float64           `json:"rating"`
	Language          string            `json:"language,omitempty"`
	RegisteredAt      time.Time         `json:"registered_at"`
	LastActivityAt    time.Time         `json:"last_activity_at"`
}

// Credential holds the local password of exactly one account.
type Credential struct {
	AccountID    string    `json:"-"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	UpdatedAt    time.Time `json:"-"`
}

// CredentialKind tells how an account is able to authenticate.
type CredentialKind string

const (
	CredentialLocal         CredentialKind = "LOCAL"
	CredentialFederatedOnly CredentialKind = "FEDERATED_ONLY"
)

// CredentialKind reports whether the account has a local password.
func (account *Account) CredentialKind() CredentialKind {
	if account.Credential == nil || account.Credential.PasswordHash == "" {
		return CredentialFederatedOnly
	}
	return CredentialLocal
}

// HasPassword reports whether the account can sign in with a password.
func (account *Account) HasPassword() bool {
	return account.CredentialKind() == CredentialLocal
}

// EmailNotification is the account's email digest preference.
type EmailNotification string

const (
	EmailNotificationDisabled  EmailNotification = "DISABLED"
	EmailNotificationImmediate EmailNotification = "IMMEDIATELY"
	EmailNotificationDaily     EmailNotification = "DAILY"
	EmailNotificationWeekly    EmailNotification = "WEEKLY"
	EmailNotificationMonthly   EmailNotification = "MONTHLY"
)

// NormalizeEmail returns the canonical storage form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldName            = "name"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldCurrentPassword = "current_password"
	FieldToken           = "token"
	FieldUserID          = "user_id"
	FieldRefreshToken    = "refresh_token"
	FieldRole            = "role"
	FieldStatus          = "status"
)
