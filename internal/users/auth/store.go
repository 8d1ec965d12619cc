// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

// # Account Data Access

// AccountStore defines the data access contract for accounts and their credentials.
//
// Lookups that match nothing return [ErrAccountNotFound].
type AccountStore interface {

	/*
		FindByEmail returns the account with the given normalised email,
		including its credential when one exists.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *Account: Hydrated entity
		  - error: ErrAccountNotFound or database failures
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	// FindByID returns the account with the given ID, including its credential.
	FindByID(context context.Context, id string) (*Account, error)

	// ExistsByEmail reports whether an account already uses the email.
	ExistsByEmail(context context.Context, email string) (bool, error)

	/*
		Create persists a brand-new account and, when present, its credential
		in one transaction.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: ErrEmailTaken when the unique email index rejects the row
	*/
	Create(context context.Context, account *Account) error

	// SaveCredential inserts the first credential of an account.
	SaveCredential(context context.Context, credential *Credential) error

	// UpdatePassword replaces (or creates) the password hash of an account.
	UpdatePassword(context context.Context, passwordHash, accountID string) error

	// UpdateStatus overwrites the lifecycle status.
	UpdateStatus(context context.Context, accountID string, status Status) error

	// UpdateRefreshTokenKey rotates the key all refresh tokens are bound to.
	UpdateRefreshTokenKey(context context.Context, accountID, key string) error

	// TouchLastActivity records the time of the latest authenticated action.
	TouchLastActivity(context context.Context, accountID string, at time.Time) error
}

// # One-Time Token Storage

// VerificationTokenStore keeps at most one email verification token per account.
type VerificationTokenStore interface {

	// Save stores the token digest for the account, replacing any previous one.
	Save(context context.Context, accountID, tokenHash string, ttl time.Duration) error

	/*
		Consume atomically deletes the stored digest when it equals tokenHash.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - tokenHash: string

		Returns:
		  - bool: true exactly once per issued token
		  - error: Storage failures
	*/
	Consume(context context.Context, accountID, tokenHash string) (bool, error)
}

// RecoveryTokenStore keeps password recovery and approval tokens.
type RecoveryTokenStore interface {

	// Save stores the record under tokenHash and drops the account's previous token.
	Save(context context.Context, tokenHash string, record RecoveryRecord, ttl time.Duration) error

	// Consume atomically removes and returns the record, or nil when unknown.
	Consume(context context.Context, tokenHash string) (*RecoveryRecord, error)
}

// # Collaborators

// PasswordHasher turns plain-text passwords into one-way hashes.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Matches(plainTextPassword, existingHash string) bool
}

// TokenIssuer creates and validates access and refresh tokens.
type TokenIssuer interface {
	CreateAccessToken(email string, role sec.UserRole) (string, error)
	CreateRefreshToken(email, refreshTokenKey string) (string, error)
	EmailFromToken(token string) (string, error)
	IsRefreshTokenValid(token, currentKey string) bool
	GenerateKey() string
}
