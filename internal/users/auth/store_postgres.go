// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/yomira-auth/internal/platform/dberr"
	"github.com/taibuivan/yomira-auth/internal/platform/postgres"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

// # Account Store

// PostgresAccountStore implements the AccountStore interface using pgx.
//
// Accounts live in users.account; local passwords in users.credential, one
// row per account. The unique index on users.account(email) is the only
// guard against concurrent duplicate registration.
type PostgresAccountStore struct {
	db  postgres.DB
	now func() time.Time
}

// NewAccountStore creates a new PostgreSQL implementation of the AccountStore.
func NewAccountStore(db postgres.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db, now: time.Now}
}

const selectAccount = `
	SELECT a.id, a.email, a.name, a.status, a.role, a.refreshtokenkey,
	       a.emailnotification, a.rating, a.language, a.registeredat, a.lastactivityat,
	       c.passwordhash, c.updatedat
	FROM users.account a
	LEFT JOIN users.credential c ON c.accountid = a.id`

/*
Create persists a new account and its optional credential in one transaction.

Description: A unique violation on the email index is reported as
ErrEmailTaken so the service can translate a lost registration race.

Parameters:
  - context: context.Context
  - account: *Account (Entity to persist)

Returns:
  - error: ErrEmailTaken or database errors
*/
func (store *PostgresAccountStore) Create(context context.Context, account *Account) error {
	const insertAccount = `
		INSERT INTO users.account (
			id, email, name, status, role, refreshtokenkey, emailnotification,
			rating, language, registeredat, lastactivityat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	const insertCredential = `
		INSERT INTO users.credential (accountid, passwordhash, updatedat)
		VALUES ($1, $2, $3)`

	now := store.now()
	if account.RegisteredAt.IsZero() {
		account.RegisteredAt = now
	}
	if account.LastActivityAt.IsZero() {
		account.LastActivityAt = now
	}

	tx, err := store.db.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_account_store_begin_failed: %w", err)
	}

	_, err = tx.Exec(context, insertAccount,
		account.ID,
		account.Email,
		account.Name,
		string(account.Status),
		string(account.Role),
		account.RefreshTokenKey,
		string(account.EmailNotification),
		account.Rating,
		account.Language,
		account.RegisteredAt,
		account.LastActivityAt,
		now,
	)
	if err != nil {
		_ = tx.Rollback(context)
		if dberr.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("postgres_account_store_create_failed: %w", err)
	}

	if account.Credential != nil {
		account.Credential.AccountID = account.ID
		account.Credential.UpdatedAt = now
		_, err = tx.Exec(context, insertCredential, account.ID, account.Credential.PasswordHash, now)
		if err != nil {
			_ = tx.Rollback(context)
			return fmt.Errorf("postgres_account_store_create_credential_failed: %w", err)
		}
	}

	if err := tx.Commit(context); err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("postgres_account_store_commit_failed: %w", err)
	}

	return nil
}

// FindByEmail retrieves an account by its normalised email address.
func (store *PostgresAccountStore) FindByEmail(context context.Context, email string) (*Account, error) {
	account, err := scanAccount(store.db.QueryRow(context, selectAccount+` WHERE a.email = $1`, email))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_account_store_find_by_email_failed: %w", err)
	}
	return account, nil
}

// FindByID retrieves an account by its identifier.
func (store *PostgresAccountStore) FindByID(context context.Context, id string) (*Account, error) {
	account, err := scanAccount(store.db.QueryRow(context, selectAccount+` WHERE a.id = $1`, id))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_account_store_find_by_id_failed: %w", err)
	}
	return account, nil
}

// ExistsByEmail reports whether an account uses the email.
func (store *PostgresAccountStore) ExistsByEmail(context context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users.account WHERE email = $1)`

	var exists bool
	if err := store.db.QueryRow(context, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_account_store_exists_failed: %w", err)
	}
	return exists, nil
}

// SaveCredential inserts the first credential of an account.
func (store *PostgresAccountStore) SaveCredential(context context.Context, credential *Credential) error {
	const query = `
		INSERT INTO users.credential (accountid, passwordhash, updatedat)
		VALUES ($1, $2, $3)`

	credential.UpdatedAt = store.now()
	_, err := store.db.Exec(context, query, credential.AccountID, credential.PasswordHash, credential.UpdatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrUserAlreadyHasPassword
		}
		return fmt.Errorf("postgres_account_store_save_credential_failed: %w", err)
	}
	return nil
}

/*
UpdatePassword replaces the account's password hash.

Description: Upserts so accounts created without a credential (admin
registration, federated login) receive one on recovery.

Parameters:
  - context: context.Context
  - passwordHash: string
  - accountID: string

Returns:
  - error: Database errors
*/
func (store *PostgresAccountStore) UpdatePassword(context context.Context, passwordHash, accountID string) error {
	const query = `
		INSERT INTO users.credential (accountid, passwordhash, updatedat)
		VALUES ($1, $2, $3)
		ON CONFLICT (accountid) DO UPDATE
		SET passwordhash = EXCLUDED.passwordhash, updatedat = EXCLUDED.updatedat`

	if _, err := store.db.Exec(context, query, accountID, passwordHash, store.now()); err != nil {
		return fmt.Errorf("postgres_account_store_update_password_failed: %w", err)
	}
	return nil
}

// UpdateStatus overwrites the lifecycle status.
func (store *PostgresAccountStore) UpdateStatus(context context.Context, accountID string, status Status) error {
	const query = `UPDATE users.account SET status = $1, updatedat = $2 WHERE id = $3`
	return store.updateOne(context, "update_status", query, string(status), store.now(), accountID)
}

// UpdateRefreshTokenKey rotates the refresh key.
func (store *PostgresAccountStore) UpdateRefreshTokenKey(context context.Context, accountID, key string) error {
	const query = `UPDATE users.account SET refreshtokenkey = $1, updatedat = $2 WHERE id = $3`
	return store.updateOne(context, "update_refresh_key", query, key, store.now(), accountID)
}

// TouchLastActivity records the latest authenticated action.
func (store *PostgresAccountStore) TouchLastActivity(context context.Context, accountID string, at time.Time) error {
	const query = `UPDATE users.account SET lastactivityat = $1 WHERE id = $2`
	return store.updateOne(context, "touch_activity", query, at, accountID)
}

func (store *PostgresAccountStore) updateOne(context context.Context, op, query string, args ...any) error {
	tag, err := store.db.Exec(context, query, args...)
	if err != nil {
		return fmt.Errorf("postgres_account_store_%s_failed: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		account           Account
		status            string
		role              string
		emailNotification string
		passwordHash      *string
		credentialUpdated *time.Time
	)

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&status,
		&role,
		&account.RefreshTokenKey,
		&emailNotification,
		&account.Rating,
		&account.Language,
		&account.RegisteredAt,
		&account.LastActivityAt,
		&passwordHash,
		&credentialUpdated,
	)
	if err != nil {
		return nil, err
	}

	account.Status = Status(status)
	account.Role = sec.UserRole(role)
	account.EmailNotification = EmailNotification(emailNotification)

	if passwordHash != nil {
		account.Credential = &Credential{
			AccountID:    account.ID,
			PasswordHash: *passwordHash,
		}
		if credentialUpdated != nil {
			account.Credential.UpdatedAt = *credentialUpdated
		}
	}

	return &account, nil
}
