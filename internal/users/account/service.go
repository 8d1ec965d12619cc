// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

// # Service Layer

// Service orchestrates administrative account operations.
//
// Status changes go through the [auth.Transition] table; moving an account
// to BLOCKED or DEACTIVATED also revokes its sessions.
type Service struct {
	accounts  AccountStore
	directory Directory
	keys      KeyGenerator
	logger    *slog.Logger
}

// NewService constructs a new [Service] with its store dependencies.
func NewService(accounts AccountStore, directory Directory, keys KeyGenerator, logger *slog.Logger) *Service {
	return &Service{
		accounts:  accounts,
		directory: directory,
		keys:      keys,
		logger:    logger,
	}
}

// # Queries

// GetAccount retrieves the administrative view of a single account.
func (service *Service) GetAccount(context context.Context, id string) (*Summary, error) {
	account, err := service.find(context, id)
	if err != nil {
		return nil, err
	}
	return NewSummary(account), nil
}

/*
ListAccounts returns a filtered page of accounts.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Summary: The page
  - int: Total number of matches
  - error: Storage failures
*/
func (service *Service) ListAccounts(context context.Context, filter Filter, limit, offset int) ([]*Summary, int, error) {
	accounts, total, err := service.directory.List(context, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return accounts, total, nil
}

// # Lifecycle

/*
ChangeStatus moves an account to a new lifecycle status.

Description: Requesting the current status is a no-op. Any move outside the
transition table fails with [auth.ErrInvalidTransition]. Blocking or
deactivating an account also rotates its refresh key.

Parameters:
  - context: context.Context
  - id: string
  - target: auth.Status

Returns:
  - *Summary: The account after the change
  - error: Not found, invalid transition or storage failures
*/
func (service *Service) ChangeStatus(context context.Context, id string, target auth.Status) (*Summary, error) {
	account, err := service.find(context, id)
	if err != nil {
		return nil, err
	}

	if account.Status == target {
		return NewSummary(account), nil
	}

	next, err := auth.Transition(account.Status, target)
	if err != nil {
		return nil, err
	}

	if err := service.accounts.UpdateStatus(context, account.ID, next); err != nil {
		return nil, fmt.Errorf("account_service_change_status_failed: %w", err)
	}

	service.logger.Info("account_status_changed",
		slog.String("account_id", account.ID),
		slog.String("from", string(account.Status)),
		slog.String("to", string(next)),
	)
	account.Status = next

	if next == auth.StatusBlocked || next == auth.StatusDeactivated {
		if err := service.rotateKey(context, account.ID); err != nil {
			return nil, err
		}
	}

	return NewSummary(account), nil
}

// RevokeSessions invalidates every refresh token of the account.
func (service *Service) RevokeSessions(context context.Context, id string) error {
	account, err := service.find(context, id)
	if err != nil {
		return err
	}
	return service.rotateKey(context, account.ID)
}

func (service *Service) rotateKey(context context.Context, accountID string) error {
	if err := service.accounts.UpdateRefreshTokenKey(context, accountID, service.keys.GenerateKey()); err != nil {
		return fmt.Errorf("account_service_revoke_sessions_failed: %w", err)
	}
	service.logger.Warn("account_sessions_revoked", slog.String("account_id", accountID))
	return nil
}

func (service *Service) find(context context.Context, id string) (*auth.Account, error) {
	account, err := service.accounts.FindByID(context, id)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("account_service_lookup_failed: %w", err)
	}
	return account, nil
}
