// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/pkg/uuid"
)

// Claim names read from a verified identity-provider token.
const (
	ClaimEmail           = "email"
	ClaimName            = "name"
	ClaimRefreshTokenKey = "refresh_token_key"
	ClaimLocale          = "locale"
)

/*
ProvisionFederated resolves the local account for a federated login,
creating it on first sight.

Description: Runs after the provider handshake has verified the claims. An
existing account is returned unchanged, whatever its status. New accounts are
created without a credential.

Parameters:
  - context: context.Context
  - claims: map[string]any (verified identity claims)

Returns:
  - *Account: The local account
  - bool: true when the account was created by this call
  - error: ErrFederatedEmailMissing or storage errors
*/
func (service *Service) ProvisionFederated(context context.Context, claims map[string]any) (*Account, bool, error) {
	email := NormalizeEmail(claimString(claims, ClaimEmail))
	if email == "" {
		return nil, false, ErrFederatedEmailMissing
	}

	existing, err := service.accounts.FindByEmail(context, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, fmt.Errorf("auth_service_federated_lookup_failed: %w", err)
	}

	name := strings.TrimSpace(claimString(claims, ClaimName))
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	key := strings.TrimSpace(claimString(claims, ClaimRefreshTokenKey))
	if key == "" {
		key = service.tokens.GenerateKey()
	}

	now := service.now()
	account := &Account{
		ID:                uuid.New(),
		Email:             email,
		Name:              name,
		Status:            StatusCreated,
		Role:              sec.RoleUser,
		RefreshTokenKey:   key,
		EmailNotification: EmailNotificationDisabled,
		Rating:            0,
		Language:          languageOrDefault(claimString(claims, ClaimLocale)),
		RegisteredAt:      now,
		LastActivityAt:    now,
	}

	if err := service.accounts.Create(context, account); err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			return nil, false, fmt.Errorf("auth_service_federated_create_failed: %w", err)
		}

		// A concurrent login created it first; use that row
		winner, err := service.accounts.FindByEmail(context, email)
		if err != nil {
			return nil, false, fmt.Errorf("auth_service_federated_lookup_failed: %w", err)
		}
		return winner, false, nil
	}

	service.logger.Info("auth_federated_account_created", slog.String("account_id", account.ID))

	return account, true, nil
}

// FederatedSignIn provisions the account and opens a session for it.
//
// Federated accounts skip the email verification gate since the provider
// vouches for the address, but blocked and deactivated accounts are refused.
func (service *Service) FederatedSignIn(context context.Context, claims map[string]any) (*TokenPair, error) {
	account, _, err := service.ProvisionFederated(context, claims)
	if err != nil {
		return nil, err
	}

	switch account.Status {
	case StatusBlocked:
		return nil, ErrUserBlocked
	case StatusDeactivated:
		return nil, ErrUserDeactivated
	}

	pair, err := service.issuePair(account)
	if err != nil {
		return nil, err
	}

	service.touch(context, account.ID)

	return pair, nil
}

func claimString(claims map[string]any, name string) string {
	value, ok := claims[name]
	if !ok || value == nil {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return text
}
