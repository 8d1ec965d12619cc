// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

func TestService_ProvisionFederated(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingEmail", func(t *testing.T) {
		f := newFixture(t)

		for name, claims := range map[string]map[string]any{
			"Absent":  {auth.ClaimName: "Nobody"},
			"Blank":   {auth.ClaimEmail: "   "},
			"NotText": {auth.ClaimEmail: 42},
		} {
			t.Run(name, func(t *testing.T) {
				account, created, err := f.service.ProvisionFederated(ctx, claims)
				assert.ErrorIs(t, err, auth.ErrFederatedEmailMissing)
				assert.Nil(t, account)
				assert.False(t, created)
			})
		}
	})

	t.Run("CreatesWithoutCredential", func(t *testing.T) {
		f := newFixture(t)

		account, created, err := f.service.ProvisionFederated(ctx, map[string]any{
			auth.ClaimEmail:           "Fed.User@Example.com",
			auth.ClaimRefreshTokenKey: "provider-key",
			auth.ClaimLocale:          "ja",
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "fed.user@example.com", account.Email)
		assert.Equal(t, "fed.user", account.Name)
		assert.Equal(t, "provider-key", account.RefreshTokenKey)
		assert.Equal(t, "ja", account.Language)
		assert.Equal(t, auth.StatusCreated, account.Status)
		assert.Equal(t, sec.RoleUser, account.Role)
		assert.Equal(t, auth.EmailNotificationDisabled, account.EmailNotification)
		assert.Zero(t, account.Rating)
		assert.False(t, account.HasPassword())

		stored := f.store.get(account.ID)
		require.NotNil(t, stored)
		assert.Nil(t, stored.Credential)
	})

	t.Run("GeneratesKeyWhenClaimMissing", func(t *testing.T) {
		f := newFixture(t)

		account, _, err := f.service.ProvisionFederated(ctx, map[string]any{
			auth.ClaimEmail: "keyless@example.com",
			auth.ClaimName:  "Keyless",
		})
		require.NoError(t, err)
		assert.Equal(t, "Keyless", account.Name)
		assert.NotEmpty(t, account.RefreshTokenKey)
		assert.Equal(t, auth.DefaultLanguage, account.Language)
	})

	t.Run("ExistingAccountUnchanged", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seed("known@example.com", auth.StatusBlocked, strongPassword)

		account, created, err := f.service.ProvisionFederated(ctx, map[string]any{
			auth.ClaimEmail: "KNOWN@example.com",
			auth.ClaimName:  "Someone Else",
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, seeded.ID, account.ID)
		assert.Equal(t, "Seeded", account.Name)
		assert.Equal(t, auth.StatusBlocked, account.Status)
	})

	t.Run("ConcurrentCreateReturnsWinner", func(t *testing.T) {
		f := newFixture(t)
		winner := f.seed("race@example.com", auth.StatusCreated, "")
		f.store.hiddenFinds = 1

		account, created, err := f.service.ProvisionFederated(ctx, map[string]any{auth.ClaimEmail: "race@example.com"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, winner.ID, account.ID)
	})
}

func TestService_FederatedSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("NewAccountGetsSession", func(t *testing.T) {
		f := newFixture(t)

		pair, err := f.service.FederatedSignIn(ctx, map[string]any{auth.ClaimEmail: "fresh@example.com"})
		require.NoError(t, err)

		claims, err := f.tokens.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "fresh@example.com", claims.Email())

		renewed, err := f.service.UpdateAccessTokens(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, renewed.AccessToken)
	})

	t.Run("InactiveAccountsRefused", func(t *testing.T) {
		f := newFixture(t)
		f.seed("blocked@example.com", auth.StatusBlocked, "")
		f.seed("gone@example.com", auth.StatusDeactivated, "")

		_, err := f.service.FederatedSignIn(ctx, map[string]any{auth.ClaimEmail: "blocked@example.com"})
		assert.ErrorIs(t, err, auth.ErrUserBlocked)

		_, err = f.service.FederatedSignIn(ctx, map[string]any{auth.ClaimEmail: "gone@example.com"})
		assert.ErrorIs(t, err, auth.ErrUserDeactivated)
	})
}
