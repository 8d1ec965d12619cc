// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

/*
TestBcryptHasher_Matches verifies the hash/compare round trip.
*/
func TestBcryptHasher_Matches(t *testing.T) {
	hasher := sec.NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("Secret#123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret#123", hash)

	assert.True(t, hasher.Matches("Secret#123", hash))
	assert.False(t, hasher.Matches("secret#123", hash))
	assert.False(t, hasher.Matches("Secret#123", "not-a-hash"))
}

/*
TestBcryptHasher_TooLong rejects input bcrypt cannot hash.
*/
func TestBcryptHasher_TooLong(t *testing.T) {
	hasher := sec.NewBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash("Aa1!" + strings.Repeat("x", 76))
	require.ErrorIs(t, err, sec.ErrPasswordTooLong)

	hash, err := hasher.Hash("Aa1!" + strings.Repeat("x", 68))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

/*
TestNewBcryptHasher_Cost clamps the work factor to bcrypt limits.
*/
func TestNewBcryptHasher_Cost(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero_defaults", 0, bcrypt.DefaultCost},
		{"below_min", 1, bcrypt.MinCost},
		{"above_max", 99, bcrypt.MaxCost},
		{"in_range", 6, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sec.NewBcryptHasher(tt.in).Cost())
		})
	}
}

/*
TestGenerateSecureToken produces distinct URL-safe tokens.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
}

/*
TestHashToken is deterministic and never returns the input.
*/
func TestHashToken(t *testing.T) {
	assert.Equal(t, sec.HashToken("abc"), sec.HashToken("abc"))
	assert.NotEqual(t, sec.HashToken("abc"), sec.HashToken("abd"))
	assert.Len(t, sec.HashToken("abc"), 64)
}
