// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to auth.Status
		allowed  bool
	}{
		{auth.StatusCreated, auth.StatusActivated, true},
		{auth.StatusCreated, auth.StatusBlocked, true},
		{auth.StatusCreated, auth.StatusDeactivated, true},
		{auth.StatusActivated, auth.StatusBlocked, true},
		{auth.StatusActivated, auth.StatusDeactivated, true},
		{auth.StatusBlocked, auth.StatusActivated, true},
		{auth.StatusDeactivated, auth.StatusActivated, true},
		{auth.StatusActivated, auth.StatusCreated, false},
		{auth.StatusBlocked, auth.StatusCreated, false},
		{auth.StatusActivated, auth.StatusActivated, false},
		{auth.Status("LIMBO"), auth.StatusActivated, false},
		{auth.StatusActivated, auth.Status("LIMBO"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, auth.CanTransition(tt.from, tt.to))

			got, err := auth.Transition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, got)
			} else {
				assert.ErrorIs(t, err, auth.ErrInvalidTransition)
				assert.Equal(t, tt.from, got)
			}
		})
	}
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, auth.StatusCreated.Valid())
	assert.True(t, auth.StatusBlocked.Valid())
	assert.False(t, auth.Status("").Valid())
	assert.False(t, auth.Status("activated").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "reader@example.com", auth.NormalizeEmail("  Reader@EXAMPLE.com\t"))
	assert.Equal(t, "", auth.NormalizeEmail("   "))
}
