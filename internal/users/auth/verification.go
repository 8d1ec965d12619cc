// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

// VerificationWorkflow issues and redeems email verification tokens.
//
// Each account holds at most one live token; issuing a new one supersedes the
// previous. Only the SHA-256 digest of a token is stored.
type VerificationWorkflow struct {
	store VerificationTokenStore
	ttl   time.Duration
}

// NewVerificationWorkflow returns a workflow keeping tokens for ttl.
// A non-positive ttl selects [VerificationTokenTTL].
func NewVerificationWorkflow(store VerificationTokenStore, ttl time.Duration) *VerificationWorkflow {
	if ttl <= 0 {
		ttl = VerificationTokenTTL
	}
	return &VerificationWorkflow{store: store, ttl: ttl}
}

// Issue creates a fresh token bound to accountID and returns its plain value.
func (workflow *VerificationWorkflow) Issue(context context.Context, accountID string) (string, error) {
	token, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_verification_issue_failed: %w", err)
	}

	if err := workflow.store.Save(context, accountID, sec.HashToken(token), workflow.ttl); err != nil {
		return "", fmt.Errorf("auth_verification_issue_failed: %w", err)
	}

	return token, nil
}

// Redeem consumes the token. It returns true at most once per issued token.
func (workflow *VerificationWorkflow) Redeem(context context.Context, accountID, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if accountID == "" || token == "" {
		return false, nil
	}

	ok, err := workflow.store.Consume(context, accountID, sec.HashToken(token))
	if err != nil {
		return false, fmt.Errorf("auth_verification_redeem_failed: %w", err)
	}
	return ok, nil
}
