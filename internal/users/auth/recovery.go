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

// RecoveryPurpose tells why a recovery token was issued.
type RecoveryPurpose string

const (
	// PurposeRecovery is a self-service password reset.
	PurposeRecovery RecoveryPurpose = "recovery"

	// PurposeApproval is sent with administrative registration; redeeming it
	// also activates the account.
	PurposeApproval RecoveryPurpose = "approval"
)

// RecoveryRecord is the stored state behind a recovery token.
type RecoveryRecord struct {
	AccountID string          `json:"account_id"`
	Purpose   RecoveryPurpose `json:"purpose"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// RedeemOutcome classifies a redemption attempt.
type RedeemOutcome int

const (
	RedeemInvalid RedeemOutcome = iota
	RedeemOK
	RedeemExpired
)

// Redemption is the result of [RecoveryWorkflow.Redeem].
type Redemption struct {
	Outcome   RedeemOutcome
	AccountID string
	Purpose   RecoveryPurpose
}

// OK reports whether the token was accepted.
func (redemption Redemption) OK() bool {
	return redemption.Outcome == RedeemOK
}

// RecoveryWorkflow issues and redeems password recovery tokens.
type RecoveryWorkflow struct {
	store       RecoveryTokenStore
	ttl         time.Duration
	approvalTTL time.Duration
	now         func() time.Time
}

// RecoveryOption customises a [RecoveryWorkflow].
type RecoveryOption func(*RecoveryWorkflow)

// WithRecoveryClock sets the time source used for expiry checks.
func WithRecoveryClock(clock func() time.Time) RecoveryOption {
	return func(workflow *RecoveryWorkflow) {
		if clock != nil {
			workflow.now = clock
		}
	}
}

// WithApprovalTTL overrides the lifetime of approval tokens.
func WithApprovalTTL(ttl time.Duration) RecoveryOption {
	return func(workflow *RecoveryWorkflow) {
		if ttl > 0 {
			workflow.approvalTTL = ttl
		}
	}
}

// NewRecoveryWorkflow returns a workflow whose recovery tokens live for ttl.
// A non-positive ttl selects [RecoveryTokenTTL].
func NewRecoveryWorkflow(store RecoveryTokenStore, ttl time.Duration, opts ...RecoveryOption) *RecoveryWorkflow {
	if ttl <= 0 {
		ttl = RecoveryTokenTTL
	}

	workflow := &RecoveryWorkflow{
		store:       store,
		ttl:         ttl,
		approvalTTL: ApprovalTokenTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(workflow)
	}
	return workflow
}

/*
Issue creates a token for accountID and supersedes any token still pending
for the same account.

Parameters:
  - context: context.Context
  - accountID: string
  - purpose: RecoveryPurpose

Returns:
  - string: The plain token to deliver by email
  - error: Storage failures
*/
func (workflow *RecoveryWorkflow) Issue(context context.Context, accountID string, purpose RecoveryPurpose) (string, error) {
	token, err := sec.GenerateSecureToken(RecoveryTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_recovery_issue_failed: %w", err)
	}

	ttl := workflow.ttl
	if purpose == PurposeApproval {
		ttl = workflow.approvalTTL
	}

	record := RecoveryRecord{
		AccountID: accountID,
		Purpose:   purpose,
		ExpiresAt: workflow.now().Add(ttl),
	}

	// The stored lifetime outlives the logical one so expiry can be reported
	if err := workflow.store.Save(context, sec.HashToken(token), record, ttl+recoveryRetention); err != nil {
		return "", fmt.Errorf("auth_recovery_issue_failed: %w", err)
	}

	return token, nil
}

// Redeem consumes the token. Expired tokens are consumed as well.
func (workflow *RecoveryWorkflow) Redeem(context context.Context, token string) (Redemption, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Redemption{Outcome: RedeemInvalid}, nil
	}

	record, err := workflow.store.Consume(context, sec.HashToken(token))
	if err != nil {
		return Redemption{Outcome: RedeemInvalid}, fmt.Errorf("auth_recovery_redeem_failed: %w", err)
	}
	if record == nil {
		return Redemption{Outcome: RedeemInvalid}, nil
	}

	redemption := Redemption{
		Outcome:   RedeemOK,
		AccountID: record.AccountID,
		Purpose:   record.Purpose,
	}
	if !workflow.now().Before(record.ExpiresAt) {
		redemption.Outcome = RedeemExpired
	}
	return redemption, nil
}
