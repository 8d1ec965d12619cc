// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "context"

// EmailDispatcher hands transactional emails to the delivery system.
//
// Dispatch is fire-and-forget from the workflow's point of view: the service
// logs a failed send and completes the operation anyway.
type EmailDispatcher interface {
	SendVerificationEmail(context context.Context, message VerificationEmail) error
	SendApprovalEmail(context context.Context, message ApprovalEmail) error
	SendRecoveryEmail(context context.Context, message RecoveryEmail) error
}

// VerificationEmail asks a new account to confirm its address.
type VerificationEmail struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	Language  string `json:"language"`
	IsResend  bool   `json:"is_resend"`
}

// ApprovalEmail invites an administratively registered account to set a password.
type ApprovalEmail struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Token     string `json:"token"`
}

// RecoveryEmail carries a password recovery token.
type RecoveryEmail struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	Language  string `json:"language"`
}
