// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// VerificationTokenTTL is the duration an email verification token remains valid.
	// Long-lived (24 hours) as users might not check email immediately.
	VerificationTokenTTL = 24 * time.Hour

	// VerificationTokenLength is the byte length of the random verification token.
	VerificationTokenLength = 32

	// RecoveryTokenTTL is the duration a password recovery token remains valid.
	RecoveryTokenTTL = 24 * time.Hour

	// ApprovalTokenTTL applies to tokens sent with administrative registration.
	ApprovalTokenTTL = 7 * 24 * time.Hour

	// RecoveryTokenLength is the byte length of the random recovery token.
	RecoveryTokenLength = 32

	// recoveryRetention keeps expired recovery records around long enough to
	// tell an expired token from an unknown one.
	recoveryRetention = 24 * time.Hour
)

// # Defaults

const (
	// maxNameLength bounds display names at registration.
	maxNameLength = 30

	// DefaultLanguage is used when a request carries no locale.
	DefaultLanguage = "en"
)
