// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"net/http"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
)

// # Domain Errors
//
// Every failure the authentication workflows can report. Callers compare with
// [errors.Is]; the HTTP layer renders code and status through respond.Error.

var (
	ErrDuplicateRegistration  = apperr.New("USER_ALREADY_REGISTERED", "An account with this email already exists", http.StatusBadRequest)
	ErrWrongEmail             = apperr.New("WRONG_EMAIL", "No account is registered with this email", http.StatusBadRequest)
	ErrWrongPassword          = apperr.New("WRONG_PASSWORD", "Bad password", http.StatusBadRequest)
	ErrEmailNotVerified       = apperr.New("EMAIL_NOT_VERIFIED", "Email address has not been verified", http.StatusBadRequest)
	ErrBadUserStatus          = apperr.New("BAD_USER_STATUS", "Account status does not allow this operation", http.StatusBadRequest)
	ErrUserBlocked            = apperr.New("USER_BLOCKED", "Account is blocked", http.StatusForbidden)
	ErrUserDeactivated        = apperr.New("USER_DEACTIVATED", "Account is deactivated", http.StatusForbidden)
	ErrBadRefreshToken        = apperr.New("BAD_REFRESH_TOKEN", "Refresh token is not valid", http.StatusBadRequest)
	ErrPasswordsDoNotMatch    = apperr.New("PASSWORDS_DO_NOT_MATCH", "Password and confirmation do not match", http.StatusBadRequest)
	ErrPasswordTooLong        = apperr.ValidationError("Password is too long", apperr.FieldError{Field: FieldPassword, Message: "Must be at most 72 bytes"})
	ErrUserAlreadyHasPassword = apperr.New("USER_ALREADY_HAS_PASSWORD", "Account already has a password", http.StatusBadRequest)
	ErrTokenInvalidOrExpired  = apperr.New("TOKEN_INVALID_OR_EXPIRED", "Token is invalid or has expired", http.StatusNotFound)
	ErrFederatedEmailMissing  = apperr.New("FEDERATED_EMAIL_MISSING", "Identity provider did not return an email", http.StatusUnauthorized)
	ErrInvalidTransition      = apperr.New("INVALID_STATUS_TRANSITION", "Account status change is not allowed", http.StatusConflict)
)

// # Storage Errors

var (
	// ErrAccountNotFound is returned by [AccountStore] lookups that match nothing.
	ErrAccountNotFound = errors.New("auth: account not found")

	// ErrEmailTaken is returned by [AccountStore.Create] when the email unique
	// index rejects the insert.
	ErrEmailTaken = errors.New("auth: email already taken")
)
