// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/pkg/uuid"
)

// # Service

// Service implements the own-security use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// sign-in or token logic must be reviewed by the security team.
type Service struct {
	accounts     AccountStore
	hasher       PasswordHasher
	tokens       TokenIssuer
	verification *VerificationWorkflow
	recovery     *RecoveryWorkflow
	mailer       EmailDispatcher
	logger       *slog.Logger
	now          func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	accounts AccountStore,
	hasher PasswordHasher,
	tokens TokenIssuer,
	verification *VerificationWorkflow,
	recovery *RecoveryWorkflow,
	mailer EmailDispatcher,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts:     accounts,
		hasher:       hasher,
		tokens:       tokens,
		verification: verification,
		recovery:     recovery,
		mailer:       mailer,
		logger:       logger,
		now:          time.Now,
	}
}

// # Inputs & Results

// SignUpInput holds the data required to enroll a new member.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// SignUpResult identifies the created account. No tokens are issued before
// the email is verified.
type SignUpResult struct {
	AccountID string `json:"userId"`
	Email     string `json:"email"`
}

// SignInInput holds the credentials for password sign-in.
type SignInInput struct {
	Email    string
	Password string
}

// TokenPair is returned by every operation that opens or renews a session.
type TokenPair struct {
	AccountID    string `json:"userId,omitempty"`
	Name         string `json:"name,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ManagementInput describes an account registered by an administrator.
type ManagementInput struct {
	Name   string
	Email  string
	Role   sec.UserRole
	Status Status
}

// RegistrationResult identifies an administratively registered account.
type RegistrationResult struct {
	AccountID string       `json:"userId"`
	Email     string       `json:"email"`
	Role      sec.UserRole `json:"role"`
	Status    Status       `json:"status"`
}

// # Registration Flow

// SignUp registers a standard user and sends the verification email.
func (service *Service) SignUp(context context.Context, input SignUpInput, language string) (*SignUpResult, error) {
	return service.signUp(context, input, language, sec.RoleUser)
}

// SignUpEmployee registers a staff account through the same flow.
func (service *Service) SignUpEmployee(context context.Context, input SignUpInput, language string) (*SignUpResult, error) {
	return service.signUp(context, input, language, sec.RoleEmployee)
}

/*
signUp validates uniqueness, hashes, and persists a brand new account.

Description: The existence pre-check is advisory; the storage unique index is
the final arbiter, and losing that race reports the same duplicate error.

Parameters:
  - context: context.Context
  - input: SignUpInput
  - language: string (locale of the verification email)
  - role: sec.UserRole

Returns:
  - *SignUpResult: Created identity
  - error: ErrDuplicateRegistration or storage errors
*/
func (service *Service) signUp(context context.Context, input SignUpInput, language string, role sec.UserRole) (*SignUpResult, error) {
	email := NormalizeEmail(input.Email)

	// 1. Check for duplicate email
	exists, err := service.accounts.ExistsByEmail(context, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_sign_up_failed: %w", err)
	}
	if exists {
		return nil, ErrDuplicateRegistration
	}

	// 2. Hash the password
	hashedPassword, err := service.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	// 3. Build the account entity
	now := service.now()
	account := &Account{
		ID:                uuid.New(),
		Email:             email,
		Name:              strings.TrimSpace(input.Name),
		Status:            StatusCreated,
		Role:              role,
		Credential:        &Credential{PasswordHash: hashedPassword},
		RefreshTokenKey:   service.tokens.GenerateKey(),
		EmailNotification: EmailNotificationDisabled,
		Language:          languageOrDefault(language),
		RegisteredAt:      now,
		LastActivityAt:    now,
	}

	// 4. Persist; the unique index settles a concurrent sign-up
	if err := service.accounts.Create(context, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrDuplicateRegistration
		}
		return nil, fmt.Errorf("auth_service_sign_up_failed: %w", err)
	}

	// 5. Send the verification email
	service.sendVerification(context, account, false)

	service.logger.Info("auth_sign_up_succeeded",
		slog.String("account_id", account.ID),
		slog.String("role", string(role)),
	)

	return &SignUpResult{AccountID: account.ID, Email: account.Email}, nil
}

/*
ManagementRegisterUser registers an account on behalf of an administrator.

Description: The account has no password. An approval token is mailed so the
owner can choose one; redeeming it also activates the account. Status
defaults to BLOCKED and role to ROLE_USER.

Parameters:
  - context: context.Context
  - input: ManagementInput

Returns:
  - *RegistrationResult: Created identity
  - error: ErrDuplicateRegistration or storage errors
*/
func (service *Service) ManagementRegisterUser(context context.Context, input ManagementInput) (*RegistrationResult, error) {
	email := NormalizeEmail(input.Email)

	// 1. Check for duplicate email
	exists, err := service.accounts.ExistsByEmail(context, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_management_register_failed: %w", err)
	}
	if exists {
		return nil, ErrDuplicateRegistration
	}

	// 2. Apply status and role defaults
	status := input.Status
	if status == "" {
		status = StatusBlocked
	}
	if !status.Valid() {
		return nil, ErrBadUserStatus
	}

	role := input.Role
	if role == "" {
		role = sec.RoleUser
	}

	// 3. Persist the password-less account
	now := service.now()
	account := &Account{
		ID:                uuid.New(),
		Email:             email,
		Name:              strings.TrimSpace(input.Name),
		Status:            status,
		Role:              role,
		RefreshTokenKey:   service.tokens.GenerateKey(),
		EmailNotification: EmailNotificationDisabled,
		Language:          DefaultLanguage,
		RegisteredAt:      now,
		LastActivityAt:    now,
	}

	if err := service.accounts.Create(context, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrDuplicateRegistration
		}
		return nil, fmt.Errorf("auth_service_management_register_failed: %w", err)
	}

	// 4. Mail an approval token so the owner can choose a password
	token, err := service.recovery.Issue(context, account.ID, PurposeApproval)
	if err != nil {
		service.logger.Error("auth_approval_token_issue_failed",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
	} else {
		service.dispatch("approval", account.ID, service.mailer.SendApprovalEmail(context, ApprovalEmail{
			AccountID: account.ID,
			Name:      account.Name,
			Email:     account.Email,
			Token:     token,
		}))
	}

	service.logger.Info("auth_management_register_succeeded",
		slog.String("account_id", account.ID),
		slog.String("role", string(role)),
		slog.String("status", string(status)),
	)

	return &RegistrationResult{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      role,
		Status:    status,
	}, nil
}

// # Sign-In Flow

/*
SignIn authenticates with email and password.

Description: Checks run in a fixed order: account existence, password, then
status. Only ACTIVATED accounts receive tokens.

Parameters:
  - context: context.Context
  - input: SignInInput

Returns:
  - *TokenPair: Access and refresh tokens bound to the current key
  - error: ErrWrongEmail, ErrWrongPassword or a status error
*/
func (service *Service) SignIn(context context.Context, input SignInInput) (*TokenPair, error) {

	// 1. Fetch the account by email
	account, err := service.findByEmail(context, input.Email)
	if err != nil {
		return nil, err
	}

	// 2. Verify the password
	if !account.HasPassword() || !service.hasher.Matches(input.Password, account.Credential.PasswordHash) {
		return nil, ErrWrongPassword
	}

	// 3. Check account status
	if err := signInError(account.Status); err != nil {
		return nil, err
	}

	// 4. Generate tokens
	pair, err := service.issuePair(account)
	if err != nil {
		return nil, err
	}

	service.touch(context, account.ID)

	return pair, nil
}

/*
UpdateAccessTokens renews a session from a refresh token.

Description: The account status is checked before the key so a blocked user
learns why renewal failed. The refresh key is not rotated.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *TokenPair: New access and refresh tokens
  - error: ErrBadRefreshToken, ErrUserBlocked or ErrUserDeactivated
*/
func (service *Service) UpdateAccessTokens(context context.Context, refreshToken string) (*TokenPair, error) {
	// 1. Read the subject from the signed token
	email, err := service.tokens.EmailFromToken(refreshToken)
	if err != nil {
		return nil, ErrBadRefreshToken
	}

	// 2. Fetch the account
	account, err := service.accounts.FindByEmail(context, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrBadRefreshToken
		}
		return nil, fmt.Errorf("auth_service_refresh_failed: %w", err)
	}

	// 3. Status before key, so a blocked user learns why
	switch account.Status {
	case StatusBlocked:
		return nil, ErrUserBlocked
	case StatusDeactivated:
		return nil, ErrUserDeactivated
	}

	// 4. The token must be bound to the current refresh key
	if !service.tokens.IsRefreshTokenValid(refreshToken, account.RefreshTokenKey) {
		return nil, ErrBadRefreshToken
	}

	pair, err := service.issuePair(account)
	if err != nil {
		return nil, err
	}

	service.touch(context, account.ID)

	return pair, nil
}

// RevokeSessions rotates the refresh key so every outstanding refresh token
// stops working.
func (service *Service) RevokeSessions(context context.Context, email string) error {
	account, err := service.findByEmail(context, email)
	if err != nil {
		return err
	}
	return service.rotateKey(context, account.ID)
}

// # Email Verification

/*
VerifyEmail redeems a verification token and activates the account.

Parameters:
  - context: context.Context
  - token: string
  - accountID: string

Returns:
  - bool: true when the account was activated
  - error: ErrTokenInvalidOrExpired for unknown, consumed or expired tokens,
    ErrBadUserStatus for blocked or deactivated accounts (token left intact)
*/
func (service *Service) VerifyEmail(context context.Context, token, accountID string) (bool, error) {

	// 1. Load the account before touching the token
	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, ErrTokenInvalidOrExpired
		}
		return false, fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	// 2. Administrative states win over verification and keep the token alive
	if account.Status != StatusCreated && account.Status != StatusActivated {
		return false, ErrBadUserStatus
	}

	// 3. Consume the token
	redeemed, err := service.verification.Redeem(context, accountID, token)
	if err != nil {
		return false, err
	}
	if !redeemed {
		return false, ErrTokenInvalidOrExpired
	}

	// 4. Activate unless an earlier link already did
	if account.Status == StatusCreated {
		if err := service.accounts.UpdateStatus(context, account.ID, StatusActivated); err != nil {
			return false, fmt.Errorf("auth_service_verify_email_failed: %w", err)
		}
	}

	service.logger.Info("auth_email_verified", slog.String("account_id", account.ID))

	return true, nil
}

// ResendVerificationEmail reissues the verification token for an account
// that has not been activated yet. The previous token stops working.
func (service *Service) ResendVerificationEmail(context context.Context, email, language string) error {
	account, err := service.findByEmail(context, email)
	if err != nil {
		return err
	}
	if account.Status != StatusCreated {
		return ErrBadUserStatus
	}

	if language != "" {
		account.Language = language
	}
	service.sendVerification(context, account, true)
	return nil
}

// # Helpers

func (service *Service) findByEmail(context context.Context, email string) (*Account, error) {
	account, err := service.accounts.FindByEmail(context, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrWrongEmail
		}
		return nil, fmt.Errorf("auth_service_find_account_failed: %w", err)
	}
	return account, nil
}

func (service *Service) issuePair(account *Account) (*TokenPair, error) {
	accessToken, err := service.tokens.CreateAccessToken(account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := service.tokens.CreateRefreshToken(account.Email, account.RefreshTokenKey)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &TokenPair{
		AccountID:    account.ID,
		Name:         account.Name,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (service *Service) rotateKey(context context.Context, accountID string) error {
	if err := service.accounts.UpdateRefreshTokenKey(context, accountID, service.tokens.GenerateKey()); err != nil {
		return fmt.Errorf("auth_service_rotate_key_failed: %w", err)
	}
	service.logger.Info("auth_sessions_revoked", slog.String("account_id", accountID))
	return nil
}

// touch records activity. Failures are logged; sign-in already succeeded.
func (service *Service) touch(context context.Context, accountID string) {
	if err := service.accounts.TouchLastActivity(context, accountID, service.now()); err != nil {
		service.logger.Warn("auth_touch_activity_failed",
			slog.String("account_id", accountID),
			slog.Any("error", err),
		)
	}
}

func (service *Service) sendVerification(context context.Context, account *Account, isResend bool) {
	token, err := service.verification.Issue(context, account.ID)
	if err != nil {
		service.logger.Error("auth_verification_token_issue_failed",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return
	}

	service.dispatch("verification", account.ID, service.mailer.SendVerificationEmail(context, VerificationEmail{
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Token:     token,
		Language:  languageOrDefault(account.Language),
		IsResend:  isResend,
	}))
}

// dispatch logs a failed email hand-off. The calling workflow never fails on it.
func (service *Service) dispatch(kind, accountID string, err error) {
	if err == nil {
		return
	}
	service.logger.Error("auth_email_dispatch_failed",
		slog.String("kind", kind),
		slog.String("account_id", accountID),
		slog.Any("error", err),
	)
}

func languageOrDefault(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return DefaultLanguage
	}
	return language
}
