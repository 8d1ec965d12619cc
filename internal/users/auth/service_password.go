// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

// # Password Inputs

// RestoreInput redeems a recovery or approval token with a new password.
type RestoreInput struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// UpdatePasswordInput replaces the password of a signed-in account.
type UpdatePasswordInput struct {
	Password        string
	ConfirmPassword string
}

// ResetPasswordInput changes a password after proving the current one.
type ResetPasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// SetPasswordInput gives a federated-only account its first password.
type SetPasswordInput struct {
	Password        string
	ConfirmPassword string
}

// # Password Recovery

/*
RequestPasswordRecovery mails a recovery token to the account owner.

Description: Any token still pending for the account is superseded.

Parameters:
  - context: context.Context
  - email: string
  - language: string

Returns:
  - error: ErrWrongEmail, status errors or storage errors
*/
func (service *Service) RequestPasswordRecovery(context context.Context, email, language string) error {
	account, err := service.findByEmail(context, email)
	if err != nil {
		return err
	}

	switch account.Status {
	case StatusBlocked:
		return ErrUserBlocked
	case StatusDeactivated:
		return ErrUserDeactivated
	}

	token, err := service.recovery.Issue(context, account.ID, PurposeRecovery)
	if err != nil {
		return err
	}

	if language == "" {
		language = account.Language
	}

	service.dispatch("recovery", account.ID, service.mailer.SendRecoveryEmail(context, RecoveryEmail{
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Token:     token,
		Language:  languageOrDefault(language),
	}))

	service.logger.Info("auth_password_recovery_requested", slog.String("account_id", account.ID))

	return nil
}

/*
UpdatePasswordUsingToken sets a new password from a recovery or approval token.

Description: The confirmation is checked before the token so a typo does not
burn it. Approval tokens also activate the account. All refresh tokens issued
before the change are revoked.

Parameters:
  - context: context.Context
  - input: RestoreInput

Returns:
  - error: ErrPasswordsDoNotMatch, ErrTokenInvalidOrExpired or storage errors
*/
func (service *Service) UpdatePasswordUsingToken(context context.Context, input RestoreInput) error {
	if input.Password != input.ConfirmPassword {
		return ErrPasswordsDoNotMatch
	}

	redemption, err := service.recovery.Redeem(context, input.Token)
	if err != nil {
		return err
	}
	if !redemption.OK() {
		return ErrTokenInvalidOrExpired
	}

	if err := service.UpdatePassword(context, input.Password, redemption.AccountID); err != nil {
		return err
	}

	if redemption.Purpose == PurposeApproval {
		if err := service.activate(context, redemption.AccountID); err != nil {
			return err
		}
	}

	return service.rotateKey(context, redemption.AccountID)
}

// UpdatePassword hashes and stores a new password without further checks.
func (service *Service) UpdatePassword(context context.Context, newPassword, accountID string) error {
	hashedPassword, err := service.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := service.accounts.UpdatePassword(context, hashedPassword, accountID); err != nil {
		return fmt.Errorf("auth_service_update_password_failed: %w", err)
	}

	service.logger.Info("auth_password_updated", slog.String("account_id", accountID))
	return nil
}

// # Signed-In Password Changes

// UpdateCurrentPassword replaces the password of an activated account.
func (service *Service) UpdateCurrentPassword(context context.Context, input UpdatePasswordInput, email string) error {
	account, err := service.findByEmail(context, email)
	if err != nil {
		return err
	}

	if account.Status != StatusActivated {
		return ErrEmailNotVerified
	}

	if input.Password != input.ConfirmPassword {
		return ErrPasswordsDoNotMatch
	}

	return service.UpdatePassword(context, input.Password, account.ID)
}

/*
ResetPassword changes the password after verifying the current one.

Parameters:
  - context: context.Context
  - input: ResetPasswordInput
  - email: string (authenticated subject)

Returns:
  - error: ErrWrongEmail, ErrWrongPassword, ErrPasswordsDoNotMatch
*/
func (service *Service) ResetPassword(context context.Context, input ResetPasswordInput, email string) error {
	account, err := service.findByEmail(context, email)
	if err != nil {
		return err
	}

	if !account.HasPassword() || !service.hasher.Matches(input.CurrentPassword, account.Credential.PasswordHash) {
		return ErrWrongPassword
	}

	if input.NewPassword != input.ConfirmPassword {
		return ErrPasswordsDoNotMatch
	}

	return service.UpdatePassword(context, input.NewPassword, account.ID)
}

// SetPassword creates the first credential of a federated-only account.
func (service *Service) SetPassword(context context.Context, input SetPasswordInput, email string) error {
	account, err := service.findByEmail(context, email)
	if err != nil {
		return err
	}

	if account.HasPassword() {
		return ErrUserAlreadyHasPassword
	}

	if input.Password != input.ConfirmPassword {
		return ErrPasswordsDoNotMatch
	}

	hashedPassword, err := service.hashPassword(input.Password)
	if err != nil {
		return err
	}

	err = service.accounts.SaveCredential(context, &Credential{
		AccountID:    account.ID,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		if errors.Is(err, ErrUserAlreadyHasPassword) {
			return err
		}
		return fmt.Errorf("auth_service_set_password_failed: %w", err)
	}

	service.logger.Info("auth_password_set", slog.String("account_id", account.ID))
	return nil
}

// HasPassword reports whether the account can sign in with a password.
func (service *Service) HasPassword(context context.Context, email string) (bool, error) {
	account, err := service.findByEmail(context, email)
	if err != nil {
		return false, err
	}
	return account.HasPassword(), nil
}

// activate moves an account to ACTIVATED through the transition table.
func (service *Service) activate(context context.Context, accountID string) error {
	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return fmt.Errorf("auth_service_activate_failed: %w", err)
	}
	if account.Status == StatusActivated {
		return nil
	}

	if _, err := Transition(account.Status, StatusActivated); err != nil {
		return err
	}
	if err := service.accounts.UpdateStatus(context, accountID, StatusActivated); err != nil {
		return fmt.Errorf("auth_service_activate_failed: %w", err)
	}
	return nil
}

// hashPassword hashes a plain-text password, reporting input bcrypt cannot
// accept as [ErrPasswordTooLong] rather than a server fault.
func (service *Service) hashPassword(plainTextPassword string) (string, error) {
	hashedPassword, err := service.hasher.Hash(plainTextPassword)
	if errors.Is(err, sec.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("auth_service_hash_failed: %w", err)
	}
	return hashedPassword, nil
}
