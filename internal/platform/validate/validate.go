// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// Handlers run a Validator over decoded payloads before calling into a
// service, so business logic only operates on well-formed input.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

const (
	// minPasswordLength is the shortest password accepted at sign-up and change.
	minPasswordLength = 8

	// maxEmailLength is the longest forward-path SMTP accepts.
	maxEmailLength = 254
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator collects field-level validation errors via a fluent, chainable API.
//
// Validator is not safe for concurrent use. Create one per request.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Email fails unless the value is a bare RFC 5322 address.
//
// Display-name forms such as "Tai <tai@yomira.app>" parse as addresses but
// are rejected; the stored email must be exactly what the user typed.
func (v *Validator) Email(field, value string) *Validator {
	trimmed := strings.TrimSpace(value)
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Address != trimmed || parsed.Name != "" || len(trimmed) > maxEmailLength {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// Password fails unless the value is a strong password.
//
// # Format
//
// At least 8 characters with an upper-case letter, a lower-case letter, a
// digit and a special character. Whitespace is rejected, and so is anything
// longer than [sec.MaxPasswordBytes] since bcrypt cannot hash it.
func (v *Validator) Password(field, value string) *Validator {
	if len(value) > sec.MaxPasswordBytes {
		v.add(field, fmt.Sprintf("Must be at most %d bytes", sec.MaxPasswordBytes))
		return v
	}

	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsSpace(r):
			v.add(field, "Must not contain whitespace")
			return v
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	if utf8.RuneCountInString(value) < minPasswordLength || !upper || !lower || !digit || !special {
		v.add(field, fmt.Sprintf("Minimum %d characters with upper and lower case letters, a digit and a special character", minPasswordLength))
	}
	return v
}

// UUID fails unless the value is a hyphenated UUID string.
func (v *Validator) UUID(field, value string) *Validator {
	if len(value) != 36 {
		v.add(field, "Must be a valid UUID")
		return v
	}
	if _, err := uuid.Parse(value); err != nil {
		v.add(field, "Must be a valid UUID")
	}
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
//	v.Custom("status", !status.Valid(), "Unknown status")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a VALIDATION_ERROR [apperr.AppError] carrying every failure, or
// nil when all rules passed. Call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}
