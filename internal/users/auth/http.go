// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-auth/internal/platform/request"
	"github.com/taibuivan/yomira-auth/internal/platform/respond"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the own-security HTTP endpoints.
//
// # Scope
//
// The handler is a thin mediation layer: it decodes and validates payloads,
// calls [Service], and renders results. Every business rule lives in the
// service.
type Handler struct {
	authService *Service
	refreshTTL  time.Duration
	guard       func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler] with its service dependency.
//
// refreshTTL sets the lifetime of the refresh cookie; guard wraps the
// credential endpoints (typically a stricter rate limiter) and may be nil.
func NewHandler(service *Service, refreshTTL time.Duration, guard func(http.Handler) http.Handler) *Handler {
	if refreshTTL <= 0 {
		refreshTTL = sec.DefaultRefreshTokenTTL
	}
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{authService: service, refreshTTL: refreshTTL, guard: guard}
}

// Routes returns a [chi.Router] configured with own-security routes.
//
// # Endpoints
//   - POST /signUp, /sign-up-employee, /signIn : Registration and sign-in.
//   - GET  /verifyEmail, /updateAccessToken    : Token redemption.
//   - GET  /restorePassword, POST /updatePassword : Password recovery.
//   - Authenticated: /changePassword, /password-status, /set-password,
//     /reset-password, /revoke-sessions.
//   - Admin: POST /register.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints, throttled per IP
	router.Group(func(r chi.Router) {
		r.Use(handler.guard)
		r.Post("/signUp", handler.signUp)
		r.Post("/sign-up-employee", handler.signUpEmployee)
		r.Post("/signIn", handler.signIn)
		r.Get("/restorePassword", handler.restorePassword)
		r.Post("/updatePassword", handler.updatePasswordUsingToken)
		r.Post("/resendVerification", handler.resendVerification)
	})

	router.Get("/verifyEmail", handler.verifyEmail)
	router.Get("/updateAccessToken", handler.updateAccessToken)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Put("/changePassword", handler.changePassword)
		r.Get("/password-status", handler.passwordStatus)
		r.Post("/set-password", handler.setPassword)
		r.Post("/reset-password", handler.resetPassword)
		r.Post("/revoke-sessions", handler.revokeSessions)
	})

	// Administrative registration
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Post("/register", handler.managementRegister)
	})

	return router
}

// # Request Payloads

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type restoreRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type updatePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type resetPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type managementRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"userStatus"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// # Registration

/*
SignUp registers a standard user.

POST /api/v1/ownSecurity/signUp

Description: Creates a CREATED account and mails a verification token in the
request language. No tokens are returned before verification.

Request:
  - Body: signUpRequest (Name, Email, Password)

Response:
  - 201: SignUpResult
  - 400: VALIDATION_ERROR or USER_ALREADY_REGISTERED
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	handler.register(writer, request, handler.authService.SignUp)
}

// SignUpEmployee registers a staff account. POST /api/v1/ownSecurity/sign-up-employee
func (handler *Handler) signUpEmployee(writer http.ResponseWriter, request *http.Request) {
	handler.register(writer, request, handler.authService.SignUpEmployee)
}

type signUpFunc func(context context.Context, input SignUpInput, language string) (*SignUpResult, error)

func (handler *Handler) register(writer http.ResponseWriter, request *http.Request, signUp signUpFunc) {
	var input signUpRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, maxNameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := signUp(request.Context(), SignUpInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	}, requestutil.Language(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, result)
}

/*
ManagementRegister registers an account on behalf of an administrator.

POST /api/v1/ownSecurity/register

Response:
  - 201: RegistrationResult
  - 400: VALIDATION_ERROR or USER_ALREADY_REGISTERED
  - 403: FORBIDDEN for non-admin callers
*/
func (handler *Handler) managementRegister(writer http.ResponseWriter, request *http.Request) {
	var input managementRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, maxNameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email)
	if input.Role != "" {
		validator.Custom(FieldRole, !sec.UserRole(input.Role).Valid(), "Unknown role")
	}
	if input.Status != "" {
		validator.Custom(FieldStatus, !Status(input.Status).Valid(), "Unknown status")
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.ManagementRegisterUser(request.Context(), ManagementInput{
		Name:   input.Name,
		Email:  input.Email,
		Role:   sec.UserRole(input.Role),
		Status: Status(input.Status),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, result)
}

// # Sessions

/*
SignIn authenticates with email and password.

POST /api/v1/ownSecurity/signIn

Description: Returns the token pair and also sets the refresh token as an
HTTP-only cookie scoped to this router.

Response:
  - 200: TokenPair
  - 400: WRONG_EMAIL, WRONG_PASSWORD, EMAIL_NOT_VERIFIED
  - 403: USER_BLOCKED, USER_DEACTIVATED
*/
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var input signInRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.SignIn(request.Context(), SignInInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, pair.RefreshToken)
	respond.OK(writer, pair)
}

/*
UpdateAccessToken renews the token pair.

GET /api/v1/ownSecurity/updateAccessToken?refreshToken=

Description: Falls back to the refresh cookie when the query parameter is absent.

Response:
  - 200: TokenPair
  - 400: BAD_REFRESH_TOKEN
  - 403: USER_BLOCKED, USER_DEACTIVATED
*/
func (handler *Handler) updateAccessToken(writer http.ResponseWriter, request *http.Request) {
	refreshToken := requestutil.Query(request, "refreshToken")
	if refreshToken == "" {
		if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
			refreshToken = cookie.Value
		}
	}

	if refreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	pair, err := handler.authService.UpdateAccessTokens(request.Context(), refreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, pair.RefreshToken)
	respond.OK(writer, pair)
}

// RevokeSessions signs the caller out everywhere. POST /api/v1/ownSecurity/revoke-sessions
func (handler *Handler) revokeSessions(writer http.ResponseWriter, request *http.Request) {
	email, err := requestutil.RequiredEmail(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RevokeSessions(request.Context(), email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

// # Email Verification

/*
VerifyEmail confirms ownership of the email address.

GET /api/v1/ownSecurity/verifyEmail?token=&user_id=

Response:
  - 200: true
  - 404: TOKEN_INVALID_OR_EXPIRED
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Query(request, FieldToken)
	accountID := requestutil.Query(request, FieldUserID)

	validator := &validate.Validator{}
	validator.Required(FieldToken, token).
		UUID(FieldUserID, accountID)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	verified, err := handler.authService.VerifyEmail(request.Context(), token, accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, verified)
}

// ResendVerification mails a fresh verification token. POST /api/v1/ownSecurity/resendVerification
func (handler *Handler) resendVerification(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := (&validate.Validator{}).Email(FieldEmail, input.Email).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResendVerificationEmail(request.Context(), input.Email, requestutil.Language(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Verification email sent")
}

// # Password Recovery

/*
RestorePassword mails a password recovery token.

GET /api/v1/ownSecurity/restorePassword?email=

Response:
  - 200: Message
  - 400: WRONG_EMAIL
*/
func (handler *Handler) restorePassword(writer http.ResponseWriter, request *http.Request) {
	email := requestutil.Query(request, FieldEmail)

	if err := (&validate.Validator{}).Email(FieldEmail, email).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestPasswordRecovery(request.Context(), email, requestutil.Language(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Recovery email sent")
}

/*
UpdatePasswordUsingToken sets a new password from a recovery or approval token.

POST /api/v1/ownSecurity/updatePassword

Response:
  - 200: Message
  - 400: PASSWORDS_DO_NOT_MATCH
  - 404: TOKEN_INVALID_OR_EXPIRED
*/
func (handler *Handler) updatePasswordUsingToken(writer http.ResponseWriter, request *http.Request) {
	var input restoreRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.UpdatePasswordUsingToken(request.Context(), RestoreInput{
		Token:           input.Token,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password updated")
}

// # Signed-In Password Management

// ChangePassword replaces the caller's password. PUT /api/v1/ownSecurity/changePassword
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	email, err := requestutil.RequiredEmail(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := (&validate.Validator{}).Password(FieldPassword, input.Password).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.UpdateCurrentPassword(request.Context(), UpdatePasswordInput{
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	}, email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// ResetPassword changes the password after checking the current one.
// POST /api/v1/ownSecurity/reset-password
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	email, err := requestutil.RequiredEmail(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ResetPassword(request.Context(), ResetPasswordInput{
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.Password,
		ConfirmPassword: input.ConfirmPassword,
	}, email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// SetPassword gives a federated-only account its first password.
// POST /api/v1/ownSecurity/set-password
func (handler *Handler) setPassword(writer http.ResponseWriter, request *http.Request) {
	email, err := requestutil.RequiredEmail(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := (&validate.Validator{}).Password(FieldPassword, input.Password).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.SetPassword(request.Context(), SetPasswordInput{
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	}, email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]bool{"hasPassword": true})
}

// PasswordStatus reports whether the caller has a password. GET /api/v1/ownSecurity/password-status
func (handler *Handler) passwordStatus(writer http.ResponseWriter, request *http.Request) {
	email, err := requestutil.RequiredEmail(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	hasPassword, err := handler.authService.HasPassword(request.Context(), email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{"hasPassword": hasPassword})
}

// # Cookies

func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, refreshToken string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    refreshToken,
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   int(handler.refreshTTL / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
