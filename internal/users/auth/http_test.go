// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
	Code string          `json:"code"`
}

func newRouter(f *fixture) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(f.tokens))
	router.Mount("/", auth.NewHandler(f.service, 0, nil).Routes())
	return router
}

func call(t *testing.T, router http.Handler, method, target string, body any, bearer string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	request := httptest.NewRequest(method, target, &payload)
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+bearer)
	}
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var decoded envelope
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	}
	return recorder, decoded
}

func TestHandler_RegistrationFlow(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	recorder, body := call(t, router, http.MethodPost, "/signUp", map[string]string{
		"name": "Reader", "email": "reader@example.com", "password": strongPassword,
	}, "")
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created auth.SignUpResult
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "reader@example.com", created.Email)

	recorder, body = call(t, router, http.MethodPost, "/signIn", map[string]string{
		"email": "reader@example.com", "password": strongPassword,
	}, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", body.Code)

	query := url.Values{
		"token":   {f.mailer.lastVerification(t).Token},
		"user_id": {created.AccountID},
	}
	recorder, body = call(t, router, http.MethodGet, "/verifyEmail?"+query.Encode(), nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, "true", string(body.Data))

	recorder, body = call(t, router, http.MethodGet, "/verifyEmail?"+query.Encode(), nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "TOKEN_INVALID_OR_EXPIRED", body.Code)

	recorder, body = call(t, router, http.MethodPost, "/signIn", map[string]string{
		"email": "reader@example.com", "password": strongPassword,
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(body.Data, &pair))
	assert.NotEmpty(t, pair.AccessToken)

	var refreshCookie *http.Cookie
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.RefreshTokenCookieName {
			refreshCookie = cookie
		}
	}
	require.NotNil(t, refreshCookie)
	assert.True(t, refreshCookie.HttpOnly)
	assert.Equal(t, pair.RefreshToken, refreshCookie.Value)

	recorder, _ = call(t, router, http.MethodGet, "/updateAccessToken", nil, "", refreshCookie)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestHandler_Validation(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	recorder, body := call(t, router, http.MethodPost, "/signUp", map[string]string{
		"name": "Reader", "email": "reader@example.com", "password": "weak",
	}, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Nil(t, f.store.findEmail("reader@example.com"))

	recorder, body = call(t, router, http.MethodPost, "/signUp", map[string]string{
		"name": "Reader", "email": "reader@example.com", "password": "Aa1!" + strings.Repeat("x", 76),
	}, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Nil(t, f.store.findEmail("reader@example.com"))

	recorder, body = call(t, router, http.MethodGet, "/verifyEmail?token=abc&user_id=not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	recorder, body = call(t, router, http.MethodGet, "/updateAccessToken", nil, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
}

func TestHandler_Authorization(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	member := f.seed("member@example.com", auth.StatusActivated, strongPassword)
	memberToken, err := f.tokens.CreateAccessToken(member.Email, member.Role)
	require.NoError(t, err)
	adminToken, err := f.tokens.CreateAccessToken("admin@example.com", sec.RoleAdmin)
	require.NoError(t, err)
	refreshToken, err := f.tokens.CreateRefreshToken(member.Email, member.RefreshTokenKey)
	require.NoError(t, err)

	t.Run("AnonymousRejected", func(t *testing.T) {
		recorder, body := call(t, router, http.MethodGet, "/password-status", nil, "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "UNAUTHORIZED", body.Code)
	})

	t.Run("RefreshTokenIsNotBearer", func(t *testing.T) {
		recorder, _ := call(t, router, http.MethodGet, "/password-status", nil, refreshToken)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("PasswordStatus", func(t *testing.T) {
		recorder, body := call(t, router, http.MethodGet, "/password-status", nil, memberToken)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"hasPassword":true}`, string(body.Data))
	})

	t.Run("RegisterRequiresAdmin", func(t *testing.T) {
		payload := map[string]string{"name": "Invited", "email": "invited@example.com"}

		recorder, body := call(t, router, http.MethodPost, "/register", payload, memberToken)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Equal(t, "FORBIDDEN", body.Code)

		recorder, body = call(t, router, http.MethodPost, "/register", payload, adminToken)
		require.Equal(t, http.StatusCreated, recorder.Code)

		var result auth.RegistrationResult
		require.NoError(t, json.Unmarshal(body.Data, &result))
		assert.Equal(t, auth.StatusBlocked, result.Status)
	})

	t.Run("RevokeSessionsClearsCookie", func(t *testing.T) {
		recorder, _ := call(t, router, http.MethodPost, "/revoke-sessions", nil, memberToken)
		assert.Equal(t, http.StatusNoContent, recorder.Code)

		_, err := f.service.UpdateAccessTokens(t.Context(), refreshToken)
		assert.ErrorIs(t, err, auth.ErrBadRefreshToken)
	})
}
