// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer through the auth.PasswordHasher and auth.TokenIssuer
// interfaces.
package sec

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Default lifetimes applied when the configuration leaves them unset.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// minSecretLength guards against trivially brute-forced HMAC keys.
const minSecretLength = 32

var (
	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = errors.New("sec: invalid token")

	// ErrWrongTokenType is returned when an access token is presented where a
	// refresh token is expected, or the reverse.
	ErrWrongTokenType = errors.New("sec: wrong token type")
)

// AuthClaims represents the payload embedded inside a JWT.
//
// The subject is the account email. Access tokens carry the role so the
// [middleware.Authenticate] can rebuild the caller context without a database
// round trip. Refresh tokens carry the account's refresh key instead.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	Role UserRole  `json:"rol,omitempty"`
	Key  string    `json:"rtk,omitempty"`
	Type TokenType `json:"typ"`
}

// Email returns the subject of the token.
func (claims *AuthClaims) Email() string {
	return claims.Subject
}

// TokenService handles generation and verification of JWT tokens using HS256.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a new TokenService.
//
// Zero TTLs fall back to [DefaultAccessTokenTTL] and [DefaultRefreshTokenTTL].
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("sec: jwt secret must be at least %d bytes", minSecretLength)
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the service reading time from clock.
func (service *TokenService) WithClock(clock func() time.Time) *TokenService {
	clone := *service
	clone.now = clock
	return &clone
}

// CreateAccessToken issues a short-lived token for the given email and role.
func (service *TokenService) CreateAccessToken(email string, role UserRole) (string, error) {
	claims := service.baseClaims(email, service.accessTTL)
	claims.Role = role
	claims.Type = TokenTypeAccess
	return service.sign(claims)
}

// CreateRefreshToken issues a long-lived token bound to the account's current
// refresh key.
func (service *TokenService) CreateRefreshToken(email, refreshTokenKey string) (string, error) {
	claims := service.baseClaims(email, service.refreshTTL)
	claims.Key = refreshTokenKey
	claims.Type = TokenTypeRefresh
	return service.sign(claims)
}

// EmailFromToken returns the subject of a valid token of either type.
func (service *TokenService) EmailFromToken(tokenString string) (string, error) {
	claims, err := service.VerifyToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IsRefreshTokenValid reports whether tokenString is an unexpired refresh
// token signed by this service whose embedded key equals currentKey.
func (service *TokenService) IsRefreshTokenValid(tokenString, currentKey string) bool {
	claims, err := service.VerifyToken(tokenString)
	if err != nil || claims.Type != TokenTypeRefresh || currentKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(claims.Key), []byte(currentKey)) == 1
}

// VerifyAccessToken verifies tokenString and requires it to be an access token.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	claims, err := service.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// VerifyToken checks the signature and validity of a JWT string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(service.now),
		jwt.WithIssuer(service.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GenerateKey returns a fresh random refresh-token key.
func (service *TokenService) GenerateKey() string {
	return uuid.NewString()
}

func (service *TokenService) baseClaims(email string, timeToLive time.Duration) AuthClaims {
	currentTime := service.now()
	return AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    service.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
	}
}

func (service *TokenService) sign(claims AuthClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signedToken, nil
}
