// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil stores per-request values in [context.Context]: the
// correlation id, the caller address, the request-scoped logger and the
// verified caller claims.
//
// Keys are an unexported type, so no other package can read or overwrite
// them through a plain string key.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

type key int

const (
	keyRequestID key = iota
	keyLogger
	keyCaller
	keyClientIP
)

// # Request Tracing

// WithRequestID attaches the X-Request-ID correlation value.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID returns the correlation id, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// WithClientIP attaches the resolved address of the caller.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, keyClientIP, ip)
}

// ClientIP returns the resolved caller address, or "" when none was attached.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(keyClientIP).(string)
	return ip
}

// # Structured Logging

// WithLogger attaches the request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// Logger returns the request-scoped logger, falling back to [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(keyLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// # Caller Identity

// WithCaller attaches the claims of a verified access token.
func WithCaller(ctx context.Context, claims *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, keyCaller, claims)
}

// Caller returns the verified claims, or nil for anonymous requests.
func Caller(ctx context.Context) *sec.AuthClaims {
	claims, _ := ctx.Value(keyCaller).(*sec.AuthClaims)
	return claims
}

// CallerEmail returns the signed-in account's email.
func CallerEmail(ctx context.Context) (string, bool) {
	claims := Caller(ctx)
	if claims == nil || claims.Email() == "" {
		return "", false
	}
	return claims.Email(), true
}
