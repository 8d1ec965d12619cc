// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-auth/internal/platform/validate"
)

// maxBodyBytes caps credential payloads; none is legitimately larger.
const maxBodyBytes = 64 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredEmail returns the email (token subject) of the currently signed-in account.

Returns:
  - string: Account email
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredEmail(request *http.Request) (string, error) {
	email, ok := ctxutil.CallerEmail(request.Context())
	if !ok {
		return "", apperr.Unauthorized("Authentication required")
	}
	return email, nil
}

/*
Query returns the trimmed value of a query string parameter.
*/
func Query(request *http.Request, name string) string {
	return strings.TrimSpace(request.URL.Query().Get(name))
}

/*
QueryList splits a comma-separated query parameter into trimmed, non-empty
values. Repeated parameters ("status=A&status=B") are merged.
*/
func QueryList(request *http.Request, name string) []string {
	var values []string
	for _, raw := range request.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if value := strings.TrimSpace(part); value != "" {
				values = append(values, value)
			}
		}
	}
	return values
}

/*
Language resolves the locale of the request.

Description: The "lang" query parameter wins over the highest weighted tag of
the Accept-Language header. Returns the base language ("en", "vi") or an
empty string when neither source names one.
*/
func Language(request *http.Request) string {
	if lang := Query(request, "lang"); lang != "" {
		return lang
	}

	tags, _, err := language.ParseAcceptLanguage(request.Header.Get(constants.HeaderAcceptLanguage))
	if err != nil || len(tags) == 0 || tags[0] == language.Und {
		return ""
	}

	base, confidence := tags[0].Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}
