// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-auth/internal/platform/request"
	"github.com/taibuivan/yomira-auth/internal/platform/respond"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/platform/validate"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/pagination"
)

// Handler implements the HTTP layer for account administration.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the administration endpoints.
// Every route requires ROLE_ADMIN.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/", handler.listAccounts)
	router.Get("/{id}", handler.getAccount)
	router.Patch("/{id}/status", handler.changeStatus)
	router.Post("/{id}/revoke-sessions", handler.revokeSessions)

	return router
}

/*
GET /api/v1/management/accounts.

Description: Lists accounts, newest first.

Request:
  - status: comma-separated statuses (optional)
  - role: string (optional)
  - q: substring of email or name (optional)
  - page, limit: pagination

Response:
  - 200: []Summary with pagination meta
  - 400: VALIDATION_ERROR for unknown statuses or roles
*/
func (handler *Handler) listAccounts(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	filter := Filter{
		Role:  sec.UserRole(requestutil.Query(request, "role")),
		Query: requestutil.Query(request, "q"),
	}

	validator := &validate.Validator{}
	for _, raw := range requestutil.QueryList(request, "status") {
		status := auth.Status(raw)
		validator.Custom(auth.FieldStatus, !status.Valid(), "Unknown status "+raw)
		filter.Statuses = append(filter.Statuses, status)
	}
	if filter.Role != "" {
		validator.Custom(auth.FieldRole, !filter.Role.Valid(), "Unknown role")
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	accounts, total, err := handler.accountService.ListAccounts(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, accounts, paginationParams.Meta(total))
}

// getAccount returns one account. GET /api/v1/management/accounts/{id}
func (handler *Handler) getAccount(writer http.ResponseWriter, request *http.Request) {
	id, ok := handler.accountID(writer, request)
	if !ok {
		return
	}

	account, err := handler.accountService.GetAccount(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

/*
PATCH /api/v1/management/accounts/{id}/status.

Request:
  - body: changeStatusRequest

Response:
  - 200: Summary after the change
  - 400: VALIDATION_ERROR
  - 404: NOT_FOUND
  - 409: INVALID_STATUS_TRANSITION
*/
func (handler *Handler) changeStatus(writer http.ResponseWriter, request *http.Request) {
	id, ok := handler.accountID(writer, request)
	if !ok {
		return
	}

	var input changeStatusRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	target := auth.Status(input.Status)
	if err := (&validate.Validator{}).Custom(auth.FieldStatus, !target.Valid(), "Unknown status").Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.ChangeStatus(request.Context(), id, target)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

// revokeSessions signs the account out everywhere.
// POST /api/v1/management/accounts/{id}/revoke-sessions
func (handler *Handler) revokeSessions(writer http.ResponseWriter, request *http.Request) {
	id, ok := handler.accountID(writer, request)
	if !ok {
		return
	}

	if err := handler.accountService.RevokeSessions(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// accountID reads and validates the {id} path parameter.
func (handler *Handler) accountID(writer http.ResponseWriter, request *http.Request) (string, bool) {
	id := requestutil.Param(request, "id")
	if err := (&validate.Validator{}).UUID(auth.FieldUserID, id).Err(); err != nil {
		respond.Error(writer, request, err)
		return "", false
	}
	return id, true
}
