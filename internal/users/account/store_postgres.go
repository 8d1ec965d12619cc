// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/taibuivan/yomira-auth/internal/platform/database/schema"
	"github.com/taibuivan/yomira-auth/internal/platform/dberr"
	"github.com/taibuivan/yomira-auth/internal/platform/postgres"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

// # Postgres Directory

// PostgresDirectory implements [Directory] over users.account.
type PostgresDirectory struct {
	db postgres.DB
}

// NewDirectory creates a new PostgreSQL implementation of the Directory.
func NewDirectory(db postgres.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

/*
List returns a filtered and paginated list of accounts.

Description: Uses COUNT(*) OVER() for the total so a single round trip
serves both the page and its metadata. Ordered newest first.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Summary: Slice of matching accounts
  - int: Total record count
  - error: Database retrieval failures
*/
func (directory *PostgresDirectory) List(context context.Context, filter Filter, limit, offset int) ([]*Summary, int, error) {
	account, credential := schema.UserAccount, schema.UserCredential

	var queryBuilder strings.Builder
	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT
			a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s,
			(c.%s IS NOT NULL) AS haspassword,
			COUNT(*) OVER() AS total
		FROM %s a
		LEFT JOIN %s c ON c.%s = a.%s
		WHERE TRUE`,
		account.ID, account.Email, account.Name, account.Status, account.Role,
		account.EmailNotification, account.Rating, account.Language,
		account.RegisteredAt, account.LastActivityAt,
		credential.AccountID,
		account.Table,
		credential.Table, credential.AccountID, account.ID,
	))

	args := []any{}
	argID := 1

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		queryBuilder.WriteString(fmt.Sprintf(" AND a.%s = ANY($%d)", account.Status, argID))
		args = append(args, statuses)
		argID++
	}

	if filter.Role != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND a.%s = $%d", account.Role, argID))
		args = append(args, string(filter.Role))
		argID++
	}

	if filter.Query != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (a.%s ILIKE $%d OR a.%s ILIKE $%d)", account.Email, argID, account.Name, argID))
		args = append(args, "%"+filter.Query+"%")
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY a.%s DESC, a.%s LIMIT $%d OFFSET $%d",
		account.RegisteredAt, account.ID, argID, argID+1))
	args = append(args, limit, offset)

	rows, err := directory.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_accounts")
	}
	defer rows.Close()

	summaries := []*Summary{}
	var total int
	for rows.Next() {
		var (
			summary           Summary
			status            string
			role              string
			emailNotification string
			hasPassword       bool
		)
		err := rows.Scan(
			&summary.ID, &summary.Email, &summary.Name, &status, &role,
			&emailNotification, &summary.Rating, &summary.Language,
			&summary.RegisteredAt, &summary.LastActivityAt,
			&hasPassword, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_account")
		}

		summary.Status = auth.Status(status)
		summary.Role = sec.UserRole(role)
		summary.EmailNotification = auth.EmailNotification(emailNotification)
		summary.CredentialKind = auth.CredentialFederatedOnly
		if hasPassword {
			summary.CredentialKind = auth.CredentialLocal
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_accounts")
	}

	return summaries, total, nil
}
