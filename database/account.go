/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
)

const accountColumns = `id, "group", username, phone, email, password_hash, role, is_blocked, latest_login, created_at`

var memberSortColumns = map[string]string{
	"id":         "id",
	"username":   "username",
	"created_at": "created_at",
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		a           model.Account
		phone       sql.NullString
		email       sql.NullString
		latestLogin []byte
	)
	err := row.Scan(&a.ID, &a.Group, &a.Username, &phone, &email, &a.PasswordHash, &a.Role, &a.IsBlocked, &latestLogin, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.Phone = phone.String
	a.Email = email.String
	if len(latestLogin) > 0 {
		if err := json.Unmarshal(latestLogin, &a.LatestLogin); err != nil {
			return a, err
		}
	}
	return a, nil
}

func (d Datasource) getAccount(ctx context.Context, where string, args ...interface{}) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM fantasyee.accounts WHERE `+where, args...)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewBusinessError(apierror.ErrNotFound, apierror.UserNotFound, "")
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}
	return &a, nil
}

func (d Datasource) GetMemberByPhone(ctx context.Context, phone string) (*model.Account, error) {
	return d.getAccount(ctx, `phone = $1 AND "group" = $2`, phone, model.GroupUser)
}

func (d Datasource) GetAdminByUsername(ctx context.Context, username string) (*model.Account, error) {
	return d.getAccount(ctx, `username = $1 AND "group" = $2`, username, model.GroupAdmin)
}

func (d Datasource) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	return d.getAccount(ctx, `id = $1`, id)
}

// UpdateLoginDetail stores the latest login snapshot (address, time, agent).
func (d Datasource) UpdateLoginDetail(ctx context.Context, id int64, detail map[string]interface{}) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal login detail", err)
	}
	_, err = d.Conn.ExecContext(ctx, `UPDATE fantasyee.accounts SET latest_login = $1 WHERE id = $2`, data, id)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update login detail", err)
	}
	return nil
}

func (d Datasource) ListMembers(ctx context.Context, filter model.MemberListFilter) ([]model.Account, error) {
	var (
		conditions = []string{`"group" = $1`}
		args       = []interface{}{model.GroupUser}
	)
	if filter.Role != 0 {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		args = append(args, "%"+keyword+"%")
		conditions = append(conditions, fmt.Sprintf("(username ILIKE $%d OR phone ILIKE $%d)", len(args), len(args)))
	}

	sortColumn, ok := memberSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "id"
	}
	direction := "ASC"
	if filter.IsDesc {
		direction = "DESC"
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM fantasyee.accounts WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		accountColumns, strings.Join(conditions, " AND "), sortColumn, direction, len(args)-1, len(args))

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve members", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan member", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to iterate members", err)
	}
	return accounts, nil
}
