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
	"errors"
	"fmt"
	"time"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
)

// ApplyWalletMutation draws a transaction number, applies the delta to the
// wallet, and appends the typed transaction and the audit log, all in one
// transaction. Any failure rolls back every step.
func (d Datasource) ApplyWalletMutation(ctx context.Context, m model.WalletMutation, number NumberFunc) (*model.TransactionLog, error) {
	if err := m.Validate(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	txnLog, err := applyMutation(ctx, tx, m, number, time.Now())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return txnLog, nil
}

// applyMutation runs inside the caller's transaction. The wallet row is
// locked with FOR UPDATE so the balance snapshot written to the log is the
// balance this transaction commits.
func applyMutation(ctx context.Context, tx *sql.Tx, m model.WalletMutation, number NumberFunc, now time.Time) (*model.TransactionLog, error) {
	table, err := m.Type.Table()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}

	no, err := number(ctx, m.Type, func(ctx context.Context, candidate string) (bool, error) {
		var exists bool
		query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM fantasyee.%s WHERE transaction_no = $1)`, table)
		err := tx.QueryRowContext(ctx, query, candidate).Scan(&exists)
		return exists, err
	})
	if err != nil {
		return nil, err
	}

	var cash, ticket int64
	err = tx.QueryRowContext(ctx, `
		SELECT cash, ticket FROM fantasyee.wallets WHERE member_id = $1 FOR UPDATE
	`, m.MemberID).Scan(&cash, &ticket)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Wallet for member %d not found", m.MemberID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read wallet", err)
	}

	cash += m.Cash
	ticket += m.Ticket
	if cash < 0 || ticket < 0 {
		return nil, apierror.NewBusinessError(apierror.ErrValidation, apierror.AmountInsufficient, "")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE fantasyee.wallets SET cash = $1, ticket = $2, updated_at = $3 WHERE member_id = $4
	`, cash, ticket, now, m.MemberID)
	if err != nil {
		return nil, mapWriteError(err, "Wallet conflict", "Failed to update wallet")
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO fantasyee.%s (transaction_no, order_id, member_id, cash, ticket, remark, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, table), no, nullString(m.OrderID), m.MemberID, m.Cash, m.Ticket, m.Remark, now)
	if err != nil {
		return nil, mapWriteError(err, "Transaction number already exists", "Failed to record transaction")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fantasyee.transaction_logs (transaction_no, member_id, contest_id, cash, ticket, cash_balance, ticket_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, no, m.MemberID, nullInt64(m.ContestID), m.Cash, m.Ticket, cash, ticket, now)
	if err != nil {
		return nil, mapWriteError(err, "Transaction log already exists", "Failed to record transaction log")
	}

	return &model.TransactionLog{
		No:            no,
		Cash:          m.Cash,
		Ticket:        m.Ticket,
		CashBalance:   cash,
		TicketBalance: ticket,
		MemberID:      m.MemberID,
		ContestID:     m.ContestID,
		CreatedAt:     now,
	}, nil
}
