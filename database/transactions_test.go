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
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxnNo = "MBFE20240101ABCDEFGHJK"

// fixedNumber returns a NumberFunc that checks candidate once and returns it.
func fixedNumber(candidate string) NumberFunc {
	return func(ctx context.Context, prefix model.TransactionType, exists ExistsFunc) (string, error) {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if taken {
			return "", errors.New("candidate taken")
		}
		return candidate, nil
	}
}

func expectNumberCheck(mock sqlmock.Sqlmock, table, candidate string, taken bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM fantasyee." + table + " WHERE transaction_no = $1)")).
		WithArgs(candidate).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(taken))
}

func TestApplyWalletMutation_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	m := model.WalletMutation{Type: model.TransactionFee, MemberID: 42, OrderID: "A7K2M9Q", ContestID: 9, Cash: -100}

	mock.ExpectBegin()
	expectNumberCheck(mock, "member_fee_transactions", testTxnNo, false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cash, ticket FROM fantasyee.wallets WHERE member_id = $1 FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"cash", "ticket"}).AddRow(500, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fantasyee.wallets SET cash = $1, ticket = $2")).
		WithArgs(int64(400), int64(2), sqlmock.AnyArg(), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fantasyee.member_fee_transactions")).
		WithArgs(testTxnNo, "A7K2M9Q", int64(42), int64(-100), int64(0), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fantasyee.transaction_logs")).
		WithArgs(testTxnNo, int64(42), int64(9), int64(-100), int64(0), int64(400), int64(2), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	txnLog, err := ds.ApplyWalletMutation(context.Background(), m, fixedNumber(testTxnNo))
	require.NoError(t, err)
	assert.Equal(t, testTxnNo, txnLog.No)
	assert.Equal(t, int64(400), txnLog.CashBalance)
	assert.Equal(t, int64(2), txnLog.TicketBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyWalletMutation_LogFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	m := model.WalletMutation{Type: model.TransactionPrize, MemberID: 42, Cash: 250}

	mock.ExpectBegin()
	expectNumberCheck(mock, "member_prize_transactions", "MBPZ20240101ABCDEFGHJK", false)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"cash", "ticket"}).AddRow(100, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fantasyee.wallets")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fantasyee.member_prize_transactions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fantasyee.transaction_logs")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = ds.ApplyWalletMutation(context.Background(), m, fixedNumber("MBPZ20240101ABCDEFGHJK"))
	require.Error(t, err)
	assert.Equal(t, apierror.ErrInternalServer, err.(apierror.APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyWalletMutation_Insufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	m := model.WalletMutation{Type: model.TransactionFee, MemberID: 42, Cash: -100, Ticket: -1}

	mock.ExpectBegin()
	expectNumberCheck(mock, "member_fee_transactions", testTxnNo, false)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"cash", "ticket"}).AddRow(1000, 0))
	mock.ExpectRollback()

	_, err = ds.ApplyWalletMutation(context.Background(), m, fixedNumber(testTxnNo))
	var apiErr apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.AmountInsufficient, apiErr.Business)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyWalletMutation_NumberFailurePropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	exhausted := errors.New("sequence exhausted")
	number := func(ctx context.Context, prefix model.TransactionType, exists ExistsFunc) (string, error) {
		return "", exhausted
	}

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = ds.ApplyWalletMutation(context.Background(), model.WalletMutation{Type: model.TransactionDeposit, MemberID: 1, Cash: 10}, number)
	assert.ErrorIs(t, err, exhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyWalletMutation_Invalid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	_, err = ds.ApplyWalletMutation(context.Background(), model.WalletMutation{Type: model.TransactionFee, MemberID: 1}, fixedNumber(testTxnNo))
	assert.EqualError(t, err, "INVALID_INPUT: mutation must change cash or ticket")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyWalletMutation_WalletMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	expectNumberCheck(mock, "member_refund_transactions", "MBRF20240101ABCDEFGHJK", false)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"cash", "ticket"}))
	mock.ExpectRollback()

	_, err = ds.ApplyWalletMutation(context.Background(),
		model.WalletMutation{Type: model.TransactionRefund, MemberID: 77, Cash: 5}, fixedNumber("MBRF20240101ABCDEFGHJK"))
	assert.Equal(t, apierror.ErrNotFound, err.(apierror.APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
