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

package fantasyee

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fantasyee/fantasyee/database"
	"github.com/fantasyee/fantasyee/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerApplyDrawsNumberAndDropsDisplayCache(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ctx := context.Background()

	require.NoError(t, f.cache.Set(ctx, "wallet:display:7", model.Wallet{MemberID: 7, Cash: 10}, time.Minute))

	m := model.WalletMutation{Type: model.TransactionDeposit, MemberID: 7, Cash: 500}
	var drawn string
	ds.On("ApplyWalletMutation", mock.Anything, m, mock.Anything).
		Run(func(args mock.Arguments) {
			number := args.Get(2).(database.NumberFunc)
			no, err := number(ctx, m.Type, func(context.Context, string) (bool, error) { return false, nil })
			require.NoError(t, err)
			drawn = no
		}).
		Return(&model.TransactionLog{No: "MBDP20240101ABCDEFGHJK", MemberID: 7, Cash: 500, CashBalance: 510}, nil).Once()

	txnLog, err := f.Ledger().Apply(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, int64(510), txnLog.CashBalance)
	assert.True(t, strings.HasPrefix(drawn, "MBDP"+time.Now().Format("20060102")))

	var cached model.Wallet
	found, err := f.cache.Get(ctx, "wallet:display:7", &cached)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLedgerApplyFailureKeepsCache(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, "wallet:display:8", model.Wallet{MemberID: 8, Cash: 10}, time.Minute))

	m := model.WalletMutation{Type: model.TransactionFee, MemberID: 8, Cash: -100}
	ds.On("ApplyWalletMutation", mock.Anything, m, mock.Anything).Return(nil, assert.AnError).Once()

	_, err := f.Ledger().Apply(ctx, m)
	assert.ErrorIs(t, err, assert.AnError)

	var cached model.Wallet
	found, err := f.cache.Get(ctx, "wallet:display:8", &cached)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestLedgerSettleInvalidatesEveryWallet(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, "wallet:display:1", model.Wallet{MemberID: 1}, time.Minute))

	mutations := []model.WalletMutation{{Type: model.TransactionPrize, MemberID: 1, OrderID: "ABC1234", Cash: 900}}
	ds.On("SettleOrder", mock.Anything, "ABC1234", model.OrderSucceed, model.OrderClosed, mutations, mock.Anything).
		Return([]*model.TransactionLog{{MemberID: 1, Cash: 900, CashBalance: 900}}, nil).Once()

	logs, err := f.Ledger().Settle(ctx, "ABC1234", model.OrderSucceed, model.OrderClosed, mutations)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	var cached model.Wallet
	found, _ := f.cache.Get(ctx, "wallet:display:1", &cached)
	assert.False(t, found)
}

func TestGetWalletIsCached(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("GetWallet", mock.Anything, int64(3)).Return(&model.Wallet{MemberID: 3, Cash: 250, Ticket: 2}, nil).Once()

	first, err := f.GetWallet(ctx, 3)
	require.NoError(t, err)
	second, err := f.GetWallet(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(250), first.Cash)
	assert.Equal(t, first.Cash, second.Cash)
	ds.AssertNumberOfCalls(t, "GetWallet", 1)
	assert.True(t, mr.Exists("wallet:display:3"))
}
