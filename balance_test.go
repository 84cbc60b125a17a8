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
	"testing"
	"time"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDepositCooldown(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("ApplyWalletMutation", mock.Anything, mock.MatchedBy(func(m model.WalletMutation) bool {
		return m.Type == model.TransactionDeposit && m.MemberID == 4 && m.Cash == 300
	}), mock.Anything).Return(&model.TransactionLog{MemberID: 4, Cash: 300, CashBalance: 300}, nil).Once()

	txnLog, err := f.Deposit(ctx, 4, 300, 0, "top up")
	require.NoError(t, err)
	assert.Equal(t, int64(300), txnLog.CashBalance)
	assert.Equal(t, 10*time.Second, mr.TTL("4:sdk_deposit_lock"))

	_, err = f.Deposit(ctx, 4, 300, 0, "top up")
	apiErr := requireBusiness(t, err, apierror.ErrValidation, apierror.InvalidOperation)
	assert.Equal(t, "Request Frequency Too High", apiErr.Message)

	mr.FastForward(11 * time.Second)
	ds.On("ApplyWalletMutation", mock.Anything, mock.Anything, mock.Anything).Return(&model.TransactionLog{MemberID: 4}, nil).Once()
	_, err = f.Deposit(ctx, 4, 300, 0, "top up")
	require.NoError(t, err)
	ds.AssertNumberOfCalls(t, "ApplyWalletMutation", 2)
}

func TestDepositRejectsInvalidAmounts(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	tests := []struct {
		name   string
		cash   int64
		ticket int64
	}{
		{name: "both zero", cash: 0, ticket: 0},
		{name: "negative cash", cash: -5, ticket: 0},
		{name: "negative ticket", cash: 5, ticket: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Deposit(context.Background(), 4, tt.cash, tt.ticket, "")
			requireBusiness(t, err, apierror.ErrValidation, apierror.AmountInvalid)
		})
	}
	ds.AssertNotCalled(t, "ApplyWalletMutation", mock.Anything, mock.Anything, mock.Anything)
}

func TestGrantRewardAccumulatesTotal(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("ApplyWalletMutation", mock.Anything, mock.MatchedBy(func(m model.WalletMutation) bool {
		return m.Type == model.TransactionRewardPrize && m.Remark == "reward setting 3"
	}), mock.Anything).Return(&model.TransactionLog{MemberID: 1}, nil).Twice()

	total, err := f.RewardPrizeTotal(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = f.GrantReward(ctx, 3, 1, 40, 0)
	require.NoError(t, err)
	_, err = f.GrantReward(ctx, 3, 2, 60, 1)
	require.NoError(t, err)

	total, err = f.RewardPrizeTotal(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(100), total)
}

func TestGrantRewardFailureLeavesTotal(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("ApplyWalletMutation", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	_, err := f.GrantReward(ctx, 3, 1, 40, 0)
	assert.ErrorIs(t, err, assert.AnError)

	total, err := f.RewardPrizeTotal(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEnterAndExitGame(t *testing.T) {
	f, _, mr := newTestFantasyee(t)
	ctx := context.Background()

	require.NoError(t, f.EnterGame(ctx, 8))
	assert.Equal(t, 180*time.Second, mr.TTL("game:playing:user:8:lock"))

	err := f.EnterGame(ctx, 8)
	apiErr := requireBusiness(t, err, apierror.ErrValidation, apierror.InvalidOperation)
	assert.Equal(t, "Game Is Playing", apiErr.Message)

	require.NoError(t, f.ExitGame(ctx, 8))
	require.NoError(t, f.EnterGame(ctx, 8))
}

func TestListMembersIsCachedPerFilter(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ctx := context.Background()
	members := []model.Account{{ID: 1, Username: "alice", Role: model.RoleMember}, {ID: 2, Username: "bob", Role: model.RoleMember}}
	first := model.MemberListFilter{Role: model.RoleMember, Keyword: "a", Limit: 10}
	second := model.MemberListFilter{Role: model.RoleMember, Keyword: "a", Limit: 10, Offset: 10}

	ds.On("ListMembers", mock.Anything, first).Return(members, nil).Once()
	ds.On("ListMembers", mock.Anything, second).Return([]model.Account{}, nil).Once()

	for i := 0; i < 2; i++ {
		got, err := f.ListMembers(ctx, first)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "alice", got[0].Username)
	}
	got, err := f.ListMembers(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, got)
	ds.AssertExpectations(t)
}

func TestGuardRequest(t *testing.T) {
	f, _, mr := newTestFantasyee(t)
	ctx := context.Background()
	key := "role:21:user:4:request:POST:/contests/9/join::lineup_id=3:lock"

	require.NoError(t, f.GuardRequest(ctx, key))
	err := f.GuardRequest(ctx, key)
	requireBusiness(t, err, apierror.ErrValidation, apierror.InvalidOperation)

	mr.FastForward(2 * time.Second)
	assert.NoError(t, f.GuardRequest(ctx, key))
}
