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
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fantasyee/fantasyee/internal/apierror"
	redlock "github.com/fantasyee/fantasyee/internal/lock"
	"github.com/fantasyee/fantasyee/internal/rediskey"
	"github.com/fantasyee/fantasyee/model"
	"github.com/sirupsen/logrus"
)

const memberListTTL = time.Minute

func tooFrequent(err error) error {
	if errors.Is(err, redlock.ErrLockHeld) {
		return apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidOperation, "Request Frequency Too High")
	}
	return err
}

// Deposit credits a member wallet. One deposit per member is accepted per
// cooldown window.
func (f *Fantasyee) Deposit(ctx context.Context, memberID, cash, ticket int64, remark string) (*model.TransactionLog, error) {
	if cash < 0 || ticket < 0 || cash == 0 && ticket == 0 {
		return nil, apierror.NewBusinessError(apierror.ErrValidation, apierror.AmountInvalid, "")
	}
	if err := f.marker.Guard(ctx, rediskey.SDKDepositLock(memberID), f.config.Locks.Cooldown()); err != nil {
		return nil, tooFrequent(err)
	}
	return f.ledger.Apply(ctx, model.WalletMutation{
		Type:     model.TransactionDeposit,
		MemberID: memberID,
		Cash:     cash,
		Ticket:   ticket,
		Remark:   remark,
	})
}

// GrantReward pays a reward prize and adds it to the setting's running total.
func (f *Fantasyee) GrantReward(ctx context.Context, settingID, memberID, cash, ticket int64) (*model.TransactionLog, error) {
	if cash < 0 || ticket < 0 || cash == 0 && ticket == 0 {
		return nil, apierror.NewBusinessError(apierror.ErrValidation, apierror.AmountInvalid, "")
	}
	txnLog, err := f.ledger.Apply(ctx, model.WalletMutation{
		Type:     model.TransactionRewardPrize,
		MemberID: memberID,
		Cash:     cash,
		Ticket:   ticket,
		Remark:   fmt.Sprintf("reward setting %d", settingID),
	})
	if err != nil {
		return nil, err
	}
	if _, err := f.counter.Add(ctx, rediskey.RewardPrizeTotal(settingID), cash); err != nil {
		logrus.Warnf("failed to add %d to reward total of setting %d: %v", cash, settingID, err)
	}
	return txnLog, nil
}

// RewardPrizeTotal is zero until the first reward of the setting is paid.
func (f *Fantasyee) RewardPrizeTotal(ctx context.Context, settingID int64) (int64, error) {
	return f.counter.Get(ctx, rediskey.RewardPrizeTotal(settingID))
}

// EnterGame marks the user as playing. A second entry inside the lock window
// is rejected; ExitGame releases it early.
func (f *Fantasyee) EnterGame(ctx context.Context, userID int64) error {
	err := f.marker.Guard(ctx, rediskey.GamePlayingLock(userID), f.config.Locks.GamePlaying())
	if errors.Is(err, redlock.ErrLockHeld) {
		return apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidOperation, "Game Is Playing")
	}
	return err
}

func (f *Fantasyee) ExitGame(ctx context.Context, userID int64) error {
	return f.marker.Release(ctx, rediskey.GamePlayingLock(userID))
}

// ListMembers serves the member report. Each distinct filter is cached
// under its own key for a minute.
func (f *Fantasyee) ListMembers(ctx context.Context, filter model.MemberListFilter) ([]model.Account, error) {
	key := rediskey.UserList(strconv.Itoa(int(filter.Role)), filter.Keyword, filter.SortBy, strconv.FormatBool(filter.IsDesc))
	key = fmt.Sprintf("%s:limit:%d:offset:%d", key, filter.Limit, filter.Offset)

	var members []model.Account
	found, err := f.cache.Get(ctx, key, &members)
	if err != nil {
		logrus.Warnf("member list cache read failed: %v", err)
	}
	if found {
		return members, nil
	}

	members, err = f.datasource.ListMembers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, key, members, memberListTTL); err != nil {
		logrus.Warnf("failed to cache member list: %v", err)
	}
	return members, nil
}

// GuardRequest holds the request lock for one canonical request. A second
// identical request inside the window is rejected.
func (f *Fantasyee) GuardRequest(ctx context.Context, key string) error {
	return tooFrequent(f.marker.Guard(ctx, key, f.config.Locks.Request()))
}
