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

// Package rediskey builds every key the service reads or writes. Key formats
// are shared with other consumers of the same store and must not change.
package rediskey

import (
	"fmt"
	"sort"
	"strings"
)

const (
	ActiveContestIDs = "active_contest_ids"
	ActiveDrawIDs    = "active_draw_ids"
	CancelContestIDs = "cancel_contest_ids"

	Whitelist = "whitelist"
	Blacklist = "blacklist"

	// TransactionPattern matches every transaction-family key for the startup flush.
	TransactionPattern = "*transaction*"
)

// RequestLock keys a request by caller and by the canonical form of its
// arguments so two identical submissions collide.
func RequestLock(role, userID, method, path, args, payload string) string {
	return fmt.Sprintf("role:%s:user:%s:request:%s:%s:%s:%s:lock", role, userID, method, path, args, payload)
}

// Canonical renders params as "k=v" pairs over sorted keys joined with "|".
func Canonical[V any](params map[string]V) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(pairs, "|")
}

// CanonicalQuery flattens multi-valued query params, keeping the first value
// of each key.
func CanonicalQuery(query map[string][]string) string {
	flat := make(map[string]string, len(query))
	for k, v := range query {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}
	return Canonical(flat)
}

func Wait(unitID int64) string {
	return fmt.Sprintf("%d-WAIT", unitID)
}

func Used(unitID int64) string {
	return fmt.Sprintf("%d-USED", unitID)
}

func MemberAuthLock(account string) string {
	return fmt.Sprintf("member:%s:auth_lock", account)
}

func Transaction(no string) string {
	return fmt.Sprintf("transaction:%s", no)
}

func SDKDepositLock(memberID int64) string {
	return fmt.Sprintf("%d:sdk_deposit_lock", memberID)
}

func GamePlayingLock(userID int64) string {
	return fmt.Sprintf("game:playing:user:%d:lock", userID)
}

func MemberLogin(memberID int64) string {
	return fmt.Sprintf("%d:player_login", memberID)
}

func MemberLoginRecord(date string) string {
	return fmt.Sprintf("member_login_record:date:%s", date)
}

// UserList embeds the raw query values so distinct report queries never share an entry.
func UserList(role, keyword, sortBy, isDesc string) string {
	return fmt.Sprintf("user_list:role:%s:keyword:%s:sort_by:%s:is_desc:%s", role, keyword, sortBy, isDesc)
}

func RewardPrizeTotal(settingID int64) string {
	return fmt.Sprintf("reward-prize-total:%d", settingID)
}

// WalletDisplay keys the advisory display-balance cache entry.
func WalletDisplay(memberID int64) string {
	return fmt.Sprintf("wallet:display:%d", memberID)
}
