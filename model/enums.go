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

package model

import (
	"fmt"
	"strings"
)

// enumTable is a name <-> value lookup built once at package init.
type enumTable[T comparable] struct {
	kind   string
	names  map[T]string
	values map[string]T
}

func newEnumTable[T comparable](kind string, names map[T]string) enumTable[T] {
	values := make(map[string]T, len(names))
	for v, n := range names {
		values[n] = v
	}
	return enumTable[T]{kind: kind, names: names, values: values}
}

func (e enumTable[T]) name(v T) string {
	return e.names[v]
}

func (e enumTable[T]) valid(v T) bool {
	_, ok := e.names[v]
	return ok
}

// parse accepts "NORTH_AMERICA", "north america" or "North America".
func (e enumTable[T]) parse(name string) (T, error) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	v, ok := e.values[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("invalid type of %s: %s", e.kind, name)
	}
	return v, nil
}

// TitleName turns an enum constant name into its display form, e.g. NOT_STARTED -> Not Started.
func TitleName(name string) string {
	words := strings.Split(strings.ToLower(name), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type RoleType int

const (
	RoleOwner      RoleType = 11
	RoleMaintainer RoleType = 12
	RoleMerchant   RoleType = 13
	RoleMember     RoleType = 21
)

var roleTypes = newEnumTable("RoleType", map[RoleType]string{
	RoleOwner:      "OWNER",
	RoleMaintainer: "MAINTAINER",
	RoleMerchant:   "MERCHANT",
	RoleMember:     "MEMBER",
})

func (r RoleType) Name() string { return roleTypes.name(r) }
func (r RoleType) Valid() bool  { return roleTypes.valid(r) }

func ParseRoleType(name string) (RoleType, error) { return roleTypes.parse(name) }

// Group returns the group the role belongs to, or zero for unknown roles.
func (r RoleType) Group() GroupType {
	for _, g := range []GroupType{GroupAdmin, GroupUser} {
		if g.Contains(r) {
			return g
		}
	}
	return 0
}

type GroupType int

const (
	GroupAdmin GroupType = 1
	GroupUser  GroupType = 2
)

var groupTypes = newEnumTable("GroupType", map[GroupType]string{
	GroupAdmin: "ADMIN",
	GroupUser:  "USER",
})

var groupRoles = map[GroupType][]RoleType{
	GroupAdmin: {RoleOwner, RoleMaintainer, RoleMerchant},
	GroupUser:  {RoleMember},
}

func (g GroupType) Name() string { return groupTypes.name(g) }
func (g GroupType) Valid() bool  { return groupTypes.valid(g) }

func ParseGroupType(name string) (GroupType, error) { return groupTypes.parse(name) }

// Roles lists the roles that make up the group.
func (g GroupType) Roles() ([]RoleType, error) {
	roles, ok := groupRoles[g]
	if !ok {
		return nil, fmt.Errorf("invalid type of group: %d", g)
	}
	return append([]RoleType(nil), roles...), nil
}

func (g GroupType) Contains(r RoleType) bool {
	for _, role := range groupRoles[g] {
		if role == r {
			return true
		}
	}
	return false
}

type MethodType int

const (
	MethodGet    MethodType = 1
	MethodPost   MethodType = 2
	MethodPut    MethodType = 3
	MethodDelete MethodType = 4
)

var methodTypes = newEnumTable("MethodType", map[MethodType]string{
	MethodGet:    "GET",
	MethodPost:   "POST",
	MethodPut:    "PUT",
	MethodDelete: "DELETE",
})

func (m MethodType) Name() string { return methodTypes.name(m) }
func (m MethodType) Valid() bool  { return methodTypes.valid(m) }

func ParseMethodType(name string) (MethodType, error) { return methodTypes.parse(name) }

type OrderStatus int

const (
	OrderPending  OrderStatus = 11
	OrderSucceed  OrderStatus = 1
	OrderClosed   OrderStatus = 2
	OrderCanceled OrderStatus = 3
)

var orderStatuses = newEnumTable("OrderStatus", map[OrderStatus]string{
	OrderPending:  "PENDING",
	OrderSucceed:  "SUCCEED",
	OrderClosed:   "CLOSED",
	OrderCanceled: "CANCELED",
})

func (s OrderStatus) Name() string { return orderStatuses.name(s) }
func (s OrderStatus) Valid() bool  { return orderStatuses.valid(s) }

func ParseOrderStatus(name string) (OrderStatus, error) { return orderStatuses.parse(name) }

type ContestStatus int

const (
	ContestCreated   ContestStatus = 1
	ContestActivated ContestStatus = 2
	ContestCanceled  ContestStatus = 3
)

var contestStatuses = newEnumTable("ContestStatus", map[ContestStatus]string{
	ContestCreated:   "CREATED",
	ContestActivated: "ACTIVATED",
	ContestCanceled:  "CANCELED",
})

func (s ContestStatus) Name() string { return contestStatuses.name(s) }
func (s ContestStatus) Valid() bool  { return contestStatuses.valid(s) }

func ParseContestStatus(name string) (ContestStatus, error) { return contestStatuses.parse(name) }

// TransactionType is the number prefix of a member transaction. Every type owns
// its own ledger table, and numbers are unique within that table.
type TransactionType string

const (
	TransactionFee         TransactionType = "MBFE"
	TransactionPrize       TransactionType = "MBPZ"
	TransactionDeposit     TransactionType = "MBDP"
	TransactionRefund      TransactionType = "MBRF"
	TransactionTaskPrize   TransactionType = "TKPZ"
	TransactionRewardPrize TransactionType = "RWPZ"
)

var transactionTypes = newEnumTable("TransactionType", map[TransactionType]string{
	TransactionFee:         "FEE",
	TransactionPrize:       "PRIZE",
	TransactionDeposit:     "DEPOSIT",
	TransactionRefund:      "REFUND",
	TransactionTaskPrize:   "TASK_PRIZE",
	TransactionRewardPrize: "REWARD_PRIZE",
})

var transactionTables = map[TransactionType]string{
	TransactionFee:         "member_fee_transactions",
	TransactionPrize:       "member_prize_transactions",
	TransactionDeposit:     "member_deposit_transactions",
	TransactionRefund:      "member_refund_transactions",
	TransactionTaskPrize:   "member_task_prize_transactions",
	TransactionRewardPrize: "member_reward_prize_transactions",
}

func (t TransactionType) Name() string { return transactionTypes.name(t) }
func (t TransactionType) Valid() bool  { return transactionTypes.valid(t) }

func ParseTransactionType(name string) (TransactionType, error) { return transactionTypes.parse(name) }

// Table returns the ledger table that owns numbers with this prefix.
func (t TransactionType) Table() (string, error) {
	table, ok := transactionTables[t]
	if !ok {
		return "", fmt.Errorf("transaction type not found: %s", string(t))
	}
	return table, nil
}

// UnitKind tells contests and draws apart. Both settle through the same
// wait/used channel pair but carry different used-record layouts.
type UnitKind string

const (
	UnitContest UnitKind = "contest"
	UnitDraw    UnitKind = "draw"
)

func (k UnitKind) Valid() bool {
	return k == UnitContest || k == UnitDraw
}
