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
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateUUIDWithSuffix generates a UUID prefixed with the module name, e.g. "loc_<uuid>".
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// RoundDown truncates d to the given number of decimal places. Report figures
// use two places, display figures use zero.
func RoundDown(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Truncate(places)
}

// Wallet holds a member's spendable balances. Cash and Ticket are whole units.
type Wallet struct {
	MemberID  int64     `json:"member_id"`
	Cash      int64     `json:"cash"`
	Ticket    int64     `json:"ticket"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Contest struct {
	ID          int64         `json:"id"`
	Kind        UnitKind      `json:"kind"`
	Status      ContestStatus `json:"status"`
	EntryCash   int64         `json:"entry_cash"`
	EntryTicket int64         `json:"entry_ticket"`
	Capacity    int           `json:"capacity"`
	OpenAt      *time.Time    `json:"open_at,omitempty"`
	SettleAt    *time.Time    `json:"settle_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Order is a single entry into a unit. Orders are created as PENDING
// placeholders before the unit opens and are claimed by members on join.
type Order struct {
	ID        string      `json:"id"`
	Kind      UnitKind    `json:"kind"`
	UnitID    int64       `json:"unit_id"`
	MemberID  int64       `json:"member_id,omitempty"`
	LineupID  int64       `json:"lineup_id,omitempty"`
	Number    string      `json:"number,omitempty"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type AddressListName string

const (
	Whitelist AddressListName = "whitelist"
	Blacklist AddressListName = "blacklist"
)

func (n AddressListName) Valid() bool {
	return n == Whitelist || n == Blacklist
}

// Account is either an admin or a member, told apart by Group.
type Account struct {
	ID           int64                  `json:"id"`
	Group        GroupType              `json:"group"`
	Username     string                 `json:"username"`
	Phone        string                 `json:"phone,omitempty"`
	Email        string                 `json:"email,omitempty"`
	PasswordHash string                 `json:"-"`
	Role         RoleType               `json:"role"`
	IsBlocked    bool                   `json:"is_blocked"`
	LatestLogin  map[string]interface{} `json:"latest_login_info,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type MemberListFilter struct {
	Role    RoleType `json:"role"`
	Keyword string   `json:"keyword"`
	SortBy  string   `json:"sort_by"`
	IsDesc  bool     `json:"is_desc"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// Operation is an audit row for one authenticated request.
type Operation struct {
	ID         int64                  `json:"id"`
	Group      GroupType              `json:"group"`
	OperatorID int64                  `json:"operator_id"`
	Method     MethodType             `json:"method"`
	Route      string                 `json:"route"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}
