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

	"github.com/fantasyee/fantasyee/model"
)

// ExistsFunc reports whether a candidate number is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// NumberFunc draws a transaction number for prefix, consulting exists for
// every candidate. The datasource supplies an exists check bound to the open
// transaction so the check and the insert see the same snapshot.
type NumberFunc func(ctx context.Context, prefix model.TransactionType, exists ExistsFunc) (string, error)

// IDataSource groups the relational operations the coordination layer needs.
type IDataSource interface {
	wallet
	order
	contest
	addressList
	account
	operation
}

type wallet interface {
	GetWallet(ctx context.Context, memberID int64) (*model.Wallet, error)
	// ApplyWalletMutation applies the delta and appends its ledger rows in one transaction.
	ApplyWalletMutation(ctx context.Context, m model.WalletMutation, number NumberFunc) (*model.TransactionLog, error)
}

type order interface {
	CreateOrders(ctx context.Context, orders []model.Order) error
	OrderExists(ctx context.Context, id string) (bool, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrdersByStatus(ctx context.Context, unitID int64, status model.OrderStatus) ([]model.Order, error)
	// JoinOrder claims a PENDING placeholder and charges the entry fee in one transaction.
	JoinOrder(ctx context.Context, o model.Order, fee model.WalletMutation, number NumberFunc) (*model.TransactionLog, error)
	// SettleOrder moves an order out of from and applies payouts or refunds in one transaction.
	SettleOrder(ctx context.Context, orderID string, from, to model.OrderStatus, mutations []model.WalletMutation, number NumberFunc) ([]*model.TransactionLog, error)
}

type contest interface {
	GetContest(ctx context.Context, id int64) (*model.Contest, error)
	UpdateContestStatus(ctx context.Context, id int64, status model.ContestStatus) error
}

type addressList interface {
	GetAddresses(ctx context.Context, list model.AddressListName) ([]string, error)
	AddAddress(ctx context.Context, list model.AddressListName, address string) error
	RemoveAddress(ctx context.Context, list model.AddressListName, address string) error
}

type account interface {
	GetMemberByPhone(ctx context.Context, phone string) (*model.Account, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	UpdateLoginDetail(ctx context.Context, id int64, detail map[string]interface{}) error
	ListMembers(ctx context.Context, filter model.MemberListFilter) ([]model.Account, error)
}

type operation interface {
	RecordOperation(ctx context.Context, op model.Operation) error
	GetOperations(ctx context.Context, limit, offset int) ([]model.Operation, error)
}
