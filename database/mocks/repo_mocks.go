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
package mocks

import (
	"context"

	"github.com/fantasyee/fantasyee/database"
	"github.com/fantasyee/fantasyee/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

var _ database.IDataSource = (*MockDataSource)(nil)

// Wallet methods

func (m *MockDataSource) GetWallet(ctx context.Context, memberID int64) (*model.Wallet, error) {
	args := m.Called(ctx, memberID)
	w, _ := args.Get(0).(*model.Wallet)
	return w, args.Error(1)
}

func (m *MockDataSource) ApplyWalletMutation(ctx context.Context, mut model.WalletMutation, number database.NumberFunc) (*model.TransactionLog, error) {
	args := m.Called(ctx, mut, number)
	l, _ := args.Get(0).(*model.TransactionLog)
	return l, args.Error(1)
}

// Order methods

func (m *MockDataSource) CreateOrders(ctx context.Context, orders []model.Order) error {
	args := m.Called(ctx, orders)
	return args.Error(0)
}

func (m *MockDataSource) OrderExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func (m *MockDataSource) GetOrdersByStatus(ctx context.Context, unitID int64, status model.OrderStatus) ([]model.Order, error) {
	args := m.Called(ctx, unitID, status)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *MockDataSource) JoinOrder(ctx context.Context, o model.Order, fee model.WalletMutation, number database.NumberFunc) (*model.TransactionLog, error) {
	args := m.Called(ctx, o, fee, number)
	l, _ := args.Get(0).(*model.TransactionLog)
	return l, args.Error(1)
}

func (m *MockDataSource) SettleOrder(ctx context.Context, orderID string, from, to model.OrderStatus, mutations []model.WalletMutation, number database.NumberFunc) ([]*model.TransactionLog, error) {
	args := m.Called(ctx, orderID, from, to, mutations, number)
	logs, _ := args.Get(0).([]*model.TransactionLog)
	return logs, args.Error(1)
}

// Contest methods

func (m *MockDataSource) GetContest(ctx context.Context, id int64) (*model.Contest, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*model.Contest)
	return c, args.Error(1)
}

func (m *MockDataSource) UpdateContestStatus(ctx context.Context, id int64, status model.ContestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// Address list methods

func (m *MockDataSource) GetAddresses(ctx context.Context, list model.AddressListName) ([]string, error) {
	args := m.Called(ctx, list)
	addresses, _ := args.Get(0).([]string)
	return addresses, args.Error(1)
}

func (m *MockDataSource) AddAddress(ctx context.Context, list model.AddressListName, address string) error {
	args := m.Called(ctx, list, address)
	return args.Error(0)
}

func (m *MockDataSource) RemoveAddress(ctx context.Context, list model.AddressListName, address string) error {
	args := m.Called(ctx, list, address)
	return args.Error(0)
}

// Account methods

func (m *MockDataSource) GetMemberByPhone(ctx context.Context, phone string) (*model.Account, error) {
	args := m.Called(ctx, phone)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *MockDataSource) GetAdminByUsername(ctx context.Context, username string) (*model.Account, error) {
	args := m.Called(ctx, username)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *MockDataSource) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *MockDataSource) UpdateLoginDetail(ctx context.Context, id int64, detail map[string]interface{}) error {
	args := m.Called(ctx, id, detail)
	return args.Error(0)
}

func (m *MockDataSource) ListMembers(ctx context.Context, filter model.MemberListFilter) ([]model.Account, error) {
	args := m.Called(ctx, filter)
	accounts, _ := args.Get(0).([]model.Account)
	return accounts, args.Error(1)
}

// Operation methods

func (m *MockDataSource) RecordOperation(ctx context.Context, op model.Operation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockDataSource) GetOperations(ctx context.Context, limit, offset int) ([]model.Operation, error) {
	args := m.Called(ctx, limit, offset)
	ops, _ := args.Get(0).([]model.Operation)
	return ops, args.Error(1)
}
