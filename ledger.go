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
	"time"

	"github.com/fantasyee/fantasyee/database"
	"github.com/fantasyee/fantasyee/internal/cache"
	"github.com/fantasyee/fantasyee/internal/rediskey"
	"github.com/fantasyee/fantasyee/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const displayBalanceTTL = 30 * time.Second

// LedgerWriter is the only path that changes a wallet. Every call draws its
// transaction numbers, applies the deltas and appends the ledger rows in a
// single database transaction; afterwards the display cache for the wallet
// is dropped.
type LedgerWriter struct {
	datasource database.IDataSource
	sequence   *SequenceGenerator
	cache      cache.Cache
}

func NewLedgerWriter(datasource database.IDataSource, sequence *SequenceGenerator, cache cache.Cache) *LedgerWriter {
	return &LedgerWriter{datasource: datasource, sequence: sequence, cache: cache}
}

// Apply writes one standalone mutation, e.g. a deposit or a reward.
func (l *LedgerWriter) Apply(ctx context.Context, m model.WalletMutation) (*model.TransactionLog, error) {
	ctx, span := tracer.Start(ctx, "Applying Wallet Mutation")
	defer span.End()
	span.SetAttributes(
		attribute.String("transaction.type", string(m.Type)),
		attribute.Int64("member.id", m.MemberID),
	)

	txnLog, err := l.datasource.ApplyWalletMutation(ctx, m, l.sequence.TransactionNo)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	l.invalidate(ctx, m.MemberID)
	return txnLog, nil
}

// Join claims a placeholder order and charges its fee together.
func (l *LedgerWriter) Join(ctx context.Context, o model.Order, fee model.WalletMutation) (*model.TransactionLog, error) {
	ctx, span := tracer.Start(ctx, "Joining Order")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", o.ID), attribute.Int64("member.id", o.MemberID))

	txnLog, err := l.datasource.JoinOrder(ctx, o, fee, l.sequence.TransactionNo)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if txnLog != nil {
		l.invalidate(ctx, o.MemberID)
	}
	return txnLog, nil
}

// Settle moves an order between statuses and writes its payouts or refunds.
func (l *LedgerWriter) Settle(ctx context.Context, orderID string, from, to model.OrderStatus, mutations []model.WalletMutation) ([]*model.TransactionLog, error) {
	ctx, span := tracer.Start(ctx, "Settling Order")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", to.Name()),
		attribute.Int("mutations", len(mutations)),
	)

	logs, err := l.datasource.SettleOrder(ctx, orderID, from, to, mutations, l.sequence.TransactionNo)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, txnLog := range logs {
		l.invalidate(ctx, txnLog.MemberID)
	}
	return logs, nil
}

func (l *LedgerWriter) invalidate(ctx context.Context, memberID int64) {
	if err := l.cache.Delete(ctx, rediskey.WalletDisplay(memberID)); err != nil {
		logrus.Warnf("failed to drop display balance for member %d: %v", memberID, err)
	}
}

// GetWallet serves the display balance through the cache. It must not feed
// any mutation; those read the wallet row under lock.
func (f *Fantasyee) GetWallet(ctx context.Context, memberID int64) (*model.Wallet, error) {
	key := rediskey.WalletDisplay(memberID)
	var wallet model.Wallet
	found, err := f.cache.Get(ctx, key, &wallet)
	if err != nil {
		logrus.Warnf("display balance cache read failed for member %d: %v", memberID, err)
	}
	if found {
		return &wallet, nil
	}

	w, err := f.datasource.GetWallet(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, key, w, displayBalanceTTL); err != nil {
		logrus.Warnf("failed to cache display balance for member %d: %v", memberID, err)
	}
	return w, nil
}
