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

	"github.com/cenkalti/backoff/v4"
	"github.com/fantasyee/fantasyee/internal/apierror"
	redlock "github.com/fantasyee/fantasyee/internal/lock"
	"github.com/fantasyee/fantasyee/internal/metrics"
	"github.com/fantasyee/fantasyee/internal/notification"
	"github.com/fantasyee/fantasyee/internal/rediskey"
	"github.com/fantasyee/fantasyee/model"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Entry is one accepted order handed to a Settler. Exactly one of Contest
// and Draw is set, matching the unit kind.
type Entry struct {
	OrderID  string
	MemberID int64
	Contest  *model.ContestRecord
	Draw     *model.DrawRecord
}

// Payout is what a settled entry pays back. A zero payout closes the order
// without touching the wallet.
type Payout struct {
	Cash   int64
	Ticket int64
	Remark string
}

func (p Payout) IsZero() bool {
	return p.Cash == 0 && p.Ticket == 0
}

// Settler decides the payout of an entry. Odds and results live outside this
// service; implementations are plugged in by the worker process.
type Settler interface {
	Payout(ctx context.Context, unit *model.Contest, entry Entry) (Payout, error)
}

// NoPayout closes every entry with nothing paid.
type NoPayout struct{}

func (NoPayout) Payout(context.Context, *model.Contest, Entry) (Payout, error) {
	return Payout{}, nil
}

// WinningsSettler pays the winnings carried by contest records, rounded down
// to whole cash. Draw entries pay nothing.
type WinningsSettler struct{}

func (WinningsSettler) Payout(_ context.Context, _ *model.Contest, entry Entry) (Payout, error) {
	if entry.Contest == nil || !entry.Contest.Winnings.IsPositive() {
		return Payout{}, nil
	}
	return Payout{
		Cash:   model.RoundDown(entry.Contest.Winnings, 0).IntPart(),
		Remark: fmt.Sprintf("winnings for order %s", entry.OrderID),
	}, nil
}

var errUnitCancelled = errors.New("unit cancelled during settlement")

// settleLockTTL bounds an order reservation left by a crashed worker. Workers
// also flush these keys at startup.
const settleLockTTL = time.Minute

// SettlementWorker consumes the signal bus and the used lists. It is the
// only writer of final order state.
type SettlementWorker struct {
	id          string
	f           *Fantasyee
	settler     Settler
	kinds       []model.UnitKind
	pollTimeout time.Duration
	recheck     time.Duration
	idlePolls   int
	now         func() time.Time
	newBackOff  func() backoff.BackOff
}

func (f *Fantasyee) NewSettlementWorker(settler Settler) *SettlementWorker {
	return &SettlementWorker{
		id:          model.GenerateUUIDWithSuffix("settlement"),
		f:           f,
		settler:     settler,
		kinds:       []model.UnitKind{model.UnitContest, model.UnitDraw},
		pollTimeout: f.config.Queue.PollTimeout(),
		recheck:     f.config.Queue.PollTimeout(),
		idlePolls:   f.config.Queue.IdlePolls,
		now:         time.Now,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
}

// Run polls until ctx is done. Errors from a single pass are reported and
// the loop carries on.
func (w *SettlementWorker) Run(ctx context.Context) error {
	logrus.Infof(" [*] Settlement worker polling every %s", w.pollTimeout)
	for {
		for _, kind := range w.kinds {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.Tick(ctx, kind); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				notification.NotifyError(fmt.Errorf("settlement pass for %s failed: %w", kind, err))
			}
		}
	}
}

// Tick reverses cancelled units, then waits for one activated unit of kind
// and drains it. A poll that times out is not an error.
func (w *SettlementWorker) Tick(ctx context.Context, kind model.UnitKind) error {
	if err := w.ProcessCancellations(ctx); err != nil {
		return err
	}

	id, ok, err := w.f.signals.NextActive(ctx, kind, w.pollTimeout)
	if err != nil {
		return err
	}
	if !ok {
		metrics.EmptyPolls.WithLabelValues("active").Inc()
		return nil
	}
	return w.processUnit(ctx, kind, id)
}

func (w *SettlementWorker) processUnit(ctx context.Context, kind model.UnitKind, unitID int64) error {
	ctx, span := tracer.Start(ctx, "Processing Unit")
	defer span.End()
	span.SetAttributes(attribute.String("unit.kind", string(kind)), attribute.Int64("unit.id", unitID))

	unit, err := w.f.datasource.GetContest(ctx, unitID)
	if err != nil {
		w.requeue(kind, unitID)
		return err
	}

	// Records stay on the used list until the unit is due, so a late
	// cancellation still finds every accepted order unsettled.
	if !w.due(unit) {
		return w.postpone(ctx, unit)
	}

	gauge := metrics.UsedBacklog.WithLabelValues(strconv.FormatInt(unitID, 10))
	idle := 0
	for idle < w.idlePolls {
		if err := ctx.Err(); err != nil {
			w.requeue(kind, unitID)
			return err
		}
		cancelled, err := w.f.signals.IsCancelled(ctx, unitID)
		if err != nil {
			w.requeue(kind, unitID)
			return err
		}
		if cancelled {
			logrus.Infof("unit %d cancelled, leaving it to the reversal pass", unitID)
			return nil
		}

		raw, ok, err := w.f.handoff.PopUsed(ctx, unitID, w.pollTimeout)
		if err != nil {
			w.requeue(kind, unitID)
			return err
		}
		if backlog, err := w.f.handoff.UsedBacklog(ctx, unitID); err == nil {
			gauge.Set(float64(backlog))
		}
		if !ok {
			idle++
			metrics.EmptyPolls.WithLabelValues("used").Inc()
			continue
		}
		idle = 0

		entry, err := parseEntry(unit.Kind, raw)
		if err != nil {
			notification.NotifyError(fmt.Errorf("dropping used record of unit %d: %w", unitID, err))
			continue
		}
		if err := w.settleEntry(ctx, unit, entry); err != nil {
			if errors.Is(err, errUnitCancelled) {
				return nil
			}
			notification.NotifyError(fmt.Errorf("failed to settle order %s: %w", entry.OrderID, err))
		}
	}

	return w.finishUnit(ctx, unit)
}

func (w *SettlementWorker) due(unit *model.Contest) bool {
	return unit.SettleAt != nil && !w.now().Before(*unit.SettleAt)
}

// postpone puts a unit that is not yet due back on the activation list and
// waits before the next poll, up to its settle time.
func (w *SettlementWorker) postpone(ctx context.Context, unit *model.Contest) error {
	if err := w.f.signals.Activate(ctx, unit.Kind, unit.ID); err != nil {
		return err
	}
	wait := w.recheck
	if unit.SettleAt != nil {
		if until := unit.SettleAt.Sub(w.now()); until < wait {
			wait = until
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// finishUnit settles any accepted order whose used record never arrived.
func (w *SettlementWorker) finishUnit(ctx context.Context, unit *model.Contest) error {
	orders, err := w.f.datasource.GetOrdersByStatus(ctx, unit.ID, model.OrderSucceed)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if err := w.settleEntry(ctx, unit, entryFromOrder(unit, o)); err != nil {
			if errors.Is(err, errUnitCancelled) {
				return nil
			}
			notification.NotifyError(fmt.Errorf("failed to settle order %s: %w", o.ID, err))
		}
	}
	logrus.Infof(" [*] Unit %d settled", unit.ID)
	return nil
}

func (w *SettlementWorker) settleEntry(ctx context.Context, unit *model.Contest, entry Entry) error {
	cancelled, err := w.f.signals.IsCancelled(ctx, unit.ID)
	if err != nil {
		return err
	}
	if cancelled {
		return errUnitCancelled
	}

	payout, err := w.settler.Payout(ctx, unit, entry)
	if err != nil {
		return err
	}
	var mutations []model.WalletMutation
	if !payout.IsZero() {
		mutations = append(mutations, model.WalletMutation{
			Type:      model.TransactionPrize,
			MemberID:  entry.MemberID,
			OrderID:   entry.OrderID,
			ContestID: unit.ID,
			Cash:      payout.Cash,
			Ticket:    payout.Ticket,
			Remark:    payout.Remark,
		})
	}

	settled, err := w.settle(ctx, entry.OrderID, model.OrderSucceed, model.OrderClosed, mutations)
	if err != nil {
		return err
	}
	if settled {
		metrics.OrdersSettled.WithLabelValues(string(unit.Kind)).Inc()
	}
	return nil
}

// ProcessCancellations refunds every accepted order of each cancelled unit,
// closes its spare placeholders and removes the unit from the cancel set.
// A unit is only removed once all of its orders are reversed.
func (w *SettlementWorker) ProcessCancellations(ctx context.Context) error {
	ids, err := w.f.signals.Cancelled(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := w.reverseUnit(ctx, id); err != nil {
			notification.NotifyError(fmt.Errorf("failed to reverse unit %d: %w", id, err))
			continue
		}
		if err := w.f.signals.Acknowledge(ctx, id); err != nil {
			return err
		}
		logrus.Infof(" [*] Unit %d reversed", id)
	}
	return nil
}

func (w *SettlementWorker) reverseUnit(ctx context.Context, unitID int64) error {
	ctx, span := tracer.Start(ctx, "Reversing Unit")
	defer span.End()
	span.SetAttributes(attribute.Int64("unit.id", unitID))

	unit, err := w.f.datasource.GetContest(ctx, unitID)
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.ErrNotFound {
			return nil
		}
		return err
	}

	accepted, err := w.f.datasource.GetOrdersByStatus(ctx, unitID, model.OrderSucceed)
	if err != nil {
		return err
	}
	for _, o := range accepted {
		var mutations []model.WalletMutation
		if unit.EntryCash != 0 || unit.EntryTicket != 0 {
			mutations = append(mutations, model.WalletMutation{
				Type:      model.TransactionRefund,
				MemberID:  o.MemberID,
				OrderID:   o.ID,
				ContestID: unitID,
				Cash:      unit.EntryCash,
				Ticket:    unit.EntryTicket,
				Remark:    fmt.Sprintf("%s %d canceled", unit.Kind, unitID),
			})
		}
		refunded, err := w.settle(ctx, o.ID, model.OrderSucceed, model.OrderCanceled, mutations)
		if err != nil {
			return err
		}
		if refunded {
			metrics.OrdersRefunded.WithLabelValues(string(unit.Kind)).Inc()
		}
	}

	spare, err := w.f.datasource.GetOrdersByStatus(ctx, unitID, model.OrderPending)
	if err != nil {
		return err
	}
	for _, o := range spare {
		if _, err := w.settle(ctx, o.ID, model.OrderPending, model.OrderCanceled, nil); err != nil {
			return err
		}
	}

	if err := w.f.redis.Del(ctx, rediskey.Wait(unitID), rediskey.Used(unitID)).Err(); err != nil {
		return err
	}
	metrics.UsedBacklog.DeleteLabelValues(strconv.FormatInt(unitID, 10))
	return nil
}

// settle reserves the order, then retries store failures with exponential
// backoff. A held reservation or a conflict means another pass is moving or
// already moved the order, so it reports false without error.
func (w *SettlementWorker) settle(ctx context.Context, orderID string, from, to model.OrderStatus, mutations []model.WalletMutation) (bool, error) {
	locker := redlock.NewLocker(w.f.redis, rediskey.Transaction(orderID), w.id)
	if err := locker.Lock(ctx, settleLockTTL); err != nil {
		if errors.Is(err, redlock.ErrLockHeld) {
			logrus.Infof("order %s is held by another settlement pass", orderID)
			return false, nil
		}
		return false, err
	}
	defer func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.Warnf("failed to release order %s: %v", orderID, err)
		}
	}()

	operation := func() error {
		_, err := w.f.ledger.Settle(ctx, orderID, from, to, mutations)
		if err == nil {
			return nil
		}
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code != apierror.ErrInternalServer {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(w.newBackOff(), ctx))
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.ErrConflict {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (w *SettlementWorker) requeue(kind model.UnitKind, unitID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.f.signals.Activate(ctx, kind, unitID); err != nil {
		notification.NotifyError(fmt.Errorf("failed to requeue unit %d: %w", unitID, err))
	}
}

func parseEntry(kind model.UnitKind, raw string) (Entry, error) {
	switch kind {
	case model.UnitContest:
		r, err := model.ParseContestRecord(raw)
		if err != nil {
			return Entry{}, err
		}
		return Entry{OrderID: r.OrderID, MemberID: r.MemberID, Contest: &r}, nil
	case model.UnitDraw:
		r, err := model.ParseDrawRecord(raw)
		if err != nil {
			return Entry{}, err
		}
		return Entry{OrderID: r.OrderID, MemberID: r.MemberID, Draw: &r}, nil
	}
	return Entry{}, fmt.Errorf("unknown unit kind: %s", kind)
}

func entryFromOrder(unit *model.Contest, o model.Order) Entry {
	entry := Entry{OrderID: o.ID, MemberID: o.MemberID}
	if unit.Kind == model.UnitDraw {
		entry.Draw = &model.DrawRecord{
			OrderID:  o.ID,
			MemberID: o.MemberID,
			Cash:     unit.EntryCash,
			Ticket:   unit.EntryTicket,
			Number:   o.Number,
			JoinedAt: o.UpdatedAt,
		}
		return entry
	}
	entry.Contest = &model.ContestRecord{
		OrderID:  o.ID,
		MemberID: o.MemberID,
		LineupID: o.LineupID,
		Cash:     unit.EntryCash,
		Winnings: decimal.Zero,
		Ticket:   unit.EntryTicket,
		BetAt:    o.UpdatedAt,
	}
	return entry
}
