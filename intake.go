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
	"time"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/internal/notification"
	"github.com/fantasyee/fantasyee/model"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// JoinContest enters a member into a contest with the given lineup.
func (f *Fantasyee) JoinContest(ctx context.Context, memberID, contestID, lineupID int64) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "Joining Contest")
	defer span.End()

	contest, err := f.openUnit(ctx, contestID, model.UnitContest)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	order := model.Order{
		Kind:     model.UnitContest,
		UnitID:   contest.ID,
		MemberID: memberID,
		LineupID: lineupID,
		Status:   model.OrderSucceed,
	}
	return f.join(ctx, contest, order, "", func(o model.Order, at time.Time) model.UsedRecord {
		return model.ContestRecord{
			OrderID:  o.ID,
			MemberID: o.MemberID,
			LineupID: o.LineupID,
			Cash:     contest.EntryCash,
			Winnings: decimal.Zero,
			Ticket:   contest.EntryTicket,
			BetAt:    at,
		}
	})
}

// JoinDraw enters a member into a draw with a chosen number.
func (f *Fantasyee) JoinDraw(ctx context.Context, memberID, drawID int64, number, remark string) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "Joining Draw")
	defer span.End()

	draw, err := f.openUnit(ctx, drawID, model.UnitDraw)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	order := model.Order{
		Kind:     model.UnitDraw,
		UnitID:   draw.ID,
		MemberID: memberID,
		Number:   number,
		Status:   model.OrderSucceed,
	}
	return f.join(ctx, draw, order, remark, func(o model.Order, at time.Time) model.UsedRecord {
		return model.DrawRecord{
			OrderID:  o.ID,
			MemberID: o.MemberID,
			Cash:     draw.EntryCash,
			Ticket:   draw.EntryTicket,
			Number:   o.Number,
			JoinedAt: at,
			Remark:   remark,
		}
	})
}

// openUnit loads the unit and rejects it unless it is activated and not in
// the cancel set.
func (f *Fantasyee) openUnit(ctx context.Context, id int64, kind model.UnitKind) (*model.Contest, error) {
	unit, err := f.datasource.GetContest(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit.Kind != kind {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("%s %d not found", kind, id), nil)
	}

	cancelled, err := f.signals.IsCancelled(ctx, id)
	if err != nil {
		return nil, err
	}
	if cancelled || unit.Status == model.ContestCanceled {
		return nil, apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidOperation, fmt.Sprintf("%s %d has been canceled", kind, id))
	}
	if unit.Status != model.ContestActivated {
		return nil, apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidOperation, fmt.Sprintf("%s %d is not open", kind, id))
	}
	if unit.SettleAt != nil && !time.Now().Before(*unit.SettleAt) {
		return nil, apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidOperation, fmt.Sprintf("%s %d is closed", kind, id))
	}
	return unit, nil
}

func (f *Fantasyee) join(ctx context.Context, unit *model.Contest, order model.Order, remark string, record func(model.Order, time.Time) model.UsedRecord) (*model.Order, error) {
	id, ok, err := f.handoff.ReservePlaceholder(ctx, unit.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidOperation, fmt.Sprintf("%s %d is full", unit.Kind, unit.ID))
	}
	order.ID = id

	if remark == "" {
		remark = fmt.Sprintf("%s %d entry fee", unit.Kind, unit.ID)
	}
	fee := model.WalletMutation{
		Type:      model.TransactionFee,
		MemberID:  order.MemberID,
		OrderID:   order.ID,
		ContestID: unit.ID,
		Cash:      -unit.EntryCash,
		Ticket:    -unit.EntryTicket,
		Remark:    remark,
	}
	if _, err := f.ledger.Join(ctx, order, fee); err != nil {
		var apiErr apierror.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != apierror.ErrConflict {
			if pushErr := f.handoff.ReturnPlaceholder(ctx, unit.ID, id); pushErr != nil {
				logrus.Errorf("failed to return placeholder %s to %s %d: %v", id, unit.Kind, unit.ID, pushErr)
			}
		}
		return nil, err
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if err := f.handoff.PushUsed(ctx, unit.ID, record(order, now)); err != nil {
		// The entry is committed; settlement falls back to the orders table.
		notification.NotifyError(fmt.Errorf("failed to hand off order %s of %s %d: %w", order.ID, unit.Kind, unit.ID, err))
	}
	return &order, nil
}
