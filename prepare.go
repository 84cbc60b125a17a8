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
	"fmt"
	"time"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/internal/rediskey"
	"github.com/fantasyee/fantasyee/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// SchedulePreparation queues a created unit for preparation at its open time.
func (f *Fantasyee) SchedulePreparation(ctx context.Context, unitID int64) error {
	unit, err := f.datasource.GetContest(ctx, unitID)
	if err != nil {
		return err
	}
	if unit.Status != model.ContestCreated {
		return apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidOperation, fmt.Sprintf("%s %d is %s", unit.Kind, unitID, unit.Status.Name()))
	}

	var openAt time.Time
	if unit.OpenAt != nil {
		openAt = *unit.OpenAt
	}
	return f.queue.EnqueuePreparation(ctx, unitID, openAt)
}

// PrepareUnit creates one PENDING placeholder order per seat, loads them
// onto the wait list, marks the unit activated and signals the settlement
// worker. A retry after a partial run reuses the placeholders already in the
// orders table.
func (f *Fantasyee) PrepareUnit(ctx context.Context, unitID int64) error {
	ctx, span := tracer.Start(ctx, "Preparing Unit")
	defer span.End()
	span.SetAttributes(attribute.Int64("unit.id", unitID))

	unit, err := f.datasource.GetContest(ctx, unitID)
	if err != nil {
		return err
	}
	switch unit.Status {
	case model.ContestActivated:
		logrus.Infof("unit %d already activated, skipping preparation", unitID)
		return nil
	case model.ContestCanceled:
		return apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidOperation, fmt.Sprintf("%s %d has been canceled", unit.Kind, unitID))
	}

	pending, err := f.datasource.GetOrdersByStatus(ctx, unitID, model.OrderPending)
	if err != nil {
		return err
	}
	ids := make([]string, 0, unit.Capacity)
	for _, o := range pending {
		ids = append(ids, o.ID)
	}
	if len(ids) == 0 {
		if ids, err = f.createPlaceholders(ctx, unit); err != nil {
			return err
		}
	}

	if err := f.redis.Del(ctx, rediskey.Wait(unitID)).Err(); err != nil {
		return err
	}
	if err := f.handoff.LoadPlaceholders(ctx, unitID, ids); err != nil {
		return err
	}
	if err := f.datasource.UpdateContestStatus(ctx, unitID, model.ContestActivated); err != nil {
		return err
	}
	if err := f.signals.Activate(ctx, unit.Kind, unitID); err != nil {
		return err
	}
	logrus.Infof(" [*] Unit %d activated with %d placeholders", unitID, len(ids))
	return nil
}

func (f *Fantasyee) createPlaceholders(ctx context.Context, unit *model.Contest) ([]string, error) {
	if unit.Capacity <= 0 {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("%s %d has no capacity", unit.Kind, unit.ID), nil)
	}

	drawn := make(map[string]struct{}, unit.Capacity)
	exists := func(ctx context.Context, candidate string) (bool, error) {
		if _, ok := drawn[candidate]; ok {
			return true, nil
		}
		return f.datasource.OrderExists(ctx, candidate)
	}

	ids := make([]string, 0, unit.Capacity)
	orders := make([]model.Order, 0, unit.Capacity)
	for i := 0; i < unit.Capacity; i++ {
		id, err := f.sequence.OrderID(ctx, exists)
		if err != nil {
			return nil, err
		}
		drawn[id] = struct{}{}
		ids = append(ids, id)
		orders = append(orders, model.Order{ID: id, Kind: unit.Kind, UnitID: unit.ID, Status: model.OrderPending})
	}

	if err := f.datasource.CreateOrders(ctx, orders); err != nil {
		return nil, err
	}
	return ids, nil
}

// CancelUnit marks the unit canceled and adds it to the cancel set. The
// settlement worker refunds its orders.
func (f *Fantasyee) CancelUnit(ctx context.Context, unitID int64) error {
	unit, err := f.datasource.GetContest(ctx, unitID)
	if err != nil {
		return err
	}
	if unit.Status != model.ContestCanceled {
		if err := f.datasource.UpdateContestStatus(ctx, unitID, model.ContestCanceled); err != nil {
			return err
		}
	}
	if err := f.queue.CancelPreparation(unitID); err != nil {
		logrus.Warnf("failed to drop preparation task of unit %d: %v", unitID, err)
	}
	return f.signals.Cancel(ctx, unitID)
}
