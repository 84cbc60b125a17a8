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
	"testing"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createdUnit(id int64, capacity int) *model.Contest {
	return &model.Contest{ID: id, Kind: model.UnitContest, Status: model.ContestCreated, EntryCash: 100, Capacity: capacity}
}

func TestPrepareUnitCreatesPlaceholders(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()

	ds.On("GetContest", mock.Anything, int64(12)).Return(createdUnit(12, 3), nil).Once()
	ds.On("GetOrdersByStatus", mock.Anything, int64(12), model.OrderPending).Return([]model.Order{}, nil).Once()
	ds.On("OrderExists", mock.Anything, mock.Anything).Return(false, nil)
	var created []model.Order
	ds.On("CreateOrders", mock.Anything, mock.MatchedBy(func(orders []model.Order) bool {
		created = orders
		return len(orders) == 3
	})).Return(nil).Once()
	ds.On("UpdateContestStatus", mock.Anything, int64(12), model.ContestActivated).Return(nil).Once()

	require.NoError(t, f.PrepareUnit(ctx, 12))

	seen := make(map[string]bool)
	for _, o := range created {
		assert.Equal(t, model.OrderPending, o.Status)
		assert.Equal(t, int64(12), o.UnitID)
		assert.Len(t, o.ID, 7)
		assert.False(t, seen[o.ID], "duplicate placeholder %s", o.ID)
		seen[o.ID] = true
	}

	wait, err := mr.List("12-WAIT")
	require.NoError(t, err)
	assert.Len(t, wait, 3)

	active, err := mr.List("active_contest_ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"12"}, active)
	ds.AssertExpectations(t)
}

func TestPrepareUnitReusesPendingOrders(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("12-WAIT", "stale"))

	ds.On("GetContest", mock.Anything, int64(12)).Return(createdUnit(12, 2), nil).Once()
	ds.On("GetOrdersByStatus", mock.Anything, int64(12), model.OrderPending).
		Return([]model.Order{{ID: "AAAAAAA"}, {ID: "BBBBBBB"}}, nil).Once()
	ds.On("UpdateContestStatus", mock.Anything, int64(12), model.ContestActivated).Return(nil).Once()

	require.NoError(t, f.PrepareUnit(ctx, 12))

	wait, err := mr.List("12-WAIT")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAAAAA", "BBBBBBB"}, wait)
	ds.AssertNotCalled(t, "CreateOrders", mock.Anything, mock.Anything)
}

func TestPrepareUnitAlreadyActivated(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	unit := createdUnit(12, 2)
	unit.Status = model.ContestActivated
	ds.On("GetContest", mock.Anything, int64(12)).Return(unit, nil).Once()

	require.NoError(t, f.PrepareUnit(context.Background(), 12))
	assert.False(t, mr.Exists("active_contest_ids"))
	ds.AssertNotCalled(t, "GetOrdersByStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPrepareUnitCanceled(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	unit := createdUnit(12, 2)
	unit.Status = model.ContestCanceled
	ds.On("GetContest", mock.Anything, int64(12)).Return(unit, nil).Once()

	err := f.PrepareUnit(context.Background(), 12)
	requireBusiness(t, err, apierror.ErrValidation, apierror.InvalidOperation)
}

func TestPrepareUnitWithoutCapacity(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ds.On("GetContest", mock.Anything, int64(12)).Return(createdUnit(12, 0), nil).Once()
	ds.On("GetOrdersByStatus", mock.Anything, int64(12), model.OrderPending).Return(nil, nil).Once()

	err := f.PrepareUnit(context.Background(), 12)
	var apiErr apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)
}

func TestSchedulePreparationRequiresCreatedUnit(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	unit := createdUnit(12, 2)
	unit.Status = model.ContestActivated
	ds.On("GetContest", mock.Anything, int64(12)).Return(unit, nil).Once()

	err := f.SchedulePreparation(context.Background(), 12)
	apiErr := requireBusiness(t, err, apierror.ErrValidation, apierror.InvalidOperation)
	assert.Contains(t, apiErr.Message, "ACTIVATED")
}

func TestCancelUnitSignalsReversal(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ds.On("GetContest", mock.Anything, int64(12)).Return(createdUnit(12, 2), nil).Once()
	ds.On("UpdateContestStatus", mock.Anything, int64(12), model.ContestCanceled).Return(nil).Once()

	require.NoError(t, f.CancelUnit(context.Background(), 12))

	members, err := mr.Members("cancel_contest_ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"12"}, members)
	ds.AssertExpectations(t)
}

func TestCancelUnitTwiceKeepsStatus(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	unit := createdUnit(12, 2)
	unit.Status = model.ContestCanceled
	ds.On("GetContest", mock.Anything, int64(12)).Return(unit, nil).Once()

	require.NoError(t, f.CancelUnit(context.Background(), 12))
	ds.AssertNotCalled(t, "UpdateContestStatus", mock.Anything, mock.Anything, mock.Anything)
}
