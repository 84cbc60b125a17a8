package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetContest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	openAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM fantasyee.contests WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "status", "entry_cash", "entry_ticket", "capacity", "open_at", "settle_at", "created_at"}).
			AddRow(9, "contest", 2, 100, 0, 50, openAt, nil, openAt))

	c, err := ds.GetContest(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, model.ContestActivated, c.Status)
	assert.Equal(t, 50, c.Capacity)
	require.NotNil(t, c.OpenAt)
	assert.True(t, openAt.Equal(*c.OpenAt))
	assert.Nil(t, c.SettleAt)
}

func TestUpdateContestStatus_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fantasyee.contests SET status = $1 WHERE id = $2")).
		WithArgs(int64(model.ContestCanceled), int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.UpdateContestStatus(context.Background(), 404, model.ContestCanceled)
	assert.Equal(t, apierror.ErrNotFound, err.(apierror.APIError).Code)
}

func TestRecordAndGetOperations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	now := time.Now()
	op := model.Operation{Group: model.GroupAdmin, OperatorID: 1, Method: model.MethodPost, Route: "/admin/contests/9/cancel", Payload: map[string]interface{}{"reason": "weather"}, CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fantasyee.operations")).
		WithArgs(int64(1), int64(1), int64(2), "/admin/contests/9/cancel", []byte(`{"reason":"weather"}`), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, ds.RecordOperation(context.Background(), op))

	mock.ExpectQuery(regexp.QuoteMeta("FROM fantasyee.operations ORDER BY id DESC LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group", "operator_id", "method", "route", "payload", "created_at"}).
			AddRow(1, 1, 1, 2, "/admin/contests/9/cancel", []byte(`{"reason":"weather"}`), now))

	ops, err := ds.GetOperations(context.Background(), 20, 0)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, model.MethodPost, ops[0].Method)
	assert.Equal(t, "weather", ops[0].Payload["reason"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
