package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAddresses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT address FROM fantasyee.blacklist ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"address"}).AddRow("10.0.0.1").AddRow("10.0.0.2"))

	got, err := ds.GetAddresses(context.Background(), model.Blacklist)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, got)
}

func TestGetAddresses_EmptyIsNotNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT address FROM fantasyee.whitelist")).
		WillReturnRows(sqlmock.NewRows([]string{"address"}))

	got, err := ds.GetAddresses(context.Background(), model.Whitelist)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetAddresses_UnknownList(t *testing.T) {
	ds := Datasource{}
	_, err := ds.GetAddresses(context.Background(), model.AddressListName("greylist"))
	assert.EqualError(t, err, "INVALID_INPUT: unknown address list: greylist")
}

func TestAddAddress_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fantasyee.whitelist (address) VALUES ($1)")).
		WithArgs("10.0.0.1").
		WillReturnError(&pq.Error{Code: "23505", Message: "unique_violation"})

	err = ds.AddAddress(context.Background(), model.Whitelist, "10.0.0.1")
	assert.Equal(t, apierror.ErrConflict, err.(apierror.APIError).Code)
}

func TestRemoveAddress_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ds := Datasource{Conn: db}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fantasyee.blacklist WHERE address = $1")).
		WithArgs("10.0.0.9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = ds.RemoveAddress(context.Background(), model.Blacklist, "10.0.0.9")
	assert.Equal(t, apierror.ErrNotFound, err.(apierror.APIError).Code)
}
