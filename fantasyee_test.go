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
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fantasyee/fantasyee/config"
	"github.com/fantasyee/fantasyee/database/mocks"
	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFantasyee(t *testing.T) (*Fantasyee, *mocks.MockDataSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	config.MockConfig(&config.Configuration{
		Environment: config.Release,
		DataSource:  config.DataSourceConfig{Dns: "postgres://localhost:5432/fantasyee?sslmode=disable"},
		Redis:       config.RedisConfig{Dns: mr.Addr()},
		Server:      config.ServerConfig{JWTSecret: "test-secret"},
		Queue:       config.QueueConfig{PollTimeoutSec: 1, IdlePolls: 1},
	})

	ds := &mocks.MockDataSource{}
	f, err := NewFantasyee(ds)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = f.Close()
	})
	return f, ds, mr
}

// requireBusiness asserts err is an APIError with the given kind and business code.
func requireBusiness(t *testing.T, err error, code apierror.ErrorCode, business apierror.BusinessCode) apierror.APIError {
	t.Helper()
	require.Error(t, err)
	var apiErr apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T: %v", err, err)
	assert.Equal(t, code, apiErr.Code)
	assert.Equal(t, business, apiErr.Business)
	return apiErr
}

func TestNewFantasyee(t *testing.T) {
	f, _, mr := newTestFantasyee(t)

	assert.NotNil(t, f.Redis())
	assert.Equal(t, mr.Addr(), f.Config().Redis.Dns)
	assert.Equal(t, 300, f.Config().AddressList.WhitelistTTLSec)
	assert.NotNil(t, f.Ledger())
	assert.NotNil(t, f.Handoff())
	assert.NotNil(t, f.Signals())
	assert.NotNil(t, f.Addresses())
	assert.NotNil(t, f.Recorder())
	assert.NotNil(t, f.Queue())
	assert.NotNil(t, f.Marker())
}

func TestSQLFilesEmbedded(t *testing.T) {
	entries, err := SQLFiles.ReadDir("sql")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
