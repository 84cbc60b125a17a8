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
	"time"

	"github.com/fantasyee/fantasyee/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAddressListReadThrough(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("GetAddresses", mock.Anything, model.Whitelist).Return([]string{"10.0.0.1", "10.0.0.2"}, nil).Once()

	first, err := f.Addresses().Get(ctx, model.Whitelist, false)
	require.NoError(t, err)
	second, err := f.Addresses().Get(ctx, model.Whitelist, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, second)
	ds.AssertNumberOfCalls(t, "GetAddresses", 1)
	assert.Equal(t, 300*time.Second, mr.TTL("whitelist"))
}

func TestAddressListForceRefreshAlwaysReads(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("GetAddresses", mock.Anything, model.Blacklist).Return([]string{"1.1.1.1"}, nil).Once()
	ds.On("GetAddresses", mock.Anything, model.Blacklist).Return([]string{"1.1.1.1", "2.2.2.2"}, nil).Once()

	_, err := f.Addresses().Get(ctx, model.Blacklist, false)
	require.NoError(t, err)
	got, err := f.Addresses().Get(ctx, model.Blacklist, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, got)
	ds.AssertNumberOfCalls(t, "GetAddresses", 2)
	assert.Equal(t, 600*time.Second, mr.TTL("blacklist"))
}

func TestAddressListEmptyListIsAHit(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("GetAddresses", mock.Anything, model.Blacklist).Return([]string{}, nil).Once()

	for i := 0; i < 3; i++ {
		got, err := f.Addresses().Get(ctx, model.Blacklist, false)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	ds.AssertNumberOfCalls(t, "GetAddresses", 1)

	raw, err := mr.Get("blacklist")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestAddressListMalformedEntryReloads(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("whitelist", "{not json"))
	ds.On("GetAddresses", mock.Anything, model.Whitelist).Return([]string{"10.0.0.9"}, nil).Once()

	got, err := f.Addresses().Get(ctx, model.Whitelist, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.9"}, got)

	raw, err := mr.Get("whitelist")
	require.NoError(t, err)
	assert.Equal(t, `["10.0.0.9"]`, raw)
}

func TestAddressListExpiresAfterTTL(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("GetAddresses", mock.Anything, model.Whitelist).Return([]string{"10.0.0.1"}, nil).Twice()

	_, err := f.Addresses().Get(ctx, model.Whitelist, false)
	require.NoError(t, err)
	mr.FastForward(301 * time.Second)
	_, err = f.Addresses().Get(ctx, model.Whitelist, false)
	require.NoError(t, err)

	ds.AssertNumberOfCalls(t, "GetAddresses", 2)
}

func TestAddressListContains(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ctx := context.Background()
	ds.On("GetAddresses", mock.Anything, model.Blacklist).Return([]string{"6.6.6.6"}, nil).Once()

	blocked, err := f.Addresses().Contains(ctx, model.Blacklist, "6.6.6.6", false)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = f.Addresses().Contains(ctx, model.Blacklist, "7.7.7.7", false)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestAddressListUnknownName(t *testing.T) {
	f, _, _ := newTestFantasyee(t)
	_, err := f.Addresses().Get(context.Background(), model.AddressListName("greylist"), false)
	assert.Error(t, err)
}

func TestAddAddressRebuildsCache(t *testing.T) {
	f, ds, mr := newTestFantasyee(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("whitelist", `["10.0.0.1"]`))
	ds.On("AddAddress", mock.Anything, model.Whitelist, "10.0.0.2").Return(nil).Once()
	ds.On("GetAddresses", mock.Anything, model.Whitelist).Return([]string{"10.0.0.1", "10.0.0.2"}, nil).Once()

	require.NoError(t, f.AddAddress(ctx, model.Whitelist, "10.0.0.2"))

	got, err := f.GetAddresses(ctx, model.Whitelist)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, got)
	ds.AssertExpectations(t)
}

func TestRemoveAddressPropagatesNotFound(t *testing.T) {
	f, ds, _ := newTestFantasyee(t)
	ds.On("RemoveAddress", mock.Anything, model.Blacklist, "9.9.9.9").Return(assert.AnError).Once()

	err := f.RemoveAddress(context.Background(), model.Blacklist, "9.9.9.9")
	assert.ErrorIs(t, err, assert.AnError)
	ds.AssertNotCalled(t, "GetAddresses", mock.Anything, mock.Anything)
}
