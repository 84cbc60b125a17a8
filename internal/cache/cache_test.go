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
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type displayBalance struct {
	Cash   int64
	Ticket int64
}

func newTestCache(t *testing.T) *RedisCache {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	want := displayBalance{Cash: 1200, Ticket: 3}
	require.NoError(t, c.Set(ctx, "wallet:display:42", want, 30*time.Second))

	var got displayBalance
	found, err := c.Get(ctx, "wallet:display:42", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)

	var got displayBalance
	found, err := c.Get(context.Background(), "wallet:display:404", &got)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got)
}

func TestDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "wallet:display:7", displayBalance{Cash: 5}, time.Minute))
	require.NoError(t, c.Delete(ctx, "wallet:display:7"))

	var got displayBalance
	found, err := c.Get(ctx, "wallet:display:7", &got)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, c.Delete(ctx, "wallet:display:never-set"))
}
