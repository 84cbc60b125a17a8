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

	"github.com/alicebob/miniredis/v2"
	"github.com/fantasyee/fantasyee/model"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandoff(t *testing.T) (*OrderHandoffQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewOrderHandoffQueue(client), mr
}

func TestWaitChannelIsAStack(t *testing.T) {
	q, mr := newHandoff(t)
	ctx := context.Background()

	require.NoError(t, q.LoadPlaceholders(ctx, 17, []string{"a", "b", "c"}))
	stored, err := mr.List("17-WAIT")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, stored)

	var got []string
	for i := 0; i < 3; i++ {
		id, ok, err := q.ReservePlaceholder(ctx, 17)
		require.NoError(t, err)
		require.True(t, ok)
		got = append(got, id)
	}
	assert.Equal(t, []string{"c", "b", "a"}, got)

	_, ok, err := q.ReservePlaceholder(ctx, 17)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReturnPlaceholderIsNextOut(t *testing.T) {
	q, _ := newHandoff(t)
	ctx := context.Background()

	require.NoError(t, q.LoadPlaceholders(ctx, 3, []string{"a", "b"}))
	id, _, err := q.ReservePlaceholder(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, q.ReturnPlaceholder(ctx, 3, id))

	n, err := q.Placeholders(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	again, _, err := q.ReservePlaceholder(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestLoadPlaceholdersEmptyBatch(t *testing.T) {
	q, mr := newHandoff(t)
	require.NoError(t, q.LoadPlaceholders(context.Background(), 4, nil))
	assert.False(t, mr.Exists("4-WAIT"))
}

func TestUsedChannelPopsNewestFirst(t *testing.T) {
	q, _ := newHandoff(t)
	ctx := context.Background()
	at := time.Unix(1704067200, 0)

	records := []model.ContestRecord{
		{OrderID: "R1", MemberID: 1, LineupID: 10, Cash: 100, Winnings: decimal.Zero, BetAt: at},
		{OrderID: "R2", MemberID: 2, LineupID: 20, Cash: 100, Winnings: decimal.Zero, BetAt: at},
		{OrderID: "R3", MemberID: 3, LineupID: 30, Cash: 100, Winnings: decimal.Zero, BetAt: at},
	}
	for _, r := range records {
		require.NoError(t, q.PushUsed(ctx, 9, r))
	}

	backlog, err := q.UsedBacklog(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(3), backlog)

	pending, err := q.PendingUsed(ctx, 9)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "R3:3:30:100:0:0:0:1704067200", pending[0])

	var got []string
	for i := 0; i < 3; i++ {
		raw, ok, err := q.PopUsed(ctx, 9, time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		r, err := model.ParseContestRecord(raw)
		require.NoError(t, err)
		got = append(got, r.OrderID)
	}
	assert.Equal(t, []string{"R3", "R2", "R1"}, got)
}

func TestPopUsedTimeoutIsNotAnError(t *testing.T) {
	q, _ := newHandoff(t)

	raw, ok, err := q.PopUsed(context.Background(), 5, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, raw)
}

func TestPushUsedRejectsMalformedRecord(t *testing.T) {
	q, mr := newHandoff(t)

	err := q.PushUsed(context.Background(), 6, model.DrawRecord{OrderID: "A:B", Number: "7"})
	assert.ErrorIs(t, err, model.ErrMalformedRecord)
	assert.False(t, mr.Exists("6-USED"))
}
