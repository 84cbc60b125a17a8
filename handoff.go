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
	"time"

	"github.com/fantasyee/fantasyee/internal/rediskey"
	"github.com/fantasyee/fantasyee/model"
	"github.com/redis/go-redis/v9"
)

// OrderHandoffQueue is the pair of lists between intake and settlement for
// one unit. The wait list is a stack of spare order ids; the used list
// carries accepted orders to the settlement worker.
type OrderHandoffQueue struct {
	client redis.UniversalClient
}

func NewOrderHandoffQueue(client redis.UniversalClient) *OrderHandoffQueue {
	return &OrderHandoffQueue{client: client}
}

// LoadPlaceholders appends ids to the tail of the wait list.
func (q *OrderHandoffQueue) LoadPlaceholders(ctx context.Context, unitID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return q.client.RPush(ctx, rediskey.Wait(unitID), values...).Err()
}

// ReservePlaceholder pops from the tail of the wait list, so the most
// recently loaded id is handed out first. It never blocks; ok is false when
// the unit has no spare ids left.
func (q *OrderHandoffQueue) ReservePlaceholder(ctx context.Context, unitID int64) (id string, ok bool, err error) {
	id, err = q.client.RPop(ctx, rediskey.Wait(unitID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// ReturnPlaceholder puts back an id whose join failed before commit.
func (q *OrderHandoffQueue) ReturnPlaceholder(ctx context.Context, unitID int64, id string) error {
	return q.client.RPush(ctx, rediskey.Wait(unitID), id).Err()
}

func (q *OrderHandoffQueue) Placeholders(ctx context.Context, unitID int64) (int64, error) {
	return q.client.LLen(ctx, rediskey.Wait(unitID)).Result()
}

// PushUsed inserts the encoded record at the head of the used list. The
// worker also pops from the head, so records pushed in a burst come out
// newest first. Consumers rely on that order; keep it.
func (q *OrderHandoffQueue) PushUsed(ctx context.Context, unitID int64, record model.UsedRecord) error {
	raw, err := record.Encode()
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, rediskey.Used(unitID), raw).Err()
}

// PopUsed blocks for up to timeout waiting on the head of the used list.
// A timeout returns ok=false and no error.
func (q *OrderHandoffQueue) PopUsed(ctx context.Context, unitID int64, timeout time.Duration) (raw string, ok bool, err error) {
	result, err := q.client.BLPop(ctx, timeout, rediskey.Used(unitID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return result[1], true, nil
}

func (q *OrderHandoffQueue) UsedBacklog(ctx context.Context, unitID int64) (int64, error) {
	return q.client.LLen(ctx, rediskey.Used(unitID)).Result()
}

// PendingUsed lists the raw records still waiting for settlement, head first.
func (q *OrderHandoffQueue) PendingUsed(ctx context.Context, unitID int64) ([]string, error) {
	return q.client.LRange(ctx, rediskey.Used(unitID), 0, -1).Result()
}
