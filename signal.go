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
	"strconv"
	"time"

	"github.com/fantasyee/fantasyee/internal/rediskey"
	"github.com/fantasyee/fantasyee/model"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ContestSignalBus tells the settlement worker which units were opened and
// which were cancelled. Activation is a consume-once list; cancellation is a
// set the worker polls and clears id by id.
type ContestSignalBus struct {
	client redis.UniversalClient
}

func NewContestSignalBus(client redis.UniversalClient) *ContestSignalBus {
	return &ContestSignalBus{client: client}
}

func activeKey(kind model.UnitKind) (string, error) {
	switch kind {
	case model.UnitContest:
		return rediskey.ActiveContestIDs, nil
	case model.UnitDraw:
		return rediskey.ActiveDrawIDs, nil
	}
	return "", fmt.Errorf("unknown unit kind: %s", kind)
}

// Activate pushes ids at the head of the activation list.
func (b *ContestSignalBus) Activate(ctx context.Context, kind model.UnitKind, ids ...int64) error {
	key, err := activeKey(kind)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return b.client.LPush(ctx, key, values...).Err()
}

// NextActive blocks up to timeout for one activated unit. Once returned the
// id is gone from the list and the caller owns it.
func (b *ContestSignalBus) NextActive(ctx context.Context, kind model.UnitKind, timeout time.Duration) (int64, bool, error) {
	key, err := activeKey(kind)
	if err != nil {
		return 0, false, err
	}
	result, err := b.client.BLPop(ctx, timeout, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(result[1], 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid unit id %q in %s: %w", result[1], key, err)
	}
	return id, true, nil
}

// Cancel marks a unit cancelled. Repeated calls are no-ops.
func (b *ContestSignalBus) Cancel(ctx context.Context, id int64) error {
	return b.client.SAdd(ctx, rediskey.CancelContestIDs, id).Err()
}

// Cancelled returns every unit still waiting for reversal. The set is shared
// with other writers, so members that are not unit ids are logged and left
// in place.
func (b *ContestSignalBus) Cancelled(ctx context.Context) ([]int64, error) {
	members, err := b.client.SMembers(ctx, rediskey.CancelContestIDs).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			logrus.Warnf("skipping invalid unit id %q in %s", m, rediskey.CancelContestIDs)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *ContestSignalBus) IsCancelled(ctx context.Context, id int64) (bool, error) {
	return b.client.SIsMember(ctx, rediskey.CancelContestIDs, id).Result()
}

// Acknowledge removes a unit from the cancel set once its reversal is done.
// Until then every poll sees it again.
func (b *ContestSignalBus) Acknowledge(ctx context.Context, id int64) error {
	return b.client.SRem(ctx, rediskey.CancelContestIDs, id).Err()
}
