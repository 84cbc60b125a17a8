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

package redlock

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is a windowed attempt counter.
type Counter struct {
	client redis.UniversalClient
}

func NewCounter(client redis.UniversalClient) *Counter {
	return &Counter{client: client}
}

// Increase bumps the counter and keeps its current expiry. The window only
// starts on the first attempt, so repeated failures do not extend it.
func (c *Counter) Increase(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	expiration := window
	if ttl > 0 {
		expiration = ttl
	}
	if err := c.client.Expire(ctx, key, expiration).Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// Get returns the current count, zero when the window has lapsed.
func (c *Counter) Get(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

// Add increments a counter with no expiry, e.g. a running prize total.
func (c *Counter) Add(ctx context.Context, key string, amount int64) (int64, error) {
	return c.client.IncrBy(ctx, key, amount).Result()
}
