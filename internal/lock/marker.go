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
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker is a TTL-only lock. Acquire writes unconditionally and expiry is the
// only release, so callers Peek first and then Acquire. The gap between the
// two calls is a race; markers are for soft rate limiting only.
type Marker struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewMarker(client redis.UniversalClient) *Marker {
	return &Marker{client: client, now: time.Now}
}

// Acquire writes the marker with the given TTL. The value is the acquire time.
func (m *Marker) Acquire(ctx context.Context, key string, ttl time.Duration) error {
	return m.client.Set(ctx, key, m.now().Format(time.RFC3339Nano), ttl).Err()
}

// Peek reports whether an unexpired marker exists. It has no side effects.
func (m *Marker) Peek(ctx context.Context, key string) (bool, error) {
	err := m.client.Get(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release deletes the marker before its TTL. Only the game-playing lock uses it.
func (m *Marker) Release(ctx context.Context, key string) error {
	return m.client.Del(ctx, key).Err()
}

// Guard peeks and, when free, acquires. It returns ErrLockHeld when the
// marker is held.
func (m *Marker) Guard(ctx context.Context, key string, ttl time.Duration) error {
	held, err := m.Peek(ctx, key)
	if err != nil {
		return err
	}
	if held {
		return ErrLockHeld
	}
	return m.Acquire(ctx, key, ttl)
}
