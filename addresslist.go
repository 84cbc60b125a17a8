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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type AddressListTTLs struct {
	Whitelist time.Duration
	Blacklist time.Duration
}

type addressSource interface {
	GetAddresses(ctx context.Context, list model.AddressListName) ([]string, error)
}

// AddressListCache serves the allow and deny lists from redis, rebuilding an
// entry from the database on a miss or when the caller forces it. Writes to
// the tables are not pushed into the cache.
type AddressListCache struct {
	client redis.UniversalClient
	source addressSource
	ttls   AddressListTTLs
}

func NewAddressListCache(client redis.UniversalClient, source addressSource, ttls AddressListTTLs) *AddressListCache {
	return &AddressListCache{client: client, source: source, ttls: ttls}
}

// Get returns the list. A cached empty list is a hit; a value that does not
// decode is treated as a miss and reloaded.
func (c *AddressListCache) Get(ctx context.Context, list model.AddressListName, force bool) ([]string, error) {
	if !list.Valid() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown address list: %s", list), nil)
	}
	if !force {
		addresses, ok, err := c.cached(ctx, list)
		if err != nil {
			return nil, err
		}
		if ok {
			return addresses, nil
		}
	}
	return c.load(ctx, list)
}

// Contains reports whether address is on the list.
func (c *AddressListCache) Contains(ctx context.Context, list model.AddressListName, address string, force bool) (bool, error) {
	addresses, err := c.Get(ctx, list, force)
	if err != nil {
		return false, err
	}
	for _, a := range addresses {
		if a == address {
			return true, nil
		}
	}
	return false, nil
}

func (c *AddressListCache) cached(ctx context.Context, list model.AddressListName) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, string(list)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var addresses []string
	if err := json.Unmarshal(raw, &addresses); err != nil || addresses == nil {
		logrus.Warnf("discarding malformed %s cache entry: %v", list, err)
		return nil, false, nil
	}
	return addresses, true, nil
}

func (c *AddressListCache) load(ctx context.Context, list model.AddressListName) ([]string, error) {
	addresses, err := c.source.GetAddresses(ctx, list)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []string{}
	}

	raw, err := json.Marshal(addresses)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, string(list), raw, c.ttl(list)).Err(); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (c *AddressListCache) ttl(list model.AddressListName) time.Duration {
	if list == model.Whitelist {
		return c.ttls.Whitelist
	}
	return c.ttls.Blacklist
}

// AddAddress inserts into the list table and rebuilds the cached entry.
func (f *Fantasyee) AddAddress(ctx context.Context, list model.AddressListName, address string) error {
	if err := f.datasource.AddAddress(ctx, list, address); err != nil {
		return err
	}
	_, err := f.addresses.Get(ctx, list, true)
	return err
}

// RemoveAddress deletes from the list table and rebuilds the cached entry.
func (f *Fantasyee) RemoveAddress(ctx context.Context, list model.AddressListName, address string) error {
	if err := f.datasource.RemoveAddress(ctx, list, address); err != nil {
		return err
	}
	_, err := f.addresses.Get(ctx, list, true)
	return err
}

func (f *Fantasyee) GetAddresses(ctx context.Context, list model.AddressListName) ([]string, error) {
	return f.addresses.Get(ctx, list, false)
}
