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
	"embed"

	"github.com/fantasyee/fantasyee/config"
	"github.com/fantasyee/fantasyee/database"
	"github.com/fantasyee/fantasyee/internal/cache"
	redlock "github.com/fantasyee/fantasyee/internal/lock"
	redis_db "github.com/fantasyee/fantasyee/internal/redis-db"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("fantasyee")

//go:embed sql/*.sql
var SQLFiles embed.FS

// Fantasyee wires the coordination layer: locks and counters, the address
// list cache, the order handoff queues, the contest signal bus and the
// ledger writer, all sharing one redis client and one datasource.
type Fantasyee struct {
	datasource database.IDataSource
	redis      redis.UniversalClient
	cache      cache.Cache
	marker     *redlock.Marker
	counter    *redlock.Counter
	sequence   *SequenceGenerator
	addresses  *AddressListCache
	handoff    *OrderHandoffQueue
	signals    *ContestSignalBus
	ledger     *LedgerWriter
	queue      *Queue
	recorder   *OperationRecorder
	config     *config.Configuration
}

// NewFantasyee builds every coordination component from the loaded
// configuration.
//
// Parameters:
// - db database.IDataSource: The datasource for relational operations.
//
// Returns:
// - *Fantasyee: The wired instance.
// - error: An error if the configuration is missing or redis is unreachable.
func NewFantasyee(db database.IDataSource) (*Fantasyee, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{configuration.Redis.Dns}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	client := redisClient.Client()

	displayCache := cache.NewCache(client)
	sequence := NewSequenceGenerator()
	f := &Fantasyee{
		datasource: db,
		redis:      client,
		cache:      displayCache,
		marker:     redlock.NewMarker(client),
		counter:    redlock.NewCounter(client),
		sequence:   sequence,
		addresses: NewAddressListCache(client, db, AddressListTTLs{
			Whitelist: configuration.AddressList.WhitelistTTL(),
			Blacklist: configuration.AddressList.BlacklistTTL(),
		}),
		handoff:  NewOrderHandoffQueue(client),
		signals:  NewContestSignalBus(client),
		ledger:   NewLedgerWriter(db, sequence, displayCache),
		queue:    NewQueue(configuration),
		recorder: NewOperationRecorder(db, configuration.Recorder.BufferSize, configuration.Recorder.Workers),
		config:   configuration,
	}
	return f, nil
}

// Close drains the operation recorder and releases the task queue client.
func (f *Fantasyee) Close() error {
	f.recorder.Close()
	return f.queue.Close()
}

func (f *Fantasyee) Redis() redis.UniversalClient {
	return f.redis
}

func (f *Fantasyee) Config() *config.Configuration {
	return f.config
}

func (f *Fantasyee) Marker() *redlock.Marker {
	return f.marker
}

func (f *Fantasyee) Addresses() *AddressListCache {
	return f.addresses
}

func (f *Fantasyee) Handoff() *OrderHandoffQueue {
	return f.handoff
}

func (f *Fantasyee) Signals() *ContestSignalBus {
	return f.signals
}

func (f *Fantasyee) Ledger() *LedgerWriter {
	return f.ledger
}

func (f *Fantasyee) Recorder() *OperationRecorder {
	return f.recorder
}

func (f *Fantasyee) Queue() *Queue {
	return f.queue
}
