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
	"log"
	"time"

	"github.com/fantasyee/fantasyee/config"
	redis_db "github.com/fantasyee/fantasyee/internal/redis-db"
	"github.com/hibiken/asynq"
)

// TaskPrepareUnit is the asynq task type that loads a unit's placeholders
// and activates it.
const TaskPrepareUnit = "unit:prepare"

// Queue schedules unit preparation on asynq.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
	name      string
}

// PrepareUnitPayload is the task body of TaskPrepareUnit.
type PrepareUnitPayload struct {
	UnitID int64 `json:"unit_id"`
}

// RedisConnOpt converts the configured redis DSN into asynq connection options.
func RedisConnOpt(conf *config.Configuration) (asynq.RedisClientOpt, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Username:  redisOption.Username,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	}, nil
}

// NewQueue initializes the asynq client and inspector from the configuration.
func NewQueue(conf *config.Configuration) *Queue {
	queueOptions, err := RedisConnOpt(conf)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}
	return &Queue{
		Client:    asynq.NewClient(queueOptions),
		Inspector: asynq.NewInspector(queueOptions),
		name:      conf.Queue.UnitQueue,
	}
}

func prepareTaskID(unitID int64) string {
	return fmt.Sprintf("prepare-unit-%d", unitID)
}

// EnqueuePreparation schedules preparation of a unit at openAt, or right
// away when openAt is zero or already past. A unit has at most one pending
// preparation task.
func (q *Queue) EnqueuePreparation(ctx context.Context, unitID int64, openAt time.Time) error {
	payload, err := json.Marshal(PrepareUnitPayload{UnitID: unitID})
	if err != nil {
		return err
	}

	taskOptions := []asynq.Option{
		asynq.TaskID(prepareTaskID(unitID)),
		asynq.Queue(q.name),
		asynq.MaxRetry(5),
	}
	if !openAt.IsZero() && time.Until(openAt) > 0 {
		taskOptions = append(taskOptions, asynq.ProcessIn(time.Until(openAt)))
	}

	task := asynq.NewTask(TaskPrepareUnit, payload, taskOptions...)
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued preparation of unit %d", unitID)
	return nil
}

// CancelPreparation drops a scheduled preparation task if one is waiting.
func (q *Queue) CancelPreparation(unitID int64) error {
	err := q.Inspector.DeleteTask(q.name, prepareTaskID(unitID))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return err
}

func (q *Queue) Close() error {
	if err := q.Inspector.Close(); err != nil {
		return err
	}
	return q.Client.Close()
}
