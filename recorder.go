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
	"sync"
	"time"

	"github.com/fantasyee/fantasyee/internal/metrics"
	"github.com/fantasyee/fantasyee/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const operationWriteTimeout = 5 * time.Second

type operationWriter interface {
	RecordOperation(ctx context.Context, op model.Operation) error
}

// OperationRecorder writes audit rows off the request path through a
// bounded buffer drained by a fixed set of workers.
type OperationRecorder struct {
	writer operationWriter
	ops    chan model.Operation
	group  errgroup.Group

	mu     sync.RWMutex
	closed bool
}

func NewOperationRecorder(writer operationWriter, bufferSize, workers int) *OperationRecorder {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	r := &OperationRecorder{
		writer: writer,
		ops:    make(chan model.Operation, bufferSize),
	}
	for i := 0; i < workers; i++ {
		r.group.Go(r.work)
	}
	return r
}

// Record queues op without blocking. It returns false when the recorder is
// closed or the buffer is full; the record is dropped either way.
func (r *OperationRecorder) Record(op model.Operation) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now()
	}
	select {
	case r.ops <- op:
		return true
	default:
		metrics.OperationsDropped.Inc()
		logrus.Warnf("operation buffer full, dropping %s %s by %d", op.Method.Name(), op.Route, op.OperatorID)
		return false
	}
}

// Close stops accepting records and waits until the buffer is drained.
func (r *OperationRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ops)
	r.mu.Unlock()

	_ = r.group.Wait()
}

func (r *OperationRecorder) work() error {
	for op := range r.ops {
		ctx, cancel := context.WithTimeout(context.Background(), operationWriteTimeout)
		if err := r.writer.RecordOperation(ctx, op); err != nil {
			logrus.Errorf("failed to record operation %s %s: %v", op.Method.Name(), op.Route, err)
		}
		cancel()
	}
	return nil
}

// GetOperations pages through recorded operations, newest first.
func (f *Fantasyee) GetOperations(ctx context.Context, limit, offset int) ([]model.Operation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return f.datasource.GetOperations(ctx, limit, offset)
}
