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
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/fantasyee/fantasyee/database"
	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/internal/notification"
	"github.com/fantasyee/fantasyee/model"
)

const (
	// codeAlphabet is digits and upper-case letters without O and I.
	codeAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	transactionCodeLength = 10
	orderIDLength         = 7
	sequenceAttemptLimit  = 100
)

// ErrSequenceExhausted is returned when every attempt collided with an
// existing number. It is never retried by callers.
var ErrSequenceExhausted = errors.New("reached generate number attempt limit")

// SequenceGenerator draws transaction numbers and order ids and checks each
// candidate against storage before returning it. The unique index on the
// owning table remains the final guard.
type SequenceGenerator struct {
	now      func() time.Time
	code     func(n int) (string, error)
	attempts int
}

func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{
		now:      time.Now,
		code:     randomCode,
		attempts: sequenceAttemptLimit,
	}
}

// TransactionNo builds prefix + YYYYMMDD + a 10 character code. Its signature
// matches database.NumberFunc so the datasource can call it with an exists
// check bound to the open transaction.
func (g *SequenceGenerator) TransactionNo(ctx context.Context, prefix model.TransactionType, exists database.ExistsFunc) (string, error) {
	if !prefix.Valid() {
		return "", apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("transaction type not found: %s", prefix), nil)
	}
	today := g.now().Format("20060102")
	return g.generate(ctx, string(prefix), func() (string, error) {
		code, err := g.code(transactionCodeLength)
		if err != nil {
			return "", err
		}
		return string(prefix) + today + code, nil
	}, exists)
}

// OrderID builds a 7 character order id checked against the orders table.
func (g *SequenceGenerator) OrderID(ctx context.Context, exists database.ExistsFunc) (string, error) {
	return g.generate(ctx, "order", func() (string, error) {
		return g.code(orderIDLength)
	}, exists)
}

func (g *SequenceGenerator) generate(ctx context.Context, kind string, candidate func() (string, error), exists database.ExistsFunc) (string, error) {
	for i := 0; i < g.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		no, err := candidate()
		if err != nil {
			return "", fmt.Errorf("failed to draw %s number: %w", kind, err)
		}
		taken, err := exists(ctx, no)
		if err != nil {
			return "", fmt.Errorf("failed to check %s number %s: %w", kind, no, err)
		}
		if !taken {
			return no, nil
		}
	}

	err := fmt.Errorf("%w for %s: %d", ErrSequenceExhausted, kind, g.attempts)
	notification.NotifyError(err)
	return "", apierror.APIError{
		Code:     apierror.ErrResourceExhausted,
		Business: apierror.ResourceExhausted,
		Message:  err.Error(),
		Details:  err,
	}
}

func randomCode(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
