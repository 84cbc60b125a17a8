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

package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecordDelimiter separates the fields of a used-channel record. The field
// order and count are fixed; the settlement worker splits on exactly that
// count, so only the last field may contain the delimiter.
const RecordDelimiter = ":"

const (
	contestRecordFields = 8
	drawRecordFields    = 7
)

var ErrMalformedRecord = errors.New("malformed used record")

// UsedRecord is anything intake can push to a unit's used channel.
type UsedRecord interface {
	Encode() (string, error)
}

// ContestRecord is the contest flavor:
// order_id:member_id:lineup_id:cash:coin:winnings:ticket:bet_datetime
// bet_datetime is unix seconds.
type ContestRecord struct {
	OrderID  string          `json:"order_id"`
	MemberID int64           `json:"member_id"`
	LineupID int64           `json:"lineup_id"`
	Cash     int64           `json:"cash"`
	Coin     int64           `json:"coin"`
	Winnings decimal.Decimal `json:"winnings"`
	Ticket   int64           `json:"ticket"`
	BetAt    time.Time       `json:"bet_datetime"`
}

func (r ContestRecord) Encode() (string, error) {
	if err := checkFields(r.OrderID); err != nil {
		return "", err
	}
	return strings.Join([]string{
		r.OrderID,
		strconv.FormatInt(r.MemberID, 10),
		strconv.FormatInt(r.LineupID, 10),
		strconv.FormatInt(r.Cash, 10),
		strconv.FormatInt(r.Coin, 10),
		r.Winnings.String(),
		strconv.FormatInt(r.Ticket, 10),
		strconv.FormatInt(r.BetAt.Unix(), 10),
	}, RecordDelimiter), nil
}

func ParseContestRecord(raw string) (ContestRecord, error) {
	parts := strings.SplitN(raw, RecordDelimiter, contestRecordFields)
	if len(parts) != contestRecordFields {
		return ContestRecord{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, contestRecordFields, len(parts))
	}

	p := fieldParser{raw: raw}
	r := ContestRecord{OrderID: parts[0]}
	r.MemberID = p.int(parts[1])
	r.LineupID = p.int(parts[2])
	r.Cash = p.int(parts[3])
	r.Coin = p.int(parts[4])
	r.Winnings = p.decimal(parts[5])
	r.Ticket = p.int(parts[6])
	r.BetAt = p.unix(parts[7])
	if p.err != nil {
		return ContestRecord{}, p.err
	}
	return r, nil
}

// DrawRecord is the draw flavor:
// order_id:member_id:cash:ticket:number:join_dt:remark
// join_dt is unix seconds; remark is free text and may contain the delimiter.
type DrawRecord struct {
	OrderID  string    `json:"order_id"`
	MemberID int64     `json:"member_id"`
	Cash     int64     `json:"cash"`
	Ticket   int64     `json:"ticket"`
	Number   string    `json:"number"`
	JoinedAt time.Time `json:"join_dt"`
	Remark   string    `json:"remark"`
}

func (r DrawRecord) Encode() (string, error) {
	if err := checkFields(r.OrderID, r.Number); err != nil {
		return "", err
	}
	return strings.Join([]string{
		r.OrderID,
		strconv.FormatInt(r.MemberID, 10),
		strconv.FormatInt(r.Cash, 10),
		strconv.FormatInt(r.Ticket, 10),
		r.Number,
		strconv.FormatInt(r.JoinedAt.Unix(), 10),
		r.Remark,
	}, RecordDelimiter), nil
}

func ParseDrawRecord(raw string) (DrawRecord, error) {
	parts := strings.SplitN(raw, RecordDelimiter, drawRecordFields)
	if len(parts) != drawRecordFields {
		return DrawRecord{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, drawRecordFields, len(parts))
	}

	p := fieldParser{raw: raw}
	r := DrawRecord{OrderID: parts[0], Number: parts[4], Remark: parts[6]}
	r.MemberID = p.int(parts[1])
	r.Cash = p.int(parts[2])
	r.Ticket = p.int(parts[3])
	r.JoinedAt = p.unix(parts[5])
	if p.err != nil {
		return DrawRecord{}, p.err
	}
	return r, nil
}

func checkFields(fields ...string) error {
	for _, f := range fields {
		if strings.Contains(f, RecordDelimiter) {
			return fmt.Errorf("%w: field %q contains %q", ErrMalformedRecord, f, RecordDelimiter)
		}
	}
	return nil
}

// fieldParser keeps the first parse error so callers can parse every field
// and check once.
type fieldParser struct {
	raw string
	err error
}

func (p *fieldParser) fail(field string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %q in %q: %v", ErrMalformedRecord, field, p.raw, err)
	}
}

func (p *fieldParser) int(field string) int64 {
	v, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		p.fail(field, err)
	}
	return v
}

func (p *fieldParser) decimal(field string) decimal.Decimal {
	v, err := decimal.NewFromString(field)
	if err != nil {
		p.fail(field, err)
	}
	return v
}

func (p *fieldParser) unix(field string) time.Time {
	return time.Unix(p.int(field), 0)
}
