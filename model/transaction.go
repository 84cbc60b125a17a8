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
	"time"
)

// WalletMutation describes one balance change. Cash and Ticket are signed
// deltas; a fee is negative, a prize or refund is positive.
type WalletMutation struct {
	Type      TransactionType `json:"type"`
	MemberID  int64           `json:"member_id"`
	OrderID   string          `json:"order_id,omitempty"`
	ContestID int64           `json:"contest_id,omitempty"`
	Cash      int64           `json:"cash"`
	Ticket    int64           `json:"ticket"`
	Remark    string          `json:"remark,omitempty"`
}

func (m *WalletMutation) Validate() error {
	if !m.Type.Valid() {
		return errors.New("transaction type not found")
	}
	if m.MemberID == 0 {
		return errors.New("member id is required")
	}
	if m.Cash == 0 && m.Ticket == 0 {
		return errors.New("mutation must change cash or ticket")
	}
	return nil
}

// MemberTransaction is the typed ledger row written for a mutation.
type MemberTransaction struct {
	No        string          `json:"no"`
	Type      TransactionType `json:"type"`
	OrderID   string          `json:"order_id,omitempty"`
	MemberID  int64           `json:"member_id"`
	Cash      int64           `json:"cash"`
	Ticket    int64           `json:"ticket"`
	Remark    string          `json:"remark,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransactionLog is the append-only audit row. CashBalance and TicketBalance
// are the wallet balances strictly after the delta was applied.
type TransactionLog struct {
	No            string    `json:"no"`
	Cash          int64     `json:"cash"`
	Ticket        int64     `json:"ticket"`
	CashBalance   int64     `json:"cash_balance"`
	TicketBalance int64     `json:"ticket_balance"`
	MemberID      int64     `json:"member_id"`
	ContestID     int64     `json:"contest_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
