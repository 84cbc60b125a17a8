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
	"net"

	"github.com/fantasyee/fantasyee"
	"github.com/fantasyee/fantasyee/model"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ClientDetail struct {
	Platform string `json:"platform"`
	Browser  string `json:"browser"`
	IsApp    bool   `json:"is_app"`
}

// ToLoginDetail stamps the client detail with the caller address.
func (d ClientDetail) ToLoginDetail(address string) fantasyee.LoginDetail {
	return fantasyee.LoginDetail{Address: address, Platform: d.Platform, Browser: d.Browser, IsApp: d.IsApp}
}

type MemberLogin struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	ClientDetail
}

type AdminLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ClientDetail
}

type RefreshToken struct {
	RefreshToken string `json:"refresh_token"`
	ClientDetail
}

type JoinContest struct {
	LineupID int64 `json:"lineup_id"`
}

type JoinDraw struct {
	Number string `json:"number"`
	Remark string `json:"remark"`
}

type AddressEntry struct {
	Address string `json:"address"`
}

type Deposit struct {
	Cash   int64  `json:"cash"`
	Ticket int64  `json:"ticket"`
	Remark string `json:"remark"`
}

type GrantReward struct {
	MemberID int64 `json:"member_id"`
	Cash     int64 `json:"cash"`
	Ticket   int64 `json:"ticket"`
}

// MemberQuery is bound from the query string of the member listing.
type MemberQuery struct {
	Role    string `form:"role"`
	Keyword string `form:"keyword"`
	SortBy  string `form:"sort_by"`
	IsDesc  bool   `form:"is_desc"`
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
}

var sortableMemberFields = []interface{}{"", "id", "username", "created_at"}

func (l *MemberLogin) ValidateMemberLogin() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Phone, validation.Required, validation.Length(6, 20)),
		validation.Field(&l.Password, validation.Required),
	)
}

func (l *AdminLogin) ValidateAdminLogin() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Username, validation.Required),
		validation.Field(&l.Password, validation.Required),
	)
}

func (r *RefreshToken) ValidateRefreshToken() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (j *JoinContest) ValidateJoinContest() error {
	return validation.ValidateStruct(j,
		validation.Field(&j.LineupID, validation.Required, validation.Min(int64(1))),
	)
}

func (j *JoinDraw) ValidateJoinDraw() error {
	return validation.ValidateStruct(j,
		validation.Field(&j.Number, validation.Required, validation.Length(1, 32)),
		validation.Field(&j.Remark, validation.Length(0, 255)),
	)
}

func (a *AddressEntry) ValidateAddressEntry() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Address, validation.Required, validation.By(ipAddress)),
	)
}

func (d *Deposit) ValidateDeposit() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Cash, validation.Min(int64(0))),
		validation.Field(&d.Ticket, validation.Min(int64(0))),
		validation.Field(&d.Remark, validation.Length(0, 255)),
	)
}

func (g *GrantReward) ValidateGrantReward() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.MemberID, validation.Required, validation.Min(int64(1))),
		validation.Field(&g.Cash, validation.Min(int64(0))),
		validation.Field(&g.Ticket, validation.Min(int64(0))),
	)
}

func (q *MemberQuery) ValidateMemberQuery() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.SortBy, validation.In(sortableMemberFields...)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(100)),
		validation.Field(&q.Offset, validation.Min(0)),
	)
}

// ToFilter resolves the role name; an empty role lists members.
func (q *MemberQuery) ToFilter() (model.MemberListFilter, error) {
	role := model.RoleMember
	if q.Role != "" {
		parsed, err := model.ParseRoleType(q.Role)
		if err != nil {
			return model.MemberListFilter{}, err
		}
		role = parsed
	}
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	return model.MemberListFilter{
		Role:    role,
		Keyword: q.Keyword,
		SortBy:  q.SortBy,
		IsDesc:  q.IsDesc,
		Limit:   limit,
		Offset:  q.Offset,
	}, nil
}

func ipAddress(value interface{}) error {
	s, _ := value.(string)
	if net.ParseIP(s) == nil {
		return errors.New("must be a valid IP address")
	}
	return nil
}
