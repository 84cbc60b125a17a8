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

package api

import (
	"net/http"
	"time"

	model2 "github.com/fantasyee/fantasyee/api/model"
	"github.com/gin-gonic/gin"
)

func (a Api) GetWallet(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	wallet, err := a.fantasyee.GetWallet(c.Request.Context(), account.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (a Api) EnterGame(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	if err := a.fantasyee.EnterGame(c.Request.Context(), account.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"playing": true})
}

func (a Api) ExitGame(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	if err := a.fantasyee.ExitGame(c.Request.Context(), account.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"playing": false})
}

func (a Api) ListMembers(c *gin.Context) {
	var query model2.MemberQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		invalidInput(c, err)
		return
	}
	if err := query.ValidateMemberQuery(); err != nil {
		invalidInput(c, err)
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		invalidInput(c, err)
		return
	}

	members, err := a.fantasyee.ListMembers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (a Api) Deposit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model2.Deposit
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateDeposit(); err != nil {
		invalidInput(c, err)
		return
	}

	txnLog, err := a.fantasyee.Deposit(c.Request.Context(), id, req.Cash, req.Ticket, req.Remark)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txnLog)
}

func (a Api) GrantReward(c *gin.Context) {
	settingID, ok := pathID(c, "setting_id")
	if !ok {
		return
	}
	var req model2.GrantReward
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateGrantReward(); err != nil {
		invalidInput(c, err)
		return
	}

	txnLog, err := a.fantasyee.GrantReward(c.Request.Context(), settingID, req.MemberID, req.Cash, req.Ticket)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txnLog)
}

func (a Api) GetRewardTotal(c *gin.Context) {
	settingID, ok := pathID(c, "setting_id")
	if !ok {
		return
	}
	total, err := a.fantasyee.RewardPrizeTotal(c.Request.Context(), settingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setting_id": settingID, "total": total})
}

func (a Api) GetOperations(c *gin.Context) {
	var page struct {
		Limit  int `form:"limit"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&page); err != nil {
		invalidInput(c, err)
		return
	}

	ops, err := a.fantasyee.GetOperations(c.Request.Context(), page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ops)
}

// GetLoginCount reports distinct member logins on ?date=YYYY-MM-DD, today by default.
func (a Api) GetLoginCount(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	if _, err := time.Parse("2006-01-02", date); err != nil {
		invalidInput(c, err)
		return
	}
	count, err := a.fantasyee.LoginCount(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "count": count})
}
