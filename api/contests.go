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

	model2 "github.com/fantasyee/fantasyee/api/model"
	"github.com/gin-gonic/gin"
)

func (a Api) JoinContest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	var req model2.JoinContest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateJoinContest(); err != nil {
		invalidInput(c, err)
		return
	}

	order, err := a.fantasyee.JoinContest(c.Request.Context(), account.ID, id, req.LineupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (a Api) JoinDraw(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	var req model2.JoinDraw
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateJoinDraw(); err != nil {
		invalidInput(c, err)
		return
	}

	order, err := a.fantasyee.JoinDraw(c.Request.Context(), account.ID, id, req.Number, req.Remark)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// PrepareContest schedules placeholder creation for a created unit.
func (a Api) PrepareContest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := a.fantasyee.SchedulePreparation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "message": "preparation scheduled"})
}

func (a Api) CancelContest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := a.fantasyee.CancelUnit(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "message": "cancellation queued"})
}

// GetContestBacklog reports unclaimed placeholders and joins awaiting
// settlement.
func (a Api) GetContestBacklog(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	waiting, err := a.fantasyee.Handoff().Placeholders(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	used, err := a.fantasyee.Handoff().UsedBacklog(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	cancelled, err := a.fantasyee.Signals().IsCancelled(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "placeholders": waiting, "used": used, "cancelled": cancelled})
}
