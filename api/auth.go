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

func (a Api) MemberLogin(c *gin.Context) {
	var req model2.MemberLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateMemberLogin(); err != nil {
		invalidInput(c, err)
		return
	}

	resp, err := a.fantasyee.MemberLogin(c.Request.Context(), req.Phone, req.Password, req.ToLoginDetail(c.ClientIP()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) AdminLogin(c *gin.Context) {
	var req model2.AdminLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateAdminLogin(); err != nil {
		invalidInput(c, err)
		return
	}

	resp, err := a.fantasyee.AdminLogin(c.Request.Context(), req.Username, req.Password, req.ToLoginDetail(c.ClientIP()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) RefreshToken(c *gin.Context) {
	var req model2.RefreshToken
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}
	if err := req.ValidateRefreshToken(); err != nil {
		invalidInput(c, err)
		return
	}

	resp, err := a.fantasyee.Refresh(c.Request.Context(), req.RefreshToken, req.ToLoginDetail(c.ClientIP()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
