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
	"strconv"

	"github.com/fantasyee/fantasyee"
	"github.com/fantasyee/fantasyee/api/middleware"
	"github.com/fantasyee/fantasyee/config"
	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/model"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Api struct {
	fantasyee *fantasyee.Fantasyee
	pipeline  *middleware.Pipeline
	router    *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	p := a.pipeline

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	router.Use(p.RequestLock(), p.VersionCheck())

	auth := router.Group("/auth")
	auth.POST("/member/login", a.MemberLogin)
	auth.POST("/member/refresh", a.RefreshToken)
	auth.POST("/admin/login", a.AdminLogin)

	member := router.Group("/", p.Authenticate(model.GroupUser), p.AddressGuard(), p.RecordOperation())
	member.POST("/contests/:id/join", a.JoinContest)
	member.POST("/draws/:id/join", a.JoinDraw)
	member.GET("/wallet", a.GetWallet)
	member.POST("/games/enter", a.EnterGame)
	member.POST("/games/exit", a.ExitGame)

	admin := router.Group("/admin", p.Authenticate(model.GroupAdmin), p.AddressGuard(), p.RecordOperation())
	admin.POST("/contests/:id/prepare", a.PrepareContest)
	admin.POST("/contests/:id/cancel", a.CancelContest)
	admin.GET("/contests/:id/backlog", a.GetContestBacklog)

	admin.GET("/whitelist", a.GetAddresses(model.Whitelist))
	admin.POST("/whitelist", a.AddAddress(model.Whitelist))
	admin.DELETE("/whitelist", a.RemoveAddress(model.Whitelist))
	admin.GET("/blacklist", a.GetAddresses(model.Blacklist))
	admin.POST("/blacklist", a.AddAddress(model.Blacklist))
	admin.DELETE("/blacklist", a.RemoveAddress(model.Blacklist))

	admin.GET("/members", a.ListMembers)
	admin.POST("/members/:id/deposit", a.Deposit)
	admin.POST("/rewards/:setting_id", a.GrantReward)
	admin.GET("/rewards/:setting_id/total", a.GetRewardTotal)
	admin.GET("/operations", a.GetOperations)
	admin.GET("/logins", a.GetLoginCount)

	return a.router
}

func NewAPI(f *fantasyee.Fantasyee) *Api {
	conf := f.Config()
	if conf.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(otelgin.Middleware("fantasyee"))
	r.Use(middleware.RateLimitMiddleware(conf))
	return &Api{fantasyee: f, pipeline: middleware.NewPipeline(f), router: r}
}

// respondError renders err with the error schema.
func respondError(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

func invalidInput(c *gin.Context, err error) {
	respondError(c, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil))
}

// pathID reads a positive integer route parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw, passed := c.Params.Get(name)
	if !passed {
		invalidInput(c, errMissingParam(name))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		invalidInput(c, errMissingParam(name))
		return 0, false
	}
	return id, true
}

type errMissingParam string

func (e errMissingParam) Error() string {
	return string(e) + " is required. pass a positive integer in the route /:" + string(e)
}

// currentAccount returns the account set by the authentication stage.
func currentAccount(c *gin.Context) (*model.Account, bool) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		respondError(c, apierror.NewBusinessError(apierror.ErrNotAuthorized, apierror.AccessTokenMissing, ""))
	}
	return account, ok
}
