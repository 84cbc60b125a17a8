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

package middleware

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/fantasyee/fantasyee"
	"github.com/fantasyee/fantasyee/config"
	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/internal/rediskey"
	"github.com/fantasyee/fantasyee/model"
	"github.com/gin-gonic/gin"
)

var versionFormat = regexp.MustCompile(`^\d+\.\d+$`)

// Pipeline holds the request stages that run ahead of every handler:
// request lock, version check, authentication, address guard and the
// operation recorder. Each stage aborts with the error schema.
type Pipeline struct {
	service *fantasyee.Fantasyee
	conf    *config.Configuration
}

// NewPipeline creates the stages backed by the given service.
//
// Parameters:
// - service: The service used to verify tokens, hold request locks and check addresses.
//
// Returns:
// - *Pipeline: The pipeline.
func NewPipeline(service *fantasyee.Fantasyee) *Pipeline {
	return &Pipeline{service: service, conf: service.Config()}
}

// RequestLock rejects a mutating request that repeats one still inside the
// lock window. Requests are told apart by caller, method, route, query and
// canonical JSON body.
func (p *Pipeline) RequestLock() gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := readPayload(c)
		if payload != nil {
			c.Set(PayloadKey, payload)
		}
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		role, user := "0", c.ClientIP()
		if r, id, ok := p.service.TokenSubject(BearerToken(c)); ok {
			role, user = strconv.Itoa(int(r)), strconv.FormatInt(id, 10)
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := rediskey.RequestLock(role, user, c.Request.Method, path,
			rediskey.CanonicalQuery(c.Request.URL.Query()), rediskey.Canonical(payload))

		if err := p.service.GuardRequest(c.Request.Context(), key); err != nil {
			Abort(c, err)
			return
		}
		c.Next()
	}
}

// VersionCheck requires a "major.minor" client version at or above the
// configured minimum. Outside production the version may also come from the
// query string.
func (p *Pipeline) VersionCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := c.GetHeader(VersionHeader)
		if version == "" && p.conf.Environment != config.Production {
			version = c.Query(VersionQuery)
		}
		if err := checkVersion(version, p.conf.Server.MinAppVersion); err != nil {
			Abort(c, err)
			return
		}
		c.Next()
	}
}

func checkVersion(version, minimum string) error {
	if version == "" {
		return apierror.NewBusinessError(apierror.ErrValidation, apierror.AppVersionDetailIsMissing, "")
	}
	got, ok := parseVersion(version)
	if !ok {
		return apierror.NewBusinessError(apierror.ErrValidation, apierror.AppVersionFormatError, "")
	}
	want, ok := parseVersion(minimum)
	if !ok {
		return apierror.NewAPIError(apierror.ErrInternalServer, "invalid minimum app version: "+minimum, nil)
	}
	if got[0] < want[0] || got[0] == want[0] && got[1] < want[1] {
		return apierror.NewBusinessError(apierror.ErrValidation, apierror.AppVersionIsOutOfDate, "")
	}
	return nil
}

func parseVersion(v string) ([2]int, bool) {
	if !versionFormat.MatchString(v) {
		return [2]int{}, false
	}
	parts := strings.SplitN(v, ".", 2)
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return [2]int{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return [2]int{}, false
	}
	return [2]int{major, minor}, true
}

// Authenticate verifies the bearer token and stores the account. Only roles
// of the allowed groups pass; the owner passes every group.
func (p *Pipeline) Authenticate(allowed ...model.GroupType) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := p.service.Authenticate(c.Request.Context(), BearerToken(c), allowed...)
		if err != nil {
			Abort(c, err)
			return
		}
		c.Set(AccountKey, account)
		c.Next()
	}
}

// AddressGuard applies the deny list to members and the allow list to admins.
func (p *Pipeline) AddressGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			Abort(c, apierror.NewBusinessError(apierror.ErrNotAuthorized, apierror.AccessTokenMissing, ""))
			return
		}
		if err := p.service.CheckAddress(c.Request.Context(), account, c.ClientIP()); err != nil {
			Abort(c, err)
			return
		}
		c.Next()
	}
}

// RecordOperation queues an audit row for every authenticated request that
// reached its handler.
func (p *Pipeline) RecordOperation() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		account, ok := CurrentAccount(c)
		if !ok || c.IsAborted() {
			return
		}
		method, err := model.ParseMethodType(c.Request.Method)
		if err != nil {
			return
		}
		op := model.Operation{
			Group:      account.Group,
			OperatorID: account.ID,
			Method:     method,
			Route:      c.FullPath(),
		}
		if payload, ok := c.Get(PayloadKey); ok {
			op.Payload, _ = payload.(map[string]interface{})
		}
		p.service.Recorder().Record(op)
	}
}

// CurrentAccount returns the account stored by Authenticate.
func CurrentAccount(c *gin.Context) (*model.Account, bool) {
	v, ok := c.Get(AccountKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*model.Account)
	return account, ok && account != nil
}
