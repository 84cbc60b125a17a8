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
	"errors"
	"fmt"
	"time"

	"github.com/fantasyee/fantasyee/config"
	"github.com/fantasyee/fantasyee/internal/apierror"
	"github.com/fantasyee/fantasyee/internal/rediskey"
	"github.com/fantasyee/fantasyee/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	memberLoginTTL       = 24 * time.Hour
	memberLoginRecordTTL = 31 * 24 * time.Hour
)

// TokenClaims is the body of access and refresh tokens. Members are
// identified by phone, admins by username.
type TokenClaims struct {
	ID       int64          `json:"id"`
	Username string         `json:"username,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Role     model.RoleType `json:"role"`
	Type     string         `json:"type"`
	jwt.RegisteredClaims
}

// LoginDetail describes the client a login came from. It is stored as the
// account's latest login info.
type LoginDetail struct {
	Address  string `json:"login_address"`
	Platform string `json:"platform"`
	Browser  string `json:"browser"`
	IsApp    bool   `json:"is_app"`
}

type LoginResult struct {
	Username     string         `json:"username"`
	Phone        string         `json:"phone,omitempty"`
	Email        string         `json:"email,omitempty"`
	Role         model.RoleType `json:"role"`
	Token        string         `json:"token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
}

// MemberLoginSnapshot is cached for a day after every member login.
type MemberLoginSnapshot struct {
	ID       int64          `json:"id"`
	Username string         `json:"username"`
	Phone    string         `json:"phone"`
	Role     model.RoleType `json:"role"`
	Address  string         `json:"login_address"`
	LoginAt  time.Time      `json:"login_datetime"`
}

var errBadCredentials = apierror.NewBusinessError(apierror.ErrValidation, apierror.UsernameIsNotExistOrPasswordIsWrong, "")

// MemberLogin checks the deny list and the attempt ceiling before the
// credentials, so a throttled caller learns nothing about the password.
func (f *Fantasyee) MemberLogin(ctx context.Context, phone, password string, detail LoginDetail) (*LoginResult, error) {
	if err := f.inspectSuspendAddress(ctx, detail.Address, f.config.Auth.ForceUpdateBlacklist); err != nil {
		return nil, err
	}
	if err := f.checkAuthAttempts(ctx, phone); err != nil {
		return nil, err
	}

	member, err := f.datasource.GetMemberByPhone(ctx, phone)
	if err != nil {
		return nil, credentialError(err)
	}
	if err := checkCredentials(member, password); err != nil {
		return nil, err
	}

	result, err := f.issueTokens(member)
	if err != nil {
		return nil, err
	}
	if err := f.recordLogin(ctx, member, detail); err != nil {
		return nil, err
	}
	return result, nil
}

// AdminLogin requires the caller address on the allow list, except in
// develop.
func (f *Fantasyee) AdminLogin(ctx context.Context, username, password string, detail LoginDetail) (*LoginResult, error) {
	if err := f.inspectAllowAddress(ctx, detail.Address, f.config.Auth.ForceUpdateWhitelist); err != nil {
		return nil, err
	}

	admin, err := f.datasource.GetAdminByUsername(ctx, username)
	if err != nil {
		return nil, credentialError(err)
	}
	if err := checkCredentials(admin, password); err != nil {
		return nil, err
	}

	result, err := f.issueTokens(admin)
	if err != nil {
		return nil, err
	}
	if err := f.datasource.UpdateLoginDetail(ctx, admin.ID, loginInfo(detail)); err != nil {
		return nil, err
	}
	return result, nil
}

// Refresh exchanges a refresh token for a new access token, repeating the
// address and throttle checks of a login.
func (f *Fantasyee) Refresh(ctx context.Context, refreshToken string, detail LoginDetail) (*LoginResult, error) {
	claims, err := f.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	group := claims.Role.Group()
	switch group {
	case model.GroupUser:
		if err := f.inspectSuspendAddress(ctx, detail.Address, f.config.Auth.ForceUpdateBlacklist); err != nil {
			return nil, err
		}
		if claims.Phone == "" {
			return nil, apierror.NewBusinessError(apierror.ErrValidation, apierror.InvalidRefreshToken, "")
		}
		if err := f.checkAuthAttempts(ctx, claims.Phone); err != nil {
			return nil, err
		}
	case model.GroupAdmin:
		if err := f.inspectAllowAddress(ctx, detail.Address, f.config.Auth.ForceUpdateWhitelist); err != nil {
			return nil, err
		}
	default:
		return nil, apierror.NewBusinessError(apierror.ErrNotAuthorized, apierror.InvalidRefreshToken, "")
	}

	account, err := f.loadClaimedAccount(ctx, claims)
	if err != nil {
		return nil, err
	}
	access, err := f.signToken(account, tokenTypeAccess, time.Duration(f.config.Server.AccessTokenTTLSec)*time.Second)
	if err != nil {
		return nil, err
	}
	if err := f.datasource.UpdateLoginDetail(ctx, account.ID, loginInfo(detail)); err != nil {
		return nil, err
	}
	return &LoginResult{Username: account.Username, Phone: account.Phone, Email: account.Email, Role: account.Role, Token: access}, nil
}

// Authenticate verifies an access token and loads its account. The owner
// role passes every role check; groups in allowed expand to their roles.
func (f *Fantasyee) Authenticate(ctx context.Context, token string, allowed ...model.GroupType) (*model.Account, error) {
	if token == "" {
		return nil, apierror.NewBusinessError(apierror.ErrNotAuthorized, apierror.AccessTokenMissing, "")
	}
	claims, err := f.parseToken(token, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	if claims.Role != model.RoleOwner {
		permitted := false
		for _, g := range allowed {
			if g.Contains(claims.Role) {
				permitted = true
				break
			}
		}
		if !permitted {
			return nil, apierror.NewBusinessError(apierror.ErrForbidden, apierror.InvalidPermission, "")
		}
	}
	return f.loadClaimedAccount(ctx, claims)
}

// TokenSubject reads the role and account id of a verified access token
// without touching the datasource. ok is false for a missing or invalid
// token.
func (f *Fantasyee) TokenSubject(token string) (role model.RoleType, id int64, ok bool) {
	if token == "" {
		return 0, 0, false
	}
	claims, err := f.parseToken(token, tokenTypeAccess)
	if err != nil {
		return 0, 0, false
	}
	return claims.Role, claims.ID, true
}

// CheckAddress applies the deny list to members and the allow list to
// admins, using the cached lists.
func (f *Fantasyee) CheckAddress(ctx context.Context, account *model.Account, address string) error {
	switch account.Group {
	case model.GroupUser:
		return f.inspectSuspendAddress(ctx, address, false)
	case model.GroupAdmin:
		return f.inspectAllowAddress(ctx, address, false)
	}
	return apierror.NewBusinessError(apierror.ErrNotFound, apierror.DataError, fmt.Sprintf("User role: %d is not exist", account.Role))
}

func (f *Fantasyee) inspectSuspendAddress(ctx context.Context, address string, force bool) error {
	blocked, err := f.addresses.Contains(ctx, model.Blacklist, address, force)
	if err != nil {
		return err
	}
	if blocked {
		return apierror.NewBusinessError(apierror.ErrForbidden, apierror.InvalidIPAddress, "")
	}
	return nil
}

func (f *Fantasyee) inspectAllowAddress(ctx context.Context, address string, force bool) error {
	if f.config.Environment == config.Develop {
		return nil
	}
	allowed, err := f.addresses.Contains(ctx, model.Whitelist, address, force)
	if err != nil {
		return err
	}
	if !allowed {
		return apierror.NewBusinessError(apierror.ErrForbidden, apierror.InvalidIPAddress, "")
	}
	return nil
}

// checkAuthAttempts rejects once the counter is above the limit and
// otherwise counts this attempt. The counter window starts at the first
// attempt and is not extended by later ones.
func (f *Fantasyee) checkAuthAttempts(ctx context.Context, phone string) error {
	key := rediskey.MemberAuthLock(phone)
	attempt, err := f.counter.Get(ctx, key)
	if err != nil {
		return err
	}
	if attempt > int64(f.config.Auth.AttemptLimit) {
		return apierror.NewBusinessError(apierror.ErrValidation, apierror.VerifyOperationRepeatedly, "Request Login Repeatedly")
	}
	_, err = f.counter.Increase(ctx, key, f.config.Auth.AttemptWindow())
	return err
}

func credentialError(err error) error {
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) && apiErr.Code == apierror.ErrNotFound {
		return errBadCredentials
	}
	return err
}

func checkCredentials(account *model.Account, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return errBadCredentials
	}
	if account.IsBlocked {
		return apierror.NewBusinessError(apierror.ErrForbidden, apierror.UserIsBlocked, "User Has Been Blocked")
	}
	return nil
}

// HashPassword is used when seeding accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (f *Fantasyee) loadClaimedAccount(ctx context.Context, claims *TokenClaims) (*model.Account, error) {
	account, err := f.datasource.GetAccountByID(ctx, claims.ID)
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.ErrNotFound {
			return nil, apierror.NewBusinessError(apierror.ErrNotAuthorized, apierror.UserNotFound, "")
		}
		return nil, err
	}
	mismatch := account.Role != claims.Role
	if account.Group == model.GroupUser {
		mismatch = mismatch || account.Phone != claims.Phone
	} else {
		mismatch = mismatch || account.Username != claims.Username
	}
	if mismatch {
		return nil, apierror.NewBusinessError(apierror.ErrNotAuthorized, apierror.InvalidAccessToken, "")
	}
	if account.IsBlocked {
		return nil, apierror.NewBusinessError(apierror.ErrForbidden, apierror.UserIsBlocked, "User Has Been Blocked")
	}
	return account, nil
}

func (f *Fantasyee) issueTokens(account *model.Account) (*LoginResult, error) {
	access, err := f.signToken(account, tokenTypeAccess, time.Duration(f.config.Server.AccessTokenTTLSec)*time.Second)
	if err != nil {
		return nil, err
	}
	refresh, err := f.signToken(account, tokenTypeRefresh, time.Duration(f.config.Server.RefreshTokenTTLSec)*time.Second)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Username:     account.Username,
		Phone:        account.Phone,
		Email:        account.Email,
		Role:         account.Role,
		Token:        access,
		RefreshToken: refresh,
	}, nil
}

func (f *Fantasyee) signToken(account *model.Account, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		ID:       account.ID,
		Username: account.Username,
		Role:     account.Role,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        model.GenerateUUIDWithSuffix(tokenType),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if account.Group == model.GroupUser {
		claims.Phone = account.Phone
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(f.config.Server.JWTSecret))
	if err != nil {
		return "", apierror.NewAPIError(apierror.ErrInternalServer, "Failed to sign token", err)
	}
	return signed, nil
}

func (f *Fantasyee) parseToken(raw, tokenType string) (*TokenClaims, error) {
	invalid := apierror.InvalidAccessToken
	if tokenType == tokenTypeRefresh {
		invalid = apierror.InvalidRefreshToken
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(f.config.Server.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && tokenType == tokenTypeAccess {
			return nil, apierror.NewBusinessError(apierror.ErrNotAuthorized, apierror.AccessTokenIsExpired, "")
		}
		return nil, apierror.NewBusinessError(apierror.ErrNotAuthorized, invalid, "")
	}
	if claims.Type != tokenType || claims.ID == 0 || !claims.Role.Valid() {
		return nil, apierror.NewBusinessError(apierror.ErrNotAuthorized, invalid, "")
	}
	return claims, nil
}

// recordLogin stores the member's latest login, caches a snapshot for a day
// and adds the member to the day's login record.
func (f *Fantasyee) recordLogin(ctx context.Context, member *model.Account, detail LoginDetail) error {
	if err := f.datasource.UpdateLoginDetail(ctx, member.ID, loginInfo(detail)); err != nil {
		return err
	}

	now := time.Now()
	snapshot := MemberLoginSnapshot{
		ID:       member.ID,
		Username: member.Username,
		Phone:    member.Phone,
		Role:     member.Role,
		Address:  detail.Address,
		LoginAt:  now,
	}
	if err := f.cache.Set(ctx, rediskey.MemberLogin(member.ID), snapshot, memberLoginTTL); err != nil {
		logrus.Warnf("failed to cache login of member %d: %v", member.ID, err)
	}

	recordKey := rediskey.MemberLoginRecord(now.Format("2006-01-02"))
	pipe := f.redis.TxPipeline()
	pipe.SAdd(ctx, recordKey, member.ID)
	pipe.Expire(ctx, recordKey, memberLoginRecordTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.Warnf("failed to add member %d to %s: %v", member.ID, recordKey, err)
	}
	return nil
}

// LatestLogin returns the cached login snapshot of a member, if any.
func (f *Fantasyee) LatestLogin(ctx context.Context, memberID int64) (*MemberLoginSnapshot, bool, error) {
	var snapshot MemberLoginSnapshot
	found, err := f.cache.Get(ctx, rediskey.MemberLogin(memberID), &snapshot)
	if err != nil || !found {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// LoginCount returns how many distinct members logged in on date (YYYY-MM-DD).
func (f *Fantasyee) LoginCount(ctx context.Context, date string) (int64, error) {
	return f.redis.SCard(ctx, rediskey.MemberLoginRecord(date)).Result()
}

func loginInfo(detail LoginDetail) map[string]interface{} {
	return map[string]interface{}{
		"login_address":  detail.Address,
		"login_datetime": time.Now().Format("2006-01-02 15:04:05"),
		"platform":       detail.Platform,
		"browser":        detail.Browser,
		"is_app":         detail.IsApp,
	}
}
