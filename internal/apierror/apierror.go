package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrConflict          ErrorCode = "CONFLICT"
	ErrBadRequest        ErrorCode = "BAD_REQUEST"
	ErrInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrInternalServer    ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrValidation        ErrorCode = "VALIDATION"
	ErrNotAuthorized     ErrorCode = "NOT_AUTHORIZED"
	ErrForbidden         ErrorCode = "FORBIDDEN"
	ErrResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"
)

// BusinessCode is the numeric code clients branch on.
type BusinessCode int

const (
	BaseError                           BusinessCode = 1001
	Unknown                             BusinessCode = 1002
	ResourceExhausted                   BusinessCode = 1003
	DataError                           BusinessCode = 2001
	InvalidOperation                    BusinessCode = 3001
	InvalidPermission                   BusinessCode = 3002
	InvalidAccessToken                  BusinessCode = 3003
	AccessTokenMissing                  BusinessCode = 3101
	AccessTokenIsExpired                BusinessCode = 3102
	ReachedMaximumRetryAttempts         BusinessCode = 3105
	UsernameIsNotExistOrPasswordIsWrong BusinessCode = 3107
	UserIsBlocked                       BusinessCode = 3109
	UserNotFound                        BusinessCode = 3110
	VerifyOperationRepeatedly           BusinessCode = 3111
	AmountInsufficient                  BusinessCode = 3113
	AmountInvalid                       BusinessCode = 3114
	AppVersionDetailIsMissing           BusinessCode = 3116
	AppVersionIsOutOfDate               BusinessCode = 3117
	AppVersionFormatError               BusinessCode = 3118
	InvalidIPAddress                    BusinessCode = 3119
	InvalidRefreshToken                 BusinessCode = 3120
)

var businessKeys = map[BusinessCode]string{
	BaseError:                           "BASE_ERROR",
	Unknown:                             "UNKNOWN",
	ResourceExhausted:                   "RESOURCE_EXHAUSTED",
	DataError:                           "DATA_ERROR",
	InvalidOperation:                    "INVALID_OPERATION",
	InvalidPermission:                   "INVALID_PERMISSION",
	InvalidAccessToken:                  "INVALID_ACCESS_TOKEN",
	AccessTokenMissing:                  "ACCESS_TOKEN_MISSING",
	AccessTokenIsExpired:                "ACCESS_TOKEN_IS_EXPIRED",
	ReachedMaximumRetryAttempts:         "REACHED_MAXIMUM_RETRY_ATTEMPTS",
	UsernameIsNotExistOrPasswordIsWrong: "USERNAME_IS_NOT_EXIST_OR_PASSWORD_IS_WRONG",
	UserIsBlocked:                       "USER_IS_BLOCKED",
	UserNotFound:                        "USER_NOT_FOUND",
	VerifyOperationRepeatedly:           "VERIFY_OPERATION_REPEATEDLY",
	AmountInsufficient:                  "AMOUNT_INSUFFICIENT",
	AmountInvalid:                       "AMOUNT_INVALID",
	AppVersionDetailIsMissing:           "APP_VERSION_DETAIL_IS_MISSING",
	AppVersionIsOutOfDate:               "APP_VERSION_IS_OUT_OF_DATE",
	AppVersionFormatError:               "APP_VERSION_FORMAT_ERROR",
	InvalidIPAddress:                    "INVALID_IP_ADDRESS",
	InvalidRefreshToken:                 "INVALID_REFRESH_TOKEN",
}

var businessMessages = make(map[BusinessCode]string, len(businessKeys))

func init() {
	for code, key := range businessKeys {
		words := strings.Split(strings.ToLower(key), "_")
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		businessMessages[code] = strings.Join(words, " ")
	}
}

func (c BusinessCode) Key() string {
	if key, ok := businessKeys[c]; ok {
		return key
	}
	return businessKeys[Unknown]
}

// Message is the title-cased key, e.g. "Amount Insufficient".
func (c BusinessCode) Message() string {
	if msg, ok := businessMessages[c]; ok {
		return msg
	}
	return businessMessages[Unknown]
}

type APIError struct {
	Code     ErrorCode    `json:"code"`
	Business BusinessCode `json:"error_code,omitempty"`
	Message  string       `json:"message"`
	Details  interface{}  `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes Details when it is an error so sentinels stay matchable.
func (e APIError) Unwrap() error {
	if err, ok := e.Details.(error); ok {
		return err
	}
	return nil
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.Error(details)
	}
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewBusinessError builds an error carrying a business code. An empty
// message falls back to the code's title-cased key.
func NewBusinessError(code ErrorCode, business BusinessCode, message string) APIError {
	if message == "" {
		message = business.Message()
	}
	return APIError{
		Code:     code,
		Business: business,
		Message:  message,
	}
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidInput, ErrBadRequest, ErrValidation:
		return http.StatusBadRequest
	case ErrNotAuthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrResourceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Response is the body every failed request is rendered with.
type Response struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"error_code"`
	ErrorKey  string `json:"error_key"`
	ErrorMsg  string `json:"error_msg"`
}

// ToResponse renders err. Errors that are not APIErrors are reported as
// UNKNOWN without leaking their text.
func ToResponse(err error) Response {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return Response{
			Message:   Unknown.Message(),
			ErrorCode: int(Unknown),
			ErrorKey:  Unknown.Key(),
			ErrorMsg:  Unknown.Message(),
		}
	}
	business := apiErr.Business
	if business == 0 {
		business = defaultBusiness(apiErr.Code)
	}
	return Response{
		Message:   apiErr.Message,
		ErrorCode: int(business),
		ErrorKey:  business.Key(),
		ErrorMsg:  business.Message(),
	}
}

func defaultBusiness(code ErrorCode) BusinessCode {
	switch code {
	case ErrNotFound, ErrConflict:
		return DataError
	case ErrInvalidInput, ErrBadRequest, ErrValidation:
		return InvalidOperation
	case ErrNotAuthorized:
		return InvalidAccessToken
	case ErrForbidden:
		return InvalidPermission
	case ErrResourceExhausted:
		return ResourceExhausted
	default:
		return BaseError
	}
}
