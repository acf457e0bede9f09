package httperror

import (
	"fmt"
	"net/http"
)

type HttpError struct {
	ErrorCode   string `json:"errorCode,omitempty"`
	Description string `json:"description,omitempty"`
	Metadata    string `json:"-"`
	StatusCode  int    `json:"-"`
}

func (e HttpError) Error() string {
	return fmt.Sprintf("errorCode: %s, description: %s,  metadata: %s", e.ErrorCode, e.Description, e.Metadata)
}

const (
	UndefinedErrorCode  = "CRM0000"
	SessionMissing      = "CRM0001"
	InvalidSession      = "CRM0002"
	SessionExpired      = "CRM0003"
	PermissionDenied    = "CRM0004"
	RouteNotConfigured  = "CRM0005"
	InvalidCredentials  = "CRM0006"
	BackendUnavailable  = "CRM0007"
	InvalidRequestBody  = "CRM0008"
	SessionStoreFailure = "CRM0009"
)

var httpErrors = map[string]HttpError{
	UndefinedErrorCode: {
		StatusCode:  http.StatusInternalServerError,
		Description: "Something went wrong. Please try again.",
	},
	SessionMissing: {
		StatusCode:  http.StatusUnauthorized,
		Description: "Session is missing. Please login again.",
	},
	InvalidSession: {
		StatusCode:  http.StatusUnauthorized,
		Description: "Session is invalid. Please login again.",
	},
	SessionExpired: {
		StatusCode:  http.StatusUnauthorized,
		Description: "Session is expired. Please login again.",
	},
	PermissionDenied: {
		StatusCode:  http.StatusForbidden,
		Description: "You don't have permission to open this page.",
	},
	RouteNotConfigured: {
		StatusCode:  http.StatusForbidden,
		Description: "This page has no access rules configured.",
	},
	InvalidCredentials: {
		StatusCode:  http.StatusUnauthorized,
		Description: "Invalid username or password",
	},
	BackendUnavailable: {
		StatusCode:  http.StatusBadGateway,
		Description: "CRM backend is unavailable. Please try again.",
	},
	InvalidRequestBody: {
		StatusCode:  http.StatusBadRequest,
		Description: "Invalid request body",
	},
	SessionStoreFailure: {
		StatusCode:  http.StatusInternalServerError,
		Description: "Session could not be stored. Please try again.",
	},
}

func New(key string) HttpError {
	return NewWithStatus(key, "", 0)
}

func NewWithMetadata(key, metadata string) HttpError {
	return NewWithStatus(key, metadata, 0)
}

func NewWithStatus(key, metadata string, status int) HttpError {
	err, ok := httpErrors[key]
	if !ok {
		key = UndefinedErrorCode
		err = httpErrors[UndefinedErrorCode]
	}
	err.ErrorCode = key
	err.Metadata = metadata
	if status != 0 {
		err.StatusCode = status
	}
	return err
}

func NewWithDescription(description string, status int) HttpError {
	return HttpError{
		ErrorCode:   UndefinedErrorCode,
		Description: description,
		StatusCode:  status,
	}
}
