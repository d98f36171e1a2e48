package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	invitationdomain "github.com/smallbiznis/taskflow/internal/invitation/domain"
	organizationdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

const (
	typeValidation   = "validation_error"
	typeUnauthorized = "unauthorized"
	typeForbidden    = "forbidden"
	typeNotFound     = "not_found"
	typeConflict     = "conflict"
	typeRateLimited  = "rate_limited"
	typeUnavailable  = "service_unavailable"
	typeInternal     = "internal_error"
)

// errorRule binds a domain sentinel to its status and public message.
// Messages never reveal which of several credentials was wrong.
type errorRule struct {
	err     error
	status  int
	typ     string
	message string
}

var errorRules = []errorRule{
	{authdomain.ErrInvalidCredentials, http.StatusUnauthorized, typeUnauthorized, "Invalid email or password"},
	{authdomain.ErrRefreshTokenMissing, http.StatusUnauthorized, typeUnauthorized, "Refresh token is required"},
	{authdomain.ErrInvalidRefreshToken, http.StatusUnauthorized, typeUnauthorized, "Invalid refresh token"},
	{authdomain.ErrRefreshTokenNotFound, http.StatusUnauthorized, typeUnauthorized, "Refresh token not found"},
	{authdomain.ErrRefreshTokenMismatch, http.StatusUnauthorized, typeUnauthorized, "Refresh token mismatch"},
	{authdomain.ErrAccessTokenMissing, http.StatusUnauthorized, typeUnauthorized, "Access token missing"},
	{authdomain.ErrInvalidAccessToken, http.StatusUnauthorized, typeUnauthorized, "Invalid or expired access token"},
	{authdomain.ErrUserNotFound, http.StatusUnauthorized, typeUnauthorized, "User not found"},
	{invitationdomain.ErrInvalidInvitationToken, http.StatusUnauthorized, typeUnauthorized, "Invalid invitation token"},
	{ErrUnauthorized, http.StatusUnauthorized, typeUnauthorized, "Unauthorized"},

	{invitationdomain.ErrInvitationEmailMismatch, http.StatusForbidden, typeForbidden, "Invitation email mismatch"},
	{invitationdomain.ErrNotMember, http.StatusForbidden, typeForbidden, "Only members can invite users"},
	{invitationdomain.ErrInsufficientRole, http.StatusForbidden, typeForbidden, "Insufficient permissions to invite users"},
	{organizationdomain.ErrUpdateForbidden, http.StatusForbidden, typeForbidden, "Only owner or admin can update organization"},
	{organizationdomain.ErrDeleteForbidden, http.StatusForbidden, typeForbidden, "Only owner can delete organization"},
	{organizationdomain.ErrForbidden, http.StatusForbidden, typeForbidden, "Access denied"},
	{organizationdomain.ErrMemberNotFound, http.StatusForbidden, typeForbidden, "Access denied"},
	{authorization.ErrForbidden, http.StatusForbidden, typeForbidden, "Access denied"},

	{organizationdomain.ErrNotFound, http.StatusNotFound, typeNotFound, "Organization not found"},
	{invitationdomain.ErrInvitationNotFound, http.StatusNotFound, typeNotFound, "Active invitation not found or invitation has expired"},

	{authdomain.ErrUserExists, http.StatusConflict, typeConflict, "User with this email already exists"},
	{invitationdomain.ErrInvitationExists, http.StatusConflict, typeConflict, "Invitation already sent"},
	{invitationdomain.ErrAlreadyMember, http.StatusConflict, typeConflict, "User is already a member of this organization"},

	{ErrRateLimited, http.StatusTooManyRequests, typeRateLimited, "Too many requests"},
	{ErrServiceUnavailable, http.StatusServiceUnavailable, typeUnavailable, "Service unavailable"},
}

var validationSentinels = []error{
	ErrInvalidRequest,
	organizationdomain.ErrInvalidName,
	organizationdomain.ErrInvalidUser,
	organizationdomain.ErrInvalidOrganization,
	invitationdomain.ErrInvalidRole,
	invitationdomain.ErrInvalidEmail,
	authorization.ErrInvalidRole,
	authorization.ErrInvalidObject,
	authorization.ErrInvalidAction,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    typeInternal,
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    typeValidation,
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    typeValidation,
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	for _, rule := range errorRules {
		if errors.Is(err, rule.err) {
			return rule.status, errorPayload{
				Type:    rule.typ,
				Message: rule.message,
			}
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    typeInternal,
		Message: "internal server error",
	}
}

// classifyErrorForLog feeds the request logger without exposing messages.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status == http.StatusInternalServerError {
		return payload.Type, "unexpected"
	}
	if vErr := asValidationErrors(err); vErr != nil && len(vErr.Errors) > 0 {
		return payload.Type, vErr.Errors[0].Code
	}
	for _, rule := range errorRules {
		if errors.Is(err, rule.err) {
			return payload.Type, rule.err.Error()
		}
	}
	if code, ok := validationErrorCode(err); ok {
		return payload.Type, code
	}
	return payload.Type, ""
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationErrorCode(err error) (string, bool) {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	return "", false
}

func validationErrorField(code string) string {
	if code == ErrInvalidRequest.Error() {
		return "request"
	}
	return strings.TrimPrefix(code, "invalid_")
}
