package dto

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ssis-app/ssis/internal/pkg/apperrors"
)

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Authentication errors
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeTokenNotFound      ErrorCode = "AUTH_007"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_008"

	// Resource errors
	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"
	ErrorCodeConflict              ErrorCode = "RES_004"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VAL_001"
	ErrorCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrorCodeForbidden        ErrorCode = "FORBIDDEN"

	// Server errors
	ErrorCodeInternalServer ErrorCode = "SRV_001"
)

// ErrorResponse is the body of every failed request.
// Clients match on Error, so its wording is part of the contract.
type ErrorResponse struct {
	Error   string      `json:"error" example:"College code already exists"`
	Code    ErrorCode   `json:"code" example:"RES_004"`
	Field   string      `json:"field,omitempty" example:"collegeCode"`
	Details interface{} `json:"details,omitempty"`
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: message,
		Code:  code,
	}
}

// WithField adds a field name to the error response
func (e *ErrorResponse) WithField(field string) *ErrorResponse {
	e.Field = field
	return e
}

// WithDetails adds additional details to the error response
func (e *ErrorResponse) WithDetails(details interface{}) *ErrorResponse {
	e.Details = details
	return e
}

// BindingError converts a request binding failure into a validation error
// with the message clients expect. Any failed presence check reports the
// generic missing-fields message.
func BindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewBadRequestError("Invalid request body")
	}

	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "trimmed":
			return apperrors.ErrMissingFields
		}
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "studentid":
		return apperrors.ErrInvalidStudentID
	case "max":
		return apperrors.NewValidationError(fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param()))
	case "min":
		return apperrors.NewValidationError(fmt.Sprintf("%s must be at least %s.", fe.Field(), fe.Param()))
	case "oneof":
		return apperrors.NewValidationError(fmt.Sprintf("%s must be one of: %s.", fe.Field(), fe.Param()))
	case "email":
		return apperrors.NewValidationError("Email is not valid.")
	default:
		return apperrors.NewValidationError(fmt.Sprintf("%s validation failed: %s", fe.Field(), fe.Tag()))
	}
}
