package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Messages the dashboard matches on. Keep them stable.
const (
	MsgMissingFields      = "Missing required fields"
	MsgCollegeCodeExists  = "College code already exists"
	MsgProgramCodeExists  = "Program code already exists"
	MsgStudentIDExists    = "Student ID already exists"
	MsgUserExists         = "Email or username already exists."
	MsgEmailNotRegistered = "Email is not registered."
	MsgIncorrectPassword  = "Incorrect password."
)

// College Errors
var (
	ErrCollegeNotFound    = NewResourceNotFoundError("College not found")
	ErrCollegeCodeExists  = NewConflictError(MsgCollegeCodeExists)
	ErrCollegeHasPrograms = NewConflictError("College still has programs and cannot be deleted")
	ErrUnknownCollege     = NewValidationError("College does not exist")
)

// Program Errors
var (
	ErrProgramNotFound   = NewResourceNotFoundError("Program not found")
	ErrProgramCodeExists = NewConflictError(MsgProgramCodeExists)
	ErrUnknownProgram    = NewValidationError("Program does not exist")
)

// Student Errors
var (
	ErrStudentNotFound        = NewResourceNotFoundError("Student not found")
	ErrStudentIDAlreadyExists = NewConflictError(MsgStudentIDExists)
	ErrInvalidStudentID       = NewValidationError("Student ID must follow the format XXXX-XXXX.")
)

// User Errors
var (
	ErrUserNotFound       = NewResourceNotFoundError("User not found")
	ErrUserAlreadyExists  = NewConflictError(MsgUserExists)
	ErrEmailNotRegistered = &CustomError{Err: ErrResourceNotFound, Message: MsgEmailNotRegistered}
	ErrIncorrectPassword  = &CustomError{Err: ErrInvalidCredentials, Message: MsgIncorrectPassword}
)

// ErrMissingFields is the validation failure for blank required fields.
var ErrMissingFields = NewValidationError(MsgMissingFields)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) *CustomError {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) *CustomError {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) *CustomError {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError creates a validation failure carrying a user-facing message.
func NewValidationError(message string) *CustomError {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// Message returns the user-facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}
