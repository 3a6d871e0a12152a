package domain

import (
	"errors"
	"net/http"
)

// ErrorCode is the machine-readable code carried in every error response.
type ErrorCode string

const (
	// Authentication (401)
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Authorization (403)
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotAdmin           ErrorCode = "NOT_ADMIN"
	CodeNotHouseholdMember ErrorCode = "NOT_HOUSEHOLD_MEMBER"
	CodeCannotChangeOwner  ErrorCode = "CANNOT_CHANGE_OWNER"

	// Validation (400)
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	CodeMissingField   ErrorCode = "MISSING_FIELD"
	CodeInvalidEmail   ErrorCode = "INVALID_EMAIL"
	CodeInvalidRole    ErrorCode = "INVALID_ROLE"

	// Conflict (409)
	CodeAlreadyInHousehold ErrorCode = "ALREADY_IN_HOUSEHOLD"
	CodeInviteAlreadyUsed  ErrorCode = "INVITE_ALREADY_USED"
	CodeLastAdmin          ErrorCode = "LAST_ADMIN"

	// Not found (404)
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeInviteNotFound ErrorCode = "INVITE_NOT_FOUND"
	CodeUserNotFound   ErrorCode = "USER_NOT_FOUND"

	// Gone (410)
	CodeInviteExpired ErrorCode = "INVITE_EXPIRED"

	// Server (500)
	CodeInternal ErrorCode = "INTERNAL_ERROR"
	CodeDatabase ErrorCode = "DATABASE_ERROR"

	// CodeRateLimited is only produced by the HTTP rate limiter (429).
	CodeRateLimited ErrorCode = "RATE_LIMITED"
)

// codeStatus maps every code to its HTTP status.
var codeStatus = map[ErrorCode]int{
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotAdmin:           http.StatusForbidden,
	CodeNotHouseholdMember: http.StatusForbidden,
	CodeCannotChangeOwner:  http.StatusForbidden,
	CodeInvalidRequest:     http.StatusBadRequest,
	CodeMissingField:       http.StatusBadRequest,
	CodeInvalidEmail:       http.StatusBadRequest,
	CodeInvalidRole:        http.StatusBadRequest,
	CodeAlreadyInHousehold: http.StatusConflict,
	CodeInviteAlreadyUsed:  http.StatusConflict,
	CodeLastAdmin:          http.StatusConflict,
	CodeNotFound:           http.StatusNotFound,
	CodeInviteNotFound:     http.StatusNotFound,
	CodeUserNotFound:       http.StatusNotFound,
	CodeInviteExpired:      http.StatusGone,
	CodeInternal:           http.StatusInternalServerError,
	CodeDatabase:           http.StatusInternalServerError,
	CodeRateLimited:        http.StatusTooManyRequests,
}

// Status returns the HTTP status for the code, 500 for unknown codes.
func (c ErrorCode) Status() int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a coded, user-safe error. Message is shown to clients; Err is the
// underlying cause and is only ever logged by type.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewError creates a coded error with a client-facing message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	return e.Code.Status()
}

// Is matches coded errors by code so callers can use errors.Is against the
// sentinels below regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

const databaseErrorMessage = "A database error occurred. Please try again."

// DatabaseError hides a store failure behind the generic DATABASE_ERROR message.
func DatabaseError(err error) *Error {
	return &Error{Code: CodeDatabase, Message: databaseErrorMessage, Err: err}
}

// InternalError hides any other unexpected failure.
func InternalError(err error) *Error {
	return &Error{Code: CodeInternal, Message: "An internal error occurred. Please try again.", Err: err}
}

// MissingField reports a required request field that was absent or blank.
func MissingField(field string) *Error {
	return NewError(CodeMissingField, "Missing "+field)
}

// Service errors
var (
	ErrUnauthorized       = NewError(CodeUnauthorized, "Missing or invalid session")
	ErrNotHouseholdMember = NewError(CodeNotHouseholdMember, "Not a household member")
	ErrNotAdmin           = NewError(CodeNotAdmin, "Only admins can perform this action")
	ErrCannotChangeOwner  = NewError(CodeCannotChangeOwner, "Owner role cannot be changed")
	ErrInvalidEmail       = NewError(CodeInvalidEmail, "Invalid email")
	ErrInvalidRole        = NewError(CodeInvalidRole, "Invalid role. Must be admin or member")
	ErrAlreadyInHousehold = NewError(CodeAlreadyInHousehold, "User already belongs to a household")
	ErrInviteAlreadyUsed  = NewError(CodeInviteAlreadyUsed, "Invite already accepted")
	ErrLastAdmin          = NewError(CodeLastAdmin, "Cannot remove last admin from household")
	ErrInviteNotFound     = NewError(CodeInviteNotFound, "Invite not found")
	ErrUserNotFound       = NewError(CodeUserNotFound, "Target user not found in household")
	ErrInviteExpired      = NewError(CodeInviteExpired, "Invite expired")
	ErrHouseholdNotFound  = NewError(CodeNotFound, "Household not found")
)

// Store errors. Stores return these for missing rows and rejected
// conditional writes; services translate them into coded errors.
var (
	ErrMembershipNotFound    = errors.New("membership not found")
	ErrHouseholdMissing      = errors.New("household not found")
	ErrInviteMissing         = errors.New("invite not found")
	ErrInviteAlreadyAccepted = errors.New("invite already accepted")
	ErrAlreadyMember         = errors.New("user already belongs to a household")
	ErrDuplicateTokenHash    = errors.New("invite token hash already exists")
	ErrOwnerImmutable        = errors.New("owner membership cannot be changed")
	ErrLastManager           = errors.New("household must keep at least one owner or admin")
)
