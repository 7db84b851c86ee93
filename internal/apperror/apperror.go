// Package apperror defines the application error taxonomy and the uniform
// JSON envelope every error response is rendered with:
//
//	{detail, error_code, event_id, additional_info}
//
// Domain errors are created at the point of detection and propagate
// unmodified to the HTTP boundary; the Echo error handler in handler.go
// turns them into responses and logs them under a correlation id.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error with a stable machine-readable code and HTTP
// status. AdditionalInfo carries computer-readable context (ids, emails).
type Error struct {
	Code           string
	Status         int
	Detail         string
	AdditionalInfo map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Detail)
}

// As unwraps err into *Error when possible.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Stable machine-readable error codes, for callers that branch on a
// specific failure.
const (
	CodeUserNotFound       = "UserNotFoundException"
	CodeUserDeleted        = "UserDeletedException"
	CodeAuthSessionDeleted = "AuthSessionDeletedException"
	CodeValidation         = "ValidationException"
)

func newError(code string, status int, detail string) *Error {
	return &Error{Code: code, Status: status, Detail: detail, AdditionalInfo: map[string]any{}}
}

// BadAuthData: wrong email or password at login. Deliberately generic so the
// caller cannot tell which one was wrong.
func BadAuthData() *Error {
	return newError("BadAuthDataException", http.StatusUnauthorized, "Bad auth data")
}

// BadFingerprint: refresh presented with a mismatched device fingerprint.
// Raising it terminates the session.
func BadFingerprint() *Error {
	return newError("BadFingerprintException", http.StatusUnauthorized, "Bad fingerprint")
}

// Unauthorized: invalid, expired or missing bearer token.
func Unauthorized(detail string) *Error {
	return newError("UnauthorizedException", http.StatusUnauthorized, detail)
}

func AuthSessionNotFound() *Error {
	return newError("AuthSessionNotFoundException", http.StatusNotFound, "Auth session not found")
}

func AuthSessionDeleted() *Error {
	return newError(CodeAuthSessionDeleted, http.StatusConflict, "Auth session deleted")
}

func UserNotFound() *Error {
	return newError(CodeUserNotFound, http.StatusNotFound, "User not found")
}

func UserDeleted() *Error {
	return newError(CodeUserDeleted, http.StatusConflict, "User deleted")
}

func UserEmailAlreadyExists(email string) *Error {
	e := newError("UserEmailAlreadyExistsException", http.StatusConflict,
		fmt.Sprintf("User with email %s already exists, please use another email", email))
	e.AdditionalInfo["email"] = email
	return e
}

func FolderNotFound(folderID uint64) *Error {
	e := newError("FolderNotFoundException", http.StatusNotFound,
		fmt.Sprintf("Folder %d not found", folderID))
	e.AdditionalInfo["folder_id"] = folderID
	return e
}

func RecordNotFound(recordID uint64) *Error {
	e := newError("RecordNotFoundException", http.StatusNotFound,
		fmt.Sprintf("Record %d not found", recordID))
	e.AdditionalInfo["record_id"] = recordID
	return e
}

// Validation: malformed or invalid request data (422). Validation errors are
// not individually tracked, so the handler renders them with the all-zero
// event id.
func Validation(errs any) *Error {
	e := newError(CodeValidation, http.StatusUnprocessableEntity, "Invalid request data.")
	e.AdditionalInfo["errors"] = errs
	return e
}
