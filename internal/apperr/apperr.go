// Package apperr defines the typed failures that travel from repositories,
// the reaction ledger and the authentication gate up to the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindDatabase          Kind = "database_error"
	KindNotFound          Kind = "not_found"
	KindInvalidIdentifier Kind = "invalid_identifier"
	KindMissingCredential Kind = "missing_credential"
	KindInvalidCredential Kind = "invalid_credential"
	KindAlreadyExists     Kind = "already_exists"
	KindUpload            Kind = "upload_error"
	KindForbidden         Kind = "forbidden"
	KindBadRequest        Kind = "bad_request"
	KindTokenIssue        Kind = "token_error"
	KindDelivery          Kind = "delivery_error"
	KindRateLimited       Kind = "rate_limited"
)

// Error carries a machine readable kind, a message safe to show to callers
// and an optional diagnostic cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrDatabase          = &Error{Kind: KindDatabase}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidIdentifier = &Error{Kind: KindInvalidIdentifier}
	ErrMissingCredential = &Error{Kind: KindMissingCredential}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrBadRequest        = &Error{Kind: KindBadRequest}
)

func Database(cause error) *Error {
	return &Error{Kind: KindDatabase, Message: "Unexpected Error", Cause: cause}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func InvalidIdentifier(id string, cause error) *Error {
	return &Error{Kind: KindInvalidIdentifier, Message: fmt.Sprintf("Invalid Id %q", id), Cause: cause}
}

func MissingCredential() *Error {
	return &Error{
		Kind:    KindMissingCredential,
		Message: "Add the JWT token Header",
		Cause:   errors.New("no jwt token attached"),
	}
}

func InvalidCredential(cause error) *Error {
	return &Error{Kind: KindInvalidCredential, Message: "Invalid or expired token", Cause: cause}
}

// IncorrectPassword rejects a login whose password does not match.
func IncorrectPassword() *Error {
	return &Error{Kind: KindInvalidCredential, Message: "Incorrect Password"}
}

func AlreadyExists(message string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: message}
}

func Upload(cause error) *Error {
	return &Error{Kind: KindUpload, Message: "Upload Failed", Cause: cause}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func BadRequest(message string, cause error) *Error {
	return &Error{Kind: KindBadRequest, Message: message, Cause: cause}
}

func TokenIssue(cause error) *Error {
	return &Error{Kind: KindTokenIssue, Message: "JWT Encoding Error", Cause: cause}
}

func Delivery(cause error) *Error {
	return &Error{Kind: KindDelivery, Message: "Delivery Failed", Cause: cause}
}

func RateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: "Too many requests, try again later"}
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidIdentifier, KindBadRequest:
		return http.StatusBadRequest
	case KindMissingCredential, KindInvalidCredential:
		return http.StatusUnauthorized
	case KindAlreadyExists:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON body written for every failed request.
type Response struct {
	Kind  Kind   `json:"kind"`
	Error string `json:"error"`
	Cause string `json:"cause"`
}

// From converts any error into an *Error; unknown errors become database errors.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Database(err)
}

// ToResponse renders err as a status code and response body.
func ToResponse(err error) (int, Response) {
	e := From(err)
	msg := e.Message
	if msg == "" {
		msg = "Unexpected Error"
	}
	cause := "Unexpected Error"
	if e.Cause != nil {
		cause = e.Cause.Error()
	}
	return Status(e.Kind), Response{Kind: e.Kind, Error: msg, Cause: cause}
}
