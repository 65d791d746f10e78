package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindConfiguration Kind = "ConfigurationError"
	KindMalformed     Kind = "MalformedInput"
	KindMissingField  Kind = "MissingField"
	KindInvalidField  Kind = "InvalidField"
	KindMalformedCart Kind = "MalformedCart"
	KindEmptyCart     Kind = "EmptyCart"
	KindPersistence   Kind = "PersistenceError"
	KindNotification  Kind = "NotificationError"
	KindPatch         Kind = "PatchError"
	KindNotFound      Kind = "NotFound"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func Configuration(err error) *Error {
	return New(http.StatusInternalServerError, KindConfiguration,
		"Server configuration error: missing credentials or invalid configuration.", err)
}

func Malformed(err error) *Error {
	msg := "Error processing the request data. Please check your data and try again."
	if err != nil {
		msg = fmt.Sprintf("Error processing the request data: %v. Please check your data and try again.", err)
	}
	return New(http.StatusBadRequest, KindMalformed, msg, err)
}

func MissingField(field string) *Error {
	e := New(http.StatusBadRequest, KindMissingField, fmt.Sprintf("Missing field '%s'.", field), nil)
	e.Field = field
	return e
}

func InvalidField(field string, err error) *Error {
	e := New(http.StatusBadRequest, KindInvalidField, fmt.Sprintf("Invalid value for field '%s'.", field), err)
	e.Field = field
	return e
}

func MalformedCart(err error) *Error {
	return New(http.StatusBadRequest, KindMalformedCart, "Invalid cart details format.", err)
}

func EmptyCart() *Error {
	return New(http.StatusBadRequest, KindEmptyCart, "The shopping cart is empty.", nil)
}

func Persistence(err error) *Error {
	return New(http.StatusInternalServerError, KindPersistence, "Error saving the transaction to the database.", err)
}

func Notification(channel string, err error) *Error {
	return New(http.StatusBadGateway, KindNotification, channel+" notification failed", err)
}

func Patch(err error) *Error {
	return New(http.StatusInternalServerError, KindPatch, "failed to attach message reference to transaction", err)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, KindNotFound, message, nil)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an application error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// Status returns the HTTP status and client message for err. Errors that are
// not application errors map to a generic 500.
func Status(err error) (int, string) {
	if appErr, ok := As(err); ok {
		return appErr.Code, appErr.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
