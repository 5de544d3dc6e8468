// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for the user directory.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct tagged with a [Kind] and carrying a client-safe message.
  - Kind: A closed enumeration of failure categories.
  - Mapping: A single lookup table from [Kind] to HTTP status code.

Every error that leaves the service layer should be an [AppError] to ensure
consistent API responses. Anything else is treated as [KindServerError].
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// # Error Kinds

// Kind tags an [AppError] with its failure category.
type Kind int

const (
	KindServerError Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTimeout
	KindConflict
	KindInvalidInput
	KindTooManyRequests
)

// statusByKind is the only place where a [Kind] is translated into HTTP.
var statusByKind = map[Kind]int{
	KindServerError:     http.StatusInternalServerError,
	KindBadRequest:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindTimeout:         http.StatusRequestTimeout,
	KindConflict:        http.StatusConflict,
	KindInvalidInput:    http.StatusUnprocessableEntity,
	KindTooManyRequests: http.StatusTooManyRequests,
}

var kindNames = map[Kind]string{
	KindServerError:     "SERVER_ERROR",
	KindBadRequest:      "BAD_REQUEST",
	KindUnauthorized:    "UNAUTHORIZED",
	KindForbidden:       "FORBIDDEN",
	KindNotFound:        "NOT_FOUND",
	KindTimeout:         "TIMEOUT",
	KindConflict:        "CONFLICT",
	KindInvalidInput:    "INVALID_INPUT",
	KindTooManyRequests: "TOO_MANY_REQUESTS",
}

// Status returns the HTTP status code for the kind.
// Unknown kinds fall back to 500.
func (k Kind) Status() int {
	if status, ok := statusByKind[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// String implements [fmt.Stringer].
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// GenericServerMessage is returned to clients in place of any 5xx message.
const GenericServerMessage = "Oops, looks like something went wrong. Please try again later"

// # Error Type

// AppError is the canonical error type for the API.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Kind selects the HTTP status through [Kind.Status].
	Kind Kind `json:"-"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds structured context: per-field failures or the conflicting key.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level failure.
type FieldError struct {
	// Field is the JSON field name that failed.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
	// Value is the offending value, set for conflicts only.
	Value string `json:"value,omitempty"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus is a shortcut for e.Kind.Status().
func (e *AppError) HTTPStatus() int { return e.Kind.Status() }

// Code is the machine-readable name of the error kind.
func (e *AppError) Code() string { return e.Kind.String() }

// New builds an [AppError] of the given kind.
func New(kind Kind, msg string, details ...FieldError) *AppError {
	return &AppError{Kind: kind, Message: msg, Details: details}
}

// # Client Errors (4xx)

// BadRequest creates a 400 [AppError] for a malformed identifier or query parameter.
func BadRequest(msg string, details ...FieldError) *AppError {
	return New(KindBadRequest, msg, details...)
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return New(KindNotFound, resource+" not found")
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return New(KindUnauthorized, msg)
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return New(KindForbidden, msg)
}

// Timeout creates a 408 [AppError].
func Timeout(msg string) *AppError {
	return New(KindTimeout, msg)
}

// Conflict creates a 409 [AppError] naming the duplicated field and value.
//
// Example:
//
//	apperr.Conflict("email", "a@b.co") // "a@b.co already exists for email."
func Conflict(field, value string) *AppError {
	return New(KindConflict, fmt.Sprintf("%s already exists for %s.", value, field), FieldError{
		Field:   field,
		Message: "Duplicate key error",
		Value:   value,
	})
}

// InvalidInput creates a 422 [AppError] with optional per-field details.
func InvalidInput(msg string, details ...FieldError) *AppError {
	return New(KindInvalidInput, msg, details...)
}

// TooManyRequests creates a 429 [AppError].
func TooManyRequests(retryAfterSeconds int) *AppError {
	return New(KindTooManyRequests, fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Kind:    KindServerError,
		Message: GenericServerMessage,
		Cause:   cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsKind reports whether err carries an [AppError] of the given kind.
func IsKind(err error, kind Kind) bool {
	ae := As(err)
	return ae != nil && ae.Kind == kind
}

// Classify converts any error into an [*AppError]. Errors outside the taxonomy
// become [KindServerError] with the generic message.
//
// Client messages never contain double quotes so they embed safely in any
// payload format.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}

	ae := As(err)
	if ae == nil {
		return Internal(err)
	}

	if ae.Kind == KindServerError && ae.Message != GenericServerMessage {
		sanitized := *ae
		sanitized.Message = GenericServerMessage
		if sanitized.Cause == nil {
			sanitized.Cause = errors.New(ae.Message)
		}
		return &sanitized
	}

	if strings.Contains(ae.Message, `"`) {
		sanitized := *ae
		sanitized.Message = strings.ReplaceAll(ae.Message, `"`, "")
		return &sanitized
	}
	return ae
}
