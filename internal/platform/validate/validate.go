// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Payload validators report [apperr.KindInvalidInput] (422). Query validators,
// built with [ForQuery], report [apperr.KindBadRequest] (400) because a bad
// query string is a malformed request rather than a rejected payload.
package validate

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taibuivan/userdir/internal/platform/apperr"
	"github.com/taibuivan/userdir/pkg/uuidv7"
)

// DateLayout is the accepted calendar-date format (ISO 8601 date).
const DateLayout = "2006-01-02"

var (
	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.BadRequest("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs  []apperr.FieldError
	query bool
}

// ForQuery returns a Validator whose failures are reported as BadRequest.
func ForQuery() *Validator {
	return &Validator{query: true}
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, fmt.Sprintf("%s is required", field))
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("%s length must be less than or equal to %d characters long", field, max))
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("%s length must be at least %d characters long", field, min))
	}
	return v
}

// Email fails if the value is not a bare RFC 5322 address (no display name).
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	if err != nil || address.Address != value || !strings.Contains(value[strings.LastIndex(value, "@")+1:], ".") {
		v.add(field, fmt.Sprintf("%s must be a valid email", field))
	}
	return v
}

// Date fails if the value is not a calendar date in [DateLayout] or RFC 3339.
func (v *Validator) Date(field, value string) *Validator {
	if _, err := ParseDate(value); err != nil {
		v.add(field, fmt.Sprintf("%s must be a valid date", field))
	}
	return v
}

// UUID fails if the value is not a valid UUID string (case-insensitive).
func (v *Validator) UUID(field, value string) *Validator {
	if !uuidv7.Valid(value) {
		v.add(field, fmt.Sprintf("%s must be a valid id", field))
	}
	return v
}

// Int fails if a non-empty value does not parse as a base-10 integer.
func (v *Validator) Int(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := strconv.Atoi(value); err != nil {
		v.add(field, fmt.Sprintf("%s must be a number", field))
	}
	return v
}

// OneOf fails if a non-empty value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("%s must be one of [%s]", field, strings.Join(allowed, ", ")))
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// Example:
//
//	v.Custom("dateOfBirth", dob.After(now), "dateOfBirth must be in the past")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns an [apperr.AppError] if any rules failed, or nil if all rules passed.
//
// This is the only output method. Call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	if v.query {
		return apperr.BadRequest("Invalid query parameter", v.errs...)
	}
	return apperr.InvalidInput("Invalid input", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: strings.ReplaceAll(message, `"`, "")})
}

// ParseDate accepts either a bare date ("1990-04-12") or a full RFC 3339
// timestamp and returns the calendar date at UTC midnight.
func ParseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(DateLayout, value); err == nil {
		return parsed, nil
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}
