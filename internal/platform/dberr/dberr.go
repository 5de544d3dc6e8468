// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/userdir/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")

	// duplicateDetail parses the DETAIL line of a 23505 error:
	// Key (email)=(ada@example.com) already exists.
	duplicateDetail = regexp.MustCompile(`^Key \((.+?)\)=\((.*)\) already exists`)
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Classification
//   - pgx.ErrNoRows               → NotFound
//   - 23505 unique_violation      → Conflict naming the column and value
//   - 23502/23514/22001/22007/22008 → InvalidInput (store-level schema rejection)
//   - anything else               → ServerError (cause kept for logging)
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Already classified upstream
	if apperr.IsAppError(err) {
		return err
	}

	// 2. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 3. Constraint and data errors carry a SQLSTATE
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.UniqueViolation:
			field, value := duplicateKey(pgError)
			conflict := apperr.Conflict(field, value)
			conflict.Cause = err
			return conflict

		case pgerrcode.NotNullViolation, pgerrcode.CheckViolation,
			pgerrcode.StringDataRightTruncationDataException,
			pgerrcode.InvalidDatetimeFormat, pgerrcode.DatetimeFieldOverflow:
			invalid := apperr.InvalidInput("Validation failed", apperr.FieldError{
				Field:   pgError.ColumnName,
				Message: pgError.Message,
			})
			invalid.Cause = err
			return invalid
		}
	}

	// 4. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// WrapEntity is [Wrap] with missing rows reported as "<entity> not found".
func WrapEntity(err error, entity, action string) error {
	wrapped := Wrap(err, action)
	if wrapped == ErrNotFound {
		return apperr.NotFound(entity)
	}
	return wrapped
}

// duplicateKey extracts the offending column and value from a unique violation.
func duplicateKey(pgError *pgconn.PgError) (field, value string) {
	if match := duplicateDetail.FindStringSubmatch(pgError.Detail); match != nil {
		return match[1], match[2]
	}
	if pgError.ColumnName != "" {
		return pgError.ColumnName, "value"
	}
	return pgError.ConstraintName, "value"
}
