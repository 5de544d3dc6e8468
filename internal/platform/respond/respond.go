// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every response (Success or Error) across the entire application follows
// the same JSON envelope:
//
//	{"success": true,  "data": ..., "message": "..."}
//	{"success": false, "message": "...", "details": [...]}
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/taibuivan/userdir/internal/platform/apperr"
	"github.com/taibuivan/userdir/internal/platform/ctxutil"
)

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// RouteNotFoundEnvelope is returned for requests that match no route.
type RouteNotFoundEnvelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Method   string `json:"method"`
	Resource string `json:"resource"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// Success wraps data into the success envelope with an explicit status code.
func Success(writer http.ResponseWriter, statusCode int, data any, message string) {
	JSON(writer, statusCode, SuccessEnvelope{Success: true, Data: data, Message: message})
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data any, message string) {
	Success(writer, http.StatusOK, data, message)
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data any, message string) {
	Success(writer, http.StatusCreated, data, message)
}

// RouteNotFound handles requests that did not match any registered route.
func RouteNotFound(writer http.ResponseWriter, request *http.Request) {
	JSON(writer, http.StatusNotFound, RouteNotFoundEnvelope{
		Message:  "Route not found",
		Method:   request.Method,
		Resource: request.URL.Path,
	})
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	appError := apperr.Classify(err)
	if appError == nil {
		appError = apperr.Internal(nil)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus() >= http.StatusInternalServerError {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus(), ErrorEnvelope{
		Message: appError.Message,
		Details: appError.Details,
	})
}
