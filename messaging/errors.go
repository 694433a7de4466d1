// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"time"
)

// Matrix error codes the service branches on. Servers define many
// more; anything unlisted still round-trips through MatrixError.Code.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeUnknown       = "M_UNKNOWN"
)

// MatrixError is the structured error payload that every Matrix
// endpoint returns on failure. Extract it with errors.As, or use
// [IsMatrixError] when only the code matters:
//
//	if messaging.IsMatrixError(err, messaging.ErrCodeForbidden) { ... }
type MatrixError struct {
	// Code is the machine-readable error code, e.g. "M_FORBIDDEN".
	Code string `json:"errcode"`
	// Message is the server's human-readable description.
	Message string `json:"error"`
	// RetryAfterMS accompanies M_LIMIT_EXCEEDED: how long the server
	// wants the client to wait before retrying.
	RetryAfterMS int `json:"retry_after_ms"`
	// StatusCode is the HTTP status the payload arrived with.
	StatusCode int `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// RetryDelay returns the backoff requested by a rate-limiting
// response, or zero when the error carries no hint.
func (e *MatrixError) RetryDelay() time.Duration {
	return time.Duration(e.RetryAfterMS) * time.Millisecond
}

// IsMatrixError reports whether err is a *MatrixError carrying the
// given code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	return errors.As(err, &matrixErr) && matrixErr.Code == code
}
