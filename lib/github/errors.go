// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/statusdesk/statusdesk/lib/netutil"
)

// APIError is a non-2xx answer from the GitHub REST API, decoded from
// the structured JSON error body GitHub returns.
type APIError struct {
	// StatusCode is the HTTP response status.
	StatusCode int

	// Message is GitHub's top-level error description.
	Message string

	// DocumentationURL points at the API documentation for the failure.
	DocumentationURL string

	// Errors lists field-level validation failures. Only 422 responses
	// carry them.
	Errors []FieldError
}

// FieldError pinpoints one invalid field in a 422 response. Message is
// human text; Code is the machine name ("missing_field" and friends)
// GitHub falls back to when there is no message.
type FieldError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (err *APIError) Error() string {
	text := fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
	for _, field := range err.Errors {
		text += "; " + field.describe()
	}
	return text
}

func (field FieldError) describe() string {
	detail := field.Message
	if detail == "" {
		detail = field.Code
	}
	return fmt.Sprintf("%s.%s: %s", field.Resource, field.Field, detail)
}

// statusOf extracts the HTTP status from an APIError anywhere in err's
// chain, 0 when there is none.
func statusOf(err error) int {
	var apiError *APIError
	if errors.As(err, &apiError) {
		return apiError.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is GitHub's 404. The contents API
// answers 404 for a file that has never been committed, which callers
// treat as an empty starting document rather than a failure.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsConflict reports whether err is GitHub's 409, the rejection for a
// write whose blob SHA no longer matches the file: a concurrent commit
// landed between our read and our write.
func IsConflict(err error) bool {
	return statusOf(err) == http.StatusConflict
}

// IsUnprocessable reports whether err is GitHub's 422 validation
// rejection.
func IsUnprocessable(err error) bool {
	return statusOf(err) == http.StatusUnprocessableEntity
}

// IsRateLimited reports whether err is a rate limit rejection: 429 for
// secondary (abuse) limits, or a 403 whose message names the primary
// limit. Plain permission 403s stay false.
func IsRateLimited(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	if apiError.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return apiError.StatusCode == http.StatusForbidden && looksRateLimited(apiError.Message)
}

// looksRateLimited distinguishes quota 403s from permission 403s by
// the phrases GitHub uses in its rate limit bodies.
func looksRateLimited(message string) bool {
	message = strings.ToLower(message)
	for _, phrase := range []string{"rate limit", "abuse detection"} {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}

// readAPIError drains an error response into an *APIError.
func readAPIError(response *http.Response) *APIError {
	body, _ := netutil.ReadResponse(response.Body)
	return decodeAPIError(response.StatusCode, body)
}

// decodeAPIError builds an *APIError from an error response body.
// Bodies that are not GitHub's JSON error shape (HTML gateway pages,
// truncated reads) are kept verbatim as the message.
func decodeAPIError(statusCode int, body []byte) *APIError {
	parsed := struct {
		Message          string       `json:"message"`
		DocumentationURL string       `json:"documentation_url"`
		Errors           []FieldError `json:"errors"`
	}{}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		return &APIError{
			StatusCode:       statusCode,
			Message:          parsed.Message,
			DocumentationURL: parsed.DocumentationURL,
			Errors:           parsed.Errors,
		}
	}
	return &APIError{StatusCode: statusCode, Message: string(body)}
}
