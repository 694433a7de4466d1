// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"fmt"
	"testing"
)

func TestAPIErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			"message only",
			&APIError{StatusCode: 404, Message: "Not Found"},
			"github: HTTP 404: Not Found",
		},
		{
			"field error with message",
			&APIError{
				StatusCode: 422,
				Message:    "Invalid request",
				Errors:     []FieldError{{Resource: "Contents", Field: "sha", Message: "is required"}},
			},
			"github: HTTP 422: Invalid request; Contents.sha: is required",
		},
		{
			"field error falls back to code",
			&APIError{
				StatusCode: 422,
				Message:    "Invalid request",
				Errors:     []FieldError{{Resource: "Contents", Field: "sha", Code: "missing_field"}},
			},
			"github: HTTP 422: Invalid request; Contents.sha: missing_field",
		},
		{
			"multiple field errors in order",
			&APIError{
				StatusCode: 422,
				Message:    "Invalid request",
				Errors: []FieldError{
					{Resource: "Contents", Field: "sha", Code: "missing_field"},
					{Resource: "Contents", Field: "message", Message: "is too long"},
				},
			},
			"github: HTTP 422: Invalid request; Contents.sha: missing_field; Contents.message: is too long",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.err.Error(); got != test.want {
				t.Errorf("Error() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		classes map[string]bool
	}{
		{
			"404",
			&APIError{StatusCode: 404, Message: "Not Found"},
			map[string]bool{"notFound": true},
		},
		{
			"409",
			&APIError{StatusCode: 409, Message: "Conflict"},
			map[string]bool{"conflict": true},
		},
		{
			"422",
			&APIError{StatusCode: 422, Message: "Invalid request"},
			map[string]bool{"unprocessable": true},
		},
		{
			"429 secondary limit",
			&APIError{StatusCode: 429, Message: "Too Many Requests"},
			map[string]bool{"rateLimited": true},
		},
		{
			"403 primary limit",
			&APIError{StatusCode: 403, Message: "API rate limit exceeded for installation ID 12345"},
			map[string]bool{"rateLimited": true},
		},
		{
			"403 abuse detection",
			&APIError{StatusCode: 403, Message: "You have triggered an abuse detection mechanism"},
			map[string]bool{"rateLimited": true},
		},
		{
			"403 permission denied is not a rate limit",
			&APIError{StatusCode: 403, Message: "Resource not accessible by integration"},
			map[string]bool{},
		},
		{
			"plain error matches nothing",
			fmt.Errorf("network down"),
			map[string]bool{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := map[string]bool{
				"notFound":      IsNotFound(test.err),
				"conflict":      IsConflict(test.err),
				"unprocessable": IsUnprocessable(test.err),
				"rateLimited":   IsRateLimited(test.err),
			}
			for class, value := range got {
				if value != test.classes[class] {
					t.Errorf("%s = %v, want %v", class, value, test.classes[class])
				}
			}
		})
	}
}

func TestClassificationSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("writing status file: %w", &APIError{StatusCode: 409, Message: "Conflict"})
	if !IsConflict(wrapped) {
		t.Error("IsConflict should see through fmt.Errorf wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("IsNotFound matched a 409")
	}
}

func TestDecodeAPIErrorKeepsOpaqueBodies(t *testing.T) {
	apiError := decodeAPIError(502, []byte("<html>Bad Gateway</html>"))
	if apiError.StatusCode != 502 {
		t.Errorf("StatusCode = %d", apiError.StatusCode)
	}
	if apiError.Message != "<html>Bad Gateway</html>" {
		t.Errorf("Message = %q, want the raw body", apiError.Message)
	}
}
