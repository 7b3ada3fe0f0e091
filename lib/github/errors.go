// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError represents a non-2xx response from the GitHub REST API.
// GitHub returns structured JSON error bodies with a message, optional
// documentation URL, and optional field-level validation errors.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string

	// Errors contains field-level validation failures. Present only
	// on 422 Unprocessable Entity responses.
	Errors []ValidationError
}

// ValidationError describes a specific validation failure on a
// resource field.
type ValidationError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "github: HTTP %d: %s", err.StatusCode, err.Message)
	for _, validationError := range err.Errors {
		if validationError.Message != "" {
			fmt.Fprintf(&builder, "; %s.%s: %s", validationError.Resource, validationError.Field, validationError.Message)
		} else {
			fmt.Fprintf(&builder, "; %s.%s: %s", validationError.Resource, validationError.Field, validationError.Code)
		}
	}
	return builder.String()
}

// parseAPIError decodes a GitHub error body into an *APIError. Bodies
// that are not valid JSON become the raw message.
func parseAPIError(statusCode int, body []byte) error {
	apiError := &APIError{StatusCode: statusCode}

	var parsed struct {
		Message          string            `json:"message"`
		DocumentationURL string            `json:"documentation_url"`
		Errors           []ValidationError `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		apiError.Message = parsed.Message
		apiError.DocumentationURL = parsed.DocumentationURL
		apiError.Errors = parsed.Errors
	} else {
		apiError.Message = strings.TrimSpace(string(body))
	}
	return apiError
}

// IsNotFound reports whether err is a GitHub API 404 Not Found response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}

// IsValidationFailed reports whether err is a GitHub API 422 response
// with field-level validation errors.
func IsValidationFailed(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 422
}
