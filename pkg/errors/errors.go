package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeHarvestError = "HARVEST_ERROR"
	CodeAPIError     = "API_ERROR"
	CodeAuthError    = "AUTH_ERROR"
	CodeValidation   = "VALIDATION_ERROR"
	CodeCache        = "CACHE_ERROR"
	CodeScrape       = "SCRAPE_ERROR"
)

type HarvestError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *HarvestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *HarvestError) Unwrap() error {
	return e.Cause
}

func NewHarvestError(message, code string, statusCode int, context map[string]any) *HarvestError {
	return &HarvestError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *HarvestError) WithCause(cause error) *HarvestError {
	e.Cause = cause
	return e
}

// APIError is a terminal failure talking to the leaders API: any status >= 400
// outside the auth set, or a transport failure (StatusCode 0).
type APIError struct {
	*HarvestError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		HarvestError: &HarvestError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

// AuthError means the session could not be (re)established or the retry
// budget ran out while the API kept answering 401/403.
type AuthError struct {
	*APIError
}

func NewAuthError(message string, statusCode int, context map[string]any) *AuthError {
	return &AuthError{
		APIError: &APIError{
			HarvestError: &HarvestError{
				Message:    message,
				Code:       CodeAuthError,
				StatusCode: statusCode,
				Context:    context,
			},
		},
	}
}

type ValidationError struct {
	*HarvestError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		HarvestError: &HarvestError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*HarvestError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		HarvestError: &HarvestError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ScrapeError struct {
	*HarvestError
	URL string
}

func NewScrapeError(message, url string, statusCode int, cause error) *ScrapeError {
	return &ScrapeError{
		HarvestError: &HarvestError{
			Message:    message,
			Code:       CodeScrape,
			StatusCode: statusCode,
			Context: map[string]any{
				"url": url,
			},
			Cause: cause,
		},
		URL: url,
	}
}

func IsAuthError(err error) bool {
	var target *AuthError
	return stderrors.As(err, &target)
}

func IsAPIError(err error) bool {
	var target *APIError
	return stderrors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

func IsCacheError(err error) bool {
	var target *CacheError
	return stderrors.As(err, &target)
}

func IsScrapeError(err error) bool {
	var target *ScrapeError
	return stderrors.As(err, &target)
}
