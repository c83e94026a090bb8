package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrInvalidInput - invalid input (show validation error to the caller)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - resource not found (unknown tool, unknown city)
	ErrNotFound = errors.New("not found")

	// ErrTransient - transient error (network hiccup, rate limit)
	ErrTransient = errors.New("transient error")

	// ErrInternal - internal error (generic message + trace id)
	ErrInternal = errors.New("internal error")

	// ErrConfig - configuration missing or invalid, fail fast at startup
	ErrConfig = errors.New("configuration error")

	// ErrAPI - completion endpoint returned a non-success response
	ErrAPI = errors.New("api request failed")

	// ErrMalformedToolCall - tool call arguments are not a valid JSON object
	ErrMalformedToolCall = errors.New("malformed tool call")

	// ErrToolExecution - tool session reported a failure
	ErrToolExecution = errors.New("tool execution failed")

	// ErrTimeout - long-running tool call exceeded its deadline
	ErrTimeout = errors.New("tool call timed out")

	// ErrFetch - fetch tool could not retrieve the page
	ErrFetch = errors.New("fetch failed")
)
