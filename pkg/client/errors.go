package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrTokenMissing is returned by New when no API token is configured.
	ErrTokenMissing = errors.New("no token set")

	// ErrUnknownEndpoint is returned for endpoints the client has no record
	// field mapping for.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents payloads that could not be decoded.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError represents a failed search request.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data.com %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("data.com %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ParamError reports a client setting outside its allowed range.
type ParamError struct {
	Param string
	Value int
	Min   int
	Max   int
}

// Error implements the error interface.
func (e *ParamError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d, received %d", e.Param, e.Min, e.Max, e.Value)
}

// classifyStatus maps an HTTP status code to an ErrorClass.
// Returns "" for non-error statuses.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
