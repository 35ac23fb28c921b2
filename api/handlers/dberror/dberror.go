// Package dberror classifies warehouse errors for HTTP responses.
package dberror

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ErrorType classifies database errors for appropriate handling.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConnectivity indicates the database is unreachable.
	ErrorTypeConnectivity
	// ErrorTypeTimeout indicates the operation timed out.
	ErrorTypeTimeout
	// ErrorTypeAuth indicates authentication/authorization failure.
	ErrorTypeAuth
	// ErrorTypeQuery indicates a query/syntax error.
	ErrorTypeQuery
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConnectivity:
		return "connectivity"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeQuery:
		return "query"
	default:
		return "unknown"
	}
}

// ClickHouse server error codes.
const (
	codeTimeoutExceeded      = 159
	codeUnknownTable         = 60
	codeUnknownIdentifier    = 47
	codeSyntaxError          = 62
	codeAuthenticationFailed = 516
	codeAccessDenied         = 497
	codeUnknownDatabase      = 81
)

// Classify determines the type of database error.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	var exception *clickhouse.Exception
	if errors.As(err, &exception) {
		switch exception.Code {
		case codeTimeoutExceeded:
			return ErrorTypeTimeout
		case codeAuthenticationFailed, codeAccessDenied:
			return ErrorTypeAuth
		case codeUnknownTable, codeUnknownIdentifier, codeSyntaxError, codeUnknownDatabase:
			return ErrorTypeQuery
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeConnectivity
	}

	errStr := strings.ToLower(err.Error())

	// Connection/connectivity patterns
	connectivityPatterns := []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"no such host",
		"dial tcp",
		"eof",
		"broken pipe",
		"network is unreachable",
		"no route to host",
		"i/o timeout",
		"acquire conn timeout",
		"clickhouse: connection is closed",
	}

	for _, pattern := range connectivityPatterns {
		if strings.Contains(errStr, pattern) {
			return ErrorTypeConnectivity
		}
	}

	// Timeout patterns
	timeoutPatterns := []string{
		"timeout",
		"deadline exceeded",
		"timed out",
	}

	for _, pattern := range timeoutPatterns {
		if strings.Contains(errStr, pattern) {
			return ErrorTypeTimeout
		}
	}

	// Auth patterns
	authPatterns := []string{
		"authentication failed",
		"access denied",
		"not enough privileges",
	}

	for _, pattern := range authPatterns {
		if strings.Contains(errStr, pattern) {
			return ErrorTypeAuth
		}
	}

	// Query/syntax patterns
	queryPatterns := []string{
		"syntax error",
		"unknown identifier",
		"unknown table",
		"unknown expression",
	}

	for _, pattern := range queryPatterns {
		if strings.Contains(errStr, pattern) {
			return ErrorTypeQuery
		}
	}

	return ErrorTypeUnknown
}

// StatusCode maps a warehouse error to an HTTP status.
func StatusCode(err error) int {
	switch Classify(err) {
	case ErrorTypeConnectivity:
		return http.StatusServiceUnavailable
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns a user-friendly error message based on the error type.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch Classify(err) {
	case ErrorTypeConnectivity:
		return "Database temporarily unavailable. Please try again in a moment."
	case ErrorTypeTimeout:
		return "Request timed out. Please try again."
	case ErrorTypeAuth:
		return "Database authentication error. Please contact support."
	case ErrorTypeQuery:
		return "The dashboard query failed. Check the configured source tables."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
