package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

// ErrorCategory buckets a failed fetch for the error-display surface.
type ErrorCategory string

const (
	ErrorNetwork   ErrorCategory = "network"
	ErrorTimeout   ErrorCategory = "timeout"
	ErrorRateLimit ErrorCategory = "rate_limit"
	ErrorAuth      ErrorCategory = "auth"
	ErrorServer    ErrorCategory = "server"
)

// ErrorInfo is the classified error shown alongside the trends chart.
type ErrorInfo struct {
	Category   ErrorCategory `json:"category"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion"`
}

var suggestions = map[ErrorCategory]string{
	ErrorNetwork:   "Check your connection and retry.",
	ErrorTimeout:   "The query took too long. Try a shorter date range.",
	ErrorRateLimit: "Too many requests. Wait a moment before retrying.",
	ErrorAuth:      "Your session may have expired. Sign in again.",
	ErrorServer:    "The reporting service had a problem. Retry shortly.",
}

// ClassifyError maps a fetch failure onto an ErrorInfo. Returns nil for a
// nil error.
func ClassifyError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	category := ErrorNetwork

	var apiErr *upstream.APIError
	switch {
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			category = ErrorRateLimit
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			category = ErrorAuth
		case apiErr.StatusCode >= 500:
			category = ErrorServer
		}
	case errors.Is(err, context.DeadlineExceeded):
		category = ErrorTimeout
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			category = ErrorTimeout
		}
	}

	return &ErrorInfo{
		Category:   category,
		Message:    err.Error(),
		Suggestion: suggestions[category],
	}
}
