package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lintgate/lintgate/internal/adapter/transport"
)

// MapHTTPError maps GitHub API HTTP status codes to typed transport errors.
// Rate limiting is detected from 429 and from 403 responses carrying
// X-RateLimit-Remaining: 0, which GitHub's REST API uses for primary rate
// limits instead of 429.
func MapHTTPError(operation string, statusCode int, body []byte, headers http.Header) *transport.Error {
	message := parseErrorMessage(statusCode, body)

	if isRateLimited(statusCode, message, headers) {
		return &transport.Error{
			Type:       transport.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Operation:  operation,
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &transport.Error{
			Type:       transport.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Operation:  operation,
		}

	case http.StatusNotFound:
		return &transport.Error{
			Type:       transport.ErrTypeNotFound,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Operation:  operation,
		}

	case http.StatusUnprocessableEntity:
		return &transport.Error{
			Type:       transport.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Operation:  operation,
		}

	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return &transport.Error{
			Type:       transport.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Operation:  operation,
		}

	default:
		return &transport.Error{
			Type:       transport.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			Operation:  operation,
		}
	}
}

// isRateLimited reports whether the response indicates GitHub rate limiting.
func isRateLimited(statusCode int, message string, headers http.Header) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if statusCode != http.StatusForbidden {
		return false
	}
	if headers.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return strings.Contains(message, "rate limit") ||
		strings.Contains(message, "API rate limit exceeded")
}

// parseErrorMessage extracts a user-friendly error message from GitHub's response.
func parseErrorMessage(statusCode int, body []byte) string {
	var errResp GitHubErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		// Include body preview for debugging non-JSON responses
		bodyPreview := transport.TruncateForLogging(string(body))
		if bodyPreview == "" {
			return fmt.Sprintf("HTTP %d", statusCode)
		}
		return fmt.Sprintf("HTTP %d: %s", statusCode, bodyPreview)
	}

	if errResp.Message == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}

	// If there are validation errors, append them
	if len(errResp.Errors) > 0 {
		var details []string
		for _, e := range errResp.Errors {
			if e.Message != "" {
				details = append(details, e.Message)
			} else if e.Field != "" {
				details = append(details, fmt.Sprintf("%s: %s", e.Field, e.Code))
			}
		}
		if len(details) > 0 {
			return fmt.Sprintf("%s: %s", errResp.Message, strings.Join(details, "; "))
		}
	}

	return errResp.Message
}
