package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lintgate/lintgate/internal/adapter/transport"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultGraphQLURL     = "https://api.github.com/graphql"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second

	// maxPaginationPages limits REST Link-header and GraphQL cursor walks.
	// 10 pages * 100 items per page covers any realistic pull request.
	maxPaginationPages = 10

	// maxResponseSize limits how much data is read from a response body.
	maxResponseSize = 10 * 1024 * 1024 // 10 MB
)

// pathSegmentRegex validates that owner/repo names only contain safe characters.
// GitHub allows alphanumeric, hyphens, underscores, and dots (but not leading dots).
var pathSegmentRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// pathTraversalPattern detects path traversal attempts.
var pathTraversalPattern = regexp.MustCompile(`\.\.`)

// Client is an HTTP client for the GitHub REST and GraphQL APIs.
type Client struct {
	token      string
	baseURL    string
	graphQLURL string
	httpClient *http.Client
	retryConf  transport.RetryConfig

	// Observability components
	logger  transport.Logger
	metrics transport.Metrics
}

// NewClient creates a new GitHub API client. The token may be empty; requests
// then go out unauthenticated and GitHub rejects mutations, which the
// publisher treats as a soft failure.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		graphQLURL: defaultGraphQLURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			// Disable redirects to prevent SSRF attacks where a same-host
			// pagination URL could redirect to an internal endpoint.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		retryConf: transport.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// SetBaseURL sets a custom REST base URL (for testing or GitHub Enterprise).
// The GraphQL endpoint follows it unless SetGraphQLURL overrides.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.graphQLURL = c.baseURL + "/graphql"
}

// SetGraphQLURL sets a custom GraphQL endpoint.
func (c *Client) SetGraphQLURL(graphQLURL string) {
	c.graphQLURL = graphQLURL
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetMaxRetries sets the maximum number of retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetInitialBackoff sets the initial backoff duration for retries.
func (c *Client) SetInitialBackoff(backoff time.Duration) {
	c.retryConf.InitialBackoff = backoff
}

// SetMaxBackoff caps the backoff duration between retries.
func (c *Client) SetMaxBackoff(backoff time.Duration) {
	c.retryConf.MaxBackoff = backoff
}

// SetBackoffMultiplier sets the backoff growth factor between retries.
func (c *Client) SetBackoffMultiplier(multiplier float64) {
	c.retryConf.Multiplier = multiplier
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger transport.Logger) {
	c.logger = logger
}

// SetMetrics sets the metrics tracker for this client.
func (c *Client) SetMetrics(metrics transport.Metrics) {
	c.metrics = metrics
}

// setHeaders sets the common headers for GitHub API requests. An accept
// override selects alternate media types, like the unified diff.
func (c *Client) setHeaders(req *http.Request, accept string) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if accept == "" {
		accept = "application/vnd.github+json"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}

// requestResult holds the result of an HTTP request attempt.
type requestResult struct {
	body       []byte
	statusCode int
	linkHeader string
}

// do executes an HTTP request with retry logic, response size limits, and
// error mapping. The returned string is the next page URL from the Link
// header; callers that do not paginate ignore it. For 204 responses the
// returned body is nil.
func (c *Client) do(ctx context.Context, operation, method, apiURL string, body []byte, accept string) ([]byte, string, error) {
	start := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, transport.RequestLog{
			Operation: operation,
			Method:    method,
			URL:       apiURL,
			Timestamp: start,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordCall(operation)
	}

	var result *requestResult
	err := transport.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
		if reqErr != nil {
			return &transport.Error{
				Type:      transport.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Operation: operation,
			}
		}

		c.setHeaders(req, accept)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			errType, retryable := classifyTransportError(callErr)
			return &transport.Error{
				Type:      errType,
				Message:   callErr.Error(),
				Retryable: retryable,
				Operation: operation,
			}
		}
		defer resp.Body.Close()

		// Limit response size to prevent memory exhaustion
		limitedBody := io.LimitReader(resp.Body, maxResponseSize)

		if resp.StatusCode >= 400 {
			bodyBytes, readErr := io.ReadAll(limitedBody)
			if readErr != nil {
				return &transport.Error{
					Type:       transport.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Operation:  operation,
				}
			}
			return MapHTTPError(operation, resp.StatusCode, bodyBytes, resp.Header)
		}

		var respBody []byte
		if resp.StatusCode == http.StatusNoContent {
			// Drain body to enable connection reuse even for 204 responses
			_, _ = io.Copy(io.Discard, limitedBody)
		} else {
			var readErr error
			respBody, readErr = io.ReadAll(limitedBody)
			if readErr != nil {
				return &transport.Error{
					Type:      transport.ErrTypeUnknown,
					Message:   fmt.Sprintf("failed to read response body: %v", readErr),
					Retryable: false,
					Operation: operation,
				}
			}
		}

		result = &requestResult{
			body:       respBody,
			statusCode: resp.StatusCode,
			linkHeader: resp.Header.Get("Link"),
		}
		return nil
	}, c.retryConf)

	duration := time.Since(start)

	if err != nil {
		c.observeError(ctx, operation, duration, err)
		return nil, "", err
	}

	if result == nil {
		return nil, "", fmt.Errorf("no response after retries")
	}

	if c.metrics != nil {
		c.metrics.RecordDuration(operation, duration)
	}
	if c.logger != nil {
		c.logger.LogResponse(ctx, transport.ResponseLog{
			Operation:  operation,
			Timestamp:  time.Now(),
			Duration:   duration,
			StatusCode: result.statusCode,
		})
	}

	return result.body, parseNextPageURL(result.linkHeader), nil
}

// observeError reports a failed call to the logger and metrics.
func (c *Client) observeError(ctx context.Context, operation string, duration time.Duration, err error) {
	var terr *transport.Error
	if !errors.As(err, &terr) {
		return
	}
	if c.logger != nil {
		c.logger.LogError(ctx, transport.ErrorLog{
			Operation:  operation,
			Timestamp:  time.Now(),
			Duration:   duration,
			Error:      err,
			ErrorType:  terr.Type,
			StatusCode: terr.StatusCode,
			Retryable:  terr.Retryable,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordError(operation, terr.Type)
	}
}

// classifyTransportError determines error type and retryability for transport errors.
func classifyTransportError(err error) (errType transport.ErrorType, retryable bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return transport.ErrTypeTimeout, true
	}
	if errors.Is(err, context.Canceled) {
		return transport.ErrTypeUnknown, false // Don't retry cancelled requests
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return transport.ErrTypeTimeout, true
		}
		// Other network errors (DNS, connection refused, etc.) are retryable
		return transport.ErrTypeUnknown, true
	}

	return transport.ErrTypeUnknown, false
}

// parseNextPageURL extracts the "next" URL from a GitHub Link header.
// Link header format: <url>; rel="next", <url>; rel="last"
func parseNextPageURL(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}

	links := strings.Split(linkHeader, ",")
	for _, link := range links {
		parts := strings.Split(strings.TrimSpace(link), ";")
		if len(parts) < 2 {
			continue
		}

		relPart := strings.TrimSpace(parts[1])
		if relPart == `rel="next"` {
			urlPart := strings.TrimSpace(parts[0])
			if strings.HasPrefix(urlPart, "<") && strings.HasSuffix(urlPart, ">") {
				return urlPart[1 : len(urlPart)-1]
			}
		}
	}

	return ""
}

// isValidPaginationURL checks that a pagination URL is safe to follow.
// It must match the configured baseURL's host to prevent SSRF attacks.
func (c *Client) isValidPaginationURL(nextURL string) bool {
	next, err := url.Parse(nextURL)
	if err != nil {
		return false
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}

	// Require same scheme and host
	return next.Scheme == base.Scheme && next.Host == base.Host
}

// validatePathSegment validates that a path segment contains only safe characters.
// Uses whitelist validation to prevent path traversal and injection attacks.
func validatePathSegment(value, name string) error {
	if value == "" {
		return fmt.Errorf("invalid %s: must not be empty", name)
	}
	if pathTraversalPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: must not contain '..'", name)
	}
	if !pathSegmentRegex.MatchString(value) {
		return fmt.Errorf("invalid %s: must contain only alphanumeric characters, hyphens, underscores, and dots (not leading)", name)
	}
	return nil
}

// validateRef validates the repository coordinates used to build API paths.
func validateRef(owner, repo string, number int) error {
	if err := validatePathSegment(owner, "owner"); err != nil {
		return err
	}
	if err := validatePathSegment(repo, "repo"); err != nil {
		return err
	}
	if number <= 0 {
		return fmt.Errorf("invalid pull request number: %d", number)
	}
	return nil
}
