// Package arcgis provides a client for the ArcGIS Online service-area solver:
// OAuth2 client-credentials tokens, the travel mode catalog and solveServiceArea.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mlmgis/isochrones/internal/isochrone"
	"github.com/mlmgis/isochrones/internal/provider/resilience"
)

const (
	// ProviderName identifies this service-area provider.
	ProviderName = "arcgis"

	// DefaultTokenURL is the ArcGIS Online OAuth2 token endpoint.
	DefaultTokenURL = "https://www.arcgis.com/sharing/rest/oauth2/token"

	// DefaultServiceURL is the World service-area network analysis service.
	DefaultServiceURL = "https://route.arcgis.com/arcgis/rest/services/World/ServiceAreas/NAServer/ServiceArea_World"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 60 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the ArcGIS client.
type ClientConfig struct {
	// TokenURL is the OAuth2 token endpoint (optional).
	TokenURL string

	// ServiceURL is the NAServer service-area layer URL (optional).
	ServiceURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a single-attempt resilient client.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 60s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an ArcGIS service-area API client.
type Client struct {
	tokenURL   string
	serviceURL string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new ArcGIS client.
func NewClient(cfg ClientConfig) *Client {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	serviceURL := strings.TrimRight(cfg.ServiceURL, "/")
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.MaxRetries = 0
		clientCfg.Registry = cfg.Registry
		clientCfg.CircuitBreaker.Logger = &cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		tokenURL:   tokenURL,
		serviceURL: serviceURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// postForm sends a form-encoded POST and returns the status and body.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, &isochrone.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach service-area provider",
			Err:      fmt.Errorf("%w: %v", isochrone.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &isochrone.Error{
			Provider: ProviderName,
			Code:     "READ_FAILED",
			Message:  "failed to read provider response",
			Err:      fmt.Errorf("%w: %v", isochrone.ErrProviderUnavailable, err),
		}
	}
	return resp.StatusCode, body, nil
}

// decodeResponse decodes body into v. An unparseable body becomes a
// RawResponseError, an error object a ServiceError, and any other non-200
// status is mapped by handleErrorResponse.
func decodeResponse(statusCode int, body []byte, v any) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &isochrone.RawResponseError{StatusCode: statusCode, Body: string(body)}
	}
	if env.Error != nil {
		return toServiceError(env.Error, statusCode)
	}
	if statusCode != http.StatusOK {
		return handleErrorResponse(statusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &isochrone.RawResponseError{StatusCode: statusCode, Body: string(body)}
	}
	return nil
}

func toServiceError(p *errorPayload, statusCode int) *isochrone.ServiceError {
	code := p.Code
	if code == 0 {
		code = statusCode
	}
	return &isochrone.ServiceError{
		Code:    code,
		Message: p.message(),
		Details: p.Details,
	}
}

// handleErrorResponse maps a non-200 status without an error object to a
// provider error.
func handleErrorResponse(statusCode int) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &isochrone.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "service-area provider rate limit exceeded",
			Err:      isochrone.ErrProviderUnavailable,
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &isochrone.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "access denied, check client credentials",
			Err:      isochrone.ErrAuth,
		}
	case statusCode >= 500:
		return &isochrone.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "service-area provider is temporarily unavailable",
			Err:      isochrone.ErrProviderUnavailable,
		}
	default:
		return &isochrone.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("service-area provider returned status %d", statusCode),
			Err:      isochrone.ErrRemoteService,
		}
	}
}
