package arcgis

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mlmgis/isochrones/internal/isochrone"
)

// GetToken exchanges client credentials for an access token. Every failure
// wraps isochrone.ErrAuth.
func (c *Client) GetToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	form := url.Values{
		"f":             {"json"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"grant_type":    {"client_credentials"},
	}

	c.logger.Debug().
		Str("client_id", clientID).
		Msg("requesting access token")

	status, body, err := c.postForm(ctx, c.tokenURL, form)
	if err != nil {
		return "", authError("TOKEN_REQUEST_FAILED", "token request failed", err)
	}

	var resp tokenResponse
	if err := decodeResponse(status, body, &resp); err != nil {
		return "", authError("TOKEN_REJECTED", "token request rejected", err)
	}
	if resp.AccessToken == "" {
		return "", authError("NO_ACCESS_TOKEN", "token response has no access_token", nil)
	}

	c.logger.Debug().
		Int("expires_in", resp.ExpiresIn).
		Msg("received access token")

	return resp.AccessToken, nil
}

func authError(code, message string, cause error) error {
	err := isochrone.ErrAuth
	if cause != nil {
		err = fmt.Errorf("%w: %w", isochrone.ErrAuth, cause)
	}
	return &isochrone.Error{
		Provider: ProviderName,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}
