package arcgis

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/mlmgis/isochrones/internal/isochrone"
)

// ListTravelModes fetches the travel modes supported by the service. Each
// mode keeps its full descriptor for use in solve requests.
func (c *Client) ListTravelModes(ctx context.Context, token string) ([]isochrone.TravelMode, error) {
	form := url.Values{
		"f":     {"pjson"},
		"token": {token},
	}

	status, body, err := c.postForm(ctx, c.serviceURL+"/retrieveTravelModes", form)
	if err != nil {
		return nil, err
	}

	var resp travelModesResponse
	if err := decodeResponse(status, body, &resp); err != nil {
		return nil, err
	}
	if resp.SupportedTravelModes == nil {
		return nil, &isochrone.Error{
			Provider: ProviderName,
			Code:     "NO_TRAVEL_MODES",
			Message:  "response has no supportedTravelModes",
			Err:      isochrone.ErrMalformedResponse,
		}
	}

	modes := make([]isochrone.TravelMode, 0, len(*resp.SupportedTravelModes))
	for _, raw := range *resp.SupportedTravelModes {
		var h travelModeHeader
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, &isochrone.Error{
				Provider: ProviderName,
				Code:     "BAD_TRAVEL_MODE",
				Message:  "travel mode is not an object",
				Err:      isochrone.ErrMalformedResponse,
			}
		}
		modes = append(modes, isochrone.TravelMode{
			Name:                   h.Name,
			ID:                     h.ID,
			ImpedanceAttributeName: h.ImpedanceAttributeName,
			Descriptor:             append(json.RawMessage(nil), raw...),
		})
	}

	c.logger.Debug().
		Int("mode_count", len(modes)).
		Str("default_mode", resp.DefaultTravelMode).
		Msg("received travel modes")

	return modes, nil
}
