package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleResponse is the subset of the Geocoding API response we read.
type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// GoogleClient implements ports.RemoteGeocoder against the Google Maps
// Geocoding API. The HTTP client carries its own timeout in addition to
// whatever deadline the caller's context imposes.
type GoogleClient struct {
	apiKey string
	client *http.Client
}

// NewGoogleClient builds a client; returns nil when no API key is
// configured, which disables the remote tier entirely.
func NewGoogleClient(apiKey string) *GoogleClient {
	if apiKey == "" {
		return nil
	}
	return &GoogleClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Geocode resolves address text to coordinates with a region bias.
// ZERO_RESULTS is a miss, not an error.
func (g *GoogleClient) Geocode(ctx context.Context, address, region string) (float64, float64, bool, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("region", region)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleGeocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, false, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, 0, false, fmt.Errorf("geocode API returned status %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, false, fmt.Errorf("decoding geocode response: %w", err)
	}
	switch body.Status {
	case "OK":
		if len(body.Results) == 0 {
			return 0, 0, false, nil
		}
		loc := body.Results[0].Geometry.Location
		return loc.Lat, loc.Lng, true, nil
	case "ZERO_RESULTS":
		return 0, 0, false, nil
	default:
		return 0, 0, false, fmt.Errorf("geocode API status %s", body.Status)
	}
}
