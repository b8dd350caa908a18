package location

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const mapboxBaseURL = "https://api.mapbox.com"

// MapboxResponse is the part of a Mapbox geocoding response we read.
type MapboxResponse struct {
	Type     string `json:"type"`
	Features []struct {
		ID        string    `json:"id"`
		PlaceType []string  `json:"place_type"`
		Relevance float64   `json:"relevance"`
		Text      string    `json:"text"`
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}

// MapboxClient reverse geocodes through the Mapbox Geocoding v5 API.
type MapboxClient struct {
	opts  clientOptions
	token string
}

func NewMapboxClient(token string, opts ...Option) *MapboxClient {
	return &MapboxClient{opts: buildOptions(mapboxBaseURL, opts), token: token}
}

// ReverseGeocode returns the place_name of the best matching POI, address or
// place feature.
func (c *MapboxClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("types", "poi,address,place")

	reqURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s,%s.json?%s",
		strings.TrimRight(c.opts.baseURL, "/"), formatCoord(lon), formatCoord(lat), params.Encode())

	var resp MapboxResponse
	if err := getJSON(ctx, c.opts, reqURL, &resp); err != nil {
		return "", err
	}
	if len(resp.Features) == 0 {
		return "", ErrNoResult
	}
	if resp.Features[0].PlaceName == "" {
		return "Unknown", nil
	}
	return resp.Features[0].PlaceName, nil
}
