package location

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimReverseResponse is shaped for the /reverse endpoint.
type NominatimReverseResponse struct {
	PlaceID     int64  `json:"place_id"`
	OsmType     string `json:"osm_type"`
	OsmID       int64  `json:"osm_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road        string `json:"road"`
		Suburb      string `json:"suburb"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// NominatimClient reverse geocodes against an OpenStreetMap Nominatim server.
type NominatimClient struct {
	opts clientOptions
}

func NewNominatimClient(opts ...Option) *NominatimClient {
	return &NominatimClient{opts: buildOptions(nominatimBaseURL, opts)}
}

func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("lat", formatCoord(lat))
	params.Set("lon", formatCoord(lon))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "en")

	reqURL := fmt.Sprintf("%s/reverse?%s", strings.TrimRight(c.opts.baseURL, "/"), params.Encode())

	var resp NominatimReverseResponse
	if err := getJSON(ctx, c.opts, reqURL, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" || resp.DisplayName == "" {
		return "", ErrNoResult
	}
	return resp.DisplayName, nil
}
