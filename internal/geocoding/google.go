package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Address holds the structured components of a postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	Number  string `json:"number,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"` // 2-letter state abbreviation
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// Resolver converts between addresses and WGS84 coordinates. Both directions
// are fallible and network-bound.
type Resolver interface {
	Geocode(ctx context.Context, addr Address) (lat, lng float64, err error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*Address, error)
}

// Client wraps the Google Maps Geocoding API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geocoding client from the GOOGLE_MAPS_API_KEY env var.
// Returns nil, nil if the key is not set (graceful degradation).
func NewClient(timeout time.Duration) (*Client, error) {
	key := os.Getenv("GOOGLE_MAPS_API_KEY")
	if key == "" {
		return nil, nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiKey:  key,
		baseURL: "https://maps.googleapis.com/maps/api/geocode/json",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
	Status  string          `json:"status"`
}

type geocodeResult struct {
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          geometry           `json:"geometry"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type geometry struct {
	Location latLng `json:"location"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocode converts a structured address into WGS84 coordinates.
func (c *Client) Geocode(ctx context.Context, addr Address) (float64, float64, error) {
	query := buildAddressString(addr)
	if query == "" {
		return 0, 0, fmt.Errorf("address has no usable components")
	}

	u := fmt.Sprintf("%s?address=%s&key=%s", c.baseURL, url.QueryEscape(query), c.apiKey)

	result, err := c.fetch(ctx, u)
	if err != nil {
		return 0, 0, err
	}

	return result.Geometry.Location.Lat, result.Geometry.Location.Lng, nil
}

// ReverseGeocode converts WGS84 coordinates into a structured address.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Address, error) {
	u := fmt.Sprintf("%s?latlng=%f,%f&key=%s", c.baseURL, lat, lng, c.apiKey)

	result, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	out := &Address{}
	for _, comp := range result.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				out.Number = comp.ShortName
			case "route":
				out.Street = comp.LongName
			case "locality":
				out.City = comp.LongName
			case "administrative_area_level_1":
				out.State = comp.ShortName
			case "country":
				out.Country = comp.LongName
			case "postal_code":
				out.ZipCode = comp.ShortName
			}
		}
	}

	return out, nil
}

func (c *Client) fetch(ctx context.Context, u string) (*geocodeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}

	var geoResp geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, fmt.Errorf("decoding geocoding response: %w", err)
	}

	if geoResp.Status != "OK" || len(geoResp.Results) == 0 {
		return nil, fmt.Errorf("geocoding failed: status=%s", geoResp.Status)
	}

	return &geoResp.Results[0], nil
}

func buildAddressString(addr Address) string {
	street := addr.Street
	if addr.Number != "" && addr.Street != "" {
		street = addr.Number + " " + addr.Street
	}

	components := []string{street, addr.City, addr.State, addr.Country, addr.ZipCode}
	parts := make([]string, 0, len(components))
	for _, c := range components {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, ", ")
}
