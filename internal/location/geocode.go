package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultGeocodeURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"

// BigDataCloudGeocoder resolves coordinates with the keyless BigDataCloud
// client endpoint.
type BigDataCloudGeocoder struct {
	endpoint   string
	httpClient *http.Client
}

func NewBigDataCloudGeocoder(endpoint string, client *http.Client) *BigDataCloudGeocoder {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultGeocodeURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &BigDataCloudGeocoder{endpoint: endpoint, httpClient: client}
}

type reverseGeocodeResponse struct {
	City                 string `json:"city"`
	Locality             string `json:"locality"`
	PrincipalSubdivision string `json:"principalSubdivision"`
	CountryName          string `json:"countryName"`
}

func (r reverseGeocodeResponse) address() string {
	place := strings.TrimSpace(r.City)
	if place == "" {
		place = strings.TrimSpace(r.Locality)
	}
	if place == "" {
		place = strings.TrimSpace(r.PrincipalSubdivision)
	}
	parts := make([]string, 0, 2)
	if place != "" {
		parts = append(parts, place)
	}
	if c := strings.TrimSpace(r.CountryName); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, ", ")
}

func (g *BigDataCloudGeocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("localityLanguage", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create geocode request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("geocode: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload reverseGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}
	return payload.address(), nil
}
