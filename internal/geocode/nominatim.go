// Package geocode resolves coordinates to human readable place names.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"
)

const userAgent = "HerShield/1.0"

// Nominatim calls an OSM Nominatim compatible reverse endpoint.
type Nominatim struct {
	endpoint string
	client   *http.Client
}

func NewNominatim(endpoint string, timeout time.Duration) *Nominatim {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Nominatim{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Reverse returns the display name for c, or "" when the lookup fails.
func (n *Nominatim) Reverse(ctx context.Context, c geo.Coordinate) string {
	name, err := n.lookup(ctx, c)
	if err != nil {
		log.Printf("reverse geocode %.5f,%.5f: %v", c.Lat, c.Lng, err)
		return ""
	}
	return name
}

func (n *Nominatim) lookup(ctx context.Context, c geo.Coordinate) (string, error) {
	u, err := url.Parse(n.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Lng, 'f', -1, 64))
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return body.DisplayName, nil
}
