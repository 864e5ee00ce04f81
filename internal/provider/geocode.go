package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	geocodeUserAgent    = "trip-planner/1.0 (github.com/pkordes/trip-planner)" // Required by Nominatim ToS
	geocodeTimeout      = 10 * time.Second
)

// Nominatim resolves free-form addresses to coordinates via the OpenStreetMap
// Nominatim API. Callers hit it at most once per distinct destination: the
// destinations table caches results by (city, country, zip_code).
type Nominatim struct {
	baseURL    string
	httpClient *http.Client

	// Nominatim's usage policy caps anonymous clients at 1 request/second.
	mu       sync.Mutex
	lastCall time.Time
}

// NewNominatim creates a geocoder. An empty baseURL selects the public API.
func NewNominatim(baseURL string) *Nominatim {
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: geocodeTimeout},
	}
}

// nominatimResult is one entry of the search response. Coordinates come back
// as strings.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve geocodes an address like "1000-001, Lisbon, Portugal" to decimal
// coordinates. An address with no match is an error.
func (g *Nominatim) Resolve(ctx context.Context, address string) (lat, lon float64, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return 0, 0, fmt.Errorf("nominatim: address cannot be empty")
	}

	g.throttle()

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: creating request: %w", err)
	}
	req.Header.Set("User-Agent", geocodeUserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, fmt.Errorf("nominatim: decoding response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("nominatim: no results for %q", address)
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: parsing latitude: %w", err)
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: parsing longitude: %w", err)
	}
	return lat, lon, nil
}

// throttle sleeps as needed to keep at least one second between calls.
func (g *Nominatim) throttle() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastCall.IsZero() {
		if elapsed := time.Since(g.lastCall); elapsed < time.Second {
			time.Sleep(time.Second - elapsed)
		}
	}
	g.lastCall = time.Now()
}
