// Package provider contains the thin clients for the external collaborators
// of the pipeline: the Open-Meteo forecast API, the OpenAI chat completion
// API, the Nominatim geocoder, and the local timezone resolver. Clients are
// pure request/response and hold no application state; the pipeline and
// service layers consume them through interfaces they define themselves.
package provider

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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/metrics"
)

const (
	defaultOpenMeteoURL    = "https://api.open-meteo.com/v1"
	defaultForecastTimeout = 30 * time.Second
	openMeteoTimeLayout    = "2006-01-02T15:04" // local naive timestamps
	openMeteoDateLayout    = "2006-01-02"
	openMeteoHourlyFields  = "temperature_2m,weather_code"
)

// OpenMeteo fetches hourly forecasts from the Open-Meteo API.
type OpenMeteo struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenMeteo creates a forecast client. An empty baseURL selects the
// public API; tests pass an httptest server URL.
func NewOpenMeteo(baseURL string) *OpenMeteo {
	if baseURL == "" {
		baseURL = defaultOpenMeteoURL
	}
	return &OpenMeteo{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultForecastTimeout},
	}
}

// openMeteoResponse mirrors the hourly block of the forecast response.
// The three arrays are parallel: one entry per hour of the request window.
type openMeteoResponse struct {
	Hourly struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"hourly"`
}

// FetchForecast returns one sample per hour for the inclusive [start, end]
// date range, with timestamps localized to the given IANA timezone.
// A non-2xx response surfaces as an error carrying the upstream status and
// body, which the weather worker records verbatim as the dead-letter reason.
func (c *OpenMeteo) FetchForecast(ctx context.Context, lat, lon float64, tz string, start, end time.Time) ([]domain.HourlySample, error) {
	timer := prometheus.NewTimer(metrics.ProviderDuration.WithLabelValues("open_meteo"))
	defer timer.ObserveDuration()

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("open-meteo: invalid timezone %q: %w", tz, err)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("timezone", tz)
	params.Set("start_date", start.Format(openMeteoDateLayout))
	params.Set("end_date", end.Format(openMeteoDateLayout))
	params.Set("hourly", openMeteoHourlyFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("open-meteo: creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open-meteo: executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("open-meteo: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("open-meteo: decoding response: %w", err)
	}

	h := parsed.Hourly
	if len(h.Time) != len(h.Temperature) || len(h.Time) != len(h.WeatherCode) {
		return nil, fmt.Errorf("open-meteo: mismatched hourly arrays (%d times, %d temperatures, %d codes)",
			len(h.Time), len(h.Temperature), len(h.WeatherCode))
	}

	samples := make([]domain.HourlySample, len(h.Time))
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, raw, loc)
		if err != nil {
			return nil, fmt.Errorf("open-meteo: parsing timestamp %q: %w", raw, err)
		}
		samples[i] = domain.HourlySample{
			Time:        ts,
			Temperature: h.Temperature[i],
			WeatherCode: h.WeatherCode[i],
		}
	}
	return samples, nil
}
