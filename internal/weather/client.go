// Package weather fetches city observations from the OpenWeather API and
// converts them to the engine's fixed-point measurement scale.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// DefaultBaseURL is the OpenWeather current-weather API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client is the REST client for the OpenWeather current-weather API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new OpenWeather client. An empty baseURL falls back to
// DefaultBaseURL.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CurrentObservation fetches the latest observation for a city. Temperatures
// are requested in Celsius and wind speeds in metres per second; missing rain
// data means no measured rainfall in the last hour.
func (c *Client) CurrentObservation(ctx context.Context, city string) (domain.Observation, error) {
	if city == "" {
		return domain.Observation{}, fmt.Errorf("weather: current observation: %w", domain.ErrInvalidCity)
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	body, err := c.doGet(ctx, "/weather?"+params.Encode())
	if err != nil {
		return domain.Observation{}, fmt.Errorf("weather: current observation %s: %w", city, err)
	}

	var resp currentWeatherResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Observation{}, fmt.Errorf("weather: decode observation %s: %w", city, err)
	}

	obs := domain.Observation{
		City:       city,
		TempC:      resp.Main.Temp,
		RainMM:     resp.Rain.OneHour,
		WindMS:     resp.Wind.Speed,
		ObservedAt: resp.Dt,
	}
	if obs.ObservedAt == 0 {
		obs.ObservedAt = time.Now().Unix()
	}
	return obs, nil
}

// doGet sends a GET request to the OpenWeather API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			if resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, apiErr.Message)
			}
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return body, nil
}
