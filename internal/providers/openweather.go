package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pixel-remedy-bot/intellidash-v2/internal/weather"
	"github.com/sony/gobreaker"
)

// OpenWeatherClient implements the weather.Provider interface for
// OpenWeatherMap's current-conditions endpoint.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	iconURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		iconURL: "https://openweathermap.org/img/wn",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("openweather"),
	}
}

func (c *OpenWeatherClient) Current(ctx context.Context, city string) (weather.Observation, error) {
	if c.apiKey == "" {
		return weather.Observation{}, ErrMissingCredential
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return weather.Observation{}, weather.ErrCityNotFound
		}
		return weather.Observation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
			Icon string `json:"icon"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decoding openweather response: %w", err)
	}

	// The first weather entry carries the primary condition.
	condition := "Unknown"
	icon := ""
	if len(payload.Weather) > 0 {
		if payload.Weather[0].Main != "" {
			condition = payload.Weather[0].Main
		}
		icon = payload.Weather[0].Icon
	}

	return weather.Observation{
		Location:  payload.Name,
		Temp:      payload.Main.Temp,
		Condition: condition,
		Icon:      fmt.Sprintf("%s/%s@2x.png", c.iconURL, icon),
	}, nil
}
