package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ecowatt/ecowatt/internal/httpx"
	"github.com/ecowatt/ecowatt/internal/weather"
)

// openMeteoTimeLayout is the local-time layout Open-Meteo uses for hourly
// timestamps. We request timezone=UTC so the values are UTC.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoProvider implements weather.ForecastProvider against the
// Open-Meteo forecast API. No API key required.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg httpx.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit: httpx.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchForecast requests the hourly radiation, wind and temperature
// columns for the location and horizon.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location, hours int) (weather.Series, error) {
	if hours <= 0 {
		return weather.Series{}, fmt.Errorf("hours must be greater than zero")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("hourly", "shortwave_radiation,wind_speed_10m,temperature_2m")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")
		values.Set("forecast_hours", strconv.Itoa(hours))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := httpx.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Series{}, &weather.FetchError{Provider: p.name, Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly *struct {
			Time               []string  `json:"time"`
			ShortwaveRadiation []float64 `json:"shortwave_radiation"`
			WindSpeed          []float64 `json:"wind_speed_10m"`
			Temperature        []float64 `json:"temperature_2m"`
		} `json:"hourly"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Series{}, &weather.ParseError{Provider: p.name, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if payload.Hourly == nil || len(payload.Hourly.Time) == 0 {
		return weather.Series{}, &weather.ParseError{Provider: p.name, Reason: "missing hourly block"}
	}

	h := payload.Hourly
	n := len(h.Time)
	if len(h.ShortwaveRadiation) != n || len(h.WindSpeed) != n || len(h.Temperature) != n {
		return weather.Series{}, &weather.ParseError{
			Provider: p.name,
			Reason: fmt.Sprintf("misaligned hourly columns: time=%d solar=%d wind=%d temp=%d",
				n, len(h.ShortwaveRadiation), len(h.WindSpeed), len(h.Temperature)),
		}
	}

	times := make([]time.Time, n)
	for i, raw := range h.Time {
		ts, err := time.Parse(openMeteoTimeLayout, raw)
		if err != nil {
			return weather.Series{}, &weather.ParseError{Provider: p.name, Reason: fmt.Sprintf("bad timestamp %q", raw)}
		}
		times[i] = ts.UTC()
	}

	return weather.Series{
		Times:          times,
		SolarRadiation: h.ShortwaveRadiation,
		WindSpeed:      h.WindSpeed,
		Temperature:    h.Temperature,
	}, nil
}
