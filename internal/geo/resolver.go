package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/ecowatt/ecowatt/internal/httpx"
	"github.com/ecowatt/ecowatt/internal/weather"
)

// ResolutionError indicates a place-name query yielded zero or ambiguous
// matches. It is surfaced to the user as-is; resolution is never retried.
type ResolutionError struct {
	Query  string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %s", e.Query, e.Reason)
}

// Resolver maps free-text place names to coordinates using the Open-Meteo
// geocoding API, with an optional Google geocoding fallback when an API
// key is configured.
type Resolver struct {
	baseURL   string
	httpCfg   httpx.ClientConfig
	circuit   *gobreaker.CircuitBreaker
	googleKey string
}

func NewResolver(client *http.Client, googleKey string) *Resolver {
	return &Resolver{
		baseURL: "https://geocoding-api.open-meteo.com/v1/search",
		httpCfg: httpx.ClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff(),
		},
		circuit:   httpx.NewBreaker("geocoding"),
		googleKey: googleKey,
	}
}

type candidate struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
}

// Resolve maps a free-text query to a Location. Zero matches and
// ambiguous matches both produce a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, query string) (weather.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return weather.Location{}, &ResolutionError{Query: query, Reason: "empty query"}
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", query)
		values.Set("count", "5")
		values.Set("language", "en")
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", r.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := httpx.Do(ctx, r.httpCfg, r.circuit, buildRequest)
	if err != nil {
		return weather.Location{}, &weather.FetchError{Provider: "geocoding", Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Results []candidate `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Location{}, &weather.ParseError{Provider: "geocoding", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if len(payload.Results) == 0 {
		if r.googleKey != "" {
			return r.resolveGoogle(query)
		}
		return weather.Location{}, &ResolutionError{Query: query, Reason: "no matches"}
	}

	best, reason := pickCandidate(query, payload.Results)
	if best == nil {
		return weather.Location{}, &ResolutionError{Query: query, Reason: reason}
	}

	return weather.Location{
		Name: best.Name,
		Lat:  best.Latitude,
		Lon:  best.Longitude,
	}, nil
}

// pickCandidate selects the winner from a non-empty candidate set. An
// exact name match wins outright; otherwise candidates spread across
// more than one country are ambiguous and nil is returned with the
// reason. A single-country set falls back to the first (most relevant)
// candidate.
func pickCandidate(query string, results []candidate) (*candidate, string) {
	countries := make(map[string]struct{})
	for i := range results {
		if strings.EqualFold(results[i].Name, query) {
			return &results[i], ""
		}
		countries[results[i].Country] = struct{}{}
	}
	if len(countries) > 1 {
		names := make([]string, 0, len(results))
		for _, c := range results {
			names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.Country))
		}
		return nil, "ambiguous matches: " + strings.Join(names, ", ")
	}
	return &results[0], ""
}

// resolveGoogle is the fallback path through the Google geocoding API for
// queries Open-Meteo cannot resolve. Requires GEOCODER_API_KEY.
func (r *Resolver) resolveGoogle(query string) (weather.Location, error) {
	geocoder.ApiKey = r.googleKey

	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		log.Printf("google geocoding fallback failed for %q: %v", query, err)
		return weather.Location{}, &ResolutionError{Query: query, Reason: "no matches"}
	}

	return weather.Location{
		Name: query,
		Lat:  loc.Latitude,
		Lon:  loc.Longitude,
	}, nil
}
