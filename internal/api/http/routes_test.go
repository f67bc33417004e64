package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ecowatt/ecowatt/internal/config"
	"github.com/ecowatt/ecowatt/internal/energy"
	"github.com/ecowatt/ecowatt/internal/geo"
	"github.com/ecowatt/ecowatt/internal/store"
	"github.com/ecowatt/ecowatt/internal/weather"
)

type stubProvider struct {
	series weather.Series
	err    error
}

func (s stubProvider) Name() string { return "stub" }

func (s stubProvider) FetchForecast(ctx context.Context, loc weather.Location, hours int) (weather.Series, error) {
	return s.series, s.err
}

type stubResolver struct {
	loc weather.Location
	err error
}

func (s stubResolver) Resolve(ctx context.Context, query string) (weather.Location, error) {
	return s.loc, s.err
}

func testSeries(n int) weather.Series {
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	s := weather.Series{}
	for i := 0; i < n; i++ {
		s.Times = append(s.Times, base.Add(time.Duration(i)*time.Hour))
		s.SolarRadiation = append(s.SolarRadiation, 150)
		s.WindSpeed = append(s.WindSpeed, 4)
		s.Temperature = append(s.Temperature, 22)
	}
	return s
}

func newTestApp(provider weather.ForecastProvider, resolver energy.Resolver) (*fiber.App, *store.MemoryStore) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})

	memStore := store.NewMemoryStore(10, time.Hour)
	svc := energy.NewService(memStore, provider, resolver, energy.DefaultParams())

	cfg := &config.AppConfig{
		DefaultHorizonHours: 72,
		PresetLocations: []weather.Location{
			{Name: "Delhi", Lat: 28.6139, Lon: 77.2090},
		},
	}
	RegisterRoutes(app, svc, cfg)
	return app, memStore
}

// The analysis endpoint requires either q or a full coordinate pair, and
// enforces the 24-168 hour horizon range.
func TestAnalysisQueryValidation(t *testing.T) {
	app, _ := newTestApp(stubProvider{series: testSeries(24)}, stubResolver{})

	cases := []struct {
		name string
		url  string
	}{
		{"no parameters", "/api/v1/analysis"},
		{"lat without lon", "/api/v1/analysis?lat=40.7"},
		{"hours too small", "/api/v1/analysis?lat=40.7&lon=-74.0&hours=8"},
		{"hours too large", "/api/v1/analysis?lat=40.7&lon=-74.0&hours=500"},
		{"latitude out of range", "/api/v1/analysis?lat=123&lon=-74.0"},
		{"hours not an integer", "/api/v1/analysis?lat=40.7&lon=-74.0&hours=abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
			}
		})
	}
}

func TestAnalysisByCoordinates(t *testing.T) {
	app, memStore := newTestApp(stubProvider{series: testSeries(24)}, stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?lat=40.7&lon=-74.0&hours=24", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var report energy.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if report.Metrics.EcoScore <= 0 || report.Metrics.EcoScore > 100 {
		t.Fatalf("unexpected eco score: %v", report.Metrics.EcoScore)
	}

	// The report must also be retrievable from the store.
	if _, err := memStore.GetLatest(weather.Location{Lat: 40.7, Lon: -74.0}); err != nil {
		t.Fatalf("expected stored report: %v", err)
	}
}

func TestAnalysisUnresolvablePlace(t *testing.T) {
	resErr := &geo.ResolutionError{Query: "Atlantis", Reason: "no matches"}
	app, _ := newTestApp(stubProvider{series: testSeries(24)}, stubResolver{err: resErr})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?q=Atlantis", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestAnalysisUpstreamFailure(t *testing.T) {
	fetchErr := &weather.FetchError{Provider: "stub", Err: context.DeadlineExceeded}
	app, _ := newTestApp(stubProvider{err: fetchErr}, stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?lat=40.7&lon=-74.0", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
}

func TestAnalysisMalformedPayload(t *testing.T) {
	parseErr := &weather.ParseError{Provider: "stub", Reason: "missing hourly block"}
	app, _ := newTestApp(stubProvider{err: parseErr}, stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?lat=40.7&lon=-74.0", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
}

func TestHistoryNotFound(t *testing.T) {
	app, _ := newTestApp(stubProvider{series: testSeries(24)}, stubResolver{})

	url := "/api/v1/analysis/history?lat=40.7&lon=-74.0&from=2026-08-29T00:00:00Z&to=2026-08-30T00:00:00Z"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestHistoryValidation(t *testing.T) {
	app, _ := newTestApp(stubProvider{series: testSeries(24)}, stubResolver{})

	// Missing range.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/history?lat=40.7&lon=-74.0", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// to before from.
	url := "/api/v1/analysis/history?lat=40.7&lon=-74.0&from=2026-08-30T00:00:00Z&to=2026-08-29T00:00:00Z"
	req = httptest.NewRequest(http.MethodGet, url, nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestExportServesCSV(t *testing.T) {
	app, _ := newTestApp(stubProvider{series: testSeries(3)}, stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/export?lat=40.7&lon=-74.0&hours=24", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 4 { // header + 3 samples
		t.Fatalf("expected 4 csv lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "time,solar_radiation_wm2") {
		t.Fatalf("unexpected csv header: %q", lines[0])
	}
}

func TestPresetLocations(t *testing.T) {
	app, _ := newTestApp(stubProvider{series: testSeries(24)}, stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var payload struct {
		Locations []weather.Location `json:"locations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Locations) != 1 || payload.Locations[0].Name != "Delhi" {
		t.Fatalf("unexpected locations: %+v", payload.Locations)
	}
}
