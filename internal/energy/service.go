package energy

import (
	"context"
	"log"
	"time"

	"github.com/ecowatt/ecowatt/internal/weather"
)

// Store is the contract the in-memory report store (and any future
// persistent store) must satisfy.
type Store interface {
	SaveReport(loc weather.Location, r Report)
	GetLatest(loc weather.Location) (Report, error)
	GetRange(loc weather.Location, from, to time.Time) ([]Report, error)
}

// Resolver maps free-text place names to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, query string) (weather.Location, error)
}

// Service runs the analysis pipeline: resolve, fetch, compute, store.
// The flow is strictly one way; a failed fetch leaves the last stored
// report untouched.
type Service struct {
	store    Store
	provider weather.ForecastProvider
	resolver Resolver
	params   Params
}

func NewService(store Store, provider weather.ForecastProvider, resolver Resolver, params Params) *Service {
	return &Service{
		store:    store,
		provider: provider,
		resolver: resolver,
		params:   params,
	}
}

// AnalyzeCoordinates fetches a forecast for the location, derives metrics,
// and stores the resulting report.
func (s *Service) AnalyzeCoordinates(ctx context.Context, loc weather.Location, hours int) (Report, error) {
	series, err := s.provider.FetchForecast(ctx, loc, hours)
	if err != nil {
		log.Printf("forecast fetch failed for %s: %v", loc.Key(), err)
		return Report{}, err
	}

	metrics, err := Compute(series, s.params)
	if err != nil {
		return Report{}, err
	}

	report := NewReport(loc, hours, series, metrics)
	s.store.SaveReport(loc, report)
	return report, nil
}

// AnalyzePlace resolves a free-text query first, then analyzes the
// resulting coordinates.
func (s *Service) AnalyzePlace(ctx context.Context, query string, hours int) (Report, error) {
	loc, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return Report{}, err
	}
	return s.AnalyzeCoordinates(ctx, loc, hours)
}

// LatestReport delegates to the underlying store.
func (s *Service) LatestReport(loc weather.Location) (Report, error) {
	return s.store.GetLatest(loc)
}

// ReportRange delegates to the underlying store.
func (s *Service) ReportRange(loc weather.Location, from, to time.Time) ([]Report, error) {
	return s.store.GetRange(loc, from, to)
}
