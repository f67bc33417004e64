package weather

import "context"

// ForecastProvider abstracts an hourly forecast source (e.g. Open-Meteo).
// Implementations return a Series covering the requested number of hours
// starting from the current hour.
type ForecastProvider interface {
	Name() string
	FetchForecast(ctx context.Context, loc Location, hours int) (Series, error)
}
