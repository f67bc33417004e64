package weather

import (
	"fmt"
	"time"
)

// Location is a resolved place with coordinates. It is immutable for the
// duration of one request.
type Location struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"latitude"`
	Lon  float64 `json:"longitude"`
}

// Key returns a canonical string key for indexing this location in stores.
// Coordinates are rounded so the same place resolved twice maps to the
// same history.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Lat, l.Lon)
}

// Series holds an hourly forecast as aligned columns. All columns share
// length and index alignment; Validate enforces the invariant. A Series
// is created once per fetch and never mutated afterwards.
type Series struct {
	Times          []time.Time `json:"times"`
	SolarRadiation []float64   `json:"solarRadiationWm2"`
	WindSpeed      []float64   `json:"windSpeedMs"`
	Temperature    []float64   `json:"temperatureC"`
}

// Len returns the number of hourly samples in the series.
func (s Series) Len() int {
	return len(s.Times)
}

// Validate checks that all columns share the same length.
func (s Series) Validate() error {
	n := len(s.Times)
	if len(s.SolarRadiation) != n || len(s.WindSpeed) != n || len(s.Temperature) != n {
		return fmt.Errorf("misaligned series columns: times=%d solar=%d wind=%d temp=%d",
			n, len(s.SolarRadiation), len(s.WindSpeed), len(s.Temperature))
	}
	return nil
}
