package energy

import (
	"errors"
	"fmt"

	"github.com/ecowatt/ecowatt/internal/weather"
)

// ErrInsufficientData is returned when a series is empty or misaligned.
// The calculator never produces NaN or partial metrics.
var ErrInsufficientData = errors.New("insufficient weather data")

// Params holds the business tunables of the calculator. They are product
// parameters, not algorithm constants, and are loaded from configuration.
type Params struct {
	// Score weighting and normalization references. A location averaging
	// SolarRefWm2 of radiation (or WindRefMs of wind) gets a full
	// sub-score of 100.
	SolarWeight float64
	WindWeight  float64
	SolarRefWm2 float64
	WindRefMs   float64

	// Household load and tariff for the cost estimate.
	DailyDemandKWh float64
	TariffPerKWh   float64

	// Share of the renewable contribution that must be time-shifted
	// through a battery to be usable.
	StorageShare float64

	// Suggestion card thresholds.
	SolarHighWm2 float64
	WindHighMs   float64

	// Self-sufficiency band edges on the eco score.
	LowBand  float64
	HighBand float64
}

// DefaultParams returns the shipped tunables. Solar and wind references
// are calibrated for hourly means (W/m² and m/s).
func DefaultParams() Params {
	return Params{
		SolarWeight:    0.6,
		WindWeight:     0.4,
		SolarRefWm2:    250,
		WindRefMs:      12,
		DailyDemandKWh: 18,
		TariffPerKWh:   0.22,
		StorageShare:   0.35,
		SolarHighWm2:   220,
		WindHighMs:     6,
		LowBand:        35,
		HighBand:       70,
	}
}

// Metrics is the derived output for one analysis. It has no identity of
// its own; it is recomputed on every request and never persisted beyond
// the in-memory report history.
type Metrics struct {
	AvgSolar float64 `json:"avgSolarWm2"`
	AvgWind  float64 `json:"avgWindMs"`
	AvgTemp  float64 `json:"avgTempC"`

	SolarScore float64 `json:"solarScore"`
	WindScore  float64 `json:"windScore"`
	EcoScore   float64 `json:"ecoScore"`

	// Energy split over the forecast horizon, in kWh.
	RenewableKWh float64 `json:"renewableKWh"`
	BatteryKWh   float64 `json:"batteryKWh"`
	GridKWh      float64 `json:"gridKWh"`

	EstimatedCost float64 `json:"estimatedCost"`

	BatteryRecommendation string `json:"batteryRecommendation"`
	Suggestion            string `json:"suggestion"`
}

// Compute derives Metrics from a forecast series. It is a pure function:
// no side effects, deterministic for a given series and params.
func Compute(s weather.Series, p Params) (Metrics, error) {
	if s.Len() == 0 {
		return Metrics{}, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	if err := s.Validate(); err != nil {
		return Metrics{}, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}

	m := Metrics{
		AvgSolar: mean(s.SolarRadiation),
		AvgWind:  mean(s.WindSpeed),
		AvgTemp:  mean(s.Temperature),
	}

	m.SolarScore = subScore(m.AvgSolar, p.SolarRefWm2)
	m.WindScore = subScore(m.AvgWind, p.WindRefMs)
	m.EcoScore = clamp(p.SolarWeight*m.SolarScore+p.WindWeight*m.WindScore, 0, 100)

	// Energy split: the eco score is read as the fraction of daily demand
	// renewables can cover; the remainder is drawn from the grid.
	days := float64(s.Len()) / 24
	renewablePerDay := p.DailyDemandKWh * m.EcoScore / 100
	gridPerDay := p.DailyDemandKWh - renewablePerDay

	m.RenewableKWh = renewablePerDay * days
	m.BatteryKWh = renewablePerDay * p.StorageShare * days
	m.GridKWh = gridPerDay * days

	cost := gridPerDay * days * p.TariffPerKWh
	if cost < 0 {
		cost = 0
	}
	m.EstimatedCost = cost

	m.BatteryRecommendation = batteryRecommendation(m.EcoScore, p)
	m.Suggestion = suggestion(m, p)

	return m, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// subScore normalizes an average against its reference level into [0, 100].
func subScore(avg, ref float64) float64 {
	if ref <= 0 {
		return 0
	}
	return clamp(avg/ref*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func batteryRecommendation(score float64, p Params) string {
	switch {
	case score < p.LowBand:
		return "low self-sufficiency: grid-tied setup with a large battery reserve"
	case score <= p.HighBand:
		return "medium self-sufficiency: hybrid system with a mid-size battery"
	default:
		return "high self-sufficiency: a small buffer battery is enough"
	}
}

func suggestion(m Metrics, p Params) string {
	switch {
	case m.AvgSolar > p.SolarHighWm2:
		return "High solar potential: rooftop PV should be the first investment."
	case m.AvgWind > p.WindHighMs:
		return "Strong wind potential: consider small wind turbines."
	default:
		return "Hybrid solar and wind with storage is recommended."
	}
}
