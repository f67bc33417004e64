package energy

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecowatt/ecowatt/internal/weather"
)

// Report bundles one analysis: the resolved location, the raw forecast
// series the charts are drawn from, and the derived metrics. Reports are
// immutable once stored.
type Report struct {
	ID           string           `json:"id"`
	Location     weather.Location `json:"location"`
	GeneratedAt  time.Time        `json:"generatedAt"` // always UTC
	HorizonHours int              `json:"horizonHours"`
	Series       weather.Series   `json:"series"`
	Metrics      Metrics          `json:"metrics"`
}

// NewReport assigns identity and timestamp to a computed analysis.
func NewReport(loc weather.Location, hours int, s weather.Series, m Metrics) Report {
	return Report{
		ID:           uuid.NewString(),
		Location:     loc,
		GeneratedAt:  time.Now().UTC(),
		HorizonHours: hours,
		Series:       s,
		Metrics:      m,
	}
}
