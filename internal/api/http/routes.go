package httpapi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ecowatt/ecowatt/internal/config"
	"github.com/ecowatt/ecowatt/internal/energy"
	"github.com/ecowatt/ecowatt/internal/geo"
	"github.com/ecowatt/ecowatt/internal/store"
	"github.com/ecowatt/ecowatt/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *energy.Service, cfg *config.AppConfig) {
	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"locations": cfg.PresetLocations,
		})
	})

	v1.Get("/analysis", func(c *fiber.Ctx) error {
		req, err := bindAnalysisQuery(c, cfg.DefaultHorizonHours)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := runAnalysis(c, service, req)
		if err != nil {
			return mapServiceError(err)
		}

		return c.JSON(report)
	})

	v1.Get("/analysis/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := weather.Location{Lat: *req.Lat, Lon: *req.Lon}
		reports, err := service.ReportRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no reports for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch report history")
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"from":     req.From,
			"to":       req.To,
			"reports":  reports,
		})
	})

	v1.Get("/analysis/export", func(c *fiber.Ctx) error {
		req, err := bindAnalysisQuery(c, cfg.DefaultHorizonHours)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := runAnalysis(c, service, req)
		if err != nil {
			return mapServiceError(err)
		}

		body, err := seriesCSV(report.Series)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to encode csv")
		}

		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="ecowatt_forecast.csv"`)
		return c.Send(body)
	})
}

func runAnalysis(c *fiber.Ctx, service *energy.Service, req analysisQuery) (energy.Report, error) {
	if req.Query != "" {
		return service.AnalyzePlace(c.Context(), req.Query, req.Hours)
	}
	loc := weather.Location{Lat: *req.Lat, Lon: *req.Lon}
	return service.AnalyzeCoordinates(c.Context(), loc, req.Hours)
}

// mapServiceError translates pipeline error kinds into HTTP statuses.
func mapServiceError(err error) error {
	var resErr *geo.ResolutionError
	if errors.As(err, &resErr) {
		return fiber.NewError(fiber.StatusNotFound, resErr.Error())
	}

	var parseErr *weather.ParseError
	if errors.As(err, &parseErr) {
		return fiber.NewError(fiber.StatusBadGateway, "upstream returned malformed data")
	}

	var fetchErr *weather.FetchError
	if errors.As(err, &fetchErr) {
		return fiber.NewError(fiber.StatusBadGateway, "upstream weather service unavailable")
	}

	if errors.Is(err, energy.ErrInsufficientData) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	return fiber.NewError(fiber.StatusInternalServerError, "analysis failed")
}

// analysisQuery holds the parameters of the analysis and export
// endpoints: either a free-text place or explicit coordinates, plus the
// forecast horizon.
type analysisQuery struct {
	Query string
	Lat   *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon   *float64 `validate:"omitempty,gte=-180,lte=180"`
	Hours int      `validate:"gte=24,lte=168"`
}

func bindAnalysisQuery(c *fiber.Ctx, defaultHours int) (analysisQuery, error) {
	var q analysisQuery

	q.Query = c.Query("q")
	q.Hours = defaultHours

	if v := c.Query("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, errors.New("hours must be an integer")
		}
		q.Hours = n
	}

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		if latStr == "" || lonStr == "" {
			return q, errors.New("lat and lon must be provided together")
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return q, errors.New("invalid lat")
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return q, errors.New("invalid lon")
		}
		q.Lat, q.Lon = &lat, &lon
	}

	if q.Query == "" && q.Lat == nil {
		return q, errors.New("either q or lat and lon are required")
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint. History
// is keyed by coordinates so no geocoding round-trip is needed.
type historyQuery struct {
	Lat  *float64  `validate:"required,gte=-90,lte=90"`
	Lon  *float64  `validate:"required,gte=-180,lte=180"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return errors.New("lat and lon query parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return errors.New("invalid lon")
	}
	h.Lat, h.Lon = &lat, &lon

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

// seriesCSV renders the forecast series as the CSV the dashboard's
// download button serves.
func seriesCSV(s weather.Series) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"time", "solar_radiation_wm2", "wind_speed_ms", "temperature_c"}); err != nil {
		return nil, err
	}
	for i := range s.Times {
		record := []string{
			s.Times[i].Format(time.RFC3339),
			strconv.FormatFloat(s.SolarRadiation[i], 'f', 2, 64),
			strconv.FormatFloat(s.WindSpeed[i], 'f', 2, 64),
			strconv.FormatFloat(s.Temperature[i], 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
