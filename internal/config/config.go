package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ecowatt/ecowatt/internal/energy"
	"github.com/ecowatt/ecowatt/internal/weather"
)

// MinHorizonHours and MaxHorizonHours bound the forecast horizon accepted
// anywhere in the application.
const (
	MinHorizonHours = 24
	MaxHorizonHours = 168
)

type AppConfig struct {
	Port string

	// Timeout for outbound calls to the weather and geocoding APIs.
	HTTPTimeout time.Duration

	// Forecast horizon used when a request does not specify one.
	DefaultHorizonHours int

	// How often the scheduler refreshes the preset locations.
	RefreshInterval time.Duration

	// In-memory report retention.
	StoreMaxHistory int           // max number of reports per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of reports (0 = unlimited)

	// Optional Google geocoding fallback key.
	GeocoderAPIKey string

	// Locations kept warm by the scheduler and offered in the dashboard
	// dropdown.
	PresetLocations []weather.Location

	// Calculator tunables. These are business parameters, deliberately
	// configuration rather than code.
	Energy energy.Params
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.DefaultHorizonHours = getenvInt("HORIZON_HOURS", 72)
	if cfg.DefaultHorizonHours < MinHorizonHours || cfg.DefaultHorizonHours > MaxHorizonHours {
		return nil, fmt.Errorf("HORIZON_HOURS must be between %d and %d", MinHorizonHours, MaxHorizonHours)
	}

	intervalStr := getenvDefault("REFRESH_INTERVAL", "1h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 48)

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	locs, err := loadPresetLocations()
	if err != nil {
		return nil, err
	}
	cfg.PresetLocations = locs

	cfg.Energy = loadEnergyParams()

	return cfg, nil
}

// defaultPresets are the cities offered in the dashboard dropdown when
// PRESET_LOCATIONS is not set.
var defaultPresets = []weather.Location{
	{Name: "Delhi", Lat: 28.6139, Lon: 77.2090},
	{Name: "Mumbai", Lat: 19.0760, Lon: 72.8777},
	{Name: "Bangalore", Lat: 12.9716, Lon: 77.5946},
	{Name: "Chennai", Lat: 13.0827, Lon: 80.2707},
	{Name: "Hyderabad", Lat: 17.3850, Lon: 78.4867},
	{Name: "Kolkata", Lat: 22.5726, Lon: 88.3639},
}

// loadPresetLocations parses PRESET_LOCATIONS entries of the form
// "Name:lat:lon" separated by commas.
func loadPresetLocations() ([]weather.Location, error) {
	raw := os.Getenv("PRESET_LOCATIONS")
	if raw == "" {
		return defaultPresets, nil
	}

	var locs []weather.Location
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid PRESET_LOCATIONS entry %q; expected Name:lat:lon", entry)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in PRESET_LOCATIONS entry %q", entry)
		}
		lon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in PRESET_LOCATIONS entry %q", entry)
		}
		locs = append(locs, weather.Location{Name: parts[0], Lat: lat, Lon: lon})
	}

	return locs, nil
}

func loadEnergyParams() energy.Params {
	p := energy.DefaultParams()

	p.SolarWeight = getenvFloat("ECO_SOLAR_WEIGHT", p.SolarWeight)
	p.WindWeight = getenvFloat("ECO_WIND_WEIGHT", p.WindWeight)
	p.SolarRefWm2 = getenvFloat("ECO_SOLAR_REF_WM2", p.SolarRefWm2)
	p.WindRefMs = getenvFloat("ECO_WIND_REF_MS", p.WindRefMs)
	p.DailyDemandKWh = getenvFloat("DAILY_DEMAND_KWH", p.DailyDemandKWh)
	p.TariffPerKWh = getenvFloat("TARIFF_PER_KWH", p.TariffPerKWh)
	p.StorageShare = getenvFloat("STORAGE_SHARE", p.StorageShare)
	p.SolarHighWm2 = getenvFloat("SUGGEST_SOLAR_HIGH_WM2", p.SolarHighWm2)
	p.WindHighMs = getenvFloat("SUGGEST_WIND_HIGH_MS", p.WindHighMs)
	p.LowBand = getenvFloat("BAND_LOW", p.LowBand)
	p.HighBand = getenvFloat("BAND_HIGH", p.HighBand)

	return p
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
