package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DefaultHorizonHours != 72 {
		t.Fatalf("expected default horizon 72, got %d", cfg.DefaultHorizonHours)
	}
	if len(cfg.PresetLocations) != 6 {
		t.Fatalf("expected 6 preset cities, got %d", len(cfg.PresetLocations))
	}
	if cfg.Energy.SolarWeight != 0.6 || cfg.Energy.WindWeight != 0.4 {
		t.Fatalf("unexpected default score weights: %+v", cfg.Energy)
	}
}

func TestLoadPresetLocationsFromEnv(t *testing.T) {
	t.Setenv("PRESET_LOCATIONS", "Oslo:59.9139:10.7522, Bergen:60.3913:5.3221")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.PresetLocations) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(cfg.PresetLocations))
	}
	if cfg.PresetLocations[1].Name != "Bergen" || cfg.PresetLocations[1].Lat != 60.3913 {
		t.Fatalf("unexpected preset: %+v", cfg.PresetLocations[1])
	}
}

func TestLoadRejectsMalformedPreset(t *testing.T) {
	t.Setenv("PRESET_LOCATIONS", "Oslo:59.9139")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed preset entry")
	}
}

func TestLoadRejectsOutOfRangeHorizon(t *testing.T) {
	t.Setenv("HORIZON_HOURS", "8")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range horizon")
	}
}

func TestEnergyParamOverride(t *testing.T) {
	t.Setenv("TARIFF_PER_KWH", "0.31")
	t.Setenv("DAILY_DEMAND_KWH", "24")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Energy.TariffPerKWh != 0.31 || cfg.Energy.DailyDemandKWh != 24 {
		t.Fatalf("expected overridden tariff and demand, got %+v", cfg.Energy)
	}
}
