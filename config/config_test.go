package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, Default().Strategy, cfg.Strategy)
	assert.Equal(t, 290, cfg.Risk.EndTick)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval())
}

func TestLoad_MissingKeysKeepDefaults(t *testing.T) {
	path := writeConfig(t, "strategy:\n  vol_calibration: 0.5\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Strategy.VolCalibration)
	assert.True(t, cfg.Strategy.TrendVolNormalized, "bool default survives a partial file")
	assert.Equal(t, 5000, cfg.Strategy.MaxOrderVolume)
	assert.Equal(t, 20, cfg.Risk.MaxHoldingPeriod)
}

func TestLoad_ExplicitZeroCalibrationKept(t *testing.T) {
	path := writeConfig(t, "strategy:\n  inventory_calibration: 0\n  trend_vol_normalized: false\nrisk:\n  holding_calibration: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Strategy.InventoryCalibration)
	assert.False(t, cfg.Strategy.TrendVolNormalized)
	assert.Zero(t, cfg.Risk.HoldingCalibration)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RIT_API_KEY", "KEY123")
	t.Setenv("RIT_BASE_URL", "http://10.0.0.2:9999/v1")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "api:\n  api_key: fromfile\n"))
	require.NoError(t, err)
	assert.Equal(t, "KEY123", cfg.API.APIKey)
	assert.Equal(t, "http://10.0.0.2:9999/v1", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_NormalizesEnums(t *testing.T) {
	cfg, err := Load(writeConfig(t, "strategy:\n  odd_lot_mode: LIMIT\nrisk:\n  liquidation_order_type: limit\n"))
	require.NoError(t, err)
	assert.Equal(t, "limit", cfg.Strategy.OddLotMode)
	assert.Equal(t, "LIMIT", cfg.Risk.LiquidationOrderType)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"estimator", "strategy:\n  vol_estimator: parkinson\n"},
		{"odd lot", "strategy:\n  odd_lot_mode: twap\n"},
		{"liquidation type", "risk:\n  liquidation_order_type: IOC\n"},
		{"tick order", "risk:\n  end_tick: 300\n  final_tick: 299\n"},
		{"start after end", "risk:\n  start_tick: 295\n"},
		{"negative calibration", "strategy:\n  vol_calibration: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "strategy: [\n"))
	assert.Error(t, err)
}
