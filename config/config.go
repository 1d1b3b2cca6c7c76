package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del market maker.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Capture  CaptureConfig  `yaml:"capture"`
	Log      LogConfig      `yaml:"log"`
}

// StrategyConfig controla señales, quoting y el ciclo de vida de órdenes.
type StrategyConfig struct {
	Ticker                    string  `yaml:"ticker"`
	MaxOrderVolume            int     `yaml:"max_order_volume"` // tamaño de lote L
	VolCalibration            float64 `yaml:"vol_calibration"`
	TrendCalibration          float64 `yaml:"trend_calibration"`
	InventoryCalibration      float64 `yaml:"inventory_calibration"`
	OrderProximityCalibration float64 `yaml:"order_proximity_calibration"` // múltiplo de vol_spread
	MaxOrderAgeTicks          int     `yaml:"max_order_age_ticks"`
	RollingTrendLookback      int     `yaml:"rolling_trend_lookback"`
	ConfidenceGate            float64 `yaml:"confidence_gate"`
	TrendVolNormalized        bool    `yaml:"trend_vol_normalized"`
	SkewOnLocalTrend          bool    `yaml:"skew_on_local_trend"`
	VolEstimator              string  `yaml:"vol_estimator"` // close_to_close | rogers_satchell | garman_klass
	MinHistoryBars            int     `yaml:"min_history_bars"`
	OddLotMode                string  `yaml:"odd_lot_mode"` // market | limit
	BookLimit                 int     `yaml:"book_limit"`
}

// RiskConfig controla el holding period y la liquidación.
type RiskConfig struct {
	MaxHoldingPeriod     int     `yaml:"max_holding_period"`
	HoldingCalibration   float64 `yaml:"holding_calibration"`
	StartTick            int     `yaml:"start_tick"`
	EndTick              int     `yaml:"end_tick"`
	FinalTick            int     `yaml:"final_tick"`
	StopLossCalibration  float64 `yaml:"stop_loss_calibration"` // 0 desactiva
	LiquidationOrderType string  `yaml:"liquidation_order_type"` // MARKET | LIMIT
}

// APIConfig contiene la conexión al exchange.
type APIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	PollIntervalMS int     `yaml:"poll_interval_ms"`
}

// StorageConfig controla dónde se persiste el journal.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// MetricsConfig controla el endpoint de Prometheus.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // vacío desactiva
}

// CaptureConfig controla el volcado CSV de datos de mercado al final de la sesión.
type CaptureConfig struct {
	Dir string `yaml:"dir"` // vacío desactiva
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default devuelve la configuración de referencia.
func Default() Config {
	return Config{
		Strategy: StrategyConfig{
			Ticker:                    "ALGO",
			MaxOrderVolume:            5000,
			VolCalibration:            0.3,
			TrendCalibration:          1,
			InventoryCalibration:      3,
			OrderProximityCalibration: 0,
			MaxOrderAgeTicks:          7,
			RollingTrendLookback:      10,
			ConfidenceGate:            1.5,
			TrendVolNormalized:        true,
			SkewOnLocalTrend:          false,
			VolEstimator:              "close_to_close",
			MinHistoryBars:            3,
			OddLotMode:                "market",
			BookLimit:                 40,
		},
		Risk: RiskConfig{
			MaxHoldingPeriod:     20,
			HoldingCalibration:   1,
			StartTick:            10,
			EndTick:              290,
			FinalTick:            299,
			StopLossCalibration:  0,
			LiquidationOrderType: "MARKET",
		},
		API: APIConfig{
			BaseURL:        "http://localhost:9999/v1",
			RequestsPerSec: 20,
			PollIntervalMS: 100,
		},
		Storage: StorageConfig{DSN: "ritmm.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las claves ausentes del YAML conservan el valor de Default; las variables de
// entorno sobreescriben ambos.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// PollInterval devuelve el intervalo de polling como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.API.PollIntervalMS) * time.Millisecond
}

// Validate comprueba rangos y enums.
func (c *Config) Validate() error {
	var errs []error
	if c.Risk.StartTick > c.Risk.EndTick {
		errs = append(errs, fmt.Errorf("risk.start_tick %d > risk.end_tick %d", c.Risk.StartTick, c.Risk.EndTick))
	}
	if c.Risk.EndTick >= c.Risk.FinalTick {
		errs = append(errs, fmt.Errorf("risk.end_tick %d must be < risk.final_tick %d", c.Risk.EndTick, c.Risk.FinalTick))
	}
	switch c.Strategy.VolEstimator {
	case "close_to_close", "rogers_satchell", "garman_klass":
	default:
		errs = append(errs, fmt.Errorf("strategy.vol_estimator %q unknown", c.Strategy.VolEstimator))
	}
	switch c.Strategy.OddLotMode {
	case "market", "limit":
	default:
		errs = append(errs, fmt.Errorf("strategy.odd_lot_mode %q must be market or limit", c.Strategy.OddLotMode))
	}
	switch c.Risk.LiquidationOrderType {
	case "MARKET", "LIMIT":
	default:
		errs = append(errs, fmt.Errorf("risk.liquidation_order_type %q must be MARKET or LIMIT", c.Risk.LiquidationOrderType))
	}
	if c.Strategy.VolCalibration < 0 || c.Strategy.InventoryCalibration < 0 || c.Strategy.OrderProximityCalibration < 0 {
		errs = append(errs, errors.New("strategy calibrations must be >= 0"))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RIT_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("RIT_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults corrige valores que no pueden ser cero o negativos.
func setDefaults(cfg *Config) {
	d := Default()
	if cfg.Strategy.Ticker == "" {
		cfg.Strategy.Ticker = d.Strategy.Ticker
	}
	if cfg.Strategy.MaxOrderVolume <= 0 {
		cfg.Strategy.MaxOrderVolume = d.Strategy.MaxOrderVolume
	}
	if cfg.Strategy.RollingTrendLookback <= 0 {
		cfg.Strategy.RollingTrendLookback = d.Strategy.RollingTrendLookback
	}
	if cfg.Strategy.ConfidenceGate <= 0 {
		cfg.Strategy.ConfidenceGate = d.Strategy.ConfidenceGate
	}
	if cfg.Strategy.MinHistoryBars <= 0 {
		cfg.Strategy.MinHistoryBars = d.Strategy.MinHistoryBars
	}
	if cfg.Strategy.BookLimit <= 0 {
		cfg.Strategy.BookLimit = d.Strategy.BookLimit
	}
	cfg.Strategy.VolEstimator = strings.ToLower(cfg.Strategy.VolEstimator)
	if cfg.Strategy.VolEstimator == "" {
		cfg.Strategy.VolEstimator = d.Strategy.VolEstimator
	}
	cfg.Strategy.OddLotMode = strings.ToLower(cfg.Strategy.OddLotMode)
	if cfg.Strategy.OddLotMode == "" {
		cfg.Strategy.OddLotMode = d.Strategy.OddLotMode
	}
	if cfg.Risk.MaxHoldingPeriod <= 0 {
		cfg.Risk.MaxHoldingPeriod = d.Risk.MaxHoldingPeriod
	}
	if cfg.Risk.FinalTick <= 0 {
		cfg.Risk.FinalTick = d.Risk.FinalTick
	}
	cfg.Risk.LiquidationOrderType = strings.ToUpper(cfg.Risk.LiquidationOrderType)
	if cfg.Risk.LiquidationOrderType == "" {
		cfg.Risk.LiquidationOrderType = d.Risk.LiquidationOrderType
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = d.API.BaseURL
	}
	if cfg.API.RequestsPerSec <= 0 {
		cfg.API.RequestsPerSec = d.API.RequestsPerSec
	}
	if cfg.API.PollIntervalMS <= 0 {
		cfg.API.PollIntervalMS = d.API.PollIntervalMS
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = d.Storage.DSN
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}
