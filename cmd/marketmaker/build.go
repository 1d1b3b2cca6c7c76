package main

import (
	"fmt"

	"github.com/alejandrodnm/ritmm/config"
	"github.com/alejandrodnm/ritmm/internal/application/engine"
	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/alejandrodnm/ritmm/internal/domain/risk"
	"github.com/alejandrodnm/ritmm/internal/domain/signals"
	"github.com/alejandrodnm/ritmm/internal/domain/strategy"
	"github.com/alejandrodnm/ritmm/internal/ports"
)

// buildEngine traduce la configuración a los componentes del engine.
func buildEngine(cfg *config.Config, ex ports.Exchange, journal ports.Journal, notifiers ...ports.Notifier) (*engine.Engine, error) {
	est, err := signals.NewEstimator(signals.Config{
		Estimator:       signals.VolEstimator(cfg.Strategy.VolEstimator),
		RollingLookback: cfg.Strategy.RollingTrendLookback,
		MinHistoryBars:  cfg.Strategy.MinHistoryBars,
	})
	if err != nil {
		return nil, fmt.Errorf("buildEngine: %w", err)
	}

	quoter := strategy.NewVolTrendInventory(quoterConfig(cfg))
	controller := risk.NewController(riskConfig(cfg))

	return engine.New(engineConfig(cfg), ex, est, quoter, controller, journal, notifiers...), nil
}

func quoterConfig(cfg *config.Config) strategy.VolTrendInventoryConfig {
	return strategy.VolTrendInventoryConfig{
		MaxOrderVolume:       cfg.Strategy.MaxOrderVolume,
		VolCalibration:       cfg.Strategy.VolCalibration,
		TrendCalibration:     cfg.Strategy.TrendCalibration,
		InventoryCalibration: cfg.Strategy.InventoryCalibration,
		ConfidenceGate:       cfg.Strategy.ConfidenceGate,
		TrendVolNormalized:   cfg.Strategy.TrendVolNormalized,
		UseLocalTrend:        cfg.Strategy.SkewOnLocalTrend,
	}
}

func riskConfig(cfg *config.Config) risk.Config {
	return risk.Config{
		MaxOrderVolume:      cfg.Strategy.MaxOrderVolume,
		MaxHoldingPeriod:    cfg.Risk.MaxHoldingPeriod,
		HoldingCalibration:  cfg.Risk.HoldingCalibration,
		EndTick:             cfg.Risk.EndTick,
		StopLossCalibration: cfg.Risk.StopLossCalibration,
		LiquidationType:     domain.OrderType(cfg.Risk.LiquidationOrderType),
	}
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		Ticker:                    cfg.Strategy.Ticker,
		MaxOrderVolume:            cfg.Strategy.MaxOrderVolume,
		OrderProximityCalibration: cfg.Strategy.OrderProximityCalibration,
		MaxOrderAgeTicks:          cfg.Strategy.MaxOrderAgeTicks,
		StartTick:                 cfg.Risk.StartTick,
		FinalTick:                 cfg.Risk.FinalTick,
		BookLimit:                 cfg.Strategy.BookLimit,
		OddLotMode:                engine.OddLotMode(cfg.Strategy.OddLotMode),
		PollInterval:              cfg.PollInterval(),
	}
}
