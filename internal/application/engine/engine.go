package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/alejandrodnm/ritmm/internal/domain/risk"
	"github.com/alejandrodnm/ritmm/internal/domain/signals"
	"github.com/alejandrodnm/ritmm/internal/domain/strategy"
	"github.com/alejandrodnm/ritmm/internal/ports"
	"github.com/google/uuid"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultFinalTick    = 299
	defaultBookLimit    = 40
)

// OddLotMode controla cómo se trabaja el resto de la posición bajo un lote.
type OddLotMode string

const (
	OddLotMarket OddLotMode = "market" // orden MARKET inmediata cada ciclo
	OddLotLimit  OddLotMode = "limit"  // LIMIT al quote del lado que reduce
)

// Config contiene la configuración del engine de market making.
type Config struct {
	Ticker                    string
	MaxOrderVolume            int
	OrderProximityCalibration float64
	MaxOrderAgeTicks          int
	StartTick                 int
	FinalTick                 int
	BookLimit                 int
	OddLotMode                OddLotMode
	PollInterval              time.Duration
}

// Engine ejecuta el loop de polling: un ciclo por cada tick nuevo del exchange.
type Engine struct {
	cfg       Config
	exchange  ports.Exchange
	estimator *signals.Estimator
	quoter    strategy.Quoter
	risk      *risk.Controller
	orders    *OrderManager
	journal   ports.Journal
	notifiers []ports.Notifier
	session   *Session
	sleep     sleeper
	now       func() time.Time
}

// New crea un engine. journal puede ser nil.
func New(
	cfg Config,
	exchange ports.Exchange,
	estimator *signals.Estimator,
	quoter strategy.Quoter,
	controller *risk.Controller,
	journal ports.Journal,
	notifiers ...ports.Notifier,
) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.FinalTick <= 0 {
		cfg.FinalTick = defaultFinalTick
	}
	if cfg.BookLimit <= 0 {
		cfg.BookLimit = defaultBookLimit
	}
	if cfg.MaxOrderVolume <= 0 {
		cfg.MaxOrderVolume = 5000
	}
	if cfg.OddLotMode == "" {
		cfg.OddLotMode = OddLotMarket
	}

	return &Engine{
		cfg:       cfg,
		exchange:  exchange,
		estimator: estimator,
		quoter:    quoter,
		risk:      controller,
		orders:    NewOrderManager(exchange, sleepCtx),
		journal:   journal,
		notifiers: notifiers,
		session:   newSession(uuid.New().String()),
		sleep:     sleepCtx,
		now:       time.Now,
	}
}

// Session devuelve el estado de la sesión (solo lectura).
func (e *Engine) Session() *Session { return e.session }

// Orders devuelve el manager del ciclo de vida de órdenes.
func (e *Engine) Orders() *OrderManager { return e.orders }

// Run consulta el exchange hasta el tick final, la cancelación de ctx o un
// error de auth. Un ciclo arranca solo cuando el tick observado sube.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"session", e.session.ID,
		"ticker", e.cfg.Ticker,
		"start_tick", e.cfg.StartTick,
		"final_tick", e.cfg.FinalTick,
		"poll", e.cfg.PollInterval,
	)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		done, err := e.poll(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrAuth) {
				return fmt.Errorf("engine.Run: %w", err)
			}
			slog.Error("cycle failed", "tick", e.session.LastTick, "err", err)
		}
		if done {
			slog.Info("session complete", "session", e.session.ID, "cycles", e.session.Cycles)
			return nil
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopped (signal)", "session", e.session.ID, "cycles", e.session.Cycles)
			return nil
		case <-ticker.C:
		}
	}
}

// poll lee el tick y ejecuta un ciclo si avanzó.
func (e *Engine) poll(ctx context.Context) (done bool, err error) {
	tick, err := withRetry(ctx, e.sleep, "tick", func() (int, error) {
		return e.exchange.Tick(ctx)
	})
	if err != nil {
		return false, err
	}

	if tick >= e.cfg.FinalTick {
		return true, nil
	}
	if tick < e.cfg.StartTick || tick <= e.session.LastTick {
		return false, nil
	}

	_, err = e.RunCycle(ctx, tick)
	return false, err
}

// RunCycle ejecuta un ciclo para tick. Orquesta: datos → señales → quote →
// riesgo → ciclo de órdenes → reporte.
func (e *Engine) RunCycle(ctx context.Context, tick int) (*domain.CycleReport, error) {
	s := e.session
	s.LastTick = tick
	s.Cycles++

	report := &domain.CycleReport{SessionID: s.ID, Tick: tick, At: e.now().UTC()}

	// 1. Datos
	if err := e.collect(ctx, tick, report); err != nil {
		return nil, err
	}

	// 2. Señales
	if s.historyFresh {
		est, err := e.estimator.Estimate(s.History)
		if err != nil {
			report.Warnings = append(report.Warnings, err.Error())
			slog.Debug("estimator declined", "tick", tick, "err", err)
		}
		s.Signals = est.Merge(s.Signals)
	}
	report.Signals = s.Signals

	// 3. Quote
	s.Quoted = false
	if s.Signals.Vol.Valid && s.Market.Valid() {
		s.Quote = e.quoter.Quote(s.Market.Mid, s.Signals, s.Market.Position)
		s.Quoted = true
	}
	report.Quote = s.Quote
	report.Quoted = s.Quoted

	// 4. Riesgo
	e.risk.Observe(s.Market.Position)
	decision := e.risk.Evaluate(s.Market, s.quoteForRisk())
	report.RiskState = string(decision.State)
	report.RiskReason = string(decision.Reason)
	report.HoldingTicks = e.risk.Holding()

	// 5. Ciclo de órdenes
	if decision.Liquidate() {
		slog.Warn("liquidating position",
			"tick", tick,
			"reason", decision.Reason,
			"position", s.Market.Position,
			"holding", e.risk.Holding(),
			"threshold", decision.Threshold,
		)
		placed, failed := e.orders.Liquidate(ctx, tick, decision.Orders)
		report.OrdersPlaced += placed
		report.OrdersFailed += failed
	} else {
		e.manageOrders(ctx, tick, report)
	}

	// 6. Reporte
	report.RestingBids, report.RestingAsks = e.orders.Len()
	e.publish(ctx, report)
	return report, nil
}

// collect lee el estado de mercado. El security info es obligatorio para el
// ciclo; el resto se degrada a warnings y conserva los valores anteriores.
func (e *Engine) collect(ctx context.Context, tick int, report *domain.CycleReport) error {
	s := e.session

	sec, err := withRetry(ctx, e.sleep, "security info", func() (domain.SecurityInfo, error) {
		return e.exchange.SecurityInfo(ctx)
	})
	if err != nil {
		return fmt.Errorf("engine.RunCycle: security info: %w", err)
	}
	s.Market = domain.NewMarketSnapshot(tick, sec)
	report.Market = s.Market
	if !s.Market.Valid() {
		report.Warnings = append(report.Warnings, "one-sided or empty book, not quoting")
	}

	s.historyFresh = false
	bars, err := withRetry(ctx, e.sleep, "price history", func() ([]domain.Bar, error) {
		return e.exchange.PriceHistory(ctx)
	})
	switch {
	case errors.Is(err, domain.ErrAuth):
		return fmt.Errorf("engine.RunCycle: price history: %w", err)
	case err != nil:
		e.warn(report, "price history unavailable, keeping previous signals", err)
	default:
		s.History = domain.NewPriceHistory(bars)
		s.historyFresh = true
	}

	trades, err := withRetry(ctx, e.sleep, "time and sales", func() ([]domain.Trade, error) {
		return e.exchange.TimeAndSales(ctx)
	})
	if errors.Is(err, domain.ErrAuth) {
		return fmt.Errorf("engine.RunCycle: time and sales: %w", err)
	} else if err != nil {
		e.warn(report, "time and sales unavailable", err)
	} else {
		report.Tape = domain.SummarizeTape(trades)
	}

	book, err := withRetry(ctx, e.sleep, "order book", func() (domain.OrderBook, error) {
		return e.exchange.OrderBook(ctx, e.cfg.BookLimit)
	})
	if errors.Is(err, domain.ErrAuth) {
		return fmt.Errorf("engine.RunCycle: order book: %w", err)
	} else if err != nil {
		e.warn(report, "order book unavailable", err)
	} else {
		report.Book = book.Stats(s.Market.Mid)
	}

	open, err := withRetry(ctx, e.sleep, "open orders", func() ([]domain.OpenOrder, error) {
		return e.exchange.OpenOrders(ctx)
	})
	if errors.Is(err, domain.ErrAuth) {
		return fmt.Errorf("engine.RunCycle: open orders: %w", err)
	} else if err != nil {
		e.warn(report, "open orders unavailable, skipping reconcile", err)
	} else {
		gone := e.orders.Reconcile(tick, open)
		report.OrdersGone = len(gone)
	}
	return nil
}

// manageOrders expira quotes viejos, coloca el par nuevo y trabaja el odd lot.
func (e *Engine) manageOrders(ctx context.Context, tick int, report *domain.CycleReport) {
	s := e.session

	report.OrdersExpired = e.orders.ExpireStale(ctx, tick, e.cfg.MaxOrderAgeTicks)

	if !s.Quoted {
		return
	}

	threshold := e.cfg.OrderProximityCalibration * s.Quote.VolSpread
	res := e.orders.PlaceQuotePair(ctx, tick, s.Quote.Bid, s.Quote.Ask, e.cfg.MaxOrderVolume, threshold)
	report.OrdersPlaced += res.Placed
	report.OrdersFailed += res.Failed

	placed, err := e.orders.WorkOddLot(ctx, tick, s.Market.Position, e.cfg.MaxOrderVolume, e.cfg.OddLotMode, s.Quote)
	switch {
	case err != nil:
		report.OrdersFailed++
		e.warn(report, "odd lot order failed", err)
	case placed:
		report.OrdersPlaced++
	}
}

// publish notifica y persiste el ciclo. Un fallo aquí nunca corta el loop.
func (e *Engine) publish(ctx context.Context, report *domain.CycleReport) {
	for _, n := range e.notifiers {
		if err := n.Notify(ctx, *report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	events := e.orders.DrainEvents(e.session.ID)
	if e.journal == nil {
		return
	}
	if err := e.journal.SaveCycle(ctx, *report); err != nil {
		slog.Warn("journal error", "err", err)
	}
	if err := e.journal.SaveOrderEvents(ctx, events); err != nil {
		slog.Warn("journal error", "err", err)
	}
}

func (e *Engine) warn(report *domain.CycleReport, msg string, err error) {
	report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", msg, err))
	slog.Warn(msg, "tick", report.Tick, "err", err)
}
