// Package metrics expone el estado del market maker a Prometheus.
//
//   - mm_ticks_total                 – ciclos ejecutados
//   - mm_position                    – posición neta con signo
//   - mm_realized_pnl                – P&L realizado según el exchange
//   - mm_mid, mm_quote_bid, mm_quote_ask, mm_vol_spread
//   - mm_volatility, mm_trend_confidence{window}
//   - mm_holding_ticks               – ciclos seguidos manteniendo la posición
//   - mm_liquidating                 – 1 mientras el risk controller liquida
//   - mm_resting_orders{side}
//   - mm_orders_total{kind}          – placed|failed|gone|expired
//   - mm_cycle_warnings_total
package metrics

import (
	"context"
	"net/http"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implementa ports.Notifier actualizando los collectors en cada ciclo.
type Recorder struct {
	ticks       prometheus.Counter
	position    prometheus.Gauge
	realized    prometheus.Gauge
	mid         prometheus.Gauge
	quoteBid    prometheus.Gauge
	quoteAsk    prometheus.Gauge
	volSpread   prometheus.Gauge
	volatility  prometheus.Gauge
	trendConf   *prometheus.GaugeVec
	holding     prometheus.Gauge
	liquidating prometheus.Gauge
	resting     *prometheus.GaugeVec
	orders      *prometheus.CounterVec
	warnings    prometheus.Counter
}

// NewRecorder crea los collectors y los registra en reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_ticks_total", Help: "Cycles run",
		}),
		position: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_position", Help: "Net signed position",
		}),
		realized: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_realized_pnl", Help: "Realized P&L reported by the exchange",
		}),
		mid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_mid", Help: "Mid price",
		}),
		quoteBid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_quote_bid", Help: "Desired bid of the last quoted cycle",
		}),
		quoteAsk: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_quote_ask", Help: "Desired ask of the last quoted cycle",
		}),
		volSpread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_vol_spread", Help: "Half spread derived from volatility",
		}),
		volatility: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_volatility", Help: "Estimated volatility of log returns",
		}),
		trendConf: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mm_trend_confidence", Help: "Trend z-score",
		}, []string{"window"}),
		holding: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_holding_ticks", Help: "Consecutive cycles the position has been held",
		}),
		liquidating: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mm_liquidating", Help: "1 while the position is being flattened",
		}),
		resting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mm_resting_orders", Help: "Tracked resting limit orders",
		}, []string{"side"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mm_orders_total", Help: "Order lifecycle transitions",
		}, []string{"kind"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mm_cycle_warnings_total", Help: "Degraded data warnings",
		}),
	}
	reg.MustRegister(
		r.ticks, r.position, r.realized, r.mid, r.quoteBid, r.quoteAsk, r.volSpread,
		r.volatility, r.trendConf, r.holding, r.liquidating, r.resting, r.orders, r.warnings,
	)
	return r
}

// Notify registra un ciclo.
func (r *Recorder) Notify(_ context.Context, c domain.CycleReport) error {
	r.ticks.Inc()
	r.position.Set(float64(c.Market.Position))
	r.realized.Set(c.Market.Realized)
	r.mid.Set(c.Market.Mid)
	if c.Quoted {
		r.quoteBid.Set(c.Quote.Bid)
		r.quoteAsk.Set(c.Quote.Ask)
		r.volSpread.Set(c.Quote.VolSpread)
	}
	if c.Signals.Vol.Valid {
		r.volatility.Set(c.Signals.Vol.Vol)
	}
	r.trendConf.WithLabelValues("global").Set(c.Signals.GlobalTrend.Confidence)
	r.trendConf.WithLabelValues("local").Set(c.Signals.LocalTrend.Confidence)
	r.holding.Set(float64(c.HoldingTicks))

	liq := 0.0
	if c.RiskState == "LIQUIDATING" {
		liq = 1
	}
	r.liquidating.Set(liq)

	r.resting.WithLabelValues("bid").Set(float64(c.RestingBids))
	r.resting.WithLabelValues("ask").Set(float64(c.RestingAsks))
	r.orders.WithLabelValues("placed").Add(float64(c.OrdersPlaced))
	r.orders.WithLabelValues("failed").Add(float64(c.OrdersFailed))
	r.orders.WithLabelValues("gone").Add(float64(c.OrdersGone))
	r.orders.WithLabelValues("expired").Add(float64(c.OrdersExpired))
	r.warnings.Add(float64(len(c.Warnings)))
	return nil
}

// Serve expone /metrics de g en addr en segundo plano.
func Serve(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
