// Package capture vuelca los datos de mercado de la sesión a CSV para calibrar offline.
package capture

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// MarketData es la parte del exchange que lee la captura.
type MarketData interface {
	PriceHistory(ctx context.Context) ([]domain.Bar, error)
	TimeAndSales(ctx context.Context) ([]domain.Trade, error)
}

// Files lista las rutas que escribe Dump.
type Files struct {
	OHLC    string
	TAS     string
	TASAggr string
}

// Writer escribe ohlc_<tag>.csv, tas_<tag>.csv y tasagg_<tag>.csv en Dir.
type Writer struct {
	Dir string
}

// NewWriter crea un Writer sobre dir.
func NewWriter(dir string) *Writer { return &Writer{Dir: dir} }

// Dump lee el histórico completo y el tape y escribe los tres archivos.
func (w *Writer) Dump(ctx context.Context, src MarketData, tag string) (Files, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("capture.Dump: mkdir: %w", err)
	}

	bars, err := src.PriceHistory(ctx)
	if err != nil {
		return Files{}, fmt.Errorf("capture.Dump: history: %w", err)
	}
	trades, err := src.TimeAndSales(ctx)
	if err != nil {
		return Files{}, fmt.Errorf("capture.Dump: tape: %w", err)
	}

	files := Files{
		OHLC:    filepath.Join(w.Dir, "ohlc_"+tag+".csv"),
		TAS:     filepath.Join(w.Dir, "tas_"+tag+".csv"),
		TASAggr: filepath.Join(w.Dir, "tasagg_"+tag+".csv"),
	}
	if err := writeCSV(files.OHLC, ohlcRows(domain.NewPriceHistory(bars))); err != nil {
		return Files{}, fmt.Errorf("capture.Dump: %w", err)
	}
	sortTrades(trades)
	if err := writeCSV(files.TAS, tasRows(trades)); err != nil {
		return Files{}, fmt.Errorf("capture.Dump: %w", err)
	}
	if err := writeCSV(files.TASAggr, aggRows(domain.AggregateTape(trades))); err != nil {
		return Files{}, fmt.Errorf("capture.Dump: %w", err)
	}
	return files, nil
}

func ohlcRows(h domain.PriceHistory) [][]string {
	rows := [][]string{{"tick", "open", "high", "low", "close"}}
	for _, b := range h {
		rows = append(rows, []string{strconv.Itoa(b.Tick), ff(b.Open), ff(b.High), ff(b.Low), ff(b.Close)})
	}
	return rows
}

func tasRows(trades []domain.Trade) [][]string {
	rows := [][]string{{"id", "period", "tick", "price", "quantity"}}
	for _, t := range trades {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10), strconv.Itoa(t.Period), strconv.Itoa(t.Tick), ff(t.Price), strconv.Itoa(t.Quantity),
		})
	}
	return rows
}

func aggRows(agg []domain.TickVolume) [][]string {
	rows := [][]string{{"tick", "avg_trade_volume", "total_volume"}}
	for _, a := range agg {
		rows = append(rows, []string{strconv.Itoa(a.Tick), ff(a.AvgVolume), strconv.Itoa(a.TotalVolume)})
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// sortTrades ordena por tick y luego por id.
func sortTrades(trades []domain.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Tick != trades[j].Tick {
			return trades[i].Tick < trades[j].Tick
		}
		return trades[i].ID < trades[j].ID
	})
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
