package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// Con table=true imprime una tabla por ciclo en vez de una línea.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el ciclo en el modo configurado.
func (c *Console) Notify(_ context.Context, r domain.CycleReport) error {
	if c.table {
		c.printTable(r)
	} else {
		c.printCompact(r)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(c.out, "  ! %s\n", w)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(r domain.CycleReport) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[t=%03d] pos=%+d mid=%.2f", r.Tick, r.Market.Position, r.Market.Mid)
	if r.Quoted {
		fmt.Fprintf(&sb, " q=%.2f/%.2f", r.Quote.Bid, r.Quote.Ask)
	} else {
		sb.WriteString(" q=-")
	}
	fmt.Fprintf(&sb, " vol=%.4f conf=%.2f", r.Signals.Vol.Vol, r.Signals.GlobalTrend.Confidence)
	fmt.Fprintf(&sb, " %s", riskLabel(r))
	fmt.Fprintf(&sb, " | rest %d/%d +%d", r.RestingBids, r.RestingAsks, r.OrdersPlaced)
	if r.OrdersFailed > 0 {
		fmt.Fprintf(&sb, " !%d", r.OrdersFailed)
	}
	if r.OrdersGone > 0 {
		fmt.Fprintf(&sb, " filled~%d", r.OrdersGone)
	}
	if r.OrdersExpired > 0 {
		fmt.Fprintf(&sb, " exp%d", r.OrdersExpired)
	}
	fmt.Fprintf(&sb, " | rpnl=%.2f", r.Market.Realized)
	fmt.Fprintln(c.out, sb.String())
}

// printTable imprime el detalle del ciclo.
func (c *Console) printTable(r domain.CycleReport) {
	fmt.Fprintf(c.out, "\n[tick %d] %s\n", r.Tick, riskLabel(r))

	table := tablewriter.NewWriter(c.out)
	table.Header("Pos", "VWAP", "Bid", "Ask", "Mid", "Vol", "Trend z", "Local z", "Q bid", "Q ask", "Spread", "Trend f", "Inv F", "Imbal", "Rest", "Placed")

	qbid, qask := "-", "-"
	if r.Quoted {
		qbid = fmt.Sprintf("%.2f", r.Quote.Bid)
		qask = fmt.Sprintf("%.2f", r.Quote.Ask)
	}
	table.Append(
		fmt.Sprintf("%+d", r.Market.Position),
		fmt.Sprintf("%.2f", r.Market.PositionVWAP),
		fmt.Sprintf("%.2f", r.Market.Bid),
		fmt.Sprintf("%.2f", r.Market.Ask),
		fmt.Sprintf("%.2f", r.Market.Mid),
		fmt.Sprintf("%.5f", r.Signals.Vol.Vol),
		fmt.Sprintf("%.2f", r.Signals.GlobalTrend.Confidence),
		fmt.Sprintf("%.2f", r.Signals.LocalTrend.Confidence),
		qbid,
		qask,
		fmt.Sprintf("%.2f", r.Quote.VolSpread),
		fmt.Sprintf("%.3f", r.Quote.TrendFactor),
		fmt.Sprintf("%.0f", r.Quote.InventoryFactor),
		fmt.Sprintf("%+.2f", r.Book.Imbalance),
		fmt.Sprintf("%d/%d", r.RestingBids, r.RestingAsks),
		fmt.Sprintf("%d", r.OrdersPlaced),
	)
	table.Render()
}

func riskLabel(r domain.CycleReport) string {
	if r.RiskReason == "" {
		return fmt.Sprintf("%s hold=%d", r.RiskState, r.HoldingTicks)
	}
	return fmt.Sprintf("%s(%s) hold=%d", r.RiskState, r.RiskReason, r.HoldingTicks)
}
