package notify

import (
	"fmt"
	"io"

	"github.com/alejandrodnm/ritmm/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// PrintSessionReport imprime el resumen del journal, una fila por sesión.
func PrintSessionReport(w io.Writer, sessions []domain.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Session", "Started", "Cycles", "Ticks", "Final pos", "Max |pos|", "Realized", "Placed", "Failed", "Filled~", "Expired", "Liq")

	for _, s := range sessions {
		table.Append(
			shortID(s.SessionID),
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", s.Cycles),
			fmt.Sprintf("%d-%d", s.FirstTick, s.LastTick),
			fmt.Sprintf("%+d", s.FinalPos),
			fmt.Sprintf("%d", s.MaxAbsPos),
			fmt.Sprintf("$%.2f", s.Realized),
			fmt.Sprintf("%d", s.OrdersPlaced),
			fmt.Sprintf("%d", s.OrdersFailed),
			fmt.Sprintf("%d", s.OrdersGone),
			fmt.Sprintf("%d", s.Expired),
			fmt.Sprintf("%d", s.Liquidations),
		)
	}
	table.Render()

	fmt.Fprintln(w, "  Filled~ = órdenes que salieron del libro (fill o cancel externo)")
	fmt.Fprintln(w, "  Liq = órdenes de liquidación enviadas")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
