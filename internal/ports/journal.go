package ports

import (
	"context"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// Journal persiste el resultado de cada ciclo y los eventos de órdenes.
// Es un registro para análisis offline: el engine nunca lee de él.
type Journal interface {
	// SaveCycle persiste el reporte de un ciclo.
	SaveCycle(ctx context.Context, report domain.CycleReport) error

	// SaveOrderEvents persiste las transiciones de órdenes del ciclo.
	SaveOrderEvents(ctx context.Context, events []domain.OrderEvent) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
