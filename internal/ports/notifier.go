package ports

import (
	"context"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// Notifier presenta el resultado de cada ciclo.
// En la implementación de consola, imprime el estado de quotes y señales.
type Notifier interface {
	Notify(ctx context.Context, report domain.CycleReport) error
}
