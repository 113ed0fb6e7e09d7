package ports

import (
	"context"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// Notifier presenta las evaluaciones del día al usuario.
type Notifier interface {
	// Notify muestra las evaluaciones del batch, ordenadas por ticker.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, evaluations []domain.Evaluation) error
}
