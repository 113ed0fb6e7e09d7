package ports

import (
	"context"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// OutcomeStore persiste los resultados históricos de señales.
// Es el único recurso mutable compartido del pipeline: el insert debe ser
// atómico por clave (ticker, fecha) para tolerar escritores concurrentes.
type OutcomeStore interface {
	// InsertIfAbsent inserta el registro si no existe ya uno para
	// (ticker, fecha). Devuelve false (sin error) si ya existía.
	// Los registros que no pasan la validación de sanidad se rechazan
	// con error antes de tocar el almacenamiento.
	InsertIfAbsent(ctx context.Context, rec domain.HistoricalOutcome) (bool, error)

	// QueryByTicker devuelve los registros del ticker y side dados,
	// excluyendo el de excludeDate (YYYY-MM-DD) si no está vacío.
	QueryByTicker(ctx context.Context, ticker string, side domain.OptionSide, excludeDate string) ([]domain.HistoricalOutcome, error)

	// Close cierra la conexión al almacenamiento limpiamente.
	Close() error
}
