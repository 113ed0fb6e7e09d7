package ports

import (
	"context"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// MarketData obtiene velas OHLC del proveedor de datos de mercado.
// El mismo contrato sirve para el subyacente (ticker normal) y para
// contratos de opciones (ticker estilo OCC, ej. O:SPY241022P00580000).
type MarketData interface {
	// DailyBars devuelve las velas diarias del rango [from, to], ordenadas
	// por timestamp ascendente.
	DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]domain.Bar, error)

	// IntradayBars devuelve las velas intradía de un único día de mercado.
	// Devuelve slice vacío (sin error) si el día no tiene datos.
	IntradayBars(ctx context.Context, ticker string, date time.Time) ([]domain.Bar, error)
}
