package polygon

// contracts.go — lookup de referencia de contratos PUT.
//
// El catálogo de Polygon a veces no tiene la fecha exacta de vencimiento
// (festivos, cambios de listado), así que la búsqueda amplía el rango en dos
// pasos: fecha exacta → ±7 días → ±30 días. El caller decide después qué
// vencimiento disponible queda más cerca del objetivo.

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

const (
	contractsPath = "/v3/reference/options/contracts"
	pageLimit     = 1000

	// ContractPrefix es el prefijo OCC de los tickers de opciones del proveedor.
	ContractPrefix = "O:"
)

// FindPutContracts busca contratos PUT del subyacente con el fallback de
// ampliación documentado. Devuelve slice vacío si ningún rango tiene contratos.
func (c *Client) FindPutContracts(ctx context.Context, underlying string, expiration time.Time) ([]domain.ContractCandidate, error) {
	// Intento 1: fecha exacta
	results, err := c.queryContracts(ctx, underlying, expiration, expiration)
	if err != nil {
		return nil, fmt.Errorf("polygon.FindPutContracts %s: %w", underlying, err)
	}
	if len(results) > 0 {
		return results, nil
	}

	// Intentos 2 y 3: ampliar rango
	for _, days := range []int{7, 30} {
		from := expiration.AddDate(0, 0, -days)
		to := expiration.AddDate(0, 0, days)
		slog.Debug("widening contract search",
			"underlying", underlying,
			"target", expiration.Format(dateLayout),
			"range_days", days,
		)

		results, err = c.queryContracts(ctx, underlying, from, to)
		if err != nil {
			return nil, fmt.Errorf("polygon.FindPutContracts %s ±%dd: %w", underlying, days, err)
		}
		if len(results) > 0 {
			slog.Debug("contracts found in widened range",
				"underlying", underlying, "range_days", days, "count", len(results))
			return results, nil
		}
	}

	return nil, nil
}

// queryContracts hace una consulta al catálogo. Si from == to usa el filtro
// de fecha exacta; si no, el rango gte/lte.
func (c *Client) queryContracts(ctx context.Context, underlying string, from, to time.Time) ([]domain.ContractCandidate, error) {
	query := url.Values{}
	query.Set("underlying_ticker", underlying)
	query.Set("contract_type", "put")
	query.Set("limit", fmt.Sprintf("%d", pageLimit))
	if from.Equal(to) {
		query.Set("expiration_date", from.Format(dateLayout))
	} else {
		query.Set("expiration_date.gte", from.Format(dateLayout))
		query.Set("expiration_date.lte", to.Format(dateLayout))
	}

	var resp contractsResponse
	if err := c.get(ctx, c.referenceLimiter, contractsPath, query, &resp); err != nil {
		return nil, err
	}
	return mapContracts(resp.Results), nil
}
