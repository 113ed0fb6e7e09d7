package polygon

import (
	"log/slog"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// mapBars convierte los agregados del API a velas de dominio.
func mapBars(results []aggResult) []domain.Bar {
	bars := make([]domain.Bar, 0, len(results))
	for _, r := range results {
		bars = append(bars, domain.Bar{
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return bars
}

// mapContracts convierte los resultados del catálogo a candidatos de dominio.
// Entradas con fecha ilegible o tipo distinto de "put" se descartan con aviso.
func mapContracts(results []contractResult) []domain.ContractCandidate {
	candidates := make([]domain.ContractCandidate, 0, len(results))
	for _, r := range results {
		if r.ContractType != "put" {
			continue
		}
		exp, err := time.Parse(dateLayout, r.ExpirationDate)
		if err != nil {
			slog.Warn("skipping contract with unparseable expiration",
				"ticker", r.Ticker, "expiration_date", r.ExpirationDate)
			continue
		}
		candidates = append(candidates, domain.ContractCandidate{
			ID:         r.Ticker,
			Underlying: r.UnderlyingTicker,
			Strike:     r.StrikePrice,
			Expiration: exp,
			Side:       domain.SidePut,
			Synthetic:  false,
		})
	}
	return candidates
}
