package evaluator

// universe.go — generación del universo de contratos PUT a evaluar.
//
// Dos estrategias según la fecha de análisis:
//   - fecha actual/futura: lookup en el catálogo de referencia (con la
//     ampliación ±7/±30 días dentro del adapter), agrupando por vencimiento
//     y quedándose con el más cercano al objetivo;
//   - fecha histórica, o lookup sin resultados: síntesis manual del ladder
//     de strikes.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
	"github.com/pcgujuancarlos/AG1VR/internal/ports"
)

// contractPrefix es el prefijo OCC de los identificadores sintéticos,
// idéntico al que usa el catálogo del proveedor.
const contractPrefix = "O:"

// buildUniverse produce la lista ordenada de candidatos PUT para el ticker.
func buildUniverse(
	ctx context.Context,
	ref ports.ContractReference,
	ticker string,
	rule domain.ExpirationRule,
	friday domain.FridayRule,
	date time.Time,
	spot float64,
	now time.Time,
) ([]domain.ContractCandidate, error) {
	target := domain.ExpirationDate(date, rule, friday)

	// Las fechas históricas no suelen tener catálogo utilizable: los
	// contratos vencidos desaparecen del listado. Síntesis directa.
	if target.Before(truncateDay(now)) {
		return synthesize(ticker, target, spot), nil
	}

	found, err := ref.FindPutContracts(ctx, ticker, target)
	if err != nil {
		return nil, fmt.Errorf("evaluator.buildUniverse %s: %w", ticker, err)
	}
	if len(found) == 0 {
		slog.Debug("reference lookup empty, synthesizing ladder",
			"ticker", ticker, "expiration", target.Format("2006-01-02"))
		return synthesize(ticker, target, spot), nil
	}

	candidates := closestExpiration(found, target)
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Strike < candidates[j].Strike
	})
	return candidates, nil
}

// synthesize genera el ladder manual de strikes alrededor del spot.
func synthesize(ticker string, expiration time.Time, spot float64) []domain.ContractCandidate {
	step := domain.LadderStep(ticker, spot)
	return domain.SyntheticLadder(contractPrefix, ticker, expiration, spot, step)
}

// closestExpiration agrupa por fecha de vencimiento y devuelve el grupo
// más cercano al objetivo.
func closestExpiration(candidates []domain.ContractCandidate, target time.Time) []domain.ContractCandidate {
	groups := make(map[time.Time][]domain.ContractCandidate)
	for _, c := range candidates {
		key := truncateDay(c.Expiration)
		groups[key] = append(groups[key], c)
	}

	var best time.Time
	bestDist := math.MaxFloat64
	for exp := range groups {
		dist := math.Abs(exp.Sub(target).Hours())
		if dist < bestDist {
			best, bestDist = exp, dist
		}
	}
	return groups[best]
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
