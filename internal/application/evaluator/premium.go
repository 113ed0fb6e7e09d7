package evaluator

// premium.go — búsqueda de prima de entrada y selección de contrato.
//
// Para cada candidato se escanean sus velas intradía en orden cronológico,
// precio a precio (open, high, low, close): el primer precio dentro de la
// banda es la entrada. Si ningún precio cae en banda, el fallback toma el
// precio observado más cercano al punto medio, aceptándolo solo si queda a
// menos de tolerance × ancho de banda.
//
// Dos políticas de selección entre candidatos válidos:
//   - first_in_range: el primer candidato con entrada válida gana;
//   - max_gain: se evalúan todos y gana el de mayor ganancia día 1,
//     prefiriendo siempre entradas en banda sobre entradas de fallback.

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
	"github.com/pcgujuancarlos/AG1VR/internal/ports"
)

// Selección de contrato.
const (
	SelectFirstInRange = "first_in_range"
	SelectMaxGain      = "max_gain"
)

// Ventana de moneyness aceptable para acotar coste: strikes entre 15% por
// debajo y 5% por encima del spot.
const (
	moneynessMinPct = -15.0
	moneynessMaxPct = 5.0
)

// Razones de zero-result del matcher.
const (
	ReasonNoContracts = "no contracts"
	ReasonNoPremium   = "no valid premium: out of range"
	ReasonNoIntraday  = "no intraday data"
	ReasonDataError   = "market data error"
)

type premiumMatcher struct {
	market     ports.MarketData
	policy     string  // SelectFirstInRange | SelectMaxGain
	tolerance  float64 // múltiplo del ancho de banda para el fallback
	candidates int     // tope de contratos a escanear
	gainCap    float64
}

// matchResult acompaña cada match con lo necesario para rankear.
type matchResult struct {
	match domain.PremiumMatch
	gain  domain.GainResult
}

// match busca el contrato y la prima de entrada. Devuelve nil con una razón
// cuando no se resolvió nada; el error solo se usa para fallos de datos que
// impidieron siquiera intentar.
func (m *premiumMatcher) match(
	ctx context.Context,
	candidates []domain.ContractCandidate,
	premiumMin, premiumMax float64,
	spot float64,
	date time.Time,
) (*domain.PremiumMatch, *domain.GainResult, string) {
	filtered := filterMoneyness(candidates, spot)
	if len(filtered) == 0 {
		return nil, nil, ReasonNoContracts
	}
	if len(filtered) > m.candidates {
		filtered = filtered[:m.candidates]
	}

	var best *matchResult
	scanned, noData := 0, 0

	for _, cand := range filtered {
		dayBars, err := m.market.IntradayBars(ctx, cand.ID, date)
		if err != nil {
			slog.Debug("intraday fetch failed", "contract", cand.ID, "err", err)
			continue
		}
		if len(dayBars) == 0 {
			noData++
			continue
		}
		scanned++

		entry, inRange, ok := findEntry(dayBars, premiumMin, premiumMax, m.tolerance)
		if !ok {
			continue
		}

		result := matchResult{
			match: domain.PremiumMatch{
				ContractID:   cand.ID,
				Strike:       cand.Strike,
				EntryPremium: entry,
				MaxPremiumD1: domain.MaxHigh(dayBars),
				InRange:      inRange,
			},
		}

		// Día 2: misma entrada, máximo del siguiente día hábil.
		d2Bars, err := m.market.IntradayBars(ctx, cand.ID, domain.NextTradingDay(date))
		if err != nil {
			slog.Debug("day-2 fetch failed", "contract", cand.ID, "err", err)
		} else {
			result.match.MaxPremiumD2 = domain.MaxHigh(d2Bars)
		}
		result.gain = domain.ComputeGains(result.match, m.gainCap)
		logClamp(result, cand.ID)

		if m.policy == SelectFirstInRange {
			return &result.match, &result.gain, ""
		}
		if better(&result, best) {
			r := result
			best = &r
		}
	}

	if best != nil {
		return &best.match, &best.gain, ""
	}

	switch {
	case scanned == 0 && noData > 0:
		return nil, nil, ReasonNoIntraday
	case scanned == 0:
		return nil, nil, ReasonDataError
	default:
		return nil, nil, ReasonNoPremium
	}
}

// better implementa la preferencia de max_gain: en-banda por encima de
// fallback, y a igualdad de clase, mayor ganancia día 1.
func better(candidate, current *matchResult) bool {
	if current == nil {
		return true
	}
	if candidate.match.InRange != current.match.InRange {
		return candidate.match.InRange
	}
	return candidate.gain.GainD1Pct > current.gain.GainD1Pct
}

// findEntry escanea los cuatro precios de cada vela en orden cronológico.
// Devuelve (premium, enBanda, ok).
func findEntry(bars []domain.Bar, premiumMin, premiumMax, tolerance float64) (float64, bool, bool) {
	for _, bar := range bars {
		for _, p := range bar.Prices() {
			if p >= premiumMin && p <= premiumMax {
				return p, true, true
			}
		}
	}

	// Fallback: precio observado más cercano al punto medio de la banda.
	mid := (premiumMin + premiumMax) / 2
	width := premiumMax - premiumMin

	closest, dist := 0.0, math.MaxFloat64
	for _, bar := range bars {
		for _, p := range bar.Prices() {
			if p <= 0 {
				continue
			}
			if d := math.Abs(p - mid); d < dist {
				closest, dist = p, d
			}
		}
	}
	if closest > 0 && dist <= tolerance*width {
		return closest, false, true
	}
	return 0, false, false
}

// filterMoneyness descarta strikes fuera de la ventana [-15%, +5%] del spot.
func filterMoneyness(candidates []domain.ContractCandidate, spot float64) []domain.ContractCandidate {
	out := make([]domain.ContractCandidate, 0, len(candidates))
	for _, c := range candidates {
		m := c.MoneynessPct(spot)
		if m >= moneynessMinPct && m <= moneynessMaxPct {
			out = append(out, c)
		}
	}
	return out
}

func logClamp(r matchResult, contractID string) {
	if r.gain.ClampedD1 || r.gain.ClampedD2 {
		slog.Warn("gain clamped to ceiling",
			"contract", contractID,
			"entry", r.match.EntryPremium,
			"max_d1", r.match.MaxPremiumD1,
			"max_d2", r.match.MaxPremiumD2,
		)
	}
}
