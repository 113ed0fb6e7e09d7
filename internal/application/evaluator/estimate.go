package evaluator

// estimate.go — estimador crudo de primas por volatilidad.
//
// Último recurso cuando ningún candidato tiene velas intradía (contratos
// sintéticos muy antiguos o strikes nunca operados): se aproxima la prima
// desde la volatilidad anualizada del subyacente con una fórmula √tiempo.
// NO es un modelo de pricing — el resultado se marca Estimated y nunca
// se persiste en el histórico.

import (
	"math"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

const (
	volWindow     = 20   // velas diarias para la volatilidad realizada
	atmFactor     = 0.4  // aproximación ATM de la prima normalizada
	moneyDecay    = 5.0  // caída exponencial de la prima por % de moneyness
	intradayLift  = 0.35 // recorrido intradía asumido como fracción de la vol diaria
	minEstimateT  = 1.0 / 252
	minEstimatePx = 0.01
)

// estimateMatch aproxima entrada y máximos para el candidato más cercano al
// dinero. Devuelve nil si no hay historia suficiente para una volatilidad.
func estimateMatch(dailyBars []domain.Bar, spot float64, candidates []domain.ContractCandidate, date time.Time, gainCap float64) (*domain.PremiumMatch, *domain.GainResult) {
	vol, ok := annualizedVol(dailyBars)
	if !ok || spot <= 0 || len(candidates) == 0 {
		return nil, nil
	}

	cand := closestToSpot(candidates, spot)

	T := cand.Expiration.Sub(date).Hours() / 24 / 252
	if T < minEstimateT {
		T = minEstimateT
	}

	m := cand.MoneynessPct(spot)
	entry := spot * vol * math.Sqrt(T) * atmFactor * math.Exp(-math.Abs(m)/moneyDecay)
	if entry < minEstimatePx {
		entry = minEstimatePx
	}

	dailyVol := vol / math.Sqrt(252)
	maxD1 := entry * (1 + intradayLift*dailyVol*spot/entry)

	// Día 2: mismo recorrido pero con el theta de un día menos de vida.
	remaining := T - minEstimateT
	if remaining < 0 {
		remaining = 0
	}
	maxD2 := maxD1 * math.Sqrt(remaining/T)

	match := domain.PremiumMatch{
		ContractID:   cand.ID,
		Strike:       cand.Strike,
		EntryPremium: round4(entry),
		MaxPremiumD1: round4(maxD1),
		MaxPremiumD2: round4(maxD2),
		Estimated:    true,
	}
	gain := domain.ComputeGains(match, gainCap)
	return &match, &gain
}

// annualizedVol calcula la desviación estándar de los log-returns diarios
// sobre la ventana, anualizada con √252.
func annualizedVol(bars []domain.Bar) (float64, bool) {
	if len(bars) < volWindow+1 {
		return 0, false
	}
	window := bars[len(bars)-volWindow-1:]

	returns := make([]float64, 0, volWindow)
	for i := 1; i < len(window); i++ {
		prev, curr := window[i-1].Close, window[i].Close
		if prev <= 0 || curr <= 0 {
			return 0, false
		}
		returns = append(returns, math.Log(curr/prev))
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	return std * math.Sqrt(252), true
}

func closestToSpot(candidates []domain.ContractCandidate, spot float64) domain.ContractCandidate {
	best := candidates[0]
	bestDist := math.Abs(best.Strike - spot)
	for _, c := range candidates[1:] {
		if d := math.Abs(c.Strike - spot); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
