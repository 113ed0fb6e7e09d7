package evaluator

// cohort.go — estimación histórica por cohortes.
//
// La cohorte se forma con fallback ordenado hasta juntar min_n registros:
// match exacto de bins → expansión ±1 bin → todos los registros del side.
// El propio día de análisis se excluye siempre, y los registros que no pasan
// el filtro de outliers no cuentan en ninguna etapa.

import (
	"context"
	"log/slog"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
	"github.com/pcgujuancarlos/AG1VR/internal/ports"
)

// Tolerancia de la banda de sanidad sobre la prima histórica: ±20%.
const premiumSanityTolerance = 0.20

type cohortClassifier struct {
	store   ports.OutcomeStore
	minN    int
	stat    domain.CohortStat
	gainCap float64
}

// classify arma la cohorte para la observación actual y calcula el
// estadístico configurado. Nunca devuelve error: los fallos degradan a un
// resultado "sin datos" con su razón.
func (c *cohortClassifier) classify(
	ctx context.Context,
	ticker string,
	side domain.OptionSide,
	rsi, bb domain.IndicatorValue,
	premiumMin, premiumMax float64,
	excludeDate string,
) domain.CohortResult {
	rsiBin, bbBin := domain.RSIBin(rsi), domain.BBBin(bb)
	if !rsiBin.Defined || !bbBin.Defined {
		return domain.CohortResult{Stat: c.stat, Reason: "no bin"}
	}

	records, err := c.store.QueryByTicker(ctx, ticker, side, excludeDate)
	if err != nil {
		slog.Warn("cohort query failed", "ticker", ticker, "err", err)
		return domain.CohortResult{Stat: c.stat, Reason: "store unavailable"}
	}
	records = c.dropOutliers(records, premiumMin, premiumMax)
	if len(records) == 0 {
		return domain.CohortResult{Stat: c.stat, Reason: "no matches"}
	}

	// Etapas del fallback, de la más específica a la más amplia. Cada etapa
	// es un superconjunto de la anterior, así que el tamaño nunca decrece.
	stages := []struct {
		stage  domain.CohortStage
		filter func(domain.HistoricalOutcome) bool
	}{
		{domain.StageExact, func(r domain.HistoricalOutcome) bool {
			return r.RSIBinOf() == rsiBin && r.BBBinOf() == bbBin
		}},
		{domain.StageExpanded, func(r domain.HistoricalOutcome) bool {
			return binNear(r.RSIBinOf(), rsiBin) && binNear(r.BBBinOf(), bbBin)
		}},
		{domain.StageSide, func(domain.HistoricalOutcome) bool { return true }},
	}

	for _, s := range stages {
		cohort := filterRecords(records, s.filter)
		if len(cohort) < c.minN {
			continue
		}
		estimate, _ := domain.GainStat(cohort, c.stat)
		return domain.CohortResult{
			Records:     cohort,
			Stage:       s.stage,
			Stat:        c.stat,
			EstimatePct: estimate,
			HasData:     true,
		}
	}

	return domain.CohortResult{Stat: c.stat, Reason: "too few matches"}
}

// dropOutliers excluye registros con ganancias fuera de [0, cap] o prima
// fuera de la banda del ticker ±20%. Sin banda configurada (ticker no
// validado) solo aplica el filtro de ganancias.
func (c *cohortClassifier) dropOutliers(records []domain.HistoricalOutcome, premiumMin, premiumMax float64) []domain.HistoricalOutcome {
	out := make([]domain.HistoricalOutcome, 0, len(records))
	for _, r := range records {
		if r.GainD1Pct < 0 || r.GainD1Pct > c.gainCap {
			continue
		}
		if premiumMin > 0 && premiumMax > premiumMin {
			lo := premiumMin * (1 - premiumSanityTolerance)
			hi := premiumMax * (1 + premiumSanityTolerance)
			if r.EntryPremium < lo || r.EntryPremium > hi {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func binNear(a, b domain.Bin) bool {
	if !a.Defined || !b.Defined {
		return false
	}
	d := a.Index - b.Index
	return d >= -1 && d <= 1
}

func filterRecords(records []domain.HistoricalOutcome, keep func(domain.HistoricalOutcome) bool) []domain.HistoricalOutcome {
	var out []domain.HistoricalOutcome
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
