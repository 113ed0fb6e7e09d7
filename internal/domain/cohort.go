package domain

import "sort"

// NumBins es el número de buckets iguales para RSI ([0,100]) y %B ([0,1]).
const NumBins = 5

// Bin es un índice de bucket 0..NumBins-1. Indefinido cuando el indicador
// de origen está indefinido — nunca se fuerza a 0.
type Bin struct {
	Index   int
	Defined bool
}

// RSIBin mapea un RSI a su bucket. Valores fuera de [0,100] se fijan al
// bucket frontera, nunca producen error: el binning es total.
func RSIBin(rsi IndicatorValue) Bin {
	if !rsi.Defined {
		return Bin{}
	}
	return Bin{Index: clampBin(int(rsi.Value / (100.0 / NumBins))), Defined: true}
}

// BBBin mapea un %B a su bucket sobre [0,1]. Entradas expresadas en
// porcentaje (>10) se normalizan primero dividiendo por 100.
func BBBin(bb IndicatorValue) Bin {
	if !bb.Defined {
		return Bin{}
	}
	v := bb.Value
	if v > 10 {
		v /= 100
	}
	return Bin{Index: clampBin(int(v * NumBins)), Defined: true}
}

func clampBin(i int) int {
	if i < 0 {
		return 0
	}
	if i > NumBins-1 {
		return NumBins - 1
	}
	return i
}

// HistoricalOutcome es un resultado persistido de una señal pasada.
// Append-only, clave única (Ticker, Date); los duplicados se rechazan al escribir.
type HistoricalOutcome struct {
	Date         string // YYYY-MM-DD
	Ticker       string
	Side         OptionSide
	RSI          float64
	BBPosition   float64
	GainD1Pct    float64
	GainD2Pct    float64
	EntryPremium float64
	Strike       float64
}

// RSIBinOf devuelve el bucket RSI del registro.
func (h HistoricalOutcome) RSIBinOf() Bin { return RSIBin(Indicator(h.RSI)) }

// BBBinOf devuelve el bucket %B del registro.
func (h HistoricalOutcome) BBBinOf() Bin { return BBBin(Indicator(h.BBPosition)) }

// CohortStat selecciona el estadístico agregado de la cohorte.
type CohortStat string

const (
	StatMean   CohortStat = "mean"
	StatMedian CohortStat = "median"
	// StatP10 es el percentil 10 (estimación conservadora); solo usable
	// cuando la cohorte alcanza min_n registros.
	StatP10 CohortStat = "p10"
)

// CohortStage indica en qué etapa del fallback se formó la cohorte.
type CohortStage int

const (
	StageNone  CohortStage = iota // sin cohorte utilizable
	StageExact                    // match exacto (rsi_bin, bb_bin, side)
	StageExpanded                 // expansión ±1 bin
	StageSide                     // todos los registros del side
)

// CohortResult es la estimación histórica para la observación actual.
type CohortResult struct {
	Records     []HistoricalOutcome
	Stage       CohortStage
	Stat        CohortStat
	EstimatePct float64 // estadístico sobre GainD1Pct; válido solo si HasData
	HasData     bool
	Reason      string // cuando HasData=false: "too few matches" | "no matches" | "no bin"
}

// Size devuelve el tamaño de la cohorte.
func (c CohortResult) Size() int { return len(c.Records) }

// GainStat calcula el estadístico pedido sobre las ganancias D1 de los registros.
// Devuelve false si no hay registros.
func GainStat(records []HistoricalOutcome, stat CohortStat) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	gains := make([]float64, len(records))
	for i, r := range records {
		gains[i] = r.GainD1Pct
	}

	switch stat {
	case StatMedian:
		return percentile(gains, 50), true
	case StatP10:
		return percentile(gains, 10), true
	default:
		var sum float64
		for _, g := range gains {
			sum += g
		}
		return sum / float64(len(gains)), true
	}
}

// percentile calcula el percentil p (0-100) por interpolación lineal.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
