package domain

// SuccessThresholdPct es el umbral de "doblar la prima": una operación es
// exitosa si la ganancia alcanza el 100%.
const SuccessThresholdPct = 100.0

// DefaultGainCapPct es el techo por defecto de ganancia reportable. Los
// strikes ilíquidos producen spikes irreales en el feed; todo lo que supere
// el techo se recorta (y se loguea en el caller).
const DefaultGainCapPct = 400.0

// Outcome es el resultado a tres estados de un día de holding.
type Outcome int

const (
	OutcomeNoData Outcome = iota // sin velas para ese día: ni éxito ni fracaso
	OutcomeFail
	OutcomeSuccess
)

// String devuelve la etiqueta legible del outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFail:
		return "fail"
	default:
		return "no-data"
	}
}

// PremiumMatch es la prima de entrada resuelta para un contrato, junto con
// las primas máximas observadas en los días de holding.
type PremiumMatch struct {
	ContractID   string
	Strike       float64
	EntryPremium float64 // > 0 siempre que el match exista
	MaxPremiumD1 float64
	MaxPremiumD2 float64 // 0 si no hay datos del día 2
	InRange      bool    // true si la entrada cayó dentro del rango; false si vino del fallback
	Estimated    bool    // true si las primas se estimaron por volatilidad (sin datos intradía)
}

// GainResult son las ganancias derivadas de un PremiumMatch. Determinista:
// mismas primas → mismo resultado.
type GainResult struct {
	GainD1Pct float64
	GainD2Pct float64
	D1        Outcome
	D2        Outcome
	ClampedD1 bool // true si GainD1Pct se recortó al techo
	ClampedD2 bool
}

// Gain calcula el porcentaje de ganancia con recorte al techo.
// Devuelve (ganancia, recortada). Entrada no positiva → 0.
func Gain(entryPremium, maxPremium, capPct float64) (float64, bool) {
	if entryPremium <= 0 {
		return 0, false
	}
	if capPct <= 0 {
		capPct = DefaultGainCapPct
	}
	g := (maxPremium - entryPremium) / entryPremium * 100
	if g > capPct {
		return capPct, true
	}
	return g, false
}

// ComputeGains deriva el GainResult de un match. La prima de entrada se
// mantiene constante para el día 2 (no hay re-entrada). Si MaxPremiumD2 es 0
// el día 2 queda en OutcomeNoData.
func ComputeGains(m PremiumMatch, capPct float64) GainResult {
	var r GainResult
	r.GainD1Pct, r.ClampedD1 = Gain(m.EntryPremium, m.MaxPremiumD1, capPct)
	r.D1 = outcomeFor(r.GainD1Pct)

	if m.MaxPremiumD2 > 0 {
		r.GainD2Pct, r.ClampedD2 = Gain(m.EntryPremium, m.MaxPremiumD2, capPct)
		r.D2 = outcomeFor(r.GainD2Pct)
	}
	return r
}

func outcomeFor(gainPct float64) Outcome {
	if gainPct >= SuccessThresholdPct {
		return OutcomeSuccess
	}
	return OutcomeFail
}
