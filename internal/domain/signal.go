package domain

import "time"

// SignalTier clasifica la fuerza de una señal bajo la política ponderada.
// La política estricta solo produce TierStrong o TierNone.
type SignalTier int

const (
	TierNone SignalTier = iota
	TierWeak
	TierStrong
)

// String devuelve la etiqueta legible del tier.
func (t SignalTier) String() string {
	switch t {
	case TierStrong:
		return "strong"
	case TierWeak:
		return "weak"
	default:
		return "none"
	}
}

// Signal es el resultado de evaluar la última vela de un ticker.
// Se crea una vez por (ticker, fecha) y no se muta después.
type Signal struct {
	Ticker     string
	Date       time.Time
	EntryPrice float64 // precio del subyacente al detectar la señal
	RSI        IndicatorValue
	BB         IndicatorValue
	Fired      bool
	Tier       SignalTier
	Score      float64 // probabilidad 0-100, solo con la política ponderada
	Reason     string  // explicación legible cuando Fired=false (o el detalle del gate)
}

// FirstRedCandle comprueba el patrón de velas de la estrategia:
// vela actual roja precedida de vela verde. Los indicadores se validan aparte.
func FirstRedCandle(prev, curr Bar) bool {
	return curr.IsRed() && prev.IsGreen()
}
