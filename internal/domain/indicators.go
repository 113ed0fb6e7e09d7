package domain

import "math"

// Períodos por defecto de los indicadores, los mismos que usa la estrategia original.
const (
	DefaultRSIPeriod       = 14
	DefaultBollingerPeriod = 20
	DefaultBollingerStd    = 2.0
)

// IndicatorValue es un valor de indicador que puede estar indefinido
// (histórico insuficiente o denominador nulo). Nunca se fabrica un valor
// por defecto aquí — eso es decisión del consumidor.
type IndicatorValue struct {
	Value   float64
	Defined bool
}

// Indicator construye un IndicatorValue definido.
func Indicator(v float64) IndicatorValue {
	return IndicatorValue{Value: v, Defined: true}
}

// Undefined es el IndicatorValue indefinido.
var Undefined = IndicatorValue{}

// IndicatorSnapshot agrupa los indicadores de una vela.
type IndicatorSnapshot struct {
	RSI IndicatorValue // ∈ [0,100] cuando está definido
	BB  IndicatorValue // %B, puede exceder [0,1] si el precio sale de las bandas
}

// RSISeries calcula el RSI con medias móviles simples sobre la ventana
// (no el suavizado recursivo de Wilder, igual que el cálculo original).
//
// Política cuando la pérdida media es 0: si la ganancia media es positiva
// el RSI es 100 (subida pura); si ambas medias son 0 (precio plano) el
// valor queda indefinido en vez de producir NaN.
//
// Las primeras `period` posiciones quedan indefinidas por falta de histórico.
func RSISeries(closes []float64, period int) []IndicatorValue {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	out := make([]IndicatorValue, len(closes))
	if len(closes) < period+1 {
		return out
	}

	deltas := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		deltas[i] = closes[i] - closes[i-1]
	}

	for i := period; i < len(closes); i++ {
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			if deltas[j] > 0 {
				gain += deltas[j]
			} else {
				loss += -deltas[j]
			}
		}
		gain /= float64(period)
		loss /= float64(period)

		switch {
		case loss == 0 && gain == 0:
			// precio totalmente plano: RSI indefinido
		case loss == 0:
			out[i] = Indicator(100)
		default:
			rs := gain / loss
			out[i] = Indicator(100 - 100/(1+rs))
		}
	}
	return out
}

// BollingerPctB calcula la posición %B dentro de las bandas de Bollinger:
// media y desviación estándar móviles sobre `period` velas,
// %B = (close − lower) / (upper − lower).
//
// El valor queda indefinido para las primeras `period`−1 posiciones y
// cuando las bandas colapsan (upper == lower).
func BollingerPctB(closes []float64, period int, numStd float64) []IndicatorValue {
	if period <= 0 {
		period = DefaultBollingerPeriod
	}
	if numStd <= 0 {
		numStd = DefaultBollingerStd
	}
	out := make([]IndicatorValue, len(closes))
	if len(closes) < period {
		return out
	}

	for i := period - 1; i < len(closes); i++ {
		window := closes[i-period+1 : i+1]

		var sum float64
		for _, c := range window {
			sum += c
		}
		sma := sum / float64(period)

		var sq float64
		for _, c := range window {
			d := c - sma
			sq += d * d
		}
		// desviación muestral (n-1), igual que pandas .std()
		std := math.Sqrt(sq / float64(period-1))

		upper := sma + numStd*std
		lower := sma - numStd*std
		if upper == lower {
			continue
		}
		out[i] = Indicator((closes[i] - lower) / (upper - lower))
	}
	return out
}

// Snapshots calcula los indicadores de toda la serie de velas.
func Snapshots(bars []Bar, rsiPeriod, bbPeriod int, numStd float64) []IndicatorSnapshot {
	closes := Closes(bars)
	rsi := RSISeries(closes, rsiPeriod)
	bb := BollingerPctB(closes, bbPeriod, numStd)

	out := make([]IndicatorSnapshot, len(bars))
	for i := range bars {
		out[i] = IndicatorSnapshot{RSI: rsi[i], BB: bb[i]}
	}
	return out
}
