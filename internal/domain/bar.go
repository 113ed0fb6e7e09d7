package domain

import "time"

// Bar es una vela OHLC del feed de mercado. Inmutable, ordenada por timestamp.
// Sirve tanto para el subyacente (diario/intradía) como para contratos de opciones.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// IsRed devuelve true si la vela cierra por debajo de su apertura.
func (b Bar) IsRed() bool {
	return b.Close < b.Open
}

// IsGreen devuelve true si la vela cierra por encima de su apertura.
func (b Bar) IsGreen() bool {
	return b.Close > b.Open
}

// Prices devuelve los cuatro precios de la vela en orden open, high, low, close.
// Es el orden en que el matcher de primas escanea cada vela.
func (b Bar) Prices() [4]float64 {
	return [4]float64{b.Open, b.High, b.Low, b.Close}
}

// Closes extrae la serie de cierres de una secuencia de velas.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// MaxHigh devuelve el máximo precio observado en todas las velas
// (se revisan los cuatro precios, no solo el high, porque el feed de
// opciones ilíquidas a veces reporta highs inconsistentes).
// Devuelve 0 si no hay velas.
func MaxHigh(bars []Bar) float64 {
	max := 0.0
	for _, b := range bars {
		for _, p := range b.Prices() {
			if p > max {
				max = p
			}
		}
	}
	return max
}
