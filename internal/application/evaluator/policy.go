package evaluator

// policy.go — políticas de señal intercambiables.
//
// Las dos variantes comparten el gate de velas (roja tras verde); difieren en
// cómo juzgan los indicadores: la estricta exige ambos umbrales, la ponderada
// calcula un score de probabilidad y clasifica en tiers.

import (
	"fmt"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// SignalInput es la observación que evalúa una política: las dos últimas
// velas con su snapshot de indicadores y los umbrales del ticker.
type SignalInput struct {
	Ticker       string
	Date         time.Time
	Prev, Curr   domain.Bar
	Snap         domain.IndicatorSnapshot
	RSIThreshold float64
	BBThreshold  float64
}

// SignalPolicy clasifica la observación actual. Implementaciones: StrictPolicy
// y WeightedPolicy, seleccionables por configuración.
type SignalPolicy interface {
	Evaluate(in SignalInput) domain.Signal
}

// StrictPolicy exige las cuatro condiciones en AND duro: vela roja, vela
// previa verde, RSI por encima del umbral y %B por encima del umbral.
type StrictPolicy struct{}

func (StrictPolicy) Evaluate(in SignalInput) domain.Signal {
	sig := baseSignal(in)

	if reason, ok := gate(in); !ok {
		sig.Reason = reason
		return sig
	}

	switch {
	case in.Snap.RSI.Value <= in.RSIThreshold:
		sig.Reason = fmt.Sprintf("rsi %.1f below threshold %.1f", in.Snap.RSI.Value, in.RSIThreshold)
	case in.Snap.BB.Value <= in.BBThreshold:
		sig.Reason = fmt.Sprintf("%%b %.2f below threshold %.2f", in.Snap.BB.Value, in.BBThreshold)
	default:
		sig.Fired = true
		sig.Tier = domain.TierStrong
		sig.Reason = fmt.Sprintf("red after green, rsi %.1f > %.1f, %%b %.2f > %.2f",
			in.Snap.RSI.Value, in.RSIThreshold, in.Snap.BB.Value, in.BBThreshold)
	}
	return sig
}

// WeightedPolicy calcula un score de probabilidad 0-100 sobre la misma
// observación: base 65, ajustado por nivel de RSI y de %B, y lo compara
// contra dos umbrales para producir tiers {strong, weak, none}.
type WeightedPolicy struct {
	PassThreshold float64 // score mínimo para señal fuerte
	WeakThreshold float64 // score mínimo para señal débil
}

const weightedBase = 65.0

func (p WeightedPolicy) Evaluate(in SignalInput) domain.Signal {
	sig := baseSignal(in)

	if reason, ok := gate(in); !ok {
		sig.Reason = reason
		return sig
	}

	score := weightedBase + rsiWeight(in.Snap.RSI.Value) + bbWeight(in.Snap.BB.Value)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	sig.Score = score

	switch {
	case score >= p.PassThreshold:
		sig.Fired = true
		sig.Tier = domain.TierStrong
		sig.Reason = fmt.Sprintf("score %.0f >= %.0f", score, p.PassThreshold)
	case score >= p.WeakThreshold:
		sig.Fired = true
		sig.Tier = domain.TierWeak
		sig.Reason = fmt.Sprintf("score %.0f in weak band [%.0f, %.0f)", score, p.WeakThreshold, p.PassThreshold)
	default:
		sig.Reason = fmt.Sprintf("score %.0f below threshold %.0f", score, p.WeakThreshold)
	}
	return sig
}

// rsiWeight premia RSI extremo y castiga RSI tibio.
func rsiWeight(rsi float64) float64 {
	switch {
	case rsi >= 80:
		return 20
	case rsi >= 70:
		return 10
	case rsi >= 60:
		return 0
	default:
		return -15
	}
}

// bbWeight premia precio pegado (o fuera de) la banda superior.
func bbWeight(bb float64) float64 {
	switch {
	case bb >= 0.9:
		return 15
	case bb >= 0.8:
		return 8
	default:
		return -5
	}
}

// gate aplica las precondiciones comunes: indicadores definidos y patrón de
// velas. Devuelve la razón del rechazo cuando no pasan.
func gate(in SignalInput) (string, bool) {
	if !in.Snap.RSI.Defined || !in.Snap.BB.Defined {
		return "insufficient history for indicators", false
	}
	if !in.Curr.IsRed() {
		return "current candle not red", false
	}
	if !in.Prev.IsGreen() {
		return "previous candle not green", false
	}
	return "", true
}

func baseSignal(in SignalInput) domain.Signal {
	return domain.Signal{
		Ticker:     in.Ticker,
		Date:       in.Date,
		EntryPrice: in.Curr.Close,
		RSI:        in.Snap.RSI,
		BB:         in.Snap.BB,
		Tier:       domain.TierNone,
	}
}
