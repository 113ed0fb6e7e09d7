package domain

import (
	"fmt"
	"math"
	"time"
)

// OptionSide es el tipo de contrato. La estrategia solo opera PUTs.
type OptionSide string

const SidePut OptionSide = "PUT"

// ContractCandidate es un contrato PUT candidato a evaluar.
// Se genera fresco en cada evaluación; no se persiste por sí solo.
type ContractCandidate struct {
	ID         string // ticker de opción estilo OCC, ej. O:SPY241022P00580000
	Underlying string
	Strike     float64
	Expiration time.Time
	Side       OptionSide
	Synthetic  bool // true si se generó manualmente (sin lookup de referencia)
}

// MoneynessPct devuelve la distancia porcentual del strike al precio spot.
// Negativo = strike por debajo del spot (ITM para un PUT... visto desde el strike).
func (c ContractCandidate) MoneynessPct(spot float64) float64 {
	if spot == 0 {
		return 0
	}
	return (c.Strike - spot) / spot * 100
}

// FormatContractID construye el identificador OCC de un PUT:
// {prefix}{TICKER}{YYMMDD}P{strike*1000:08d}. Ej: O:SPY241022P00580000.
func FormatContractID(prefix, ticker string, expiration time.Time, strike float64) string {
	return fmt.Sprintf("%s%s%sP%08d", prefix, ticker, expiration.Format("060102"), int(math.Round(strike*1000)))
}

// Límites del ladder sintético de strikes, relativos al precio del subyacente.
const (
	ladderMinFactor = 0.85 // 15% por debajo del spot
	ladderMaxFactor = 1.05 // 5% por encima del spot
)

// SyntheticLadder genera el ladder de strikes para fechas históricas sin datos
// de referencia: strikes enteros de ⌊price·0.85⌋ a ⌊price·1.05⌋ con el step dado.
func SyntheticLadder(prefix, ticker string, expiration time.Time, price float64, step int) []ContractCandidate {
	if step <= 0 {
		step = 1
	}
	strikeMin := int(math.Floor(price * ladderMinFactor))
	strikeMax := int(math.Floor(price * ladderMaxFactor))

	var out []ContractCandidate
	for strike := strikeMin; strike <= strikeMax; strike += step {
		out = append(out, ContractCandidate{
			ID:         FormatContractID(prefix, ticker, expiration, float64(strike)),
			Underlying: ticker,
			Strike:     float64(strike),
			Expiration: expiration,
			Side:       SidePut,
			Synthetic:  true,
		})
	}
	return out
}

// LadderStep decide el step de strikes del ladder sintético:
// $1 para índices y tickers baratos, $5 para el resto.
func LadderStep(ticker string, price float64) int {
	switch ticker {
	case "SPY", "QQQ":
		return 1
	}
	if price < 100 {
		return 1
	}
	return 5
}
