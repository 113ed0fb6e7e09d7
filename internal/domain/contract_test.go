package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFormatContractID(t *testing.T) {
	// O:SPY241022P00580000 — strike 580 → 580000 con padding a 8 dígitos
	id := FormatContractID("O:", "SPY", date(2024, time.October, 22), 580)
	assert.Equal(t, "O:SPY241022P00580000", id)
}

func TestFormatContractID_FractionalStrike(t *testing.T) {
	id := FormatContractID("O:", "BAC", date(2024, time.November, 15), 42.5)
	assert.Equal(t, "O:BAC241115P00042500", id)
}

func TestSyntheticLadder_Range(t *testing.T) {
	exp := date(2024, time.October, 25)
	ladder := SyntheticLadder("O:", "SPY", exp, 580, 1)
	require.NotEmpty(t, ladder)

	// ⌊580·0.85⌋=493 a ⌊580·1.05⌋=609
	assert.Equal(t, 493.0, ladder[0].Strike)
	assert.Equal(t, 609.0, ladder[len(ladder)-1].Strike)
	assert.Len(t, ladder, 117)

	for _, c := range ladder {
		assert.Equal(t, SidePut, c.Side)
		assert.True(t, c.Synthetic)
		assert.Equal(t, "SPY", c.Underlying)
	}
}

func TestSyntheticLadder_Step5(t *testing.T) {
	ladder := SyntheticLadder("O:", "TSLA", date(2024, time.October, 25), 250, 5)
	require.True(t, len(ladder) > 1)
	assert.Equal(t, 5.0, ladder[1].Strike-ladder[0].Strike)
}

func TestLadderStep(t *testing.T) {
	assert.Equal(t, 1, LadderStep("SPY", 580))
	assert.Equal(t, 1, LadderStep("QQQ", 490))
	assert.Equal(t, 1, LadderStep("BAC", 42))   // barato → $1
	assert.Equal(t, 5, LadderStep("TSLA", 250)) // caro → $5
}

func TestMoneynessPct(t *testing.T) {
	c := ContractCandidate{Strike: 95}
	assert.InDelta(t, -5.0, c.MoneynessPct(100), 0.0001)
}

// Las reglas de vencimiento se prueban en expiry_test.go.

// --- velas ---

func TestFirstRedCandle(t *testing.T) {
	green := Bar{Open: 95, Close: 99}
	red := Bar{Open: 100, Close: 98}
	assert.True(t, FirstRedCandle(green, red))
	assert.False(t, FirstRedCandle(red, red))    // anterior no verde
	assert.False(t, FirstRedCandle(green, green)) // actual no roja
}

func TestMaxHigh(t *testing.T) {
	bars := []Bar{
		{Open: 0.30, High: 0.45, Low: 0.28, Close: 0.40},
		{Open: 0.40, High: 0.81, Low: 0.35, Close: 0.60},
	}
	assert.Equal(t, 0.81, MaxHigh(bars))
	assert.Equal(t, 0.0, MaxHigh(nil))
}
