package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGain_EntryInBand(t *testing.T) {
	// prima $0.27, high del día $0.81 → (0.81-0.27)/0.27×100 = 200%
	g, clamped := Gain(0.27, 0.81, 400)
	assert.InDelta(t, 200.0, g, 0.0001)
	assert.False(t, clamped)
}

func TestGain_ClampedAtCap(t *testing.T) {
	// spike ilíquido: 0.10 → 1.50 sería 1400%, se recorta a 400%
	g, clamped := Gain(0.10, 1.50, 400)
	assert.Equal(t, 400.0, g)
	assert.True(t, clamped)
}

func TestGain_Idempotent(t *testing.T) {
	g1, _ := Gain(0.27, 0.81, 400)
	g2, _ := Gain(0.27, 0.81, 400)
	assert.Equal(t, g1, g2)
}

func TestGain_ZeroEntry(t *testing.T) {
	g, clamped := Gain(0, 0.50, 400)
	assert.Equal(t, 0.0, g)
	assert.False(t, clamped)
}

func TestGain_NegativeGain(t *testing.T) {
	g, _ := Gain(0.50, 0.30, 400)
	assert.InDelta(t, -40.0, g, 0.0001)
}

func TestComputeGains_SuccessD1(t *testing.T) {
	m := PremiumMatch{EntryPremium: 0.27, MaxPremiumD1: 0.81, MaxPremiumD2: 0.90}
	r := ComputeGains(m, 400)
	assert.InDelta(t, 200.0, r.GainD1Pct, 0.0001)
	assert.Equal(t, OutcomeSuccess, r.D1)
	assert.Equal(t, OutcomeSuccess, r.D2)
}

func TestComputeGains_NoDataD2(t *testing.T) {
	m := PremiumMatch{EntryPremium: 0.27, MaxPremiumD1: 0.40, MaxPremiumD2: 0}
	r := ComputeGains(m, 400)
	assert.Equal(t, OutcomeFail, r.D1)
	assert.Equal(t, OutcomeNoData, r.D2)
	assert.Equal(t, 0.0, r.GainD2Pct)
}

func TestComputeGains_ExactThresholdIsSuccess(t *testing.T) {
	m := PremiumMatch{EntryPremium: 0.50, MaxPremiumD1: 1.00}
	r := ComputeGains(m, 400)
	assert.InDelta(t, 100.0, r.GainD1Pct, 0.0001)
	assert.Equal(t, OutcomeSuccess, r.D1)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "fail", OutcomeFail.String())
	assert.Equal(t, "no-data", OutcomeNoData.String())
}
