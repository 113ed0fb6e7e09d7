package evaluator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

func newClassifier(store *mockStore) *cohortClassifier {
	return &cohortClassifier{store: store, minN: 3, stat: domain.StatMean, gainCap: 400}
}

// outcomeAt crea un registro histórico en los bins dados (centro del bin).
func outcomeAt(date string, rsiBin, bbBin int, gainD1 float64) domain.HistoricalOutcome {
	return domain.HistoricalOutcome{
		Date:         date,
		Ticker:       "SPY",
		Side:         domain.SidePut,
		RSI:          float64(rsiBin)*20 + 10,  // centros: 10, 30, 50, 70, 90
		BBPosition:   float64(bbBin)*0.2 + 0.1, // centros: 0.1, 0.3, ..., 0.9
		GainD1Pct:    gainD1,
		GainD2Pct:    gainD1,
		EntryPremium: 0.27,
		Strike:       580,
	}
}

func classify(c *cohortClassifier, rsi, bb float64) domain.CohortResult {
	return c.classify(context.Background(), "SPY", domain.SidePut,
		domain.Indicator(rsi), domain.Indicator(bb), 0.25, 0.30, "2024-10-22")
}

func TestClassify_ExactMatch(t *testing.T) {
	store := &mockStore{records: []domain.HistoricalOutcome{
		outcomeAt("2024-09-01", 3, 3, 80),
		outcomeAt("2024-09-02", 3, 3, 120),
		outcomeAt("2024-09-03", 3, 3, 100),
		outcomeAt("2024-09-04", 0, 0, 500), // otro bin y outlier además
	}}

	// RSI 75 → bin 3; %B 0.65 → bin 3
	res := classify(newClassifier(store), 75, 0.65)

	require.True(t, res.HasData)
	assert.Equal(t, domain.StageExact, res.Stage)
	assert.Equal(t, 3, res.Size())
	assert.InDelta(t, 100.0, res.EstimatePct, 0.001)
}

func TestClassify_ExpandsToAdjacentBins(t *testing.T) {
	// Escenario del fallback: solo 2 matches exactos con min_n=3; la
	// expansión ±1 junta 5 y los 2 exactos son subconjunto.
	store := &mockStore{records: []domain.HistoricalOutcome{
		outcomeAt("2024-09-01", 3, 3, 100),
		outcomeAt("2024-09-02", 3, 3, 100),
		outcomeAt("2024-09-03", 2, 3, 50),
		outcomeAt("2024-09-04", 4, 2, 150),
		outcomeAt("2024-09-05", 3, 4, 100),
	}}

	res := classify(newClassifier(store), 75, 0.65)

	require.True(t, res.HasData)
	assert.Equal(t, domain.StageExpanded, res.Stage)
	assert.Equal(t, 5, res.Size())
	assert.InDelta(t, 100.0, res.EstimatePct, 0.001)

	exact := 0
	for _, r := range res.Records {
		if r.RSIBinOf().Index == 3 && r.BBBinOf().Index == 3 {
			exact++
		}
	}
	assert.Equal(t, 2, exact, "exact matches must be a subset of the expanded cohort")
}

func TestClassify_FallsThroughToSide(t *testing.T) {
	store := &mockStore{records: []domain.HistoricalOutcome{
		outcomeAt("2024-09-01", 0, 0, 50),
		outcomeAt("2024-09-02", 1, 4, 70),
		outcomeAt("2024-09-03", 4, 0, 90),
	}}

	res := classify(newClassifier(store), 75, 0.65)

	require.True(t, res.HasData)
	assert.Equal(t, domain.StageSide, res.Stage)
	assert.Equal(t, 3, res.Size())
	assert.InDelta(t, 70.0, res.EstimatePct, 0.001)
}

func TestClassify_TooFewMatches(t *testing.T) {
	store := &mockStore{records: []domain.HistoricalOutcome{
		outcomeAt("2024-09-01", 3, 3, 100),
		outcomeAt("2024-09-02", 3, 3, 100),
	}}

	res := classify(newClassifier(store), 75, 0.65)

	assert.False(t, res.HasData)
	assert.Equal(t, "too few matches", res.Reason)
}

func TestClassify_NoMatches(t *testing.T) {
	res := classify(newClassifier(&mockStore{}), 75, 0.65)

	assert.False(t, res.HasData)
	assert.Equal(t, "no matches", res.Reason)
}

func TestClassify_UndefinedIndicatorsNoBin(t *testing.T) {
	store := &mockStore{records: []domain.HistoricalOutcome{
		outcomeAt("2024-09-01", 3, 3, 100),
	}}
	c := newClassifier(store)

	res := c.classify(context.Background(), "SPY", domain.SidePut,
		domain.Undefined, domain.Indicator(0.65), 0.25, 0.30, "2024-10-22")

	assert.False(t, res.HasData)
	assert.Equal(t, "no bin", res.Reason)
	assert.Empty(t, store.queries, "no query without bins")
}

func TestClassify_DropsOutliers(t *testing.T) {
	records := []domain.HistoricalOutcome{
		outcomeAt("2024-09-01", 3, 3, 100),
		outcomeAt("2024-09-02", 3, 3, 100),
		outcomeAt("2024-09-03", 3, 3, 100),
	}
	// Outliers en el mismo bin: gain sobre el techo y prima fuera de sanidad
	spike := outcomeAt("2024-09-04", 3, 3, 450)
	badPremium := outcomeAt("2024-09-05", 3, 3, 100)
	badPremium.EntryPremium = 1.50 // banda 0.25-0.30 ±20%
	records = append(records, spike, badPremium)

	res := classify(newClassifier(&mockStore{records: records}), 75, 0.65)

	require.True(t, res.HasData)
	assert.Equal(t, 3, res.Size())
	assert.InDelta(t, 100.0, res.EstimatePct, 0.001)
}

func TestClassify_ExpansionNeverShrinks(t *testing.T) {
	// Propiedad: cada etapa del fallback es superconjunto de la anterior.
	var records []domain.HistoricalOutcome
	for i := 0; i < 10; i++ {
		records = append(records, outcomeAt(fmt.Sprintf("2024-09-%02d", i+1), i%5, i%5, 50))
	}
	store := &mockStore{records: records}
	c := newClassifier(store)

	recs, err := store.QueryByTicker(context.Background(), "SPY", domain.SidePut, "")
	require.NoError(t, err)
	recs = c.dropOutliers(recs, 0.25, 0.30)

	rsiBin, bbBin := domain.RSIBin(domain.Indicator(50)), domain.BBBin(domain.Indicator(0.5))
	exact := filterRecords(recs, func(r domain.HistoricalOutcome) bool {
		return r.RSIBinOf() == rsiBin && r.BBBinOf() == bbBin
	})
	expanded := filterRecords(recs, func(r domain.HistoricalOutcome) bool {
		return binNear(r.RSIBinOf(), rsiBin) && binNear(r.BBBinOf(), bbBin)
	})

	assert.GreaterOrEqual(t, len(expanded), len(exact))
	assert.GreaterOrEqual(t, len(recs), len(expanded))
}

func TestClassify_StoreErrorDegrades(t *testing.T) {
	store := &mockStore{queryErr: domain.ErrDataUnavailable}

	res := classify(newClassifier(store), 75, 0.65)

	assert.False(t, res.HasData)
	assert.Equal(t, "store unavailable", res.Reason)
}

func TestClassify_MedianAndP10(t *testing.T) {
	store := &mockStore{records: []domain.HistoricalOutcome{
		outcomeAt("2024-09-01", 3, 3, 10),
		outcomeAt("2024-09-02", 3, 3, 100),
		outcomeAt("2024-09-03", 3, 3, 400),
	}}

	c := newClassifier(store)
	c.stat = domain.StatMedian
	res := classify(c, 75, 0.65)
	require.True(t, res.HasData)
	assert.InDelta(t, 100.0, res.EstimatePct, 0.001)

	c.stat = domain.StatP10
	res = classify(c, 75, 0.65)
	require.True(t, res.HasData)
	// p10 por interpolación lineal: 10 + 0.2·(100−10) = 28
	assert.InDelta(t, 28.0, res.EstimatePct, 0.001)
}
