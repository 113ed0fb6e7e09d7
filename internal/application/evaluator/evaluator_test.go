package evaluator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcgujuancarlos/AG1VR/config"
	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// --- mocks de ports ---

type mockMarket struct {
	daily    map[string][]domain.Bar // ticker → serie diaria
	intraday map[string][]domain.Bar // "contractID|YYYY-MM-DD" → velas
	dailyErr error
}

func intradayKey(id string, date time.Time) string {
	return fmt.Sprintf("%s|%s", id, date.Format("2006-01-02"))
}

func (m *mockMarket) DailyBars(_ context.Context, ticker string, from, to time.Time) ([]domain.Bar, error) {
	if m.dailyErr != nil {
		return nil, m.dailyErr
	}
	var out []domain.Bar
	for _, b := range m.daily[ticker] {
		if !b.Timestamp.Before(from) && !b.Timestamp.After(to.AddDate(0, 0, 1)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockMarket) IntradayBars(_ context.Context, ticker string, date time.Time) ([]domain.Bar, error) {
	return m.intraday[intradayKey(ticker, date)], nil
}

type mockRef struct {
	contracts []domain.ContractCandidate
	calls     int
	err       error
}

func (m *mockRef) FindPutContracts(_ context.Context, _ string, _ time.Time) ([]domain.ContractCandidate, error) {
	m.calls++
	return m.contracts, m.err
}

type mockStore struct {
	records  []domain.HistoricalOutcome // lo que devuelve QueryByTicker
	inserted []domain.HistoricalOutcome
	queries  []string // excludeDate de cada query
	queryErr error
}

func (m *mockStore) InsertIfAbsent(_ context.Context, rec domain.HistoricalOutcome) (bool, error) {
	for _, r := range m.inserted {
		if r.Ticker == rec.Ticker && r.Date == rec.Date {
			return false, nil
		}
	}
	m.inserted = append(m.inserted, rec)
	return true, nil
}

func (m *mockStore) QueryByTicker(_ context.Context, _ string, _ domain.OptionSide, excludeDate string) ([]domain.HistoricalOutcome, error) {
	m.queries = append(m.queries, excludeDate)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []domain.HistoricalOutcome
	for _, r := range m.records {
		if r.Date != excludeDate {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) Close() error { return nil }

// --- fixtures ---

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{
			RSIPeriod:         14,
			BBPeriod:          20,
			BBStdDev:          2,
			RSIThreshold:      70,
			BBThreshold:       0.8,
			SignalPolicy:      "strict",
			PassThreshold:     80,
			WeakThreshold:     65,
			SelectionPolicy:   SelectFirstInRange,
			GainCapPct:        400,
			FallbackTolerance: 1.5,
			CandidateCap:      50,
			IntradayMinutes:   30,
			Workers:           2,
			FridayRule:        string(domain.FridaySameDay),
			Cohort:            config.CohortConfig{MinN: 3, Stat: "mean"},
		},
		Tickers: map[string]config.TickerConfig{
			"SPY": {
				PremiumMin:     0.25,
				PremiumMax:     0.30,
				ExpirationRule: string(domain.ExpireNextTradingDay),
				RSIThreshold:   70,
				BBThreshold:    0.8,
			},
		},
	}
}

// risingSeries genera velas diarias con cierres estrictamente crecientes
// terminando en `end`: RSI=100 y %B alto, con la última vela roja precedida
// de verde para disparar el patrón.
func risingSeries(end time.Time, n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	day := end
	for i := n - 1; i >= 0; i-- {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, -1)
		}
		closePx := 580.0 - float64(n-1-i)
		bars[i] = domain.Bar{
			Timestamp: day,
			Open:      closePx - 1, // verde por defecto
			High:      closePx + 1,
			Low:       closePx - 2,
			Close:     closePx,
			Volume:    1000,
		}
		day = day.AddDate(0, 0, -1)
	}
	// Última vela roja (cierra por debajo de su apertura, cierre aún creciente)
	bars[n-1].Open = bars[n-1].Close + 2
	bars[n-1].High = bars[n-1].Open + 1
	return bars
}

func newTestEvaluator(market *mockMarket, ref *mockRef, store *mockStore) *Evaluator {
	e := New(testConfig(), market, ref, store)
	// Frontera histórico/actual fijada después de las fechas de test
	e.now = func() time.Time { return time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC) }
	return e
}

// --- tests ---

var analysisDate = time.Date(2024, time.October, 22, 0, 0, 0, 0, time.UTC) // martes

func TestEvaluateTicker_FullPipeline(t *testing.T) {
	market := &mockMarket{
		daily:    map[string][]domain.Bar{"SPY": risingSeries(analysisDate, 40)},
		intraday: map[string][]domain.Bar{},
	}

	// Vencimiento next_trading_day: miércoles 23. Fecha histórica → ladder
	// sintético; solo el strike 575 tiene velas, con entrada en banda.
	contractID := "O:SPY241023P00500000"
	market.intraday[intradayKey(contractID, analysisDate)] = []domain.Bar{
		{Open: 0.40, High: 0.45, Low: 0.27, Close: 0.35}, // low 0.27 en banda
		{Open: 0.35, High: 0.81, Low: 0.30, Close: 0.70},
	}
	nextDay := time.Date(2024, time.October, 23, 0, 0, 0, 0, time.UTC)
	market.intraday[intradayKey(contractID, nextDay)] = []domain.Bar{
		{Open: 0.50, High: 0.54, Low: 0.40, Close: 0.45},
	}

	ref := &mockRef{}
	store := &mockStore{}
	e := newTestEvaluator(market, ref, store)

	eval := e.EvaluateTicker(context.Background(), "SPY", analysisDate)

	require.True(t, eval.Signal.Fired)
	assert.Equal(t, domain.TierStrong, eval.Signal.Tier)
	assert.NotEmpty(t, eval.ID)
	assert.False(t, eval.Unvalidated)

	// Fecha histórica: el catálogo de referencia no se consulta
	assert.Zero(t, ref.calls)

	require.NotNil(t, eval.Match)
	assert.Equal(t, contractID, eval.Match.ContractID)
	assert.InDelta(t, 0.27, eval.Match.EntryPremium, 0.0001)
	assert.True(t, eval.Match.InRange)
	assert.False(t, eval.Match.Estimated)

	require.NotNil(t, eval.Gain)
	assert.InDelta(t, 200.0, eval.Gain.GainD1Pct, 0.001)
	assert.Equal(t, domain.OutcomeSuccess, eval.Gain.D1)
	assert.InDelta(t, 100.0, eval.Gain.GainD2Pct, 0.001)
	assert.Equal(t, domain.OutcomeSuccess, eval.Gain.D2)

	assert.True(t, eval.Tradeable())

	// Persistido con insert-if-absent
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "2024-10-22", store.inserted[0].Date)
	assert.InDelta(t, 200.0, store.inserted[0].GainD1Pct, 0.001)

	// La cohorte excluyó el propio día de análisis
	require.NotEmpty(t, store.queries)
	assert.Equal(t, "2024-10-22", store.queries[0])
}

func TestEvaluateTicker_SignalNotFired(t *testing.T) {
	bars := risingSeries(analysisDate, 40)
	// Última vela verde: sin patrón
	bars[len(bars)-1].Open = bars[len(bars)-1].Close - 2

	market := &mockMarket{daily: map[string][]domain.Bar{"SPY": bars}}
	store := &mockStore{}
	e := newTestEvaluator(market, &mockRef{}, store)

	eval := e.EvaluateTicker(context.Background(), "SPY", analysisDate)

	assert.False(t, eval.Signal.Fired)
	assert.Equal(t, "current candle not red", eval.Signal.Reason)
	assert.Nil(t, eval.Match)
	assert.Empty(t, store.inserted)
}

func TestEvaluateTicker_NoBarsForDate(t *testing.T) {
	market := &mockMarket{daily: map[string][]domain.Bar{}}
	e := newTestEvaluator(market, &mockRef{}, &mockStore{})

	eval := e.EvaluateTicker(context.Background(), "SPY", analysisDate)

	assert.False(t, eval.Signal.Fired)
	assert.Equal(t, "no bar for analysis date", eval.Signal.Reason)
}

func TestEvaluateTicker_DailyBarsError(t *testing.T) {
	market := &mockMarket{dailyErr: domain.ErrDataUnavailable}
	e := newTestEvaluator(market, &mockRef{}, &mockStore{})

	eval := e.EvaluateTicker(context.Background(), "SPY", analysisDate)

	assert.False(t, eval.Signal.Fired)
	assert.Contains(t, eval.Signal.Reason, "daily bars unavailable")
}

func TestEvaluateTicker_UnknownTickerUnvalidated(t *testing.T) {
	market := &mockMarket{
		daily: map[string][]domain.Bar{"NFLX": risingSeries(analysisDate, 40)},
	}
	store := &mockStore{}
	e := newTestEvaluator(market, &mockRef{}, store)

	eval := e.EvaluateTicker(context.Background(), "NFLX", analysisDate)

	assert.True(t, eval.Unvalidated)
	assert.True(t, eval.Signal.Fired) // se evalúa igualmente
	assert.Nil(t, eval.Match)
	assert.Equal(t, "no premium band configured", eval.Reason)
	assert.Empty(t, store.inserted)
}

func TestEvaluateTicker_NoIntradayFallsBackToEstimate(t *testing.T) {
	market := &mockMarket{
		daily:    map[string][]domain.Bar{"SPY": risingSeries(analysisDate, 40)},
		intraday: map[string][]domain.Bar{}, // ningún contrato con velas
	}
	store := &mockStore{}
	e := newTestEvaluator(market, &mockRef{}, store)

	eval := e.EvaluateTicker(context.Background(), "SPY", analysisDate)

	require.True(t, eval.Signal.Fired)
	require.NotNil(t, eval.Match)
	assert.True(t, eval.Match.Estimated)
	assert.Greater(t, eval.Match.EntryPremium, 0.0)

	// Las primas estimadas no entran al histórico
	assert.Empty(t, store.inserted)
}

func TestEvaluateTicker_DuplicateDayNotReinserted(t *testing.T) {
	market := &mockMarket{
		daily:    map[string][]domain.Bar{"SPY": risingSeries(analysisDate, 40)},
		intraday: map[string][]domain.Bar{},
	}
	contractID := "O:SPY241023P00500000"
	market.intraday[intradayKey(contractID, analysisDate)] = []domain.Bar{
		{Open: 0.28, High: 0.35, Low: 0.26, Close: 0.33},
	}

	store := &mockStore{}
	e := newTestEvaluator(market, &mockRef{}, store)

	e.EvaluateTicker(context.Background(), "SPY", analysisDate)
	e.EvaluateTicker(context.Background(), "SPY", analysisDate)

	assert.Len(t, store.inserted, 1)
}

func TestEvaluateAll_SortedAndComplete(t *testing.T) {
	market := &mockMarket{
		daily: map[string][]domain.Bar{
			"SPY": risingSeries(analysisDate, 40),
			"QQQ": risingSeries(analysisDate, 40),
		},
		intraday: map[string][]domain.Bar{},
	}
	e := newTestEvaluator(market, &mockRef{}, &mockStore{})

	evals := e.EvaluateAll(context.Background(), []string{"SPY", "QQQ", "TSLA"}, analysisDate)

	require.Len(t, evals, 3)
	assert.Equal(t, "QQQ", evals[0].Ticker)
	assert.Equal(t, "SPY", evals[1].Ticker)
	assert.Equal(t, "TSLA", evals[2].Ticker)
	// TSLA sin datos: degradado, no omitido
	assert.False(t, evals[2].Signal.Fired)
}

func TestBackfill_WalksRangeAndCounts(t *testing.T) {
	market := &mockMarket{
		daily:    map[string][]domain.Bar{"SPY": risingSeries(analysisDate, 60)},
		intraday: map[string][]domain.Bar{},
	}
	contractID := "O:SPY241023P00500000"
	market.intraday[intradayKey(contractID, analysisDate)] = []domain.Bar{
		{Open: 0.28, High: 0.60, Low: 0.26, Close: 0.50},
	}

	store := &mockStore{}
	e := newTestEvaluator(market, &mockRef{}, store)

	stats, err := e.Backfill(context.Background(), []string{"SPY"}, 7, analysisDate)

	require.NoError(t, err)
	assert.Greater(t, stats.DaysWalked, 0)
	// La serie creciente solo tiene vela roja el último día
	assert.Equal(t, 1, stats.Signals)
	assert.Equal(t, 1, stats.Persisted)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "2024-10-22", store.inserted[0].Date)
}

func TestBackfill_Idempotent(t *testing.T) {
	market := &mockMarket{
		daily:    map[string][]domain.Bar{"SPY": risingSeries(analysisDate, 60)},
		intraday: map[string][]domain.Bar{},
	}
	contractID := "O:SPY241023P00500000"
	market.intraday[intradayKey(contractID, analysisDate)] = []domain.Bar{
		{Open: 0.28, High: 0.60, Low: 0.26, Close: 0.50},
	}

	store := &mockStore{}
	e := newTestEvaluator(market, &mockRef{}, store)

	_, err := e.Backfill(context.Background(), []string{"SPY"}, 7, analysisDate)
	require.NoError(t, err)
	_, err = e.Backfill(context.Background(), []string{"SPY"}, 7, analysisDate)
	require.NoError(t, err)

	assert.Len(t, store.inserted, 1)
}
