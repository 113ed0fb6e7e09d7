package evaluator

// evaluator.go — orquestador del pipeline por ticker:
// velas → indicadores → señal → universo de contratos → prima y ganancias →
// cohorte histórica → Evaluation.
//
// Todos los fallos por ticker degradan a una Evaluation con razón; nada
// aborta el batch.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pcgujuancarlos/AG1VR/config"
	"github.com/pcgujuancarlos/AG1VR/internal/domain"
	"github.com/pcgujuancarlos/AG1VR/internal/ports"
)

// historyDays es el rango de velas diarias que se trae por ticker: holgado
// para cubrir el periodo de Bollinger más fines de semana y festivos.
const historyDays = 120

// Evaluator ejecuta el pipeline completo para un conjunto de tickers.
type Evaluator struct {
	cfg    *config.Config
	market ports.MarketData
	ref    ports.ContractReference
	store  ports.OutcomeStore
	policy SignalPolicy

	// now se inyecta en tests para fijar la frontera histórico/actual.
	now func() time.Time
}

// New crea un Evaluator con todas las dependencias inyectadas.
func New(cfg *config.Config, market ports.MarketData, ref ports.ContractReference, store ports.OutcomeStore) *Evaluator {
	return &Evaluator{
		cfg:    cfg,
		market: market,
		ref:    ref,
		store:  store,
		policy: policyFor(cfg.Analysis),
		now:    time.Now,
	}
}

// policyFor selecciona la política de señal configurada.
func policyFor(a config.AnalysisConfig) SignalPolicy {
	if a.SignalPolicy == "weighted" {
		return WeightedPolicy{PassThreshold: a.PassThreshold, WeakThreshold: a.WeakThreshold}
	}
	return StrictPolicy{}
}

// EvaluateTicker evalúa un ticker para la fecha dada. Siempre devuelve una
// Evaluation; los fallos de datos quedan reflejados en Signal.Reason o
// Evaluation.Reason.
func (e *Evaluator) EvaluateTicker(ctx context.Context, ticker string, date time.Time) domain.Evaluation {
	date = truncateDay(date)

	bars, err := e.market.DailyBars(ctx, ticker, date.AddDate(0, 0, -historyDays), date)
	if err != nil {
		slog.Warn("daily bars unavailable", "ticker", ticker, "err", err)
		return e.unfired(ticker, date, fmt.Sprintf("daily bars unavailable: %v", err))
	}
	return e.evaluateWithBars(ctx, ticker, date, bars)
}

// evaluateWithBars corre el pipeline sobre una serie ya descargada cuya
// última vela debe ser la del día de análisis. Lo usa también el backfill
// para no re-descargar la historia día a día.
func (e *Evaluator) evaluateWithBars(ctx context.Context, ticker string, date time.Time, bars []domain.Bar) domain.Evaluation {
	tickerCfg, validated := e.cfg.Ticker(ticker)

	if len(bars) < 2 || !sameDay(bars[len(bars)-1].Timestamp, date) {
		return e.unfired(ticker, date, "no bar for analysis date")
	}

	snaps := domain.Snapshots(bars, e.cfg.Analysis.RSIPeriod, e.cfg.Analysis.BBPeriod, e.cfg.Analysis.BBStdDev)
	last := len(bars) - 1

	signal := e.policy.Evaluate(SignalInput{
		Ticker:       ticker,
		Date:         date,
		Prev:         bars[last-1],
		Curr:         bars[last],
		Snap:         snaps[last],
		RSIThreshold: tickerCfg.RSIThreshold,
		BBThreshold:  tickerCfg.BBThreshold,
	})

	eval := domain.Evaluation{
		ID:          uuid.NewString(),
		Ticker:      ticker,
		Date:        date,
		Signal:      signal,
		Unvalidated: !validated,
		EvaluatedAt: e.now(),
	}

	// La cohorte se calcula con los indicadores actuales aunque la señal no
	// dispare: contextualiza igualmente la observación del día.
	classifier := &cohortClassifier{
		store:   e.store,
		minN:    e.cfg.Analysis.Cohort.MinN,
		stat:    domain.CohortStat(e.cfg.Analysis.Cohort.Stat),
		gainCap: e.cfg.Analysis.GainCapPct,
	}
	eval.Cohort = classifier.classify(ctx, ticker, domain.SidePut,
		signal.RSI, signal.BB,
		tickerCfg.PremiumMin, tickerCfg.PremiumMax,
		date.Format("2006-01-02"))

	if !signal.Fired {
		return eval
	}
	if !validated {
		slog.Info("ticker not in premium table, evaluating unvalidated", "ticker", ticker, "err", domain.ErrConfigMissing)
	}

	e.resolvePremium(ctx, &eval, tickerCfg, bars)
	e.persist(ctx, eval)
	return eval
}

// resolvePremium genera el universo, busca la prima y computa ganancias,
// cayendo al estimador de volatilidad si no hubo velas intradía.
func (e *Evaluator) resolvePremium(ctx context.Context, eval *domain.Evaluation, tickerCfg config.TickerConfig, bars []domain.Bar) {
	spot := eval.Signal.EntryPrice

	universe, err := buildUniverse(ctx, e.ref, eval.Ticker,
		domain.ExpirationRule(tickerCfg.ExpirationRule),
		domain.FridayRule(e.cfg.Analysis.FridayRule),
		eval.Date, spot, e.now())
	if err != nil {
		slog.Warn("contract universe failed", "ticker", eval.Ticker, "err", err)
		eval.Reason = fmt.Sprintf("%s: %v", ReasonDataError, err)
		return
	}
	if len(universe) == 0 {
		eval.Reason = ReasonNoContracts
		return
	}

	// Sin banda configurada no hay qué matchear: se evalúa la señal y la
	// cohorte, pero la prima queda sin resolver.
	if tickerCfg.PremiumMin <= 0 || tickerCfg.PremiumMax <= tickerCfg.PremiumMin {
		eval.Reason = "no premium band configured"
		return
	}

	matcher := &premiumMatcher{
		market:     e.market,
		policy:     e.cfg.Analysis.SelectionPolicy,
		tolerance:  e.cfg.Analysis.FallbackTolerance,
		candidates: e.cfg.Analysis.CandidateCap,
		gainCap:    e.cfg.Analysis.GainCapPct,
	}

	match, gain, reason := matcher.match(ctx, universe, tickerCfg.PremiumMin, tickerCfg.PremiumMax, spot, eval.Date)
	if match == nil && reason == ReasonNoIntraday {
		filtered := filterMoneyness(universe, spot)
		match, gain = estimateMatch(bars, spot, filtered, eval.Date, e.cfg.Analysis.GainCapPct)
		if match != nil {
			slog.Debug("premium estimated from volatility", "ticker", eval.Ticker, "contract", match.ContractID)
		}
	}
	if match == nil {
		eval.Reason = reason
		return
	}

	eval.Match = match
	eval.Gain = gain
}

// persist guarda el resultado en el histórico con insert-if-absent. Las
// primas estimadas no se persisten: contaminarían las cohortes reales.
func (e *Evaluator) persist(ctx context.Context, eval domain.Evaluation) {
	if eval.Match == nil || eval.Gain == nil || eval.Match.Estimated {
		return
	}

	rec := domain.HistoricalOutcome{
		Date:         eval.Date.Format("2006-01-02"),
		Ticker:       eval.Ticker,
		Side:         domain.SidePut,
		RSI:          eval.Signal.RSI.Value,
		BBPosition:   eval.Signal.BB.Value,
		GainD1Pct:    eval.Gain.GainD1Pct,
		GainD2Pct:    eval.Gain.GainD2Pct,
		EntryPremium: eval.Match.EntryPremium,
		Strike:       eval.Match.Strike,
	}

	inserted, err := e.store.InsertIfAbsent(ctx, rec)
	if err != nil {
		slog.Debug("outcome not persisted", "ticker", eval.Ticker, "date", rec.Date, "err", err)
		return
	}
	if !inserted {
		slog.Debug("outcome already recorded", "ticker", eval.Ticker, "date", rec.Date, "err", domain.ErrDuplicateRecord)
	}
}

// unfired construye la Evaluation mínima de un ticker sin datos evaluables.
func (e *Evaluator) unfired(ticker string, date time.Time, reason string) domain.Evaluation {
	return domain.Evaluation{
		ID:     uuid.NewString(),
		Ticker: ticker,
		Date:   date,
		Signal: domain.Signal{
			Ticker: ticker,
			Date:   date,
			RSI:    domain.Undefined,
			BB:     domain.Undefined,
			Reason: reason,
		},
		Cohort:      domain.CohortResult{Stat: domain.CohortStat(e.cfg.Analysis.Cohort.Stat), Reason: "no bin"},
		EvaluatedAt: e.now(),
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
