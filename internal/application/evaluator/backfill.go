package evaluator

// backfill.go — carga del histórico de señales.
//
// Recorre N días hacia atrás por ticker evaluando cada día hábil con el
// pipeline completo. Las velas diarias se descargan una sola vez por ticker
// y se van recortando al caminar, en vez de re-pedir la historia día a día.

import (
	"context"
	"log/slog"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// BackfillStats resume una pasada de backfill.
type BackfillStats struct {
	DaysWalked int
	Signals    int
	Persisted  int
}

// Backfill evalúa los últimos `days` días de cada ticker y persiste los
// resultados con señal y prima resuelta. Idempotente: los días ya guardados
// son no-ops en el store.
func (e *Evaluator) Backfill(ctx context.Context, tickers []string, days int, end time.Time) (BackfillStats, error) {
	end = truncateDay(end)
	start := end.AddDate(0, 0, -days)
	var stats BackfillStats

	for _, ticker := range tickers {
		bars, err := e.market.DailyBars(ctx, ticker, start.AddDate(0, 0, -historyDays), end)
		if err != nil {
			slog.Warn("backfill: daily bars unavailable", "ticker", ticker, "err", err)
			continue
		}
		if len(bars) == 0 {
			slog.Warn("backfill: no history for ticker", "ticker", ticker, "err", domain.ErrDataUnavailable)
			continue
		}

		for i, bar := range bars {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			day := truncateDay(bar.Timestamp)
			if day.Before(start) {
				continue // ventana de calentamiento de indicadores
			}
			stats.DaysWalked++

			eval := e.evaluateWithBars(ctx, ticker, day, bars[:i+1])
			if !eval.Signal.Fired {
				continue
			}
			stats.Signals++
			if eval.Match != nil && !eval.Match.Estimated {
				stats.Persisted++
			}
		}

		slog.Info("backfill ticker done", "ticker", ticker, "days", days)
	}

	slog.Info("backfill complete",
		"tickers", len(tickers),
		"days_walked", stats.DaysWalked,
		"signals", stats.Signals,
		"persisted", stats.Persisted,
	)
	return stats, nil
}
