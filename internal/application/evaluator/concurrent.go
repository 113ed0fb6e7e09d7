package evaluator

// concurrent.go — worker pool para evaluar tickers en paralelo.
//
// La evaluación por ticker es independiente salvo por los appends al
// histórico, que ya son atómicos en el store (insert-if-absent). Con
// workers=1 el comportamiento es estrictamente secuencial.

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// EvaluateAll evalúa todos los tickers para la fecha dada con un worker pool
// acotado. El resultado se ordena por ticker para que la salida sea
// determinista independientemente del orden de terminación.
func (e *Evaluator) EvaluateAll(ctx context.Context, tickers []string, date time.Time) []domain.Evaluation {
	workers := e.cfg.Analysis.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tickers) {
		workers = len(tickers)
	}

	start := time.Now()
	workCh := make(chan string, len(tickers))
	resultCh := make(chan domain.Evaluation, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range workCh {
				// Cancelación limpia entre tickers
				if ctx.Err() != nil {
					return
				}
				resultCh <- e.EvaluateTicker(ctx, ticker, date)
			}
		}()
	}

	for _, ticker := range tickers {
		workCh <- ticker
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	evals := make([]domain.Evaluation, 0, len(tickers))
	for ev := range resultCh {
		evals = append(evals, ev)
	}
	sort.Slice(evals, func(i, j int) bool { return evals[i].Ticker < evals[j].Ticker })

	slog.Info("evaluation batch complete",
		"tickers", len(tickers),
		"evaluated", len(evals),
		"workers", workers,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return evals
}
