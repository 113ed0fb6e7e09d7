package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out      io.Writer
	table    bool
	validate bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table, validate bool) *Console {
	return &Console{out: os.Stdout, table: table, validate: validate}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table, validate bool) *Console {
	return &Console{out: w, table: table, validate: validate}
}

// Notify imprime las evaluaciones en el modo configurado.
func (c *Console) Notify(_ context.Context, evals []domain.Evaluation) error {
	if len(evals) == 0 {
		fmt.Fprintf(c.out, "[%s] no evaluations produced\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(evals)
	} else {
		c.printCompact(evals)
	}

	if c.validate {
		c.printValidation(evals)
	}

	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(evals []domain.Evaluation) {
	now := time.Now().Format("15:04:05")
	fired, tradeable := countFired(evals)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d tickers → fired:%d tradeable:%d", now, len(evals), fired, tradeable)

	shown := 0
	for _, ev := range evals {
		if shown >= 4 {
			break
		}
		if !ev.Signal.Fired {
			continue
		}

		fmt.Fprintf(&sb, " | %s %s rsi:%s bb:%s", ev.Ticker, ev.Signal.Tier, fmtIndicator(ev.Signal.RSI, "%.0f"), fmtIndicator(ev.Signal.BB, "%.2f"))
		if ev.Match != nil {
			fmt.Fprintf(&sb, " entry:$%.2f d1:%s", ev.Match.EntryPremium, fmtGain(ev.Gain))
		}
		if ev.Cohort.HasData {
			fmt.Fprintf(&sb, " est:%.0f%%", ev.Cohort.EstimatePct)
		}
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla de evaluaciones con la estimación histórica.
func (c *Console) printFull(evals []domain.Evaluation) {
	now := time.Now().Format("15:04:05")
	fired, tradeable := countFired(evals)

	fmt.Fprintf(c.out, "\n[%s] %d evaluations — fired:%d tradeable:%d\n",
		now, len(evals), fired, tradeable)

	table := tablewriter.NewWriter(c.out)
	table.Header("Ticker", "Date", "Signal", "RSI", "%B", "Contract", "Entry", "Gain D1", "Gain D2", "Hist est", "Note")

	for _, ev := range evals {
		signal := "-"
		if ev.Signal.Fired {
			signal = ev.Signal.Tier.String()
			if ev.Signal.Score > 0 {
				signal = fmt.Sprintf("%s (%.0f)", ev.Signal.Tier, ev.Signal.Score)
			}
		}

		contract, entry := "-", "-"
		gainD1, gainD2 := "-", "-"
		if ev.Match != nil {
			contract = ev.Match.ContractID
			entry = fmt.Sprintf("$%.2f", ev.Match.EntryPremium)
			if ev.Match.Estimated {
				entry += "~"
			}
			gainD1 = fmtGain(ev.Gain)
			gainD2 = fmtGainD2(ev.Gain)
		}

		est := "-"
		if ev.Cohort.HasData {
			est = fmt.Sprintf("%.0f%% (n=%d,%s)", ev.Cohort.EstimatePct, ev.Cohort.Size(), stageLabel(ev.Cohort.Stage))
		}

		table.Append(
			ev.Ticker,
			ev.Date.Format("2006-01-02"),
			signal,
			fmtIndicator(ev.Signal.RSI, "%.1f"),
			fmtIndicator(ev.Signal.BB, "%.2f"),
			contract,
			entry,
			gainD1,
			gainD2,
			est,
			note(ev),
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Entry~ = prima estimada por volatilidad (sin velas intradía)")
	fmt.Fprintln(c.out, "  Gain = máxima subida de la prima vs entrada | ✓ = dobló (≥100%)")
	fmt.Fprintln(c.out, "  Hist est = estadístico de la cohorte histórica (n, etapa del fallback)")
}

// printValidation imprime el cálculo detallado de las señales disparadas.
func (c *Console) printValidation(evals []domain.Evaluation) {
	fmt.Fprintln(c.out, "=== VALIDATION — step-by-step ===")

	shown := 0
	for _, ev := range evals {
		if !ev.Signal.Fired || shown >= 3 {
			continue
		}
		shown++

		fmt.Fprintf(c.out, "\n--- %s %s  [%s] ---\n",
			ev.Ticker, ev.Date.Format("2006-01-02"), ev.Signal.Tier)

		fmt.Fprintf(c.out, "\n  1. SIGNAL:\n")
		fmt.Fprintf(c.out, "     entry price: $%.2f\n", ev.Signal.EntryPrice)
		fmt.Fprintf(c.out, "     rsi=%s  %%b=%s\n",
			fmtIndicator(ev.Signal.RSI, "%.2f"), fmtIndicator(ev.Signal.BB, "%.4f"))
		if ev.Signal.Reason != "" {
			fmt.Fprintf(c.out, "     detail: %s\n", ev.Signal.Reason)
		}

		fmt.Fprintf(c.out, "\n  2. CONTRACT:\n")
		if ev.Match == nil {
			fmt.Fprintf(c.out, "     no premium resolved: %s\n", ev.Reason)
		} else {
			m := ev.Match
			origin := "catalog"
			if m.Estimated {
				origin = "volatility estimate"
			}
			rangeLabel := "in range"
			if !m.InRange {
				rangeLabel = "fallback (closest to range)"
			}
			fmt.Fprintf(c.out, "     %s strike=%.2f (%s)\n", m.ContractID, m.Strike, origin)
			fmt.Fprintf(c.out, "     entry premium: $%.4f  [%s]\n", m.EntryPremium, rangeLabel)
			fmt.Fprintf(c.out, "     max premium d1=$%.4f d2=$%.4f\n", m.MaxPremiumD1, m.MaxPremiumD2)
			if ev.Gain != nil {
				fmt.Fprintf(c.out, "     gain d1=%.1f%% (%s)  d2=%.1f%% (%s)\n",
					ev.Gain.GainD1Pct, ev.Gain.D1, ev.Gain.GainD2Pct, ev.Gain.D2)
			}
		}

		fmt.Fprintf(c.out, "\n  3. HISTORY:\n")
		if !ev.Cohort.HasData {
			fmt.Fprintf(c.out, "     no estimate: %s\n", ev.Cohort.Reason)
		} else {
			fmt.Fprintf(c.out, "     cohort n=%d stage=%s stat=%s\n",
				ev.Cohort.Size(), stageLabel(ev.Cohort.Stage), ev.Cohort.Stat)
			fmt.Fprintf(c.out, "     >>> ESTIMATED GAIN: %.1f%%\n", ev.Cohort.EstimatePct)
		}
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countFired(evals []domain.Evaluation) (fired, tradeable int) {
	for _, ev := range evals {
		if ev.Signal.Fired {
			fired++
		}
		if ev.Tradeable() {
			tradeable++
		}
	}
	return fired, tradeable
}

func fmtIndicator(v domain.IndicatorValue, format string) string {
	if !v.Defined {
		return "n/a"
	}
	return fmt.Sprintf(format, v.Value)
}

func fmtGain(g *domain.GainResult) string {
	if g == nil {
		return "-"
	}
	label := fmt.Sprintf("%.0f%%", g.GainD1Pct)
	if g.ClampedD1 {
		label += "^"
	}
	if g.D1 == domain.OutcomeSuccess {
		label += " ✓"
	}
	return label
}

func fmtGainD2(g *domain.GainResult) string {
	if g == nil || g.D2 == domain.OutcomeNoData {
		return "-"
	}
	label := fmt.Sprintf("%.0f%%", g.GainD2Pct)
	if g.ClampedD2 {
		label += "^"
	}
	if g.D2 == domain.OutcomeSuccess {
		label += " ✓"
	}
	return label
}

func stageLabel(s domain.CohortStage) string {
	switch s {
	case domain.StageExact:
		return "exact"
	case domain.StageExpanded:
		return "±1"
	case domain.StageSide:
		return "side"
	default:
		return "none"
	}
}

func note(ev domain.Evaluation) string {
	switch {
	case ev.Unvalidated:
		return "unvalidated ticker"
	case !ev.Signal.Fired:
		return truncate(ev.Signal.Reason, 30)
	case ev.Match == nil:
		return truncate(ev.Reason, 30)
	case ev.Match.Estimated:
		return "estimated premium"
	case !ev.Match.InRange:
		return "fallback premium"
	}
	return ""
}

// truncate recorta s a max caracteres añadiendo "..." si hizo falta.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
