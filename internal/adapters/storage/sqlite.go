package storage

// sqlite.go — histórico append-only de resultados de señales.
//
// Estrategia:
//   - `outcomes`: UNA fila por (ticker, fecha). El insert usa
//     ON CONFLICT DO NOTHING: re-evaluar un día ya guardado es un no-op,
//     no un error, así el backfill es idempotente y tolera escritores
//     concurrentes.
//   - Validación de sanidad antes de escribir: una fila corrupta en el
//     histórico envenena todas las cohortes que la incluyan.
//   - Prune al arrancar: filas legacy que no pasan la validación actual
//     se eliminan para que las cohortes solo vean datos sanos.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	_ "modernc.org/sqlite"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

const schema = `
-- Un resultado por señal evaluada, clave natural (ticker, fecha)
CREATE TABLE IF NOT EXISTS outcomes (
    ticker        TEXT NOT NULL,
    date          TEXT NOT NULL,  -- YYYY-MM-DD
    side          TEXT NOT NULL,
    rsi           REAL NOT NULL,
    bb_position   REAL NOT NULL,
    gain_d1_pct   REAL NOT NULL,
    gain_d2_pct   REAL NOT NULL,
    entry_premium REAL NOT NULL,
    strike        REAL NOT NULL,
    PRIMARY KEY (ticker, date)
);

CREATE INDEX IF NOT EXISTS idx_outcomes_ticker_side ON outcomes(ticker, side);
CREATE INDEX IF NOT EXISTS idx_outcomes_date        ON outcomes(date DESC);
`

// SQLiteStore implementa ports.OutcomeStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db      *sql.DB
	gainCap float64
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada. gainCap es
// el techo configurado de ganancia (analysis.gain_cap_pct); las ganancias por
// encima no describen un trade real. Con gainCap <= 0 se usa el default.
// Aplica el schema y elimina filas legacy que no pasan la validación actual.
func NewSQLiteStore(path string, gainCap float64) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	if gainCap <= 0 {
		gainCap = domain.DefaultGainCapPct
	}
	s := &SQLiteStore{db: db, gainCap: gainCap}
	s.pruneInvalid(context.Background())
	return s, nil
}

// InsertIfAbsent inserta el resultado si no existe ya uno para (ticker, fecha).
// Devuelve false sin error si ya existía. Los registros que no pasan la
// validación de sanidad se rechazan con error antes de tocar la base.
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, rec domain.HistoricalOutcome) (bool, error) {
	if err := s.validate(rec); err != nil {
		return false, fmt.Errorf("storage.InsertIfAbsent %s %s: %w", rec.Ticker, rec.Date, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes
			(ticker, date, side, rsi, bb_position, gain_d1_pct, gain_d2_pct, entry_premium, strike)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker, date) DO NOTHING
	`,
		rec.Ticker, rec.Date, string(rec.Side),
		rec.RSI, rec.BBPosition,
		rec.GainD1Pct, rec.GainD2Pct,
		rec.EntryPremium, rec.Strike,
	)
	if err != nil {
		return false, fmt.Errorf("storage.InsertIfAbsent %s %s: %w", rec.Ticker, rec.Date, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.InsertIfAbsent: rows affected: %w", err)
	}
	return n > 0, nil
}

// QueryByTicker devuelve los resultados del ticker y side dados, excluyendo
// el de excludeDate si no está vacío. Ordenados por fecha ascendente.
func (s *SQLiteStore) QueryByTicker(ctx context.Context, ticker string, side domain.OptionSide, excludeDate string) ([]domain.HistoricalOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, date, side, rsi, bb_position, gain_d1_pct, gain_d2_pct, entry_premium, strike
		FROM outcomes
		WHERE ticker = ? AND side = ? AND date != ?
		ORDER BY date ASC
	`, ticker, string(side), excludeDate)
	if err != nil {
		return nil, fmt.Errorf("storage.QueryByTicker %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []domain.HistoricalOutcome
	for rows.Next() {
		var rec domain.HistoricalOutcome
		var side string
		if err := rows.Scan(
			&rec.Ticker, &rec.Date, &side,
			&rec.RSI, &rec.BBPosition,
			&rec.GainD1Pct, &rec.GainD2Pct,
			&rec.EntryPremium, &rec.Strike,
		); err != nil {
			return nil, fmt.Errorf("storage.QueryByTicker: scan row: %w", err)
		}
		rec.Side = domain.OptionSide(side)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// validate aplica las reglas de sanidad del histórico. Una fila que las
// viola no describe un trade real y no debe entrar a ninguna cohorte.
func (s *SQLiteStore) validate(rec domain.HistoricalOutcome) error {
	switch {
	case rec.Ticker == "":
		return fmt.Errorf("empty ticker")
	case len(rec.Date) != 10:
		return fmt.Errorf("malformed date %q", rec.Date)
	case rec.EntryPremium <= 0:
		return fmt.Errorf("entry premium %.4f: %w", rec.EntryPremium, domain.ErrInvalidPremium)
	case rec.Strike <= 0:
		return fmt.Errorf("strike %.2f out of range", rec.Strike)
	case rec.RSI < 0 || rec.RSI > 100 || math.IsNaN(rec.RSI):
		return fmt.Errorf("rsi %.2f out of range", rec.RSI)
	case math.IsNaN(rec.BBPosition) || math.IsInf(rec.BBPosition, 0):
		return fmt.Errorf("bb position %.4f not finite", rec.BBPosition)
	case rec.GainD1Pct < 0 || rec.GainD1Pct > s.gainCap:
		return fmt.Errorf("gain d1 %.2f%% out of range", rec.GainD1Pct)
	case rec.GainD2Pct < 0 || rec.GainD2Pct > s.gainCap:
		return fmt.Errorf("gain d2 %.2f%% out of range", rec.GainD2Pct)
	}
	return nil
}

// pruneInvalid elimina filas legacy que no pasan la validación vigente.
func (s *SQLiteStore) pruneInvalid(ctx context.Context) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM outcomes
		WHERE entry_premium <= 0
		   OR strike <= 0
		   OR rsi < 0 OR rsi > 100
		   OR gain_d1_pct < 0 OR gain_d1_pct > ?
		   OR gain_d2_pct < 0 OR gain_d2_pct > ?
	`, s.gainCap, s.gainCap)
	if err != nil {
		slog.Warn("prune of invalid outcomes failed", "error", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("pruned invalid legacy outcomes", "rows", n)
	}
}
