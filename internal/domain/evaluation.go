package domain

import "time"

// Evaluation es el registro estructurado producido por el evaluador para un
// (ticker, fecha): señal + resultado de opciones + estimación histórica.
// Es lo que consume la capa de presentación (excluida de este core).
type Evaluation struct {
	ID          string // uuid
	Ticker      string
	Date        time.Time
	Signal      Signal
	Match       *PremiumMatch // nil si no se resolvió prima
	Gain        *GainResult   // nil si no hay match
	Cohort      CohortResult
	Unvalidated bool   // ticker sin configuración de primas: evaluado igualmente
	Reason      string // explicación cuando Match es nil ("no contracts", "no valid premium", ...)
	EvaluatedAt time.Time
}

// Tradeable devuelve true si la evaluación produjo una señal disparada con
// prima de entrada resuelta.
func (e Evaluation) Tradeable() bool {
	return e.Signal.Fired && e.Match != nil && e.Match.EntryPremium > 0
}
