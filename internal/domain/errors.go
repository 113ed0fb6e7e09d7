package domain

import "errors"

// Errores centinela del pipeline de evaluación. Los adapters y el evaluador
// los envuelven con contexto (`fmt.Errorf("pkg.Fn: ...: %w", err)`) para que
// el caller pueda clasificar con errors.Is sin perder el detalle.
var (
	// ErrDataUnavailable indica que no hay velas ni contratos para la fecha.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidPremium indica que ningún precio del día cae dentro de la
	// tolerancia del rango de primas configurado.
	ErrInvalidPremium = errors.New("no valid premium in range")

	// ErrRateLimited indica que el proveedor devolvió 429 agotados los retries.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse indica una respuesta indescifrable del proveedor.
	// Tras loguearla se trata como ErrDataUnavailable.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrDuplicateRecord indica que ya existe un registro para (ticker, fecha).
	// No es fatal: el insert se descarta en silencio.
	ErrDuplicateRecord = errors.New("duplicate record")

	// ErrConfigMissing indica que el ticker no está en la tabla de primas.
	// La evaluación continúa con el flag Unvalidated.
	ErrConfigMissing = errors.New("ticker config missing")
)
