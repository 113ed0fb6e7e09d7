package ports

import (
	"context"
	"time"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// ContractReference consulta el catálogo de contratos de opciones del proveedor.
type ContractReference interface {
	// FindPutContracts busca PUTs del subyacente para la fecha de vencimiento
	// dada. El adapter implementa el fallback de ampliación documentado:
	// fecha exacta, luego ±7 días, luego ±30 días. Devuelve slice vacío si
	// no hay contratos en ningún rango.
	FindPutContracts(ctx context.Context, underlying string, expiration time.Time) ([]domain.ContractCandidate, error)
}
