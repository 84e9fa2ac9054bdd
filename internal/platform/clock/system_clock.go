// Pacote clock fornece o relógio real dos serviços.
package clock

import (
	"time"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// SystemClock devolve UTC truncado em microssegundos, a precisão do timestamptz do Postgres:
// o horário devolvido pela API é igual ao que será lido do banco depois.
type SystemClock struct{}

func NewSystemClock() SystemClock {
	return SystemClock{}
}

func (SystemClock) Agora() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

var _ domain.Clock = SystemClock{}
