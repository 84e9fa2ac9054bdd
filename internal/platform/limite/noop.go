package limite

import (
	"context"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// Noop é usado quando o limite de escrita está desligado na configuração.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Validar(context.Context, domain.UsuarioID) error {
	return nil
}

var _ domain.LimiteEscrita = Noop{}
