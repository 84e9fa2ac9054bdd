// Pacote eventos distribui eventos de domínio para a fila do worker e para o feed em tempo real.
package eventos

import (
	"context"
	"errors"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
	"github.com/marcelojr/gestao-obras/internal/platform/logger"
)

// Multi publica em todos os destinos e junta os erros.
type Multi []domain.Publicador

func (m Multi) Publicar(ctx context.Context, e domain.Evento) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publicar(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Publicar(context.Context, domain.Evento) error { return nil }

// Emissor completa id e horário do evento e publica depois que a escrita já foi confirmada.
// Falha de publicação só é registrada em log: a operação de negócio já aconteceu.
type Emissor struct {
	pub   domain.Publicador
	ids   *ids.Generator
	clock domain.Clock
}

func NewEmissor(pub domain.Publicador, gen *ids.Generator, clock domain.Clock) *Emissor {
	if pub == nil {
		pub = Noop{}
	}
	if gen == nil {
		gen = ids.DefaultGenerator()
	}
	return &Emissor{pub: pub, ids: gen, clock: clock}
}

func (em *Emissor) Emitir(ctx context.Context, e domain.Evento) {
	if em == nil {
		return
	}
	if e.ID == "" {
		e.ID = domain.EventoID(em.ids.New())
	}
	if e.OcorridoEm.IsZero() && em.clock != nil {
		e.OcorridoEm = em.clock.Agora()
	}
	if err := em.pub.Publicar(ctx, e); err != nil {
		logger.Error("falha ao publicar evento", "tipo", e.Tipo, "recurso", e.Recurso, "recurso_id", e.RecursoID, "error", err)
	}
}

var (
	_ domain.Publicador = Multi(nil)
	_ domain.Publicador = Noop{}
)
