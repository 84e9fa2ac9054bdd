// Pacote worker processa os eventos de domínio consumidos da fila Redis.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelojr/gestao-obras/internal/app/crm"
	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/logger"
	"github.com/marcelojr/gestao-obras/internal/platform/metrics"
)

// LinhaDoTempo é a parte do CRM usada para gravar as entradas "system".
type LinhaDoTempo interface {
	RegistrarInteracaoSistema(ctx context.Context, id domain.NegocioID, texto string) (domain.Interacao, error)
}

// EventoProcessor grava a auditoria, a linha do tempo do negócio e os contadores do painel.
type EventoProcessor struct {
	auditoria domain.AuditoriaRepository
	linha     LinhaDoTempo
	contador  domain.Contador
	clock     domain.Clock
}

func NewEventoProcessor(auditoria domain.AuditoriaRepository, linha LinhaDoTempo, contador domain.Contador, clock domain.Clock) *EventoProcessor {
	return &EventoProcessor{
		auditoria: auditoria,
		linha:     linha,
		contador:  contador,
		clock:     clock,
	}
}

func (p *EventoProcessor) Process(ctx context.Context, e domain.Evento) error {
	start := time.Now()

	if e.OcorridoEm.IsZero() {
		e.OcorridoEm = p.clock.Agora()
	}

	// evento reentregue já passou por aqui; não repete linha do tempo nem contadores.
	if err := p.auditoria.Registrar(ctx, e); err != nil {
		if errors.Is(err, domain.ErrConflito) {
			logger.Warn("evento ja processado", "id", e.ID, "tipo", e.Tipo)
			return nil
		}
		return fmt.Errorf("worker: auditar evento %s: %w", e.ID, err)
	}

	if e.Tipo == domain.EventoNegocioEstagio && p.linha != nil {
		texto := crm.TextoMudancaEstagio(domain.EstagioNegocio(e.Dados["de"]), domain.EstagioNegocio(e.Dados["para"]), e.Dados["motivo"])
		if _, err := p.linha.RegistrarInteracaoSistema(ctx, domain.NegocioID(e.RecursoID), texto); err != nil {
			return fmt.Errorf("worker: linha do tempo do negocio %s: %w", e.RecursoID, err)
		}
	}

	if p.contador != nil {
		if err := p.contador.Contabilizar(ctx, chavesDoEvento(e)); err != nil {
			return fmt.Errorf("worker: contabilizar evento %s: %w", e.ID, err)
		}
	}

	metrics.IncEventoProcessado(string(e.Tipo))
	metrics.ObserveProcessingDuration(time.Since(start).Seconds())
	return nil
}
