// Pacote presenca registra a presença diária dos prestadores que usam folha de ponto.
package presenca

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/eventos"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
)

var (
	ErrPresencaSemObra        = errors.New("presenca exige obra")
	ErrPrestadorForaDaFolha   = errors.New("prestador nao participa da folha de presenca")
	ErrPrestadorNaoEncontrado = errors.New("prestador nao encontrado")
	ErrObraNaoEncontrada      = errors.New("obra nao encontrada")
)

type Registro struct {
	Dia         time.Time
	PrestadorID domain.PrestadorID
	Presente    bool
	ObraID      *domain.ObraID
}

type Service struct {
	presencas   domain.PresencaRepository
	prestadores domain.PrestadorRepository
	obras       domain.ObraRepository
	eventos     *eventos.Emissor
	clock       domain.Clock
	ids         *ids.Generator
}

func NewService(
	presencas domain.PresencaRepository,
	prestadores domain.PrestadorRepository,
	obras domain.ObraRepository,
	emissor *eventos.Emissor,
	clock domain.Clock,
	idsGen *ids.Generator,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		presencas:   presencas,
		prestadores: prestadores,
		obras:       obras,
		eventos:     emissor,
		clock:       clock,
		ids:         idsGen,
	}
}

// Folha devolve pendentes e presentes do dia a partir de um único mapa por prestador.
func (s *Service) Folha(ctx context.Context, dia time.Time) (domain.FolhaPresenca, error) {
	prestadores, err := s.prestadores.List(ctx)
	if err != nil {
		return domain.FolhaPresenca{}, err
	}
	registros, err := s.presencas.ListByDia(ctx, dia)
	if err != nil {
		return domain.FolhaPresenca{}, err
	}
	return domain.MontarFolha(dia, prestadores, registros), nil
}

// Registrar grava a presença pela chave (dia, prestador). Ausente nunca guarda obra.
func (s *Service) Registrar(ctx context.Context, r Registro, autor *domain.UsuarioID) (domain.Presenca, error) {
	if r.Presente && (r.ObraID == nil || *r.ObraID == "") {
		return domain.Presenca{}, ErrPresencaSemObra
	}
	if !r.Presente {
		r.ObraID = nil
	}

	p, err := s.prestadores.FindByID(ctx, r.PrestadorID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Presenca{}, ErrPrestadorNaoEncontrado
	}
	if err != nil {
		return domain.Presenca{}, err
	}
	if !p.ParticipaDaPresenca() {
		return domain.Presenca{}, fmt.Errorf("%w: %s", ErrPrestadorForaDaFolha, p.Nome)
	}
	if r.ObraID != nil {
		if _, err := s.obras.FindByID(ctx, *r.ObraID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Presenca{}, ErrObraNaoEncontrada
			}
			return domain.Presenca{}, err
		}
	}

	gravada, err := s.presencas.Upsert(ctx, domain.Presenca{
		ID:           domain.PresencaID(s.ids.New()),
		Data:         datatypes.Date(domain.NormalizarDia(r.Dia)),
		PrestadorID:  r.PrestadorID,
		Presente:     r.Presente,
		ObraID:       r.ObraID,
		AtualizadoEm: s.clock.Agora(),
	})
	if err != nil {
		return domain.Presenca{}, err
	}

	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:      domain.EventoPresencaRegistrada,
		Recurso:   "prestador",
		RecursoID: string(r.PrestadorID),
		ObraID:    r.ObraID,
		UsuarioID: autor,
		Dados:     map[string]string{"dia": domain.FormatarDia(r.Dia), "presente": strconv.FormatBool(r.Presente)},
	})
	return gravada, nil
}
