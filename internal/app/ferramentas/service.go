// Pacote ferramentas controla a custódia das ferramentas por um log de movimentos imutável.
package ferramentas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/eventos"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
	"github.com/marcelojr/gestao-obras/internal/platform/metrics"
)

var (
	ErrFerramentaInvalida      = errors.New("ferramenta invalida")
	ErrFerramentaNaoEncontrada = errors.New("ferramenta nao encontrada")
	ErrPatrimonioDuplicado     = errors.New("patrimonio ja cadastrado")
	ErrTransicaoInvalida       = errors.New("transicao de ferramenta invalida")
	ErrCustodiaAlterada        = errors.New("ferramenta alterada por outra operacao")
	ErrDestinoObrigatorio      = errors.New("obra e responsavel obrigatorios")
	ErrObraNaoEncontrada       = errors.New("obra nao encontrada")
	ErrPrestadorNaoEncontrado  = errors.New("prestador nao encontrado")
)

type Service struct {
	ferramentas domain.FerramentaRepository
	obras       domain.ObraRepository
	prestadores domain.PrestadorRepository
	eventos     *eventos.Emissor
	clock       domain.Clock
	ids         *ids.Generator
}

func NewService(
	ferramentas domain.FerramentaRepository,
	obras domain.ObraRepository,
	prestadores domain.PrestadorRepository,
	emissor *eventos.Emissor,
	clock domain.Clock,
	idsGen *ids.Generator,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		ferramentas: ferramentas,
		obras:       obras,
		prestadores: prestadores,
		eventos:     emissor,
		clock:       clock,
		ids:         idsGen,
	}
}

func (s *Service) Criar(ctx context.Context, f domain.Ferramenta) (domain.Ferramenta, error) {
	f.Nome = strings.TrimSpace(f.Nome)
	f.Marca = strings.TrimSpace(f.Marca)
	f.Patrimonio = strings.ToUpper(strings.TrimSpace(f.Patrimonio))
	if f.Nome == "" || f.Patrimonio == "" {
		return domain.Ferramenta{}, fmt.Errorf("%w: nome e patrimonio obrigatorios", ErrFerramentaInvalida)
	}

	agora := s.clock.Agora()
	f.ID = domain.FerramentaID(s.ids.New())
	f.Status = domain.FerramentaDisponivel
	f.ObraID, f.ResponsavelID, f.RetiradaEm = nil, nil, nil
	f.CriadoEm = agora
	f.AtualizadoEm = agora

	if err := s.ferramentas.Create(ctx, f); err != nil {
		if errors.Is(err, domain.ErrConflito) {
			return domain.Ferramenta{}, fmt.Errorf("%w: %s", ErrPatrimonioDuplicado, f.Patrimonio)
		}
		return domain.Ferramenta{}, err
	}
	return f, nil
}

func (s *Service) Listar(ctx context.Context) ([]domain.Ferramenta, error) {
	return s.ferramentas.List(ctx)
}

func (s *Service) Obter(ctx context.Context, id domain.FerramentaID) (domain.Ferramenta, error) {
	f, err := s.ferramentas.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Ferramenta{}, ErrFerramentaNaoEncontrada
	}
	return f, err
}

// Destino identifica para onde a ferramenta vai numa retirada ou transferência.
type Destino struct {
	ObraID        domain.ObraID      `json:"obra_id"`
	ResponsavelID domain.PrestadorID `json:"responsavel_id"`
	Observacao    string             `json:"observacao,omitempty"`
}

func (s *Service) Retirar(ctx context.Context, id domain.FerramentaID, d Destino, autor *domain.UsuarioID) (domain.Ferramenta, error) {
	if err := s.validarDestino(ctx, d); err != nil {
		return domain.Ferramenta{}, err
	}
	return s.movimentar(ctx, id, domain.Movimento{
		Tipo:          domain.MovimentoRetirada,
		ObraID:        &d.ObraID,
		ResponsavelID: &d.ResponsavelID,
		Observacao:    strings.TrimSpace(d.Observacao),
	}, autor)
}

func (s *Service) Devolver(ctx context.Context, id domain.FerramentaID, observacao string, autor *domain.UsuarioID) (domain.Ferramenta, error) {
	return s.movimentar(ctx, id, domain.Movimento{
		Tipo:       domain.MovimentoDevolucao,
		Observacao: strings.TrimSpace(observacao),
	}, autor)
}

// Transferir encerra a custódia atual e abre a nova com um único movimento.
func (s *Service) Transferir(ctx context.Context, id domain.FerramentaID, d Destino, autor *domain.UsuarioID) (domain.Ferramenta, error) {
	if err := s.validarDestino(ctx, d); err != nil {
		return domain.Ferramenta{}, err
	}
	return s.movimentar(ctx, id, domain.Movimento{
		Tipo:          domain.MovimentoTransferencia,
		ObraID:        &d.ObraID,
		ResponsavelID: &d.ResponsavelID,
		Observacao:    strings.TrimSpace(d.Observacao),
	}, autor)
}

func (s *Service) movimentar(ctx context.Context, id domain.FerramentaID, m domain.Movimento, autor *domain.UsuarioID) (domain.Ferramenta, error) {
	f, err := s.Obter(ctx, id)
	if err != nil {
		return domain.Ferramenta{}, err
	}

	m.ID = domain.MovimentoID(s.ids.New())
	m.FerramentaID = id
	m.UsuarioID = autor
	m.OcorridoEm = s.clock.Agora()

	nova, err := domain.AplicarMovimento(f, m)
	if err != nil {
		return domain.Ferramenta{}, fmt.Errorf("%w: %v", ErrTransicaoInvalida, err)
	}

	switch err := s.ferramentas.RegistrarMovimento(ctx, nova, m); {
	case errors.Is(err, domain.ErrMovimentoInvalido):
		return domain.Ferramenta{}, fmt.Errorf("%w: %v", ErrTransicaoInvalida, err)
	case errors.Is(err, domain.ErrNotFound):
		return domain.Ferramenta{}, ErrCustodiaAlterada
	case err != nil:
		return domain.Ferramenta{}, err
	}

	metrics.IncTransicao("ferramenta", string(m.Tipo))
	dados := map[string]string{"tipo": string(m.Tipo), "status": string(nova.Status)}
	if m.ResponsavelID != nil {
		dados["responsavel"] = string(*m.ResponsavelID)
	}
	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:       domain.EventoFerramentaMovida,
		Recurso:    "ferramenta",
		RecursoID:  string(id),
		ObraID:     obraDoEvento(f, m),
		UsuarioID:  autor,
		Dados:      dados,
		OcorridoEm: m.OcorridoEm,
	})
	return nova, nil
}

// AlterarStatus alterna entre available, maintenance e lost; ferramenta em uso precisa ser devolvida antes.
func (s *Service) AlterarStatus(ctx context.Context, id domain.FerramentaID, status domain.StatusFerramenta) (domain.Ferramenta, error) {
	if !status.Valido() || status == domain.FerramentaEmUso {
		return domain.Ferramenta{}, fmt.Errorf("%w: status %q so muda por retirada", ErrTransicaoInvalida, status)
	}
	f, err := s.Obter(ctx, id)
	if err != nil {
		return domain.Ferramenta{}, err
	}
	if f.Status == domain.FerramentaEmUso {
		return domain.Ferramenta{}, fmt.Errorf("%w: ferramenta em uso deve ser devolvida", ErrTransicaoInvalida)
	}
	if f.Status == status {
		return f, nil
	}

	if err := s.ferramentas.AtualizarStatus(ctx, id, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Ferramenta{}, ErrCustodiaAlterada
		}
		return domain.Ferramenta{}, err
	}
	metrics.IncTransicao("ferramenta", string(status))
	f.Status = status
	return f, nil
}

// Historico devolve os períodos de custódia do mais recente para o mais antigo.
func (s *Service) Historico(ctx context.Context, id domain.FerramentaID) ([]domain.PeriodoCustodia, error) {
	if _, err := s.Obter(ctx, id); err != nil {
		return nil, err
	}
	movs, err := s.ferramentas.ListMovimentos(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.Historico(movs), nil
}

// Conferir refaz a custódia a partir do log e diz se o ponteiro gravado confere.
func (s *Service) Conferir(ctx context.Context, id domain.FerramentaID) (bool, error) {
	f, err := s.Obter(ctx, id)
	if err != nil {
		return false, err
	}
	movs, err := s.ferramentas.ListMovimentos(ctx, id)
	if err != nil {
		return false, err
	}
	derivada, err := domain.ReplayCustodia(f, movs)
	if err != nil {
		return false, err
	}
	if f.Status != domain.FerramentaEmUso && derivada.Status == domain.FerramentaDisponivel {
		// manutenção e perda não geram movimento
		return true, nil
	}
	return derivada.Status == f.Status && mesmoPonteiro(derivada.ObraID, f.ObraID) &&
		mesmoPonteiro(derivada.ResponsavelID, f.ResponsavelID), nil
}

func (s *Service) validarDestino(ctx context.Context, d Destino) error {
	if d.ObraID == "" || d.ResponsavelID == "" {
		return ErrDestinoObrigatorio
	}
	if _, err := s.obras.FindByID(ctx, d.ObraID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrObraNaoEncontrada
		}
		return err
	}
	if _, err := s.prestadores.FindByID(ctx, d.ResponsavelID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrPrestadorNaoEncontrado
		}
		return err
	}
	return nil
}

func obraDoEvento(antes domain.Ferramenta, m domain.Movimento) *domain.ObraID {
	if m.ObraID != nil {
		return m.ObraID
	}
	return antes.ObraID
}

func mesmoPonteiro[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
