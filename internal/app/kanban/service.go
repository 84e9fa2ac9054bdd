// Pacote kanban mantém o quadro de atribuições por obra e seus sub-recursos.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/eventos"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
	"github.com/marcelojr/gestao-obras/internal/platform/logger"
	"github.com/marcelojr/gestao-obras/internal/platform/metrics"
)

var (
	ErrObraNaoEncontrada       = errors.New("obra nao encontrada")
	ErrAtribuicaoInvalida      = errors.New("atribuicao invalida")
	ErrAtribuicaoNaoEncontrada = errors.New("atribuicao nao encontrada")
	ErrStatusInvalido          = errors.New("status de atribuicao invalido")
	ErrDiasInvalidos           = errors.New("dias de trabalho fora do intervalo")
)

type Repositorios struct {
	Obras       domain.ObraRepository
	Atribuicoes domain.AtribuicaoRepository
	Checklist   domain.ChecklistRepository
	Anexos      domain.AnexoRepository
	Etiquetas   domain.EtiquetaRepository
	Compras     domain.CompraRepository
}

type Service struct {
	repos    Repositorios
	arquivos domain.Armazenamento
	eventos  *eventos.Emissor
	clock    domain.Clock
	ids      *ids.Generator
}

func NewService(repos Repositorios, arquivos domain.Armazenamento, emissor *eventos.Emissor, clock domain.Clock, idsGen *ids.Generator) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		repos:    repos,
		arquivos: arquivos,
		eventos:  emissor,
		clock:    clock,
		ids:      idsGen,
	}
}

// Listar devolve as atribuições da obra ordenadas por coluna e posição.
func (s *Service) Listar(ctx context.Context, obra domain.ObraID) ([]domain.Atribuicao, error) {
	if err := s.exigirObra(ctx, obra); err != nil {
		return nil, err
	}
	return s.repos.Atribuicoes.ListByObra(ctx, obra)
}

func (s *Service) Obter(ctx context.Context, id domain.AtribuicaoID) (domain.Atribuicao, error) {
	a, err := s.repos.Atribuicoes.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Atribuicao{}, ErrAtribuicaoNaoEncontrada
	}
	return a, err
}

// Criar grava a atribuição no fim da coluna do seu status.
func (s *Service) Criar(ctx context.Context, a domain.Atribuicao, autor *domain.UsuarioID) (domain.Atribuicao, error) {
	if a.Status == "" {
		a.Status = domain.StatusAFazer
	}
	if !a.Status.Valido() {
		return domain.Atribuicao{}, fmt.Errorf("%w: %q", ErrStatusInvalido, a.Status)
	}
	a, err := normalizar(a)
	if err != nil {
		return domain.Atribuicao{}, err
	}
	if err := s.exigirObra(ctx, a.ObraID); err != nil {
		return domain.Atribuicao{}, err
	}

	agora := s.clock.Agora()
	a.ID = domain.AtribuicaoID(s.ids.New())
	a.CriadoEm = agora
	a.AtualizadoEm = agora
	a.Checklist, a.Anexos, a.Compras, a.Etiquetas = nil, nil, nil, nil

	a, err = s.repos.Atribuicoes.CriarNoFim(ctx, a)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Atribuicao{}, ErrObraNaoEncontrada
	}
	if err != nil {
		return domain.Atribuicao{}, err
	}

	s.emitir(ctx, domain.EventoAtribuicaoCriada, a, autor, map[string]string{"status": string(a.Status)})
	return a, nil
}

// Atualizar grava os dados da atribuição; status e posição só mudam por Mover.
func (s *Service) Atualizar(ctx context.Context, a domain.Atribuicao) (domain.Atribuicao, error) {
	atual, err := s.Obter(ctx, a.ID)
	if err != nil {
		return domain.Atribuicao{}, err
	}
	a.ObraID = atual.ObraID
	a, err = normalizar(a)
	if err != nil {
		return domain.Atribuicao{}, err
	}

	atual.Titulo = a.Titulo
	atual.Descricao = a.Descricao
	atual.Prioridade = a.Prioridade
	atual.TipoAtribuicao = a.TipoAtribuicao
	atual.EquipeID = a.EquipeID
	atual.PrestadorID = a.PrestadorID
	atual.DataInicio = a.DataInicio
	atual.DataFim = a.DataFim
	atual.DiasTrabalho = a.DiasTrabalho
	atual.AtualizadoEm = s.clock.Agora()

	if err := s.repos.Atribuicoes.Update(ctx, atual); err != nil {
		return domain.Atribuicao{}, err
	}
	return atual, nil
}

// Mover coloca a atribuição na posição indice da coluna status; índices fora do limite vão para as pontas.
func (s *Service) Mover(ctx context.Context, id domain.AtribuicaoID, status domain.StatusAtribuicao, indice int, autor *domain.UsuarioID) (domain.Atribuicao, error) {
	if !status.Valido() {
		return domain.Atribuicao{}, fmt.Errorf("%w: %q", ErrStatusInvalido, status)
	}
	antes, err := s.Obter(ctx, id)
	if err != nil {
		return domain.Atribuicao{}, err
	}

	movida, err := s.repos.Atribuicoes.Mover(ctx, id, status, indice)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Atribuicao{}, ErrAtribuicaoNaoEncontrada
	}
	if err != nil {
		return domain.Atribuicao{}, err
	}

	if antes.Status != movida.Status {
		metrics.IncTransicao("atribuicao", string(movida.Status))
	}
	s.emitir(ctx, domain.EventoAtribuicaoMovida, movida, autor, map[string]string{
		"de":     string(antes.Status),
		"para":   string(movida.Status),
		"indice": fmt.Sprint(movida.Ordem),
	})
	return movida, nil
}

// DefinirDias troca a lista explícita de dias de trabalho; cada dia precisa estar no intervalo da atribuição.
func (s *Service) DefinirDias(ctx context.Context, id domain.AtribuicaoID, dias []string) (domain.Atribuicao, error) {
	a, err := s.Obter(ctx, id)
	if err != nil {
		return domain.Atribuicao{}, err
	}
	a.DiasTrabalho = dias
	if err := validarDias(&a); err != nil {
		return domain.Atribuicao{}, err
	}
	if err := s.repos.Atribuicoes.DefinirDias(ctx, id, a.DiasTrabalho); err != nil {
		return domain.Atribuicao{}, err
	}
	return a, nil
}

// Excluir remove a atribuição, seus dependentes e os arquivos dos anexos.
func (s *Service) Excluir(ctx context.Context, id domain.AtribuicaoID, autor *domain.UsuarioID) error {
	a, err := s.Obter(ctx, id)
	if err != nil {
		return err
	}
	anexos, err := s.repos.Anexos.ListByAtribuicao(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repos.Atribuicoes.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAtribuicaoNaoEncontrada
		}
		return err
	}

	for _, anexo := range anexos {
		s.removerArquivo(ctx, anexo)
	}
	s.emitir(ctx, domain.EventoAtribuicaoExcluida, a, autor, map[string]string{"titulo": a.Titulo})
	return nil
}

func (s *Service) exigirObra(ctx context.Context, id domain.ObraID) error {
	if id == "" {
		return fmt.Errorf("%w: obra obrigatoria", ErrAtribuicaoInvalida)
	}
	if _, err := s.repos.Obras.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrObraNaoEncontrada
		}
		return err
	}
	return nil
}

// exigirPersistida garante que sub-recursos só sejam criados para atribuições já gravadas.
func (s *Service) exigirPersistida(ctx context.Context, id domain.AtribuicaoID) (domain.Atribuicao, error) {
	if id == "" {
		return domain.Atribuicao{}, fmt.Errorf("%w: atribuicao ainda nao salva", ErrAtribuicaoInvalida)
	}
	return s.Obter(ctx, id)
}

func (s *Service) removerArquivo(ctx context.Context, anexo domain.Anexo) {
	if s.arquivos == nil || anexo.Chave == "" {
		return
	}
	if err := s.arquivos.Remover(ctx, anexo.Chave); err != nil {
		logger.Warn("falha ao remover arquivo de anexo", "anexo", anexo.ID, "chave", anexo.Chave, "error", err)
	}
}

func (s *Service) emitir(ctx context.Context, tipo domain.TipoEvento, a domain.Atribuicao, autor *domain.UsuarioID, dados map[string]string) {
	obra := a.ObraID
	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:      tipo,
		Recurso:   "atribuicao",
		RecursoID: string(a.ID),
		ObraID:    &obra,
		UsuarioID: autor,
		Dados:     dados,
	})
}

func normalizar(a domain.Atribuicao) (domain.Atribuicao, error) {
	a.Titulo = strings.TrimSpace(a.Titulo)
	if a.Titulo == "" {
		return a, fmt.Errorf("%w: titulo obrigatorio", ErrAtribuicaoInvalida)
	}
	if a.Prioridade == "" {
		a.Prioridade = domain.PrioridadeMedia
	}
	if !a.Prioridade.Valida() {
		return a, fmt.Errorf("%w: prioridade %q", ErrAtribuicaoInvalida, a.Prioridade)
	}

	switch a.TipoAtribuicao {
	case domain.AtribuicaoEquipe:
		if a.EquipeID == nil || *a.EquipeID == "" || a.PrestadorID != nil {
			return a, fmt.Errorf("%w: atribuicao de equipe exige somente equipe_id", ErrAtribuicaoInvalida)
		}
	case domain.AtribuicaoPrestador:
		if a.PrestadorID == nil || *a.PrestadorID == "" || a.EquipeID != nil {
			return a, fmt.Errorf("%w: atribuicao de prestador exige somente prestador_id", ErrAtribuicaoInvalida)
		}
	default:
		return a, fmt.Errorf("%w: tipo_atribuicao %q", ErrAtribuicaoInvalida, a.TipoAtribuicao)
	}

	if a.DataInicio != nil && a.DataFim != nil && a.DataFim.Before(*a.DataInicio) {
		return a, fmt.Errorf("%w: data_fim anterior a data_inicio", ErrAtribuicaoInvalida)
	}
	if err := validarDias(&a); err != nil {
		return a, err
	}
	return a, nil
}

// validarDias normaliza a lista (sem repetição, ordenada) e confere contra os candidatos do intervalo.
func validarDias(a *domain.Atribuicao) error {
	if len(a.DiasTrabalho) == 0 {
		a.DiasTrabalho = nil
		return nil
	}
	if a.DataInicio == nil || a.DataFim == nil {
		return fmt.Errorf("%w: dias exigem data_inicio e data_fim", ErrDiasInvalidos)
	}

	vistos := make(map[string]struct{}, len(a.DiasTrabalho))
	dias := make([]string, 0, len(a.DiasTrabalho))
	for _, d := range a.DiasTrabalho {
		t, err := domain.ParseDia(d)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDiasInvalidos, err)
		}
		d = domain.FormatarDia(t)
		if _, ok := vistos[d]; ok {
			continue
		}
		vistos[d] = struct{}{}
		dias = append(dias, d)
	}
	if fora := domain.DiasForaDoIntervalo(dias, *a.DataInicio, *a.DataFim); len(fora) > 0 {
		return fmt.Errorf("%w: %s", ErrDiasInvalidos, strings.Join(fora, ", "))
	}
	sort.Strings(dias)
	a.DiasTrabalho = dias
	return nil
}
