// Pacote orcamento mantém o orçamento de cada obra e gera propostas versionadas em PDF.
package orcamento

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/eventos"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
	"github.com/marcelojr/gestao-obras/internal/platform/pdf"
	"github.com/marcelojr/gestao-obras/internal/platform/planilha"
)

var (
	ErrObraNaoEncontrada      = errors.New("obra nao encontrada")
	ErrOrcamentoNaoEncontrado = errors.New("orcamento nao encontrado")
	ErrOrcamentoExistente     = errors.New("obra ja possui orcamento")
	ErrBDIInvalido            = errors.New("bdi deve estar entre 0 e 100")
	ErrItemInvalido           = errors.New("item de orcamento invalido")
	ErrItemNaoEncontrado      = errors.New("item de orcamento nao encontrado")
	ErrNegocioNaoEncontrado   = errors.New("negocio nao encontrado")
	ErrNegocioSemObra         = errors.New("negocio sem obra vinculada")
	ErrMargemInvalida         = errors.New("margem deve ser positiva")
	ErrPropostaConcorrente    = errors.New("outra proposta foi gerada ao mesmo tempo")
)

type Repositorios struct {
	Obras      domain.ObraRepository
	Orcamentos domain.OrcamentoRepository
	Negocios   domain.NegocioRepository
	Leads      domain.LeadRepository
	Propostas  domain.PropostaRepository
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

// Obter devolve a árvore do orçamento com totais sem e com BDI.
func (s *Service) Obter(ctx context.Context, obra domain.ObraID) (domain.ResumoOrcamento, error) {
	o, err := s.buscar(ctx, obra)
	if err != nil {
		return domain.ResumoOrcamento{}, err
	}
	return domain.CalcularOrcamento(o), nil
}

func (s *Service) Criar(ctx context.Context, obra domain.ObraID, bdi decimal.Decimal) (domain.ResumoOrcamento, error) {
	if err := validarBDI(bdi); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	if err := s.exigirObra(ctx, obra); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	o, err := s.criar(ctx, obra, bdi)
	if err != nil {
		return domain.ResumoOrcamento{}, err
	}
	return domain.CalcularOrcamento(o), nil
}

func (s *Service) criar(ctx context.Context, obra domain.ObraID, bdi decimal.Decimal) (domain.Orcamento, error) {
	agora := s.clock.Agora()
	o := domain.Orcamento{
		ID:           domain.OrcamentoID(s.ids.New()),
		ObraID:       obra,
		BDI:          bdi,
		CriadoEm:     agora,
		AtualizadoEm: agora,
	}
	if err := s.repos.Orcamentos.Create(ctx, o); err != nil {
		if errors.Is(err, domain.ErrConflito) {
			return domain.Orcamento{}, ErrOrcamentoExistente
		}
		return domain.Orcamento{}, err
	}
	return o, nil
}

func (s *Service) AtualizarBDI(ctx context.Context, obra domain.ObraID, bdi decimal.Decimal) (domain.ResumoOrcamento, error) {
	if err := validarBDI(bdi); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	o, err := s.buscar(ctx, obra)
	if err != nil {
		return domain.ResumoOrcamento{}, err
	}
	if err := s.repos.Orcamentos.AtualizarBDI(ctx, o.ID, bdi); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	o.BDI = bdi
	return domain.CalcularOrcamento(o), nil
}

// AdicionarItem insere o item no fim do orçamento; o pai, quando informado, precisa ser uma etapa.
func (s *Service) AdicionarItem(ctx context.Context, obra domain.ObraID, item domain.ItemOrcamento) (domain.ResumoOrcamento, error) {
	o, err := s.buscar(ctx, obra)
	if err != nil {
		return domain.ResumoOrcamento{}, err
	}
	if err := normalizarItem(&item); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	if item.PaiID != nil {
		pai, ok := encontrarItem(o.Itens, *item.PaiID)
		if !ok {
			return domain.ResumoOrcamento{}, fmt.Errorf("%w: pai %s inexistente", ErrItemInvalido, *item.PaiID)
		}
		if pai.Tipo != domain.ItemEtapa {
			return domain.ResumoOrcamento{}, fmt.Errorf("%w: pai precisa ser etapa", ErrItemInvalido)
		}
	}

	item.ID = domain.ItemOrcamentoID(s.ids.New())
	item.OrcamentoID = o.ID
	item.Ordem = proximaOrdem(o.Itens)
	if err := s.repos.Orcamentos.AdicionarItem(ctx, item); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	o.Itens = append(o.Itens, item)
	return domain.CalcularOrcamento(o), nil
}

// RemoverItem apaga o item; etapas levam junto os itens agrupados nelas.
func (s *Service) RemoverItem(ctx context.Context, obra domain.ObraID, item domain.ItemOrcamentoID) (domain.ResumoOrcamento, error) {
	o, err := s.buscar(ctx, obra)
	if err != nil {
		return domain.ResumoOrcamento{}, err
	}
	if err := s.repos.Orcamentos.RemoverItem(ctx, o.ID, item); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ResumoOrcamento{}, ErrItemNaoEncontrado
		}
		return domain.ResumoOrcamento{}, err
	}
	return s.Obter(ctx, obra)
}

// Importar substitui todos os itens pelo conteúdo da planilha numa única transação.
// Obras sem orçamento ganham um com BDI zero.
func (s *Service) Importar(ctx context.Context, obra domain.ObraID, nomeArquivo string, conteudo io.Reader, autor *domain.UsuarioID) (domain.ResumoOrcamento, error) {
	if err := planilha.ValidarNome(nomeArquivo); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	if err := s.exigirObra(ctx, obra); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	linhas, err := planilha.Ler(conteudo)
	if err != nil {
		return domain.ResumoOrcamento{}, err
	}

	o, err := s.buscar(ctx, obra)
	if errors.Is(err, ErrOrcamentoNaoEncontrado) {
		o, err = s.criar(ctx, obra, decimal.Zero)
	}
	if err != nil {
		return domain.ResumoOrcamento{}, err
	}

	itens := make([]domain.ItemOrcamento, len(linhas))
	for i, l := range linhas {
		itens[i] = domain.ItemOrcamento{
			ID:            domain.ItemOrcamentoID(s.ids.New()),
			OrcamentoID:   o.ID,
			Tipo:          l.Tipo,
			Codigo:        l.Codigo,
			Descricao:     l.Descricao,
			Unidade:       l.Unidade,
			Quantidade:    l.Quantidade,
			CustoUnitario: l.CustoUnitario,
			Ordem:         i,
		}
		if l.Etapa >= 0 {
			pai := itens[l.Etapa].ID
			itens[i].PaiID = &pai
		}
	}
	if err := s.repos.Orcamentos.SubstituirItens(ctx, o.ID, itens); err != nil {
		return domain.ResumoOrcamento{}, err
	}
	o.Itens = itens

	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:      domain.EventoOrcamentoImportado,
		Recurso:   "orcamento",
		RecursoID: string(o.ID),
		ObraID:    &obra,
		UsuarioID: autor,
		Dados:     map[string]string{"arquivo": nomeArquivo, "itens": strconv.Itoa(len(itens))},
	})
	return domain.CalcularOrcamento(o), nil
}

// GerarProposta congela o orçamento da obra do negócio, aplica a margem e guarda o PDF.
// Cada chamada cria uma nova versão; propostas anteriores não mudam.
func (s *Service) GerarProposta(ctx context.Context, negocioID domain.NegocioID, margem decimal.Decimal, autor *domain.UsuarioID) (domain.Proposta, error) {
	if !margem.IsPositive() {
		return domain.Proposta{}, ErrMargemInvalida
	}
	n, err := s.repos.Negocios.FindByID(ctx, negocioID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Proposta{}, ErrNegocioNaoEncontrado
	}
	if err != nil {
		return domain.Proposta{}, err
	}
	if n.ObraID == nil {
		return domain.Proposta{}, ErrNegocioSemObra
	}
	obra, err := s.repos.Obras.FindByID(ctx, *n.ObraID)
	if err != nil {
		return domain.Proposta{}, err
	}
	o, err := s.buscar(ctx, obra.ID)
	if err != nil {
		return domain.Proposta{}, err
	}
	cliente := obra.Cliente
	if lead, err := s.repos.Leads.FindByID(ctx, n.LeadID); err == nil {
		cliente = lead.Nome
		if lead.Empresa != "" {
			cliente = lead.Empresa
		}
	}

	ultima, err := s.repos.Propostas.UltimaVersao(ctx, negocioID)
	if err != nil {
		return domain.Proposta{}, err
	}
	resumo := domain.CalcularOrcamento(o)
	agora := s.clock.Agora()
	p := domain.Proposta{
		ID:          domain.PropostaID(s.ids.New()),
		NegocioID:   negocioID,
		OrcamentoID: o.ID,
		Versao:      ultima + 1,
		Margem:      margem,
		TotalBase:   resumo.TotalComBDI.Round(2),
		TotalFinal:  domain.TotalProposta(resumo, margem),
		CriadoEm:    agora,
	}

	snapshot, err := json.Marshal(resumo)
	if err != nil {
		return domain.Proposta{}, fmt.Errorf("orcamento: snapshot: %w", err)
	}
	p.Snapshot = datatypes.JSON(snapshot)

	var buf bytes.Buffer
	if err := pdf.RenderizarProposta(&buf, pdf.DadosProposta{
		Titulo:     n.Titulo,
		Cliente:    cliente,
		Obra:       obra.Nome,
		Versao:     p.Versao,
		EmitidaEm:  agora,
		Margem:     margem,
		Resumo:     resumo,
		TotalFinal: p.TotalFinal,
	}); err != nil {
		return domain.Proposta{}, err
	}
	chave, err := s.arquivos.Salvar(ctx, fmt.Sprintf("proposta-v%d.pdf", p.Versao), &buf)
	if err != nil {
		return domain.Proposta{}, err
	}
	p.ArquivoURL = s.arquivos.URL(chave)

	if err := s.repos.Propostas.Create(ctx, p); err != nil {
		_ = s.arquivos.Remover(ctx, chave)
		if errors.Is(err, domain.ErrConflito) {
			return domain.Proposta{}, ErrPropostaConcorrente
		}
		return domain.Proposta{}, err
	}

	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:       domain.EventoPropostaGerada,
		Recurso:    "negocio",
		RecursoID:  string(negocioID),
		ObraID:     n.ObraID,
		UsuarioID:  autor,
		Dados:      map[string]string{"versao": strconv.Itoa(p.Versao), "total": p.TotalFinal.StringFixed(2)},
		OcorridoEm: agora,
	})
	return p, nil
}

func (s *Service) ListarPropostas(ctx context.Context, negocioID domain.NegocioID) ([]domain.Proposta, error) {
	if _, err := s.repos.Negocios.FindByID(ctx, negocioID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNegocioNaoEncontrado
		}
		return nil, err
	}
	return s.repos.Propostas.ListByNegocio(ctx, negocioID)
}

func (s *Service) buscar(ctx context.Context, obra domain.ObraID) (domain.Orcamento, error) {
	o, err := s.repos.Orcamentos.FindByObra(ctx, obra)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Orcamento{}, ErrOrcamentoNaoEncontrado
	}
	return o, err
}

func (s *Service) exigirObra(ctx context.Context, obra domain.ObraID) error {
	if _, err := s.repos.Obras.FindByID(ctx, obra); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrObraNaoEncontrada
		}
		return err
	}
	return nil
}

var cem = decimal.NewFromInt(100)

func validarBDI(bdi decimal.Decimal) error {
	if bdi.IsNegative() || bdi.GreaterThan(cem) {
		return fmt.Errorf("%w: %s", ErrBDIInvalido, bdi)
	}
	return nil
}

func normalizarItem(item *domain.ItemOrcamento) error {
	item.Descricao = strings.TrimSpace(item.Descricao)
	if item.Descricao == "" {
		return fmt.Errorf("%w: descricao obrigatoria", ErrItemInvalido)
	}
	switch item.Tipo {
	case domain.ItemEtapa:
		item.Quantidade, item.CustoUnitario = decimal.Zero, decimal.Zero
	case domain.ItemCusto:
		if item.Quantidade.IsNegative() || item.CustoUnitario.IsNegative() {
			return fmt.Errorf("%w: valores negativos", ErrItemInvalido)
		}
	default:
		return fmt.Errorf("%w: tipo %q", ErrItemInvalido, item.Tipo)
	}
	return nil
}

func encontrarItem(itens []domain.ItemOrcamento, id domain.ItemOrcamentoID) (domain.ItemOrcamento, bool) {
	for _, it := range itens {
		if it.ID == id {
			return it, true
		}
	}
	return domain.ItemOrcamento{}, false
}

func proximaOrdem(itens []domain.ItemOrcamento) int {
	ordem := 0
	for _, it := range itens {
		if it.Ordem >= ordem {
			ordem = it.Ordem + 1
		}
	}
	return ordem
}
