// Pacote crm implementa o funil comercial: leads, negócios, mudanças de estágio e linha do tempo.
package crm

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/eventos"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
	"github.com/marcelojr/gestao-obras/internal/platform/metrics"
)

var (
	ErrLeadInvalido         = errors.New("lead invalido")
	ErrLeadNaoEncontrado    = errors.New("lead nao encontrado")
	ErrNegocioInvalido      = errors.New("negocio invalido")
	ErrNegocioNaoEncontrado = errors.New("negocio nao encontrado")
	ErrEstagioInvalido      = errors.New("estagio invalido")
	ErrEstagioTerminal      = errors.New("negocio encerrado nao muda de estagio")
	ErrMotivoObrigatorio    = errors.New("motivo da perda obrigatorio")
	ErrInteracaoInvalida    = errors.New("interacao invalida")
	ErrObraJaVinculada      = errors.New("negocio ja possui obra vinculada")
)

type Service struct {
	leads      domain.LeadRepository
	negocios   domain.NegocioRepository
	interacoes domain.InteracaoRepository
	obras      domain.ObraRepository
	eventos    *eventos.Emissor
	clock      domain.Clock
	ids        *ids.Generator
}

func NewService(
	leads domain.LeadRepository,
	negocios domain.NegocioRepository,
	interacoes domain.InteracaoRepository,
	obras domain.ObraRepository,
	emissor *eventos.Emissor,
	clock domain.Clock,
	idsGen *ids.Generator,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		leads:      leads,
		negocios:   negocios,
		interacoes: interacoes,
		obras:      obras,
		eventos:    emissor,
		clock:      clock,
		ids:        idsGen,
	}
}

func (s *Service) CriarLead(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	l, err := normalizarLead(l)
	if err != nil {
		return domain.Lead{}, err
	}
	agora := s.clock.Agora()
	l.ID = domain.LeadID(s.ids.New())
	l.CriadoEm = agora
	l.AtualizadoEm = agora

	if err := s.leads.Create(ctx, l); err != nil {
		return domain.Lead{}, err
	}
	return l, nil
}

func (s *Service) AtualizarLead(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	atual, err := s.ObterLead(ctx, l.ID)
	if err != nil {
		return domain.Lead{}, err
	}
	l, err = normalizarLead(l)
	if err != nil {
		return domain.Lead{}, err
	}
	l.CriadoEm = atual.CriadoEm
	l.AtualizadoEm = s.clock.Agora()

	if err := s.leads.Update(ctx, l); err != nil {
		return domain.Lead{}, err
	}
	return l, nil
}

func (s *Service) ObterLead(ctx context.Context, id domain.LeadID) (domain.Lead, error) {
	l, err := s.leads.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Lead{}, ErrLeadNaoEncontrado
	}
	return l, err
}

func (s *Service) ListarLeads(ctx context.Context) ([]domain.Lead, error) {
	return s.leads.List(ctx)
}

func (s *Service) CriarNegocio(ctx context.Context, n domain.Negocio, autor *domain.UsuarioID) (domain.Negocio, error) {
	if n.Estagio == "" {
		n.Estagio = domain.EstagioProspeccao
	}
	if !n.Estagio.Valido() || n.Estagio.Terminal() {
		return domain.Negocio{}, fmt.Errorf("%w: negocio novo nao pode comecar em %q", ErrEstagioInvalido, n.Estagio)
	}
	if err := s.validarNegocio(ctx, n); err != nil {
		return domain.Negocio{}, err
	}

	agora := s.clock.Agora()
	n.ID = domain.NegocioID(s.ids.New())
	n.MotivoPerda = ""
	n.FechadoEm = nil
	n.CriadoEm = agora
	n.AtualizadoEm = agora

	if err := s.negocios.Create(ctx, n); err != nil {
		return domain.Negocio{}, err
	}

	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:      domain.EventoNegocioCriado,
		Recurso:   "negocio",
		RecursoID: string(n.ID),
		ObraID:    n.ObraID,
		UsuarioID: autor,
		Dados:     map[string]string{"estagio": string(n.Estagio), "titulo": n.Titulo},
	})
	return n, nil
}

// AtualizarNegocio grava os dados cadastrais; o estágio só muda por MoverEstagio.
func (s *Service) AtualizarNegocio(ctx context.Context, n domain.Negocio) (domain.Negocio, error) {
	atual, err := s.ObterNegocio(ctx, n.ID)
	if err != nil {
		return domain.Negocio{}, err
	}
	if err := s.validarNegocio(ctx, n); err != nil {
		return domain.Negocio{}, err
	}

	atual.Titulo = n.Titulo
	atual.Descricao = n.Descricao
	atual.Valor = n.Valor
	atual.LeadID = n.LeadID
	atual.ObraID = n.ObraID
	atual.AtualizadoEm = s.clock.Agora()

	if err := s.negocios.Update(ctx, atual); err != nil {
		return domain.Negocio{}, err
	}
	return atual, nil
}

func (s *Service) ObterNegocio(ctx context.Context, id domain.NegocioID) (domain.Negocio, error) {
	n, err := s.negocios.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Negocio{}, ErrNegocioNaoEncontrado
	}
	return n, err
}

func (s *Service) ListarNegocios(ctx context.Context) ([]domain.Negocio, error) {
	return s.negocios.List(ctx)
}

// MoverEstagio aplica a máquina do funil. Ganhar ativa a obra rascunho vinculada na mesma
// transação; perder exige motivo. Negócios ganhos ou perdidos não mudam mais de estágio.
func (s *Service) MoverEstagio(ctx context.Context, id domain.NegocioID, alvo domain.EstagioNegocio, motivo string, autor *domain.UsuarioID) (domain.Negocio, error) {
	if !alvo.Valido() {
		return domain.Negocio{}, fmt.Errorf("%w: %q", ErrEstagioInvalido, alvo)
	}
	n, err := s.ObterNegocio(ctx, id)
	if err != nil {
		return domain.Negocio{}, err
	}
	if n.Estagio.Terminal() {
		return domain.Negocio{}, fmt.Errorf("%w: estagio atual %s", ErrEstagioTerminal, n.Estagio)
	}
	if n.Estagio == alvo {
		return n, nil
	}

	motivo = strings.TrimSpace(motivo)
	agora := s.clock.Agora()
	de := n.Estagio

	switch alvo {
	case domain.EstagioGanho:
		motivo = ""
		if n, err = s.negocios.Ganhar(ctx, id, agora); err != nil {
			return domain.Negocio{}, erroDeEstagio(err)
		}
	case domain.EstagioPerdido:
		if motivo == "" {
			return domain.Negocio{}, ErrMotivoObrigatorio
		}
		if err := s.negocios.AlterarEstagio(ctx, id, alvo, motivo, &agora); err != nil {
			return domain.Negocio{}, erroDeEstagio(err)
		}
		n.Estagio = alvo
		n.MotivoPerda = motivo
		n.FechadoEm = &agora
		n.AtualizadoEm = agora
	default:
		motivo = ""
		if err := s.negocios.AlterarEstagio(ctx, id, alvo, "", nil); err != nil {
			return domain.Negocio{}, erroDeEstagio(err)
		}
		n.Estagio = alvo
		n.AtualizadoEm = agora
	}

	metrics.IncTransicao("negocio", string(alvo))
	dados := map[string]string{"de": string(de), "para": string(alvo)}
	if motivo != "" {
		dados["motivo"] = motivo
	}
	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:       domain.EventoNegocioEstagio,
		Recurso:    "negocio",
		RecursoID:  string(n.ID),
		ObraID:     n.ObraID,
		UsuarioID:  autor,
		Dados:      dados,
		OcorridoEm: agora,
	})
	return n, nil
}

// erroDeEstagio traduz a recusa da escrita condicional: outra requisição encerrou o negócio
// depois da leitura.
func erroDeEstagio(err error) error {
	switch {
	case errors.Is(err, domain.ErrEncerrado):
		return fmt.Errorf("%w: %v", ErrEstagioTerminal, err)
	case errors.Is(err, domain.ErrNotFound):
		return ErrNegocioNaoEncontrado
	}
	return err
}

// CriarObraParaNegocio cria a obra e a vincula ao negócio numa única operação.
// A obra nasce em rascunho, ou ativa se o negócio já foi ganho.
func (s *Service) CriarObraParaNegocio(ctx context.Context, id domain.NegocioID, obra domain.Obra, autor *domain.UsuarioID) (domain.Negocio, error) {
	n, err := s.ObterNegocio(ctx, id)
	if err != nil {
		return domain.Negocio{}, err
	}
	if n.ObraID != nil {
		return domain.Negocio{}, fmt.Errorf("%w: obra %s", ErrObraJaVinculada, *n.ObraID)
	}

	agora := s.clock.Agora()
	obra.ID = domain.ObraID(s.ids.New())
	obra.Nome = strings.TrimSpace(obra.Nome)
	if obra.Nome == "" {
		obra.Nome = n.Titulo
	}
	obra.Status = domain.ObraRascunho
	if n.Estagio == domain.EstagioGanho {
		obra.Status = domain.ObraAtiva
	}
	obra.CriadoEm = agora
	obra.AtualizadoEm = agora

	vinculado, err := s.negocios.CriarObraVinculada(ctx, id, obra)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Negocio{}, ErrNegocioNaoEncontrado
	}
	if err != nil {
		return domain.Negocio{}, err
	}

	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:       domain.EventoObraVinculada,
		Recurso:    "negocio",
		RecursoID:  string(id),
		ObraID:     &obra.ID,
		UsuarioID:  autor,
		Dados:      map[string]string{"obra": obra.Nome, "status": string(obra.Status)},
		OcorridoEm: agora,
	})
	return vinculado, nil
}

// RegistrarInteracao aceita apenas tipos digitados pelo usuário; entradas "system" vêm do worker.
func (s *Service) RegistrarInteracao(ctx context.Context, id domain.NegocioID, tipo domain.TipoInteracao, texto string, autor *domain.UsuarioID) (domain.Interacao, error) {
	if !tipo.Valido() || tipo == domain.InteracaoSistema {
		return domain.Interacao{}, fmt.Errorf("%w: tipo %q", ErrInteracaoInvalida, tipo)
	}
	return s.registrar(ctx, id, tipo, texto, autor)
}

func (s *Service) RegistrarInteracaoSistema(ctx context.Context, id domain.NegocioID, texto string) (domain.Interacao, error) {
	return s.registrar(ctx, id, domain.InteracaoSistema, texto, nil)
}

func (s *Service) registrar(ctx context.Context, id domain.NegocioID, tipo domain.TipoInteracao, texto string, autor *domain.UsuarioID) (domain.Interacao, error) {
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return domain.Interacao{}, fmt.Errorf("%w: texto obrigatorio", ErrInteracaoInvalida)
	}
	if _, err := s.ObterNegocio(ctx, id); err != nil {
		return domain.Interacao{}, err
	}

	i := domain.Interacao{
		ID:        domain.InteracaoID(s.ids.New()),
		NegocioID: id,
		Tipo:      tipo,
		Texto:     texto,
		AutorID:   autor,
		CriadoEm:  s.clock.Agora(),
	}
	if err := s.interacoes.Create(ctx, i); err != nil {
		return domain.Interacao{}, err
	}
	return i, nil
}

func (s *Service) ListarInteracoes(ctx context.Context, id domain.NegocioID) ([]domain.Interacao, error) {
	if _, err := s.ObterNegocio(ctx, id); err != nil {
		return nil, err
	}
	return s.interacoes.ListByNegocio(ctx, id)
}

func (s *Service) validarNegocio(ctx context.Context, n domain.Negocio) error {
	if strings.TrimSpace(n.Titulo) == "" {
		return fmt.Errorf("%w: titulo obrigatorio", ErrNegocioInvalido)
	}
	if n.Valor.IsNegative() {
		return fmt.Errorf("%w: valor negativo", ErrNegocioInvalido)
	}
	if n.LeadID == "" {
		return fmt.Errorf("%w: lead obrigatorio", ErrNegocioInvalido)
	}
	if _, err := s.ObterLead(ctx, n.LeadID); err != nil {
		return err
	}
	if n.ObraID != nil {
		if _, err := s.obras.FindByID(ctx, *n.ObraID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: obra %s inexistente", ErrNegocioInvalido, *n.ObraID)
			}
			return err
		}
	}
	return nil
}

func normalizarLead(l domain.Lead) (domain.Lead, error) {
	l.Nome = strings.TrimSpace(l.Nome)
	l.Email = strings.TrimSpace(l.Email)
	l.Documento = domain.SomenteDigitos(l.Documento)
	if l.Nome == "" {
		return l, fmt.Errorf("%w: nome obrigatorio", ErrLeadInvalido)
	}
	if l.Email != "" {
		if _, err := mail.ParseAddress(l.Email); err != nil {
			return l, fmt.Errorf("%w: email %q", ErrLeadInvalido, l.Email)
		}
	}
	switch len(l.Documento) {
	case 0:
	case 11:
		if !domain.CPFValido(l.Documento) {
			return l, fmt.Errorf("%w: cpf invalido", ErrLeadInvalido)
		}
	case 14:
		if !domain.CNPJValido(l.Documento) {
			return l, fmt.Errorf("%w: cnpj invalido", ErrLeadInvalido)
		}
	default:
		return l, fmt.Errorf("%w: documento deve ser cpf ou cnpj", ErrLeadInvalido)
	}
	return l, nil
}

// TextoMudancaEstagio é o texto da entrada "system" gravada na linha do tempo.
func TextoMudancaEstagio(de, para domain.EstagioNegocio, motivo string) string {
	texto := fmt.Sprintf("Estágio alterado de %s para %s", NomeEstagio(de), NomeEstagio(para))
	if motivo != "" {
		texto += ". Motivo: " + motivo
	}
	return texto
}

var nomesEstagio = map[domain.EstagioNegocio]string{
	domain.EstagioProspeccao:   "Prospecção",
	domain.EstagioQualificacao: "Qualificação",
	domain.EstagioProposta:     "Proposta",
	domain.EstagioNegociacao:   "Negociação",
	domain.EstagioGanho:        "Ganho",
	domain.EstagioPerdido:      "Perdido",
}

func NomeEstagio(e domain.EstagioNegocio) string {
	if nome, ok := nomesEstagio[e]; ok {
		return nome
	}
	return string(e)
}
