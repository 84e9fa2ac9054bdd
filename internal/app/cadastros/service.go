// Pacote cadastros mantém obras, especialidades, prestadores e equipes.
package cadastros

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
)

var (
	ErrObraInvalida               = errors.New("obra invalida")
	ErrObraNaoEncontrada          = errors.New("obra nao encontrada")
	ErrEspecialidadeInvalida      = errors.New("especialidade invalida")
	ErrEspecialidadeNaoEncontrada = errors.New("especialidade nao encontrada")
	ErrPrestadorInvalido          = errors.New("prestador invalido")
	ErrPrestadorNaoEncontrado     = errors.New("prestador nao encontrado")
	ErrEquipeInvalida             = errors.New("equipe invalida")
	ErrEquipeNaoEncontrada        = errors.New("equipe nao encontrada")
	ErrMembroInvalido             = errors.New("membro de equipe invalido")
	ErrMembroDuplicado            = errors.New("integrante ja faz parte da equipe")
	ErrMembroNaoEncontrado        = errors.New("membro nao encontrado")
	ErrDuplicado                  = errors.New("cadastro duplicado")
)

type Service struct {
	obras          domain.ObraRepository
	especialidades domain.EspecialidadeRepository
	prestadores    domain.PrestadorRepository
	equipes        domain.EquipeRepository
	usuarios       domain.UsuarioRepository
	clock          domain.Clock
	ids            *ids.Generator
}

func NewService(
	obras domain.ObraRepository,
	especialidades domain.EspecialidadeRepository,
	prestadores domain.PrestadorRepository,
	equipes domain.EquipeRepository,
	usuarios domain.UsuarioRepository,
	clock domain.Clock,
	idsGen *ids.Generator,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		obras:          obras,
		especialidades: especialidades,
		prestadores:    prestadores,
		equipes:        equipes,
		usuarios:       usuarios,
		clock:          clock,
		ids:            idsGen,
	}
}

func (s *Service) CriarObra(ctx context.Context, o domain.Obra) (domain.Obra, error) {
	if o.Status == "" {
		o.Status = domain.ObraAtiva
	}
	if err := validarObra(&o); err != nil {
		return domain.Obra{}, err
	}
	agora := s.clock.Agora()
	o.ID = domain.ObraID(s.ids.New())
	o.CriadoEm = agora
	o.AtualizadoEm = agora
	if err := s.obras.Create(ctx, o); err != nil {
		return domain.Obra{}, err
	}
	return o, nil
}

func (s *Service) AtualizarObra(ctx context.Context, o domain.Obra) (domain.Obra, error) {
	atual, err := s.ObterObra(ctx, o.ID)
	if err != nil {
		return domain.Obra{}, err
	}
	if o.Status == "" {
		o.Status = atual.Status
	}
	if err := validarObra(&o); err != nil {
		return domain.Obra{}, err
	}
	o.CriadoEm = atual.CriadoEm
	o.AtualizadoEm = s.clock.Agora()
	if err := s.obras.Update(ctx, o); err != nil {
		return domain.Obra{}, err
	}
	return o, nil
}

func (s *Service) ObterObra(ctx context.Context, id domain.ObraID) (domain.Obra, error) {
	o, err := s.obras.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Obra{}, ErrObraNaoEncontrada
	}
	return o, err
}

func (s *Service) ListarObras(ctx context.Context) ([]domain.Obra, error) {
	return s.obras.List(ctx)
}

func validarObra(o *domain.Obra) error {
	o.Nome = strings.TrimSpace(o.Nome)
	if o.Nome == "" {
		return fmt.Errorf("%w: nome obrigatorio", ErrObraInvalida)
	}
	if !o.Status.Valido() {
		return fmt.Errorf("%w: status %q", ErrObraInvalida, o.Status)
	}
	if o.DataInicio != nil && o.DataPrevista != nil && o.DataPrevista.Before(*o.DataInicio) {
		return fmt.Errorf("%w: data prevista anterior ao inicio", ErrObraInvalida)
	}
	return nil
}

func (s *Service) CriarEspecialidade(ctx context.Context, nome string) (domain.Especialidade, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return domain.Especialidade{}, fmt.Errorf("%w: nome obrigatorio", ErrEspecialidadeInvalida)
	}
	e := domain.Especialidade{ID: domain.EspecialidadeID(s.ids.New()), Nome: nome, CriadoEm: s.clock.Agora()}
	if err := s.especialidades.Create(ctx, e); err != nil {
		if errors.Is(err, domain.ErrConflito) {
			return domain.Especialidade{}, fmt.Errorf("%w: especialidade %s", ErrDuplicado, nome)
		}
		return domain.Especialidade{}, err
	}
	return e, nil
}

func (s *Service) ListarEspecialidades(ctx context.Context) ([]domain.Especialidade, error) {
	return s.especialidades.List(ctx)
}

func (s *Service) CriarPrestador(ctx context.Context, p domain.Prestador) (domain.Prestador, error) {
	if err := s.validarPrestador(ctx, &p); err != nil {
		return domain.Prestador{}, err
	}
	agora := s.clock.Agora()
	p.ID = domain.PrestadorID(s.ids.New())
	p.CriadoEm = agora
	p.AtualizadoEm = agora
	if err := s.prestadores.Create(ctx, p); err != nil {
		return domain.Prestador{}, err
	}
	return p, nil
}

func (s *Service) AtualizarPrestador(ctx context.Context, p domain.Prestador) (domain.Prestador, error) {
	atual, err := s.ObterPrestador(ctx, p.ID)
	if err != nil {
		return domain.Prestador{}, err
	}
	if err := s.validarPrestador(ctx, &p); err != nil {
		return domain.Prestador{}, err
	}
	p.CriadoEm = atual.CriadoEm
	p.AtualizadoEm = s.clock.Agora()
	if err := s.prestadores.Update(ctx, p); err != nil {
		return domain.Prestador{}, err
	}
	return p, nil
}

func (s *Service) ObterPrestador(ctx context.Context, id domain.PrestadorID) (domain.Prestador, error) {
	p, err := s.prestadores.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Prestador{}, ErrPrestadorNaoEncontrado
	}
	return p, err
}

func (s *Service) ListarPrestadores(ctx context.Context) ([]domain.Prestador, error) {
	return s.prestadores.List(ctx)
}

func (s *Service) validarPrestador(ctx context.Context, p *domain.Prestador) error {
	p.Nome = strings.TrimSpace(p.Nome)
	p.Email = strings.TrimSpace(p.Email)
	if p.Nome == "" {
		return fmt.Errorf("%w: nome obrigatorio", ErrPrestadorInvalido)
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("%w: email %q", ErrPrestadorInvalido, p.Email)
		}
	}

	p.CPF = domain.SomenteDigitos(p.CPF)
	p.CNPJ = domain.SomenteDigitos(p.CNPJ)
	switch p.TipoPessoa {
	case domain.PessoaFisica:
		if !domain.CPFValido(p.CPF) {
			return fmt.Errorf("%w: cpf invalido", ErrPrestadorInvalido)
		}
		p.CNPJ = ""
	case domain.PessoaJuridica:
		if !domain.CNPJValido(p.CNPJ) {
			return fmt.Errorf("%w: cnpj invalido", ErrPrestadorInvalido)
		}
		p.CPF = ""
	default:
		return fmt.Errorf("%w: tipo_pessoa %q", ErrPrestadorInvalido, p.TipoPessoa)
	}

	if err := validarPix(p); err != nil {
		return err
	}
	if err := validarContrato(p); err != nil {
		return err
	}

	if p.EspecialidadeID != nil {
		if _, err := s.especialidades.FindByID(ctx, *p.EspecialidadeID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return ErrEspecialidadeNaoEncontrada
			}
			return err
		}
	}
	return nil
}

func validarPix(p *domain.Prestador) error {
	p.PixChave = strings.TrimSpace(p.PixChave)
	if p.PixTipo == "" && p.PixChave == "" {
		return nil
	}
	if !p.PixTipo.Valido() || p.PixChave == "" {
		return fmt.Errorf("%w: chave pix incompleta", ErrPrestadorInvalido)
	}

	valida := true
	switch p.PixTipo {
	case domain.PixCPF:
		p.PixChave = domain.SomenteDigitos(p.PixChave)
		valida = domain.CPFValido(p.PixChave)
	case domain.PixCNPJ:
		p.PixChave = domain.SomenteDigitos(p.PixChave)
		valida = domain.CNPJValido(p.PixChave)
	case domain.PixEmail:
		_, err := mail.ParseAddress(p.PixChave)
		valida = err == nil
	case domain.PixTelefone:
		digitos := domain.SomenteDigitos(p.PixChave)
		valida = len(digitos) >= 10 && len(digitos) <= 13
		p.PixChave = digitos
	case domain.PixAleatoria:
		_, err := uuid.Parse(p.PixChave)
		valida = err == nil
	}
	if !valida {
		return fmt.Errorf("%w: chave pix %s invalida", ErrPrestadorInvalido, p.PixTipo)
	}
	return nil
}

// validarContrato exige o valor do tipo de contrato e zera os demais.
func validarContrato(p *domain.Prestador) error {
	var valor decimal.Decimal
	switch p.TipoContrato {
	case domain.ContratoDiaria:
		valor = p.ValorDiaria
		p.ValorEmpreitada, p.SalarioMensal = decimal.Zero, decimal.Zero
	case domain.ContratoEmpreitada:
		valor = p.ValorEmpreitada
		p.ValorDiaria, p.SalarioMensal = decimal.Zero, decimal.Zero
	case domain.ContratoFolha:
		valor = p.SalarioMensal
		p.ValorDiaria, p.ValorEmpreitada = decimal.Zero, decimal.Zero
	default:
		return fmt.Errorf("%w: tipo_contrato %q", ErrPrestadorInvalido, p.TipoContrato)
	}
	if !valor.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: valor do contrato %s deve ser positivo", ErrPrestadorInvalido, p.TipoContrato)
	}
	return nil
}

func (s *Service) CriarEquipe(ctx context.Context, e domain.Equipe) (domain.Equipe, error) {
	e.Nome = strings.TrimSpace(e.Nome)
	if e.Nome == "" {
		return domain.Equipe{}, fmt.Errorf("%w: nome obrigatorio", ErrEquipeInvalida)
	}
	agora := s.clock.Agora()
	e.ID = domain.EquipeID(s.ids.New())
	e.Ativa = true
	e.Membros = nil
	e.CriadoEm = agora
	e.AtualizadoEm = agora
	if err := s.equipes.Create(ctx, e); err != nil {
		return domain.Equipe{}, err
	}
	return e, nil
}

func (s *Service) ObterEquipe(ctx context.Context, id domain.EquipeID) (domain.Equipe, error) {
	e, err := s.equipes.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Equipe{}, ErrEquipeNaoEncontrada
	}
	return e, err
}

func (s *Service) ListarEquipes(ctx context.Context) ([]domain.Equipe, error) {
	return s.equipes.List(ctx)
}

// AdicionarMembro aceita um prestador ou um usuário; o mesmo integrante não entra duas vezes.
func (s *Service) AdicionarMembro(ctx context.Context, equipe domain.EquipeID, m domain.MembroEquipe) (domain.Equipe, error) {
	if (m.PrestadorID == nil) == (m.UsuarioID == nil) {
		return domain.Equipe{}, fmt.Errorf("%w: informe prestador_id ou usuario_id", ErrMembroInvalido)
	}
	if m.Papel == "" {
		m.Papel = domain.PapelComum
	}
	if m.Papel != domain.PapelLider && m.Papel != domain.PapelComum {
		return domain.Equipe{}, fmt.Errorf("%w: papel %q", ErrMembroInvalido, m.Papel)
	}

	e, err := s.ObterEquipe(ctx, equipe)
	if err != nil {
		return domain.Equipe{}, err
	}
	for _, existente := range e.Membros {
		if existente.MesmoIntegrante(m) {
			return domain.Equipe{}, ErrMembroDuplicado
		}
	}
	if err := s.exigirIntegrante(ctx, m); err != nil {
		return domain.Equipe{}, err
	}

	m.ID = domain.MembroEquipeID(s.ids.New())
	m.EquipeID = equipe
	m.CriadoEm = s.clock.Agora()
	if err := s.equipes.AdicionarMembro(ctx, m); err != nil {
		if errors.Is(err, domain.ErrConflito) {
			return domain.Equipe{}, ErrMembroDuplicado
		}
		return domain.Equipe{}, err
	}
	return s.ObterEquipe(ctx, equipe)
}

func (s *Service) RemoverMembro(ctx context.Context, equipe domain.EquipeID, membro domain.MembroEquipeID) error {
	err := s.equipes.RemoverMembro(ctx, equipe, membro)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrMembroNaoEncontrado
	}
	return err
}

func (s *Service) exigirIntegrante(ctx context.Context, m domain.MembroEquipe) error {
	if m.PrestadorID != nil {
		_, err := s.ObterPrestador(ctx, *m.PrestadorID)
		return err
	}
	if _, err := s.usuarios.FindByID(ctx, *m.UsuarioID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: usuario %s inexistente", ErrMembroInvalido, *m.UsuarioID)
		}
		return err
	}
	return nil
}
