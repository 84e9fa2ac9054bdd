package acesso

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/marcelojr/gestao-obras/internal/domain"
	"github.com/marcelojr/gestao-obras/internal/platform/ids"
)

var (
	ErrUsuarioInvalido      = errors.New("usuario invalido")
	ErrUsuarioNaoEncontrado = errors.New("usuario nao encontrado")
	ErrUsuarioDuplicado     = errors.New("email ja cadastrado")
	ErrPaginaInvalida       = errors.New("pagina invalida")
	ErrPermissaoInexistente = errors.New("permissao personalizada inexistente")
	ErrNaoIdentificado      = errors.New("usuario nao identificado")
	ErrAcessoNegado         = errors.New("acesso negado")
)

type Service struct {
	usuarios domain.UsuarioRepository
	clock    domain.Clock
	ids      *ids.Generator
}

func NewService(usuarios domain.UsuarioRepository, clock domain.Clock, idsGen *ids.Generator) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{usuarios: usuarios, clock: clock, ids: idsGen}
}

func (s *Service) CriarUsuario(ctx context.Context, u domain.Usuario) (domain.Usuario, error) {
	u.Nome = strings.TrimSpace(u.Nome)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Nome == "" {
		return domain.Usuario{}, fmt.Errorf("%w: nome obrigatorio", ErrUsuarioInvalido)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return domain.Usuario{}, fmt.Errorf("%w: email %q", ErrUsuarioInvalido, u.Email)
	}
	if !TipoValido(u.Tipo) {
		return domain.Usuario{}, fmt.Errorf("%w: tipo %q", ErrUsuarioInvalido, u.Tipo)
	}

	agora := s.clock.Agora()
	u.ID = domain.UsuarioID(s.ids.New())
	u.Ativo = true
	u.Permissoes = nil
	u.CriadoEm, u.AtualizadoEm = agora, agora
	if err := s.usuarios.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflito) {
			return domain.Usuario{}, ErrUsuarioDuplicado
		}
		return domain.Usuario{}, err
	}
	return u, nil
}

func (s *Service) ListarUsuarios(ctx context.Context) ([]domain.Usuario, error) {
	return s.usuarios.List(ctx)
}

func (s *Service) ObterUsuario(ctx context.Context, id domain.UsuarioID) (domain.Usuario, error) {
	u, err := s.usuarios.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Usuario{}, ErrUsuarioNaoEncontrado
	}
	return u, err
}

// DefinirPermissao grava (ou sobrescreve) a permissão personalizada do usuário para a página.
func (s *Service) DefinirPermissao(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina, nivel domain.NivelAcesso) (domain.Usuario, error) {
	if !pagina.Valida() {
		return domain.Usuario{}, fmt.Errorf("%w: %q", ErrPaginaInvalida, pagina)
	}
	if _, err := s.ObterUsuario(ctx, id); err != nil {
		return domain.Usuario{}, err
	}
	if err := s.usuarios.DefinirPermissao(ctx, domain.PermissaoPagina{UsuarioID: id, Pagina: pagina, Nivel: nivel}); err != nil {
		return domain.Usuario{}, err
	}
	return s.ObterUsuario(ctx, id)
}

// RemoverPermissao devolve a página ao nível padrão do tipo de usuário.
func (s *Service) RemoverPermissao(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina) (domain.Usuario, error) {
	if !pagina.Valida() {
		return domain.Usuario{}, fmt.Errorf("%w: %q", ErrPaginaInvalida, pagina)
	}
	if err := s.usuarios.RemoverPermissao(ctx, id, pagina); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Usuario{}, ErrPermissaoInexistente
		}
		return domain.Usuario{}, err
	}
	return s.ObterUsuario(ctx, id)
}

// Autorizar carrega o usuário a cada chamada e confere a ação na página.
func (s *Service) Autorizar(ctx context.Context, id domain.UsuarioID, pagina domain.Pagina, acao Acao) (domain.Usuario, error) {
	if id == "" {
		return domain.Usuario{}, ErrNaoIdentificado
	}
	u, err := s.usuarios.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Usuario{}, ErrNaoIdentificado
	}
	if err != nil {
		return domain.Usuario{}, err
	}
	if !u.Ativo {
		return domain.Usuario{}, fmt.Errorf("%w: usuario %s inativo", ErrNaoIdentificado, id)
	}
	if !PodeExecutar(pagina, acao, &u) {
		return domain.Usuario{}, fmt.Errorf("%w: %s em %s", ErrAcessoNegado, acao, pagina)
	}
	return u, nil
}
