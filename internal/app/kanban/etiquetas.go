package kanban

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

var (
	ErrEtiquetaInvalida      = errors.New("etiqueta invalida")
	ErrEtiquetaNaoEncontrada = errors.New("etiqueta nao encontrada")
	ErrEtiquetaDuplicada     = errors.New("ja existe etiqueta com esse nome")
)

var corHex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func (s *Service) CriarEtiqueta(ctx context.Context, nome, cor string) (domain.Etiqueta, error) {
	nome = strings.TrimSpace(nome)
	cor = strings.TrimSpace(cor)
	if nome == "" {
		return domain.Etiqueta{}, fmt.Errorf("%w: nome obrigatorio", ErrEtiquetaInvalida)
	}
	if cor != "" && !corHex.MatchString(cor) {
		return domain.Etiqueta{}, fmt.Errorf("%w: cor %q", ErrEtiquetaInvalida, cor)
	}

	e := domain.Etiqueta{ID: domain.EtiquetaID(s.ids.New()), Nome: nome, Cor: cor, CriadoEm: s.clock.Agora()}
	if err := s.repos.Etiquetas.Create(ctx, e); err != nil {
		if errors.Is(err, domain.ErrConflito) {
			return domain.Etiqueta{}, fmt.Errorf("%w: %s", ErrEtiquetaDuplicada, nome)
		}
		return domain.Etiqueta{}, err
	}
	return e, nil
}

func (s *Service) ListarEtiquetas(ctx context.Context) ([]domain.Etiqueta, error) {
	return s.repos.Etiquetas.List(ctx)
}

// ExcluirEtiqueta tira a etiqueta do catálogo e de todas as atribuições.
func (s *Service) ExcluirEtiqueta(ctx context.Context, id domain.EtiquetaID, autor *domain.UsuarioID) error {
	if err := s.repos.Etiquetas.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrEtiquetaNaoEncontrada
		}
		return err
	}
	s.eventos.Emitir(ctx, domain.Evento{
		Tipo:      domain.EventoEtiquetaExcluida,
		Recurso:   "etiqueta",
		RecursoID: string(id),
		UsuarioID: autor,
	})
	return nil
}

// AlternarEtiqueta aplica a etiqueta se ausente ou remove se presente.
func (s *Service) AlternarEtiqueta(ctx context.Context, atribuicao domain.AtribuicaoID, etiqueta domain.EtiquetaID) (domain.Atribuicao, error) {
	if _, err := s.exigirPersistida(ctx, atribuicao); err != nil {
		return domain.Atribuicao{}, err
	}
	if _, err := s.repos.Etiquetas.FindByID(ctx, etiqueta); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Atribuicao{}, ErrEtiquetaNaoEncontrada
		}
		return domain.Atribuicao{}, err
	}
	if _, err := s.repos.Etiquetas.Alternar(ctx, atribuicao, etiqueta); err != nil {
		return domain.Atribuicao{}, err
	}
	return s.Obter(ctx, atribuicao)
}
