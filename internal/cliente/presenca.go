package cliente

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

var (
	ErrPresencaSemObra      = errors.New("presenca exige obra")
	ErrPrestadorForaDaFolha = errors.New("prestador nao participa da folha carregada")
)

type APIPresenca interface {
	FolhaPresenca(ctx context.Context, dia time.Time) (domain.FolhaPresenca, error)
	RegistrarPresenca(ctx context.Context, dia time.Time, prestador domain.PrestadorID, presente bool, obra *domain.ObraID) (domain.Presenca, error)
}

// FolhaPresenca guarda uma linha por prestador; pendentes e presentes são apenas filtros
// sobre essas linhas.
type FolhaPresenca struct {
	api    APIPresenca
	op     Operador
	dia    time.Time
	linhas []domain.LinhaPresenca
}

func NewFolhaPresenca(api APIPresenca, op Operador) *FolhaPresenca {
	return &FolhaPresenca{api: api, op: op}
}

func (f *FolhaPresenca) Carregar(ctx context.Context, dia time.Time) error {
	folha, err := f.api.FolhaPresenca(ctx, dia)
	if err != nil {
		f.op.Notificar(mensagemDe("Não foi possível carregar a presença", err))
		return err
	}
	f.dia = domain.NormalizarDia(dia)
	f.linhas = append(slices.Clone(folha.Pendentes), folha.Presentes...)
	slices.SortFunc(f.linhas, func(a, b domain.LinhaPresenca) int {
		return strings.Compare(a.Prestador.Nome, b.Prestador.Nome)
	})
	return nil
}

func (f *FolhaPresenca) Dia() time.Time { return f.dia }

func (f *FolhaPresenca) filtrar(presente bool) []domain.LinhaPresenca {
	var r []domain.LinhaPresenca
	for _, l := range f.linhas {
		if l.Presenca.Presente == presente {
			r = append(r, l)
		}
	}
	return r
}

func (f *FolhaPresenca) Pendentes() []domain.LinhaPresenca { return f.filtrar(false) }

func (f *FolhaPresenca) Presentes() []domain.LinhaPresenca { return f.filtrar(true) }

// DefinirPresenca valida antes de qualquer chamada: presente exige obra e desmarcar um
// presente pede confirmação.
func (f *FolhaPresenca) DefinirPresenca(ctx context.Context, prestador domain.PrestadorID, presente bool, obra *domain.ObraID) error {
	if presente && (obra == nil || *obra == "") {
		f.op.Notificar("Selecione a obra antes de marcar presença")
		return ErrPresencaSemObra
	}
	i := slices.IndexFunc(f.linhas, func(l domain.LinhaPresenca) bool { return l.Prestador.ID == prestador })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPrestadorForaDaFolha, prestador)
	}
	atual := f.linhas[i]
	if atual.Presenca.Presente && !presente &&
		!f.op.Confirmar(fmt.Sprintf("Remover a presença de %s em %s?", atual.Prestador.Nome, domain.FormatarDia(f.dia))) {
		return ErrCancelado
	}
	if !presente {
		obra = nil
	}

	registrada, err := f.api.RegistrarPresenca(ctx, f.dia, prestador, presente, obra)
	if err != nil {
		f.op.Notificar(mensagemDe("Não foi possível registrar a presença", err))
		_ = f.Carregar(ctx, f.dia)
		return err
	}
	f.linhas[i].Presenca = registrada
	return nil
}
