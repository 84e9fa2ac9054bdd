package cliente

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

var (
	ErrNegocioDesconhecido = errors.New("negocio fora do funil carregado")
	ErrEstagioTerminal     = errors.New("negocio ganho ou perdido nao muda de estagio")
	ErrEstagioInvalido     = errors.New("estagio invalido")
	ErrInteracaoSistema    = errors.New("interacoes de sistema sao geradas pela api")
	ErrInteracaoInvalida   = errors.New("interacao invalida")
)

type APIFunil interface {
	ListarNegocios(ctx context.Context) ([]domain.Negocio, error)
	MoverEstagio(ctx context.Context, id domain.NegocioID, alvo domain.EstagioNegocio, motivo string) (domain.Negocio, error)
	RegistrarInteracao(ctx context.Context, id domain.NegocioID, tipo domain.TipoInteracao, texto string) (domain.Interacao, error)
}

// Funil é o estado da tela do CRM. Não é seguro para uso concorrente; cada tela tem o seu.
type Funil struct {
	api      APIFunil
	op       Operador
	negocios []domain.Negocio
}

func NewFunil(api APIFunil, op Operador) *Funil {
	return &Funil{api: api, op: op}
}

func (f *Funil) Carregar(ctx context.Context) error {
	lista, err := f.api.ListarNegocios(ctx)
	if err != nil {
		f.op.Notificar(mensagemDe("Não foi possível carregar o funil", err))
		return err
	}
	f.negocios = lista
	return nil
}

func (f *Funil) Negocios() []domain.Negocio {
	return slices.Clone(f.negocios)
}

func (f *Funil) Negocio(id domain.NegocioID) (domain.Negocio, bool) {
	i := f.posicao(id)
	if i < 0 {
		return domain.Negocio{}, false
	}
	return f.negocios[i], true
}

// Colunas agrupa os negócios por estágio; todo estágio do funil tem entrada, mesmo vazia.
func (f *Funil) Colunas() map[domain.EstagioNegocio][]domain.Negocio {
	colunas := make(map[domain.EstagioNegocio][]domain.Negocio, len(domain.EstagiosFunil))
	for _, e := range domain.EstagiosFunil {
		colunas[e] = []domain.Negocio{}
	}
	for _, n := range f.negocios {
		colunas[n.Estagio] = append(colunas[n.Estagio], n)
	}
	return colunas
}

func (f *Funil) posicao(id domain.NegocioID) int {
	return slices.IndexFunc(f.negocios, func(n domain.Negocio) bool { return n.ID == id })
}

// MoverEstagio aplica a mudança na tela antes de falar com a API. Ganho pede confirmação e
// perda pede o motivo; recusar devolve o negócio ao estágio anterior sem chamar a API.
func (f *Funil) MoverEstagio(ctx context.Context, id domain.NegocioID, alvo domain.EstagioNegocio) error {
	i := f.posicao(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNegocioDesconhecido, id)
	}
	anterior := f.negocios[i]
	if anterior.Estagio.Terminal() {
		f.op.Notificar("Negócios ganhos ou perdidos não podem mudar de estágio")
		return ErrEstagioTerminal
	}
	if !alvo.Valido() {
		return fmt.Errorf("%w: %q", ErrEstagioInvalido, alvo)
	}
	if alvo == anterior.Estagio {
		return nil
	}

	f.negocios[i].Estagio = alvo

	var motivo string
	switch alvo {
	case domain.EstagioGanho:
		if !f.op.Confirmar(fmt.Sprintf("Marcar %q como ganho? A obra vinculada será ativada.", anterior.Titulo)) {
			f.negocios[i] = anterior
			return ErrCancelado
		}
	case domain.EstagioPerdido:
		texto, ok := f.op.Solicitar(fmt.Sprintf("Informe o motivo da perda de %q", anterior.Titulo))
		if !ok || strings.TrimSpace(texto) == "" {
			f.negocios[i] = anterior
			return ErrCancelado
		}
		motivo = strings.TrimSpace(texto)
	}

	atualizado, err := f.api.MoverEstagio(ctx, id, alvo, motivo)
	if err != nil {
		f.op.Notificar(mensagemDe("Não foi possível mover o negócio", err))
		f.recarregar(ctx)
		return err
	}
	if j := f.posicao(id); j >= 0 {
		f.negocios[j] = atualizado
	}
	return nil
}

func (f *Funil) RegistrarInteracao(ctx context.Context, id domain.NegocioID, tipo domain.TipoInteracao, texto string) (domain.Interacao, error) {
	if tipo == domain.InteracaoSistema {
		return domain.Interacao{}, ErrInteracaoSistema
	}
	if !tipo.Valido() || strings.TrimSpace(texto) == "" {
		f.op.Notificar("Informe o tipo e o texto da interação")
		return domain.Interacao{}, fmt.Errorf("%w: tipo %q", ErrInteracaoInvalida, tipo)
	}
	if f.posicao(id) < 0 {
		return domain.Interacao{}, fmt.Errorf("%w: %s", ErrNegocioDesconhecido, id)
	}
	interacao, err := f.api.RegistrarInteracao(ctx, id, tipo, strings.TrimSpace(texto))
	if err != nil {
		f.op.Notificar(mensagemDe("Não foi possível registrar a interação", err))
		return domain.Interacao{}, err
	}
	return interacao, nil
}

// recarregar descarta o estado otimista; se a própria recarga falhar, a notificação já saiu.
func (f *Funil) recarregar(ctx context.Context) {
	_ = f.Carregar(ctx)
}
