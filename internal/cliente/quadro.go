package cliente

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

var (
	ErrTarefaNaoSalva       = errors.New("salve a tarefa antes de alterar checklist, anexos, etiquetas ou compras")
	ErrTarefaDesconhecida   = errors.New("tarefa fora do quadro carregado")
	ErrEtiquetaDesconhecida = errors.New("etiqueta fora do catalogo")
	ErrStatusInvalido       = errors.New("status de tarefa invalido")
	ErrDiaForaDoIntervalo   = errors.New("dia fora do periodo da tarefa")
	ErrTituloObrigatorio    = errors.New("titulo obrigatorio")
)

var colunasQuadro = []domain.StatusAtribuicao{domain.StatusAFazer, domain.StatusEmAndamento, domain.StatusConcluida}

type APIQuadro interface {
	ListarAtribuicoes(ctx context.Context, obra domain.ObraID) ([]domain.Atribuicao, error)
	ListarEtiquetas(ctx context.Context) ([]domain.Etiqueta, error)
	MoverAtribuicao(ctx context.Context, id domain.AtribuicaoID, status domain.StatusAtribuicao, indice int) (domain.Atribuicao, error)
	DefinirDias(ctx context.Context, id domain.AtribuicaoID, dias []string) (domain.Atribuicao, error)
	ExcluirAtribuicao(ctx context.Context, id domain.AtribuicaoID) error
	AlternarEtiqueta(ctx context.Context, id domain.AtribuicaoID, etiqueta domain.EtiquetaID) (domain.Atribuicao, error)
	ExcluirEtiqueta(ctx context.Context, id domain.EtiquetaID) error
	AdicionarChecklist(ctx context.Context, id domain.AtribuicaoID, titulo string) (domain.ChecklistItem, error)
	CriarCompra(ctx context.Context, id domain.AtribuicaoID, compra domain.Compra) (domain.Compra, error)
	AdicionarAnexo(ctx context.Context, id domain.AtribuicaoID, nome string, conteudo io.Reader) (domain.Anexo, error)
}

// Quadro é o kanban de uma obra.
type Quadro struct {
	api       APIQuadro
	op        Operador
	obra      domain.ObraID
	tarefas   []domain.Atribuicao
	etiquetas []domain.Etiqueta
}

func NewQuadro(api APIQuadro, op Operador, obra domain.ObraID) *Quadro {
	return &Quadro{api: api, op: op, obra: obra}
}

func (q *Quadro) Carregar(ctx context.Context) error {
	tarefas, err := q.api.ListarAtribuicoes(ctx, q.obra)
	if err != nil {
		q.op.Notificar(mensagemDe("Não foi possível carregar o quadro", err))
		return err
	}
	etiquetas, err := q.api.ListarEtiquetas(ctx)
	if err != nil {
		q.op.Notificar(mensagemDe("Não foi possível carregar as etiquetas", err))
		return err
	}
	q.tarefas = tarefas
	q.etiquetas = etiquetas
	return nil
}

func (q *Quadro) recarregar(ctx context.Context) {
	_ = q.Carregar(ctx)
}

func (q *Quadro) Etiquetas() []domain.Etiqueta {
	return slices.Clone(q.etiquetas)
}

func (q *Quadro) Tarefa(id domain.AtribuicaoID) (domain.Atribuicao, bool) {
	i := q.posicao(id)
	if i < 0 {
		return domain.Atribuicao{}, false
	}
	return q.tarefas[i], true
}

// Coluna devolve as tarefas do status ordenadas pela posição.
func (q *Quadro) Coluna(status domain.StatusAtribuicao) []domain.Atribuicao {
	var coluna []domain.Atribuicao
	for _, t := range q.tarefas {
		if t.Status == status {
			coluna = append(coluna, t)
		}
	}
	slices.SortStableFunc(coluna, func(a, b domain.Atribuicao) int { return a.Ordem - b.Ordem })
	return coluna
}

func (q *Quadro) posicao(id domain.AtribuicaoID) int {
	return slices.IndexFunc(q.tarefas, func(t domain.Atribuicao) bool { return t.ID == id })
}

func (q *Quadro) exigirSalva(id domain.AtribuicaoID) (int, error) {
	if id == "" {
		return -1, ErrTarefaNaoSalva
	}
	i := q.posicao(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrTarefaDesconhecida, id)
	}
	return i, nil
}

func (q *Quadro) substituir(t domain.Atribuicao) {
	if i := q.posicao(t.ID); i >= 0 {
		q.tarefas[i] = t
	}
}

// Mover posiciona a tarefa na coluna e renumera origem e destino localmente antes da API.
// O índice é limitado ao tamanho da coluna de destino.
func (q *Quadro) Mover(ctx context.Context, id domain.AtribuicaoID, status domain.StatusAtribuicao, indice int) error {
	if !status.Valido() {
		return fmt.Errorf("%w: %q", ErrStatusInvalido, status)
	}
	i, err := q.exigirSalva(id)
	if err != nil {
		return err
	}

	tarefa := q.tarefas[i]
	origem := tarefa.Status
	tarefa.Status = status

	destino := slices.DeleteFunc(q.Coluna(status), func(t domain.Atribuicao) bool { return t.ID == id })
	indice = max(0, min(indice, len(destino)))
	destino = slices.Insert(destino, indice, tarefa)
	q.renumerar(destino)
	if origem != status {
		q.renumerar(slices.DeleteFunc(q.Coluna(origem), func(t domain.Atribuicao) bool { return t.ID == id }))
	}

	atualizada, err := q.api.MoverAtribuicao(ctx, id, status, indice)
	if err != nil {
		q.op.Notificar(mensagemDe("Não foi possível mover a tarefa", err))
		q.recarregar(ctx)
		return err
	}
	q.substituir(atualizada)
	return nil
}

func (q *Quadro) renumerar(coluna []domain.Atribuicao) {
	for ordem, t := range coluna {
		t.Ordem = ordem
		q.substituir(t)
	}
}

// AlternarDia liga ou desliga um dia de trabalho dentro do período da tarefa.
func (q *Quadro) AlternarDia(ctx context.Context, id domain.AtribuicaoID, dia string) error {
	i, err := q.exigirSalva(id)
	if err != nil {
		return err
	}
	t := q.tarefas[i]
	if t.DataInicio == nil || t.DataFim == nil || !slices.Contains(domain.DiasCandidatos(*t.DataInicio, *t.DataFim), dia) {
		return fmt.Errorf("%w: %s", ErrDiaForaDoIntervalo, dia)
	}

	novos := domain.AlternarDia(t.DiasTrabalho, dia)
	q.tarefas[i].DiasTrabalho = novos

	atualizada, err := q.api.DefinirDias(ctx, id, novos)
	if err != nil {
		q.op.Notificar(mensagemDe("Não foi possível salvar os dias de trabalho", err))
		q.recarregar(ctx)
		return err
	}
	q.substituir(atualizada)
	return nil
}

// AlternarEtiqueta aplica a etiqueta ausente ou remove a presente.
func (q *Quadro) AlternarEtiqueta(ctx context.Context, id domain.AtribuicaoID, etiqueta domain.EtiquetaID) error {
	i, err := q.exigirSalva(id)
	if err != nil {
		return err
	}
	e := slices.IndexFunc(q.etiquetas, func(et domain.Etiqueta) bool { return et.ID == etiqueta })
	if e < 0 {
		return fmt.Errorf("%w: %s", ErrEtiquetaDesconhecida, etiqueta)
	}

	t := q.tarefas[i]
	if t.TemEtiqueta(etiqueta) {
		t.Etiquetas = slices.DeleteFunc(slices.Clone(t.Etiquetas), func(et domain.Etiqueta) bool { return et.ID == etiqueta })
	} else {
		t.Etiquetas = append(slices.Clone(t.Etiquetas), q.etiquetas[e])
	}
	q.tarefas[i] = t

	atualizada, err := q.api.AlternarEtiqueta(ctx, id, etiqueta)
	if err != nil {
		q.op.Notificar(mensagemDe("Não foi possível alterar a etiqueta", err))
		q.recarregar(ctx)
		return err
	}
	q.substituir(atualizada)
	return nil
}

// ExcluirEtiqueta remove a etiqueta do catálogo e de todas as tarefas em memória.
func (q *Quadro) ExcluirEtiqueta(ctx context.Context, id domain.EtiquetaID) error {
	e := slices.IndexFunc(q.etiquetas, func(et domain.Etiqueta) bool { return et.ID == id })
	if e < 0 {
		return fmt.Errorf("%w: %s", ErrEtiquetaDesconhecida, id)
	}
	if !q.op.Confirmar(fmt.Sprintf("Excluir a etiqueta %q de todas as tarefas?", q.etiquetas[e].Nome)) {
		return ErrCancelado
	}
	if err := q.api.ExcluirEtiqueta(ctx, id); err != nil {
		q.op.Notificar(mensagemDe("Não foi possível excluir a etiqueta", err))
		q.recarregar(ctx)
		return err
	}

	q.etiquetas = slices.Delete(q.etiquetas, e, e+1)
	for i := range q.tarefas {
		q.tarefas[i].Etiquetas = slices.DeleteFunc(slices.Clone(q.tarefas[i].Etiquetas), func(et domain.Etiqueta) bool { return et.ID == id })
	}
	return nil
}

func (q *Quadro) Excluir(ctx context.Context, id domain.AtribuicaoID) error {
	i, err := q.exigirSalva(id)
	if err != nil {
		return err
	}
	if !q.op.Confirmar(fmt.Sprintf("Excluir a tarefa %q com checklist, anexos e compras?", q.tarefas[i].Titulo)) {
		return ErrCancelado
	}
	if err := q.api.ExcluirAtribuicao(ctx, id); err != nil {
		q.op.Notificar(mensagemDe("Não foi possível excluir a tarefa", err))
		q.recarregar(ctx)
		return err
	}
	q.tarefas = slices.Delete(q.tarefas, i, i+1)
	return nil
}

func (q *Quadro) AdicionarChecklist(ctx context.Context, id domain.AtribuicaoID, titulo string) error {
	i, err := q.exigirSalva(id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(titulo) == "" {
		q.op.Notificar("Informe o título do item")
		return ErrTituloObrigatorio
	}
	item, err := q.api.AdicionarChecklist(ctx, id, strings.TrimSpace(titulo))
	if err != nil {
		q.op.Notificar(mensagemDe("Não foi possível adicionar o item", err))
		return err
	}
	q.tarefas[i].Checklist = append(q.tarefas[i].Checklist, item)
	return nil
}

func (q *Quadro) CriarCompra(ctx context.Context, id domain.AtribuicaoID, compra domain.Compra) error {
	i, err := q.exigirSalva(id)
	if err != nil {
		return err
	}
	criada, err := q.api.CriarCompra(ctx, id, compra)
	if err != nil {
		q.op.Notificar(mensagemDe("Não foi possível registrar a compra", err))
		return err
	}
	q.tarefas[i].Compras = append(q.tarefas[i].Compras, criada)
	return nil
}

func (q *Quadro) AdicionarAnexo(ctx context.Context, id domain.AtribuicaoID, nome string, conteudo io.Reader) error {
	i, err := q.exigirSalva(id)
	if err != nil {
		return err
	}
	anexo, err := q.api.AdicionarAnexo(ctx, id, nome, conteudo)
	if err != nil {
		q.op.Notificar(mensagemDe("Não foi possível enviar o anexo", err))
		return err
	}
	q.tarefas[i].Anexos = append(q.tarefas[i].Anexos, anexo)
	return nil
}
