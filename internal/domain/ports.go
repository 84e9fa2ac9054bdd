package domain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type ObraRepository interface {
	Create(ctx context.Context, o Obra) error
	Update(ctx context.Context, o Obra) error
	FindByID(ctx context.Context, id ObraID) (Obra, error)
	List(ctx context.Context) ([]Obra, error)
}

type LeadRepository interface {
	Create(ctx context.Context, l Lead) error
	Update(ctx context.Context, l Lead) error
	FindByID(ctx context.Context, id LeadID) (Lead, error)
	List(ctx context.Context) ([]Lead, error)
}

type NegocioRepository interface {
	Create(ctx context.Context, n Negocio) error
	// Update grava os dados cadastrais; o estágio só muda por AlterarEstagio ou Ganhar.
	Update(ctx context.Context, n Negocio) error
	FindByID(ctx context.Context, id NegocioID) (Negocio, error)
	List(ctx context.Context) ([]Negocio, error)
	// AlterarEstagio e Ganhar devolvem ErrEncerrado quando o estágio gravado já é terminal.
	AlterarEstagio(ctx context.Context, id NegocioID, estagio EstagioNegocio, motivo string, fechadoEm *time.Time) error
	// Ganhar marca o negócio como won e ativa a obra rascunho vinculada na mesma transação.
	Ganhar(ctx context.Context, id NegocioID, fechadoEm time.Time) (Negocio, error)
	// CriarObraVinculada cria a obra e grava o vínculo no negócio na mesma transação.
	CriarObraVinculada(ctx context.Context, id NegocioID, obra Obra) (Negocio, error)
}

type InteracaoRepository interface {
	Create(ctx context.Context, i Interacao) error
	ListByNegocio(ctx context.Context, id NegocioID) ([]Interacao, error)
}

type PropostaRepository interface {
	Create(ctx context.Context, p Proposta) error
	UltimaVersao(ctx context.Context, id NegocioID) (int, error)
	ListByNegocio(ctx context.Context, id NegocioID) ([]Proposta, error)
}

type AtribuicaoRepository interface {
	// CriarNoFim define a ordem como a próxima posição livre da coluna (obra, status) e insere,
	// atomicamente com os demais criadores e movimentos do quadro.
	CriarNoFim(ctx context.Context, a Atribuicao) (Atribuicao, error)
	Update(ctx context.Context, a Atribuicao) error
	// Delete remove a atribuição com checklist, anexos, compras e vínculos de etiqueta.
	Delete(ctx context.Context, id AtribuicaoID) error
	FindByID(ctx context.Context, id AtribuicaoID) (Atribuicao, error)
	ListByObra(ctx context.Context, id ObraID) ([]Atribuicao, error)
	// Mover renumera as colunas de origem e destino 0..n-1 numa transação.
	Mover(ctx context.Context, id AtribuicaoID, status StatusAtribuicao, indice int) (Atribuicao, error)
	DefinirDias(ctx context.Context, id AtribuicaoID, dias []string) error
}

type ChecklistRepository interface {
	Create(ctx context.Context, item ChecklistItem) error
	FindByID(ctx context.Context, id ChecklistItemID) (ChecklistItem, error)
	Update(ctx context.Context, item ChecklistItem) error
	Delete(ctx context.Context, id ChecklistItemID) error
	ProximaOrdem(ctx context.Context, id AtribuicaoID) (int, error)
}

type AnexoRepository interface {
	Create(ctx context.Context, a Anexo) error
	FindByID(ctx context.Context, id AnexoID) (Anexo, error)
	ListByAtribuicao(ctx context.Context, id AtribuicaoID) ([]Anexo, error)
	Delete(ctx context.Context, id AnexoID) error
}

type EtiquetaRepository interface {
	Create(ctx context.Context, e Etiqueta) error
	FindByID(ctx context.Context, id EtiquetaID) (Etiqueta, error)
	List(ctx context.Context) ([]Etiqueta, error)
	// Delete remove a etiqueta do catálogo e de todas as atribuições.
	Delete(ctx context.Context, id EtiquetaID) error
	// Alternar aplica a etiqueta se ausente ou remove se presente; devolve se ficou aplicada.
	Alternar(ctx context.Context, atribuicao AtribuicaoID, etiqueta EtiquetaID) (bool, error)
}

type CompraRepository interface {
	Create(ctx context.Context, c Compra) error
	FindByID(ctx context.Context, id CompraID) (Compra, error)
	Update(ctx context.Context, c Compra) error
	Delete(ctx context.Context, id CompraID) error
}

type EspecialidadeRepository interface {
	Create(ctx context.Context, e Especialidade) error
	FindByID(ctx context.Context, id EspecialidadeID) (Especialidade, error)
	List(ctx context.Context) ([]Especialidade, error)
}

type PrestadorRepository interface {
	Create(ctx context.Context, p Prestador) error
	Update(ctx context.Context, p Prestador) error
	FindByID(ctx context.Context, id PrestadorID) (Prestador, error)
	List(ctx context.Context) ([]Prestador, error)
}

type EquipeRepository interface {
	Create(ctx context.Context, e Equipe) error
	FindByID(ctx context.Context, id EquipeID) (Equipe, error)
	List(ctx context.Context) ([]Equipe, error)
	AdicionarMembro(ctx context.Context, m MembroEquipe) error
	RemoverMembro(ctx context.Context, equipe EquipeID, membro MembroEquipeID) error
}

type PresencaRepository interface {
	ListByDia(ctx context.Context, dia time.Time) ([]Presenca, error)
	// Upsert grava pela chave (data, prestador).
	Upsert(ctx context.Context, p Presenca) (Presenca, error)
}

type FerramentaRepository interface {
	Create(ctx context.Context, f Ferramenta) error
	FindByID(ctx context.Context, id FerramentaID) (Ferramenta, error)
	List(ctx context.Context) ([]Ferramenta, error)
	// RegistrarMovimento anexa o movimento e atualiza o ponteiro de custódia na mesma transação.
	RegistrarMovimento(ctx context.Context, f Ferramenta, m Movimento) error
	AtualizarStatus(ctx context.Context, id FerramentaID, status StatusFerramenta) error
	ListMovimentos(ctx context.Context, id FerramentaID) ([]Movimento, error)
}

type OrcamentoRepository interface {
	Create(ctx context.Context, o Orcamento) error
	FindByObra(ctx context.Context, obra ObraID) (Orcamento, error)
	AtualizarBDI(ctx context.Context, id OrcamentoID, bdi decimal.Decimal) error
	AdicionarItem(ctx context.Context, item ItemOrcamento) error
	// RemoverItem apaga o item e seus descendentes.
	RemoverItem(ctx context.Context, orcamento OrcamentoID, item ItemOrcamentoID) error
	// SubstituirItens troca todos os itens do orçamento numa transação.
	SubstituirItens(ctx context.Context, orcamento OrcamentoID, itens []ItemOrcamento) error
}

type UsuarioRepository interface {
	Create(ctx context.Context, u Usuario) error
	FindByID(ctx context.Context, id UsuarioID) (Usuario, error)
	List(ctx context.Context) ([]Usuario, error)
	DefinirPermissao(ctx context.Context, p PermissaoPagina) error
	RemoverPermissao(ctx context.Context, usuario UsuarioID, pagina Pagina) error
}

type AuditoriaRepository interface {
	Registrar(ctx context.Context, e Evento) error
	ListByRecurso(ctx context.Context, recurso, id string) ([]Evento, error)
}

type Contador interface {
	// Contabilizar soma 1 em todos os indicadores de um evento, atomicamente.
	Contabilizar(ctx context.Context, chaves []string) error
	ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error)
}

// Publicador recebe eventos de domínio já persistidos.
type Publicador interface {
	Publicar(ctx context.Context, e Evento) error
}

type Fila interface {
	Publicador
	ConsumirEventos(ctx context.Context, handler func(context.Context, Evento) error) error
}

type LimiteEscrita interface {
	Validar(ctx context.Context, usuario UsuarioID) error
}

type Armazenamento interface {
	Salvar(ctx context.Context, nome string, conteudo io.Reader) (chave string, err error)
	Abrir(ctx context.Context, chave string) (io.ReadCloser, error)
	Remover(ctx context.Context, chave string) error
	URL(chave string) string
}

type Clock interface {
	Agora() time.Time
}
