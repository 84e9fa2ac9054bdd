package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type StatusAtribuicao string

const (
	StatusAFazer      StatusAtribuicao = "todo"
	StatusEmAndamento StatusAtribuicao = "in_progress"
	StatusConcluida   StatusAtribuicao = "done"
)

// ColunasQuadro define a ordem das colunas do quadro.
var ColunasQuadro = []StatusAtribuicao{StatusAFazer, StatusEmAndamento, StatusConcluida}

func (s StatusAtribuicao) Valido() bool {
	switch s {
	case StatusAFazer, StatusEmAndamento, StatusConcluida:
		return true
	}
	return false
}

type Prioridade string

const (
	PrioridadeBaixa   Prioridade = "low"
	PrioridadeMedia   Prioridade = "medium"
	PrioridadeAlta    Prioridade = "high"
	PrioridadeUrgente Prioridade = "urgent"
)

func (p Prioridade) Valida() bool {
	switch p {
	case PrioridadeBaixa, PrioridadeMedia, PrioridadeAlta, PrioridadeUrgente:
		return true
	}
	return false
}

type TipoAtribuicao string

const (
	AtribuicaoEquipe    TipoAtribuicao = "equipe"
	AtribuicaoPrestador TipoAtribuicao = "prestador"
)

type Atribuicao struct {
	ID             AtribuicaoID                `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	ObraID         ObraID                      `gorm:"column:obra_id;type:char(26);not null;index:idx_atribuicoes_coluna,priority:1" json:"obra_id"`
	Titulo         string                      `gorm:"column:titulo;type:text;not null" json:"titulo"`
	Descricao      string                      `gorm:"column:descricao;type:text" json:"descricao,omitempty"`
	Prioridade     Prioridade                  `gorm:"column:prioridade;type:varchar(10);not null" json:"prioridade"`
	Status         StatusAtribuicao            `gorm:"column:status;type:varchar(20);not null;index:idx_atribuicoes_coluna,priority:2" json:"status"`
	Ordem          int                         `gorm:"column:ordem;not null;index:idx_atribuicoes_coluna,priority:3" json:"ordem"`
	TipoAtribuicao TipoAtribuicao              `gorm:"column:tipo_atribuicao;type:varchar(20);not null" json:"tipo_atribuicao"`
	EquipeID       *EquipeID                   `gorm:"column:equipe_id;type:char(26);index" json:"equipe_id,omitempty"`
	PrestadorID    *PrestadorID                `gorm:"column:prestador_id;type:char(26);index" json:"prestador_id,omitempty"`
	DataInicio     *time.Time                  `gorm:"column:data_inicio" json:"data_inicio,omitempty"`
	DataFim        *time.Time                  `gorm:"column:data_fim" json:"data_fim,omitempty"`
	DiasTrabalho   datatypes.JSONSlice[string] `gorm:"column:dias_trabalho" json:"dias_trabalho"`
	CriadoEm       time.Time                   `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm   time.Time                   `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`

	Checklist []ChecklistItem `gorm:"foreignKey:AtribuicaoID" json:"checklist,omitempty"`
	Anexos    []Anexo         `gorm:"foreignKey:AtribuicaoID" json:"anexos,omitempty"`
	Compras   []Compra        `gorm:"foreignKey:AtribuicaoID" json:"compras,omitempty"`
	Etiquetas []Etiqueta      `gorm:"-" json:"etiquetas"`
}

// Persistida indica se a atribuição já tem id no servidor; sub-recursos dependem disso.
func (a Atribuicao) Persistida() bool {
	return a.ID != ""
}

func (a Atribuicao) TemEtiqueta(id EtiquetaID) bool {
	for _, e := range a.Etiquetas {
		if e.ID == id {
			return true
		}
	}
	return false
}

type ChecklistItem struct {
	ID           ChecklistItemID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	AtribuicaoID AtribuicaoID    `gorm:"column:atribuicao_id;type:char(26);not null;index" json:"atribuicao_id"`
	Titulo       string          `gorm:"column:titulo;type:text;not null" json:"titulo"`
	Concluido    bool            `gorm:"column:concluido;not null" json:"concluido"`
	Ordem        int             `gorm:"column:ordem;not null" json:"ordem"`
	CriadoEm     time.Time       `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

type CategoriaAnexo string

const (
	AnexoImagem    CategoriaAnexo = "imagem"
	AnexoDocumento CategoriaAnexo = "documento"
	AnexoPlanilha  CategoriaAnexo = "planilha"
	AnexoOutro     CategoriaAnexo = "outro"
)

type Anexo struct {
	ID           AnexoID        `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	AtribuicaoID AtribuicaoID   `gorm:"column:atribuicao_id;type:char(26);not null;index" json:"atribuicao_id"`
	NomeArquivo  string         `gorm:"column:nome_arquivo;type:text;not null" json:"nome_arquivo"`
	Categoria    CategoriaAnexo `gorm:"column:categoria;type:varchar(20);not null" json:"categoria"`
	MimeType     string         `gorm:"column:mime_type;type:text" json:"mime_type"`
	URL          string         `gorm:"column:url;type:text;not null" json:"url"`
	Chave        string         `gorm:"column:chave;type:text;not null" json:"-"`
	Tamanho      int64          `gorm:"column:tamanho;not null" json:"tamanho"`
	CriadoEm     time.Time      `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

type Etiqueta struct {
	ID       EtiquetaID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome     string     `gorm:"column:nome;type:varchar(60);not null;uniqueIndex" json:"nome"`
	Cor      string     `gorm:"column:cor;type:varchar(20)" json:"cor"`
	CriadoEm time.Time  `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

// AtribuicaoEtiqueta é a tabela de junção entre atribuições e etiquetas.
type AtribuicaoEtiqueta struct {
	AtribuicaoID AtribuicaoID `gorm:"column:atribuicao_id;type:char(26);primaryKey"`
	EtiquetaID   EtiquetaID   `gorm:"column:etiqueta_id;type:char(26);primaryKey;index"`
}

type StatusCompra string

const (
	CompraPendente StatusCompra = "pending"
	CompraAprovada StatusCompra = "approved"
	CompraComprada StatusCompra = "purchased"
)

func (s StatusCompra) ordem() int {
	switch s {
	case CompraPendente:
		return 0
	case CompraAprovada:
		return 1
	case CompraComprada:
		return 2
	}
	return -1
}

func (s StatusCompra) Valido() bool {
	return s.ordem() >= 0
}

// PodeAvancarPara aceita apenas avanços no fluxo de compra (pular etapas é permitido).
func (s StatusCompra) PodeAvancarPara(alvo StatusCompra) bool {
	return alvo.Valido() && alvo.ordem() > s.ordem()
}

type Compra struct {
	ID           CompraID        `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	AtribuicaoID AtribuicaoID    `gorm:"column:atribuicao_id;type:char(26);not null;index" json:"atribuicao_id"`
	Material     string          `gorm:"column:material;type:text;not null" json:"material"`
	Quantidade   decimal.Decimal `gorm:"column:quantidade;type:decimal(15,4);not null" json:"quantidade"`
	Unidade      string          `gorm:"column:unidade;type:varchar(20)" json:"unidade"`
	Status       StatusCompra    `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Observacoes  string          `gorm:"column:observacoes;type:text" json:"observacoes,omitempty"`
	CriadoEm     time.Time       `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time       `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

func (Atribuicao) TableName() string { return "atribuicoes" }

func (ChecklistItem) TableName() string { return "checklist_itens" }

func (Anexo) TableName() string { return "anexos" }

func (Etiqueta) TableName() string { return "etiquetas" }

func (AtribuicaoEtiqueta) TableName() string { return "atribuicao_etiquetas" }

func (Compra) TableName() string { return "compras" }
