package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EstagioNegocio segue o funil comercial; won e lost encerram o negócio.
type EstagioNegocio string

const (
	EstagioProspeccao   EstagioNegocio = "prospecting"
	EstagioQualificacao EstagioNegocio = "qualifying"
	EstagioProposta     EstagioNegocio = "proposal"
	EstagioNegociacao   EstagioNegocio = "negotiating"
	EstagioGanho        EstagioNegocio = "won"
	EstagioPerdido      EstagioNegocio = "lost"
)

// EstagiosFunil lista os estágios na ordem das colunas do funil.
var EstagiosFunil = []EstagioNegocio{
	EstagioProspeccao,
	EstagioQualificacao,
	EstagioProposta,
	EstagioNegociacao,
	EstagioGanho,
	EstagioPerdido,
}

func (e EstagioNegocio) Valido() bool {
	for _, est := range EstagiosFunil {
		if est == e {
			return true
		}
	}
	return false
}

func (e EstagioNegocio) Terminal() bool {
	return e == EstagioGanho || e == EstagioPerdido
}

type TipoInteracao string

const (
	InteracaoNota    TipoInteracao = "note"
	InteracaoLigacao TipoInteracao = "call"
	InteracaoEmail   TipoInteracao = "email"
	InteracaoReuniao TipoInteracao = "meeting"
	InteracaoSistema TipoInteracao = "system"
)

func (t TipoInteracao) Valido() bool {
	switch t {
	case InteracaoNota, InteracaoLigacao, InteracaoEmail, InteracaoReuniao, InteracaoSistema:
		return true
	}
	return false
}

type Lead struct {
	ID           LeadID    `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome         string    `gorm:"column:nome;type:text;not null" json:"nome"`
	Empresa      string    `gorm:"column:empresa;type:text" json:"empresa,omitempty"`
	Email        string    `gorm:"column:email;type:text" json:"email,omitempty"`
	Telefone     string    `gorm:"column:telefone;type:text" json:"telefone,omitempty"`
	Documento    string    `gorm:"column:documento;type:varchar(20)" json:"documento,omitempty"`
	Origem       string    `gorm:"column:origem;type:text" json:"origem,omitempty"`
	CriadoEm     time.Time `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

type Negocio struct {
	ID           NegocioID       `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Titulo       string          `gorm:"column:titulo;type:text;not null" json:"titulo"`
	Descricao    string          `gorm:"column:descricao;type:text" json:"descricao,omitempty"`
	Valor        decimal.Decimal `gorm:"column:valor;type:decimal(15,2);not null" json:"valor"`
	Estagio      EstagioNegocio  `gorm:"column:estagio;type:varchar(20);not null;index" json:"estagio"`
	LeadID       LeadID          `gorm:"column:lead_id;type:char(26);not null;index" json:"lead_id"`
	ObraID       *ObraID         `gorm:"column:obra_id;type:char(26);index" json:"obra_id,omitempty"`
	MotivoPerda  string          `gorm:"column:motivo_perda;type:text" json:"motivo_perda,omitempty"`
	FechadoEm    *time.Time      `gorm:"column:fechado_em" json:"fechado_em,omitempty"`
	CriadoEm     time.Time       `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time       `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

type Interacao struct {
	ID        InteracaoID   `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	NegocioID NegocioID     `gorm:"column:negocio_id;type:char(26);not null;index" json:"negocio_id"`
	Tipo      TipoInteracao `gorm:"column:tipo;type:varchar(20);not null" json:"tipo"`
	Texto     string        `gorm:"column:texto;type:text;not null" json:"texto"`
	AutorID   *UsuarioID    `gorm:"column:autor_id;type:char(26)" json:"autor_id,omitempty"`
	CriadoEm  time.Time     `gorm:"column:criado_em;index" json:"criado_em"`
}

// Proposta é imutável depois de gerada; novas versões geram novos registros.
type Proposta struct {
	ID          PropostaID      `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	NegocioID   NegocioID       `gorm:"column:negocio_id;type:char(26);not null;uniqueIndex:idx_propostas_negocio_versao,priority:1" json:"negocio_id"`
	OrcamentoID OrcamentoID     `gorm:"column:orcamento_id;type:char(26);not null" json:"orcamento_id"`
	Versao      int             `gorm:"column:versao;not null;uniqueIndex:idx_propostas_negocio_versao,priority:2" json:"versao"`
	Margem      decimal.Decimal `gorm:"column:margem;type:decimal(8,4);not null" json:"margem"`
	TotalBase   decimal.Decimal `gorm:"column:total_base;type:decimal(15,2);not null" json:"total_base"`
	TotalFinal  decimal.Decimal `gorm:"column:total_final;type:decimal(15,2);not null" json:"total_final"`
	Snapshot    datatypes.JSON  `gorm:"column:snapshot" json:"snapshot"`
	ArquivoURL  string          `gorm:"column:arquivo_url;type:text;not null" json:"arquivo_url"`
	CriadoEm    time.Time       `gorm:"column:criado_em" json:"criado_em"`
}

func (Lead) TableName() string { return "leads" }

func (Negocio) TableName() string { return "negocios" }

func (Interacao) TableName() string { return "interacoes" }

func (Proposta) TableName() string { return "propostas" }
