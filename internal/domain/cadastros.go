package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Especialidade struct {
	ID       EspecialidadeID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome     string          `gorm:"column:nome;type:varchar(80);not null;uniqueIndex" json:"nome"`
	CriadoEm time.Time       `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

type TipoPessoa string

const (
	PessoaFisica   TipoPessoa = "fisica"
	PessoaJuridica TipoPessoa = "juridica"
)

type TipoChavePix string

const (
	PixCPF       TipoChavePix = "cpf"
	PixCNPJ      TipoChavePix = "cnpj"
	PixEmail     TipoChavePix = "email"
	PixTelefone  TipoChavePix = "telefone"
	PixAleatoria TipoChavePix = "aleatoria"
)

func (t TipoChavePix) Valido() bool {
	switch t {
	case PixCPF, PixCNPJ, PixEmail, PixTelefone, PixAleatoria:
		return true
	}
	return false
}

type TipoContrato string

const (
	ContratoDiaria     TipoContrato = "diaria"
	ContratoEmpreitada TipoContrato = "empreitada"
	ContratoFolha      TipoContrato = "folha"
)

type Prestador struct {
	ID              PrestadorID      `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome            string           `gorm:"column:nome;type:text;not null" json:"nome"`
	EspecialidadeID *EspecialidadeID `gorm:"column:especialidade_id;type:char(26);index" json:"especialidade_id,omitempty"`
	Telefone        string           `gorm:"column:telefone;type:varchar(30)" json:"telefone,omitempty"`
	Email           string           `gorm:"column:email;type:text" json:"email,omitempty"`
	TipoPessoa      TipoPessoa       `gorm:"column:tipo_pessoa;type:varchar(10);not null" json:"tipo_pessoa"`
	CPF             string           `gorm:"column:cpf;type:varchar(11)" json:"cpf,omitempty"`
	CNPJ            string           `gorm:"column:cnpj;type:varchar(14)" json:"cnpj,omitempty"`
	Ativo           bool             `gorm:"column:ativo;not null" json:"ativo"`
	PixTipo         TipoChavePix     `gorm:"column:pix_tipo;type:varchar(20)" json:"pix_tipo,omitempty"`
	PixChave        string           `gorm:"column:pix_chave;type:text" json:"pix_chave,omitempty"`
	TipoContrato    TipoContrato     `gorm:"column:tipo_contrato;type:varchar(20);not null" json:"tipo_contrato"`
	ValorDiaria     decimal.Decimal  `gorm:"column:valor_diaria;type:decimal(15,2);not null" json:"valor_diaria"`
	ValorEmpreitada decimal.Decimal  `gorm:"column:valor_empreitada;type:decimal(15,2);not null" json:"valor_empreitada"`
	SalarioMensal   decimal.Decimal  `gorm:"column:salario_mensal;type:decimal(15,2);not null" json:"salario_mensal"`
	UsaFolhaPonto   bool             `gorm:"column:usa_folha_ponto;not null" json:"usa_folha_ponto"`
	CriadoEm        time.Time        `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm    time.Time        `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

// ParticipaDaPresenca indica se o prestador entra na folha de presença diária.
func (p Prestador) ParticipaDaPresenca() bool {
	return p.Ativo && p.UsaFolhaPonto
}

type PapelMembro string

const (
	PapelLider PapelMembro = "lider"
	PapelComum PapelMembro = "membro"
)

type Equipe struct {
	ID           EquipeID       `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome         string         `gorm:"column:nome;type:text;not null" json:"nome"`
	Descricao    string         `gorm:"column:descricao;type:text" json:"descricao,omitempty"`
	Cor          string         `gorm:"column:cor;type:varchar(20)" json:"cor,omitempty"`
	Ativa        bool           `gorm:"column:ativa;not null" json:"ativa"`
	Membros      []MembroEquipe `gorm:"foreignKey:EquipeID;constraint:OnDelete:CASCADE" json:"membros"`
	CriadoEm     time.Time      `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time      `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

// MembroEquipe é um prestador ou um usuário interno, nunca os dois.
type MembroEquipe struct {
	ID          MembroEquipeID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	EquipeID    EquipeID       `gorm:"column:equipe_id;type:char(26);not null;uniqueIndex:idx_membros_prestador,priority:1;uniqueIndex:idx_membros_usuario,priority:1" json:"equipe_id"`
	PrestadorID *PrestadorID   `gorm:"column:prestador_id;type:char(26);uniqueIndex:idx_membros_prestador,priority:2" json:"prestador_id,omitempty"`
	UsuarioID   *UsuarioID     `gorm:"column:usuario_id;type:char(26);uniqueIndex:idx_membros_usuario,priority:2" json:"usuario_id,omitempty"`
	Papel       PapelMembro    `gorm:"column:papel;type:varchar(10);not null" json:"papel"`
	CriadoEm    time.Time      `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

func (m MembroEquipe) MesmoIntegrante(outro MembroEquipe) bool {
	if m.PrestadorID != nil && outro.PrestadorID != nil {
		return *m.PrestadorID == *outro.PrestadorID
	}
	if m.UsuarioID != nil && outro.UsuarioID != nil {
		return *m.UsuarioID == *outro.UsuarioID
	}
	return false
}

func (Especialidade) TableName() string { return "especialidades" }

func (Prestador) TableName() string { return "prestadores" }

func (Equipe) TableName() string { return "equipes" }

func (MembroEquipe) TableName() string { return "equipe_membros" }
