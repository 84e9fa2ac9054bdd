package domain

import "time"

type ObraStatus string

const (
	ObraRascunho  ObraStatus = "draft"
	ObraAtiva     ObraStatus = "active"
	ObraPausada   ObraStatus = "paused"
	ObraConcluida ObraStatus = "finished"
)

func (s ObraStatus) Valido() bool {
	switch s {
	case ObraRascunho, ObraAtiva, ObraPausada, ObraConcluida:
		return true
	}
	return false
}

type Obra struct {
	ID           ObraID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome         string     `gorm:"column:nome;type:text;not null" json:"nome"`
	Endereco     string     `gorm:"column:endereco;type:text" json:"endereco"`
	Cliente      string     `gorm:"column:cliente;type:text" json:"cliente"`
	Status       ObraStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	DataInicio   *time.Time `gorm:"column:data_inicio" json:"data_inicio,omitempty"`
	DataPrevista *time.Time `gorm:"column:data_prevista" json:"data_prevista,omitempty"`
	CriadoEm     time.Time  `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time  `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

func (Obra) TableName() string { return "obras" }
