package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrMovimentoInvalido = errors.New("movimento invalido para o status da ferramenta")

type StatusFerramenta string

const (
	FerramentaDisponivel StatusFerramenta = "available"
	FerramentaEmUso      StatusFerramenta = "in_use"
	FerramentaManutencao StatusFerramenta = "maintenance"
	FerramentaPerdida    StatusFerramenta = "lost"
)

func (s StatusFerramenta) Valido() bool {
	switch s {
	case FerramentaDisponivel, FerramentaEmUso, FerramentaManutencao, FerramentaPerdida:
		return true
	}
	return false
}

type TipoMovimento string

const (
	MovimentoRetirada      TipoMovimento = "checkout"
	MovimentoDevolucao     TipoMovimento = "return"
	MovimentoTransferencia TipoMovimento = "transfer"
)

// Ferramenta guarda um ponteiro de custódia atual derivado do log de movimentos.
type Ferramenta struct {
	ID            FerramentaID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Nome          string           `gorm:"column:nome;type:text;not null" json:"nome"`
	Marca         string           `gorm:"column:marca;type:text" json:"marca,omitempty"`
	Patrimonio    string           `gorm:"column:patrimonio;type:varchar(40);uniqueIndex" json:"patrimonio"`
	Status        StatusFerramenta `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	ObraID        *ObraID          `gorm:"column:obra_id;type:char(26)" json:"obra_id,omitempty"`
	ResponsavelID *PrestadorID     `gorm:"column:responsavel_id;type:char(26)" json:"responsavel_id,omitempty"`
	RetiradaEm    *time.Time       `gorm:"column:retirada_em" json:"retirada_em,omitempty"`
	CriadoEm      time.Time        `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm  time.Time        `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

// Movimento é imutável: o histórico só cresce.
type Movimento struct {
	ID            MovimentoID   `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	FerramentaID  FerramentaID  `gorm:"column:ferramenta_id;type:char(26);not null;index" json:"ferramenta_id"`
	Tipo          TipoMovimento `gorm:"column:tipo;type:varchar(20);not null" json:"tipo"`
	ObraID        *ObraID       `gorm:"column:obra_id;type:char(26)" json:"obra_id,omitempty"`
	ResponsavelID *PrestadorID  `gorm:"column:responsavel_id;type:char(26)" json:"responsavel_id,omitempty"`
	UsuarioID     *UsuarioID    `gorm:"column:usuario_id;type:char(26)" json:"usuario_id,omitempty"`
	Observacao    string        `gorm:"column:observacao;type:text" json:"observacao,omitempty"`
	OcorridoEm    time.Time     `gorm:"column:ocorrido_em;not null;index" json:"ocorrido_em"`
}

func (Ferramenta) TableName() string { return "ferramentas" }

func (Movimento) TableName() string { return "ferramenta_movimentos" }

// ProximoStatus aplica a máquina de custódia: checkout só a partir de available,
// return e transfer só a partir de in_use.
func ProximoStatus(atual StatusFerramenta, tipo TipoMovimento) (StatusFerramenta, error) {
	switch {
	case tipo == MovimentoRetirada && atual == FerramentaDisponivel:
		return FerramentaEmUso, nil
	case tipo == MovimentoDevolucao && atual == FerramentaEmUso:
		return FerramentaDisponivel, nil
	case tipo == MovimentoTransferencia && atual == FerramentaEmUso:
		return FerramentaEmUso, nil
	}
	return atual, fmt.Errorf("%w: %s a partir de %s", ErrMovimentoInvalido, tipo, atual)
}

// AplicarMovimento atualiza o ponteiro de custódia da ferramenta com o movimento.
func AplicarMovimento(f Ferramenta, m Movimento) (Ferramenta, error) {
	status, err := ProximoStatus(f.Status, m.Tipo)
	if err != nil {
		return f, err
	}
	f.Status = status
	if status == FerramentaEmUso {
		ocorrido := m.OcorridoEm
		f.ObraID = m.ObraID
		f.ResponsavelID = m.ResponsavelID
		f.RetiradaEm = &ocorrido
	} else {
		f.ObraID = nil
		f.ResponsavelID = nil
		f.RetiradaEm = nil
	}
	return f, nil
}

func ordenarMovimentos(movs []Movimento) []Movimento {
	ordenados := append([]Movimento(nil), movs...)
	sort.SliceStable(ordenados, func(i, j int) bool {
		if ordenados[i].OcorridoEm.Equal(ordenados[j].OcorridoEm) {
			return ordenados[i].ID < ordenados[j].ID
		}
		return ordenados[i].OcorridoEm.Before(ordenados[j].OcorridoEm)
	})
	return ordenados
}

// ReplayCustodia reconstrói o ponteiro de custódia a partir do log, começando disponível.
func ReplayCustodia(f Ferramenta, movs []Movimento) (Ferramenta, error) {
	f.Status = FerramentaDisponivel
	f.ObraID = nil
	f.ResponsavelID = nil
	f.RetiradaEm = nil
	var err error
	for _, m := range ordenarMovimentos(movs) {
		if f, err = AplicarMovimento(f, m); err != nil {
			return f, fmt.Errorf("movimento %s: %w", m.ID, err)
		}
	}
	return f, nil
}

// PeriodoCustodia é uma janela em que a ferramenta ficou com um responsável numa obra.
type PeriodoCustodia struct {
	ObraID        *ObraID      `json:"obra_id,omitempty"`
	ResponsavelID *PrestadorID `json:"responsavel_id,omitempty"`
	RetiradaEm    time.Time    `json:"retirada_em"`
	DevolvidaEm   *time.Time   `json:"devolvida_em,omitempty"`
	Abertura      MovimentoID  `json:"abertura"`
	Encerramento  *MovimentoID `json:"encerramento,omitempty"`
}

// Historico deriva os períodos de custódia, do mais recente para o mais antigo.
// Uma transferência encerra o período corrente e abre outro no mesmo instante.
func Historico(movs []Movimento) []PeriodoCustodia {
	var periodos []PeriodoCustodia
	aberto := -1
	fechar := func(m Movimento) {
		if aberto < 0 {
			return
		}
		ocorrido := m.OcorridoEm
		id := m.ID
		periodos[aberto].DevolvidaEm = &ocorrido
		periodos[aberto].Encerramento = &id
		aberto = -1
	}
	abrir := func(m Movimento) {
		periodos = append(periodos, PeriodoCustodia{
			ObraID:        m.ObraID,
			ResponsavelID: m.ResponsavelID,
			RetiradaEm:    m.OcorridoEm,
			Abertura:      m.ID,
		})
		aberto = len(periodos) - 1
	}

	for _, m := range ordenarMovimentos(movs) {
		switch m.Tipo {
		case MovimentoRetirada, MovimentoTransferencia:
			fechar(m)
			abrir(m)
		case MovimentoDevolucao:
			fechar(m)
		}
	}

	sort.SliceStable(periodos, func(i, j int) bool {
		return periodos[i].RetiradaEm.After(periodos[j].RetiradaEm)
	})
	return periodos
}
