package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Presenca é única por (data, prestador); ausência de registro equivale a ausente sem obra.
type Presenca struct {
	ID           PresencaID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Data         datatypes.Date `gorm:"column:data;not null;uniqueIndex:idx_presencas_dia_prestador,priority:1" json:"data"`
	PrestadorID  PrestadorID    `gorm:"column:prestador_id;type:char(26);not null;uniqueIndex:idx_presencas_dia_prestador,priority:2" json:"prestador_id"`
	Presente     bool           `gorm:"column:presente;not null" json:"presente"`
	ObraID       *ObraID        `gorm:"column:obra_id;type:char(26)" json:"obra_id,omitempty"`
	AtualizadoEm time.Time      `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

func (Presenca) TableName() string { return "presencas" }

// LinhaPresenca junta o prestador com o estado do dia (registrado ou padrão).
type LinhaPresenca struct {
	Prestador Prestador `json:"prestador"`
	Presenca  Presenca  `json:"presenca"`
}

// FolhaPresenca é a visão do dia: pendentes e presentes vêm do mesmo mapa por prestador.
type FolhaPresenca struct {
	Dia       string          `json:"dia"`
	Pendentes []LinhaPresenca `json:"pendentes"`
	Presentes []LinhaPresenca `json:"presentes"`
}

// MontarFolha particiona os prestadores que participam da presença.
// Prestadores sem registro no dia ficam ausentes e sem obra.
func MontarFolha(dia time.Time, prestadores []Prestador, registros []Presenca) FolhaPresenca {
	porPrestador := make(map[PrestadorID]Presenca, len(registros))
	for _, r := range registros {
		porPrestador[r.PrestadorID] = r
	}

	folha := FolhaPresenca{
		Dia:       FormatarDia(dia),
		Pendentes: []LinhaPresenca{},
		Presentes: []LinhaPresenca{},
	}
	for _, p := range prestadores {
		if !p.ParticipaDaPresenca() {
			continue
		}
		registro, ok := porPrestador[p.ID]
		if !ok {
			registro = Presenca{Data: datatypes.Date(NormalizarDia(dia)), PrestadorID: p.ID}
		}
		linha := LinhaPresenca{Prestador: p, Presenca: registro}
		if registro.Presente {
			folha.Presentes = append(folha.Presentes, linha)
		} else {
			folha.Pendentes = append(folha.Pendentes, linha)
		}
	}
	return folha
}
