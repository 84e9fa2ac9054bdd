package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type TipoItemOrcamento string

const (
	ItemEtapa TipoItemOrcamento = "etapa"
	ItemCusto TipoItemOrcamento = "item"
)

// Orcamento pertence a uma obra; BDI é o percentual aplicado sobre o custo direto.
type Orcamento struct {
	ID           OrcamentoID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	ObraID       ObraID          `gorm:"column:obra_id;type:char(26);not null;uniqueIndex" json:"obra_id"`
	BDI          decimal.Decimal `gorm:"column:bdi;type:decimal(8,4);not null" json:"bdi"`
	Itens        []ItemOrcamento `gorm:"foreignKey:OrcamentoID" json:"itens"`
	CriadoEm     time.Time       `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time       `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

type ItemOrcamento struct {
	ID            ItemOrcamentoID   `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	OrcamentoID   OrcamentoID       `gorm:"column:orcamento_id;type:char(26);not null;index" json:"orcamento_id"`
	PaiID         *ItemOrcamentoID  `gorm:"column:pai_id;type:char(26);index" json:"pai_id,omitempty"`
	Tipo          TipoItemOrcamento `gorm:"column:tipo;type:varchar(10);not null" json:"tipo"`
	Codigo        string            `gorm:"column:codigo;type:varchar(30)" json:"codigo,omitempty"`
	Descricao     string            `gorm:"column:descricao;type:text;not null" json:"descricao"`
	Unidade       string            `gorm:"column:unidade;type:varchar(20)" json:"unidade,omitempty"`
	Quantidade    decimal.Decimal   `gorm:"column:quantidade;type:decimal(15,4);not null" json:"quantidade"`
	CustoUnitario decimal.Decimal   `gorm:"column:custo_unitario;type:decimal(15,2);not null" json:"custo_unitario"`
	Ordem         int               `gorm:"column:ordem;not null" json:"ordem"`
}

func (Orcamento) TableName() string { return "orcamentos" }

func (ItemOrcamento) TableName() string { return "orcamento_itens" }

// LinhaOrcamento é um item com os totais calculados; etapas somam os filhos.
type LinhaOrcamento struct {
	Item        ItemOrcamento    `json:"item"`
	Total       decimal.Decimal  `json:"total"`
	TotalComBDI decimal.Decimal  `json:"total_com_bdi"`
	Filhos      []LinhaOrcamento `json:"filhos,omitempty"`
}

type ResumoOrcamento struct {
	OrcamentoID OrcamentoID      `json:"orcamento_id"`
	ObraID      ObraID           `json:"obra_id"`
	BDI         decimal.Decimal  `json:"bdi"`
	Linhas      []LinhaOrcamento `json:"linhas"`
	TotalDireto decimal.Decimal  `json:"total_direto"`
	TotalComBDI decimal.Decimal  `json:"total_com_bdi"`
}

var cem = decimal.NewFromInt(100)

// FatorBDI converte o percentual em multiplicador (25 -> 1.25).
func FatorBDI(bdi decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(bdi.Div(cem))
}

// CalcularOrcamento monta a árvore de linhas com totais sem e com BDI.
// Itens com pai inexistente são tratados como raiz.
func CalcularOrcamento(o Orcamento) ResumoOrcamento {
	ids := make(map[ItemOrcamentoID]struct{}, len(o.Itens))
	for _, it := range o.Itens {
		ids[it.ID] = struct{}{}
	}

	filhos := make(map[ItemOrcamentoID][]ItemOrcamento)
	var raizes []ItemOrcamento
	for _, it := range o.Itens {
		if it.PaiID != nil {
			if _, ok := ids[*it.PaiID]; ok {
				filhos[*it.PaiID] = append(filhos[*it.PaiID], it)
				continue
			}
		}
		raizes = append(raizes, it)
	}

	fator := FatorBDI(o.BDI)
	visitados := make(map[ItemOrcamentoID]bool)

	var montar func(it ItemOrcamento) LinhaOrcamento
	montar = func(it ItemOrcamento) LinhaOrcamento {
		visitados[it.ID] = true
		linha := LinhaOrcamento{Item: it}
		if it.Tipo == ItemEtapa {
			total := decimal.Zero
			for _, filho := range ordenarItens(filhos[it.ID]) {
				if visitados[filho.ID] {
					continue
				}
				sub := montar(filho)
				total = total.Add(sub.Total)
				linha.Filhos = append(linha.Filhos, sub)
			}
			linha.Total = total
		} else {
			linha.Total = it.Quantidade.Mul(it.CustoUnitario)
		}
		linha.TotalComBDI = linha.Total.Mul(fator)
		return linha
	}

	resumo := ResumoOrcamento{
		OrcamentoID: o.ID,
		ObraID:      o.ObraID,
		BDI:         o.BDI,
		Linhas:      []LinhaOrcamento{},
		TotalDireto: decimal.Zero,
	}
	for _, raiz := range ordenarItens(raizes) {
		linha := montar(raiz)
		resumo.TotalDireto = resumo.TotalDireto.Add(linha.Total)
		resumo.Linhas = append(resumo.Linhas, linha)
	}
	resumo.TotalComBDI = resumo.TotalDireto.Mul(fator)
	return resumo
}

func ordenarItens(itens []ItemOrcamento) []ItemOrcamento {
	ordenados := append([]ItemOrcamento(nil), itens...)
	sort.SliceStable(ordenados, func(i, j int) bool {
		return ordenados[i].Ordem < ordenados[j].Ordem
	})
	return ordenados
}

// TotalProposta aplica a margem comercial ao total com BDI, arredondado em centavos.
func TotalProposta(resumo ResumoOrcamento, margem decimal.Decimal) decimal.Decimal {
	return resumo.TotalComBDI.Mul(margem).Round(2)
}
