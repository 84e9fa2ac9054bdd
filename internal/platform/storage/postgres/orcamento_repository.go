package postgres

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type OrcamentoRepository struct {
	db *gorm.DB
}

func NewOrcamentoRepository(db *gorm.DB) *OrcamentoRepository {
	return &OrcamentoRepository{db: db}
}

func (r *OrcamentoRepository) Create(ctx context.Context, o domain.Orcamento) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&o).Error; err != nil {
		return falha("orcamento", "inserir", err)
	}
	return nil
}

func (r *OrcamentoRepository) FindByObra(ctx context.Context, obra domain.ObraID) (domain.Orcamento, error) {
	var o domain.Orcamento
	if err := r.db.WithContext(ctx).
		Preload("Itens", func(q *gorm.DB) *gorm.DB { return q.Order("ordem ASC") }).
		First(&o, "obra_id = ?", obra).Error; err != nil {
		return domain.Orcamento{}, falha("orcamento", "buscar obra", err)
	}
	return o, nil
}

func (r *OrcamentoRepository) AtualizarBDI(ctx context.Context, id domain.OrcamentoID, bdi decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&domain.Orcamento{}).Where("id = ?", id).Update("bdi", bdi)
	return exigirAfetado(res, "orcamento", "atualizar bdi")
}

func (r *OrcamentoRepository) AdicionarItem(ctx context.Context, item domain.ItemOrcamento) error {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return falha("orcamento", "adicionar item", err)
	}
	return nil
}

func (r *OrcamentoRepository) RemoverItem(ctx context.Context, orcamento domain.OrcamentoID, item domain.ItemOrcamentoID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var itens []domain.ItemOrcamento
		if err := tx.Where("orcamento_id = ?", orcamento).Find(&itens).Error; err != nil {
			return falha("orcamento", "listar itens", err)
		}

		filhos := make(map[domain.ItemOrcamentoID][]domain.ItemOrcamentoID)
		existe := false
		for _, it := range itens {
			if it.ID == item {
				existe = true
			}
			if it.PaiID != nil {
				filhos[*it.PaiID] = append(filhos[*it.PaiID], it.ID)
			}
		}
		if !existe {
			return domain.ErrNotFound
		}

		remover := []domain.ItemOrcamentoID{item}
		visitados := map[domain.ItemOrcamentoID]bool{item: true}
		for i := 0; i < len(remover); i++ {
			for _, filho := range filhos[remover[i]] {
				if !visitados[filho] {
					visitados[filho] = true
					remover = append(remover, filho)
				}
			}
		}

		if err := tx.Where("orcamento_id = ? AND id IN ?", orcamento, remover).Delete(&domain.ItemOrcamento{}).Error; err != nil {
			return falha("orcamento", "remover item", err)
		}
		return nil
	})
}

func (r *OrcamentoRepository) SubstituirItens(ctx context.Context, orcamento domain.OrcamentoID, itens []domain.ItemOrcamento) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("orcamento_id = ?", orcamento).Delete(&domain.ItemOrcamento{}).Error; err != nil {
			return falha("orcamento", "limpar itens", err)
		}
		if len(itens) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(itens, 200).Error; err != nil {
			return falha("orcamento", "inserir itens", err)
		}
		return nil
	})
}

var _ domain.OrcamentoRepository = (*OrcamentoRepository)(nil)
