package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// FerramentaRepository grava o log de movimentos e o ponteiro de custódia em conjunto.
// Movimentos nunca são atualizados nem removidos.
type FerramentaRepository struct {
	db *gorm.DB
}

func NewFerramentaRepository(db *gorm.DB) *FerramentaRepository {
	return &FerramentaRepository{db: db}
}

func (r *FerramentaRepository) Create(ctx context.Context, f domain.Ferramenta) error {
	if err := r.db.WithContext(ctx).Create(&f).Error; err != nil {
		return falha("ferramenta", "inserir", err)
	}
	return nil
}

func (r *FerramentaRepository) FindByID(ctx context.Context, id domain.FerramentaID) (domain.Ferramenta, error) {
	var f domain.Ferramenta
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return domain.Ferramenta{}, falha("ferramenta", "buscar id", err)
	}
	return f, nil
}

func (r *FerramentaRepository) List(ctx context.Context) ([]domain.Ferramenta, error) {
	var lista []domain.Ferramenta
	if err := r.db.WithContext(ctx).Order("nome ASC").Find(&lista).Error; err != nil {
		return nil, falha("ferramenta", "listar", err)
	}
	return lista, nil
}

// RegistrarMovimento só atualiza o ponteiro se o status gravado ainda for o que o chamador leu,
// evitando que duas retiradas simultâneas passem.
func (r *FerramentaRepository) RegistrarMovimento(ctx context.Context, f domain.Ferramenta, m domain.Movimento) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var atual domain.Ferramenta
		if err := tx.First(&atual, "id = ?", f.ID).Error; err != nil {
			return falha("ferramenta", "buscar id", err)
		}
		if _, err := domain.ProximoStatus(atual.Status, m.Tipo); err != nil {
			return err
		}

		if err := tx.Create(&m).Error; err != nil {
			return falha("ferramenta", "anexar movimento", err)
		}

		res := tx.Model(&domain.Ferramenta{}).
			Where("id = ? AND status = ?", f.ID, atual.Status).
			Updates(map[string]any{
				"status":         f.Status,
				"obra_id":        f.ObraID,
				"responsavel_id": f.ResponsavelID,
				"retirada_em":    f.RetiradaEm,
				"atualizado_em":  m.OcorridoEm,
			})
		return exigirAfetado(res, "ferramenta", "atualizar custodia")
	})
}

func (r *FerramentaRepository) AtualizarStatus(ctx context.Context, id domain.FerramentaID, status domain.StatusFerramenta) error {
	res := r.db.WithContext(ctx).Model(&domain.Ferramenta{}).
		Where("id = ? AND status <> ?", id, domain.FerramentaEmUso).
		Update("status", status)
	return exigirAfetado(res, "ferramenta", "atualizar status")
}

func (r *FerramentaRepository) ListMovimentos(ctx context.Context, id domain.FerramentaID) ([]domain.Movimento, error) {
	var movs []domain.Movimento
	if err := r.db.WithContext(ctx).
		Where("ferramenta_id = ?", id).
		Order("ocorrido_em ASC").Order("id ASC").
		Find(&movs).Error; err != nil {
		return nil, falha("ferramenta", "listar movimentos", err)
	}
	return movs, nil
}

var _ domain.FerramentaRepository = (*FerramentaRepository)(nil)
