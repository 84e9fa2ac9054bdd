package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type ObraRepository struct {
	db *gorm.DB
}

func NewObraRepository(db *gorm.DB) *ObraRepository {
	return &ObraRepository{db: db}
}

func (r *ObraRepository) Create(ctx context.Context, o domain.Obra) error {
	if err := r.db.WithContext(ctx).Create(&o).Error; err != nil {
		return falha("obra", "inserir", err)
	}
	return nil
}

func (r *ObraRepository) Update(ctx context.Context, o domain.Obra) error {
	res := r.db.WithContext(ctx).Model(&domain.Obra{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{
			"nome":          o.Nome,
			"endereco":      o.Endereco,
			"cliente":       o.Cliente,
			"status":        o.Status,
			"data_inicio":   o.DataInicio,
			"data_prevista": o.DataPrevista,
			"atualizado_em": o.AtualizadoEm,
		})
	return exigirAfetado(res, "obra", "atualizar")
}

func (r *ObraRepository) FindByID(ctx context.Context, id domain.ObraID) (domain.Obra, error) {
	var o domain.Obra
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return domain.Obra{}, falha("obra", "buscar id", err)
	}
	return o, nil
}

func (r *ObraRepository) List(ctx context.Context) ([]domain.Obra, error) {
	var obras []domain.Obra
	if err := r.db.WithContext(ctx).Order("nome ASC").Find(&obras).Error; err != nil {
		return nil, falha("obra", "listar", err)
	}
	return obras, nil
}

var _ domain.ObraRepository = (*ObraRepository)(nil)
