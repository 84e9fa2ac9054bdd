package postgres

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type PresencaRepository struct {
	db *gorm.DB
}

func NewPresencaRepository(db *gorm.DB) *PresencaRepository {
	return &PresencaRepository{db: db}
}

func (r *PresencaRepository) ListByDia(ctx context.Context, dia time.Time) ([]domain.Presenca, error) {
	var registros []domain.Presenca
	if err := r.db.WithContext(ctx).
		Where("data = ?", datatypes.Date(domain.NormalizarDia(dia))).
		Find(&registros).Error; err != nil {
		return nil, falha("presenca", "listar dia", err)
	}
	return registros, nil
}

func (r *PresencaRepository) Upsert(ctx context.Context, p domain.Presenca) (domain.Presenca, error) {
	p.Data = datatypes.Date(domain.NormalizarDia(time.Time(p.Data)))

	var gravada domain.Presenca
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "data"}, {Name: "prestador_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"presente", "obra_id", "atualizado_em"}),
		}).Create(&p).Error; err != nil {
			return falha("presenca", "gravar", err)
		}
		// Em conflito o id mantido é o da linha existente, por isso relemos pela chave.
		if err := tx.Where("data = ? AND prestador_id = ?", p.Data, p.PrestadorID).First(&gravada).Error; err != nil {
			return falha("presenca", "reler", err)
		}
		return nil
	})
	if err != nil {
		return domain.Presenca{}, err
	}
	return gravada, nil
}

var _ domain.PresencaRepository = (*PresencaRepository)(nil)
