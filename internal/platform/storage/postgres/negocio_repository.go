package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

// NegocioRepository concentra as operações compostas do funil que precisam ser atômicas.
type NegocioRepository struct {
	db *gorm.DB
}

func NewNegocioRepository(db *gorm.DB) *NegocioRepository {
	return &NegocioRepository{db: db}
}

func (r *NegocioRepository) Create(ctx context.Context, n domain.Negocio) error {
	if err := r.db.WithContext(ctx).Create(&n).Error; err != nil {
		return falha("negocio", "inserir", err)
	}
	return nil
}

func (r *NegocioRepository) Update(ctx context.Context, n domain.Negocio) error {
	res := r.db.WithContext(ctx).Model(&domain.Negocio{}).
		Where("id = ?", n.ID).
		Updates(map[string]any{
			"titulo":        n.Titulo,
			"descricao":     n.Descricao,
			"valor":         n.Valor,
			"lead_id":       n.LeadID,
			"obra_id":       n.ObraID,
			"atualizado_em": n.AtualizadoEm,
		})
	return exigirAfetado(res, "negocio", "atualizar")
}

func (r *NegocioRepository) FindByID(ctx context.Context, id domain.NegocioID) (domain.Negocio, error) {
	return buscarNegocio(r.db.WithContext(ctx), id)
}

func buscarNegocio(db *gorm.DB, id domain.NegocioID) (domain.Negocio, error) {
	var n domain.Negocio
	if err := db.First(&n, "id = ?", id).Error; err != nil {
		return domain.Negocio{}, falha("negocio", "buscar id", err)
	}
	return n, nil
}

func (r *NegocioRepository) List(ctx context.Context) ([]domain.Negocio, error) {
	var negocios []domain.Negocio
	if err := r.db.WithContext(ctx).Order("criado_em DESC").Find(&negocios).Error; err != nil {
		return nil, falha("negocio", "listar", err)
	}
	return negocios, nil
}

var estagiosTerminais = []domain.EstagioNegocio{domain.EstagioGanho, domain.EstagioPerdido}

// AlterarEstagio só grava se o estágio armazenado ainda não for terminal; um negócio encerrado
// por outra requisição entre a leitura e a escrita devolve domain.ErrEncerrado.
func (r *NegocioRepository) AlterarEstagio(ctx context.Context, id domain.NegocioID, estagio domain.EstagioNegocio, motivo string, fechadoEm *time.Time) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&domain.Negocio{}).
		Where("id = ? AND estagio NOT IN ?", id, estagiosTerminais).
		Updates(map[string]any{
			"estagio":       estagio,
			"motivo_perda":  motivo,
			"fechado_em":    fechadoEm,
			"atualizado_em": time.Now().UTC(),
		})
	if res.Error != nil {
		return falha("negocio", "alterar estagio", res.Error)
	}
	if res.RowsAffected == 0 {
		return motivoSemEfeito(db, id)
	}
	return nil
}

// motivoSemEfeito distingue negócio inexistente de negócio já encerrado.
func motivoSemEfeito(db *gorm.DB, id domain.NegocioID) error {
	n, err := buscarNegocio(db, id)
	if err != nil {
		return err
	}
	if n.Estagio.Terminal() {
		return fmt.Errorf("negocio %s em %s: %w", id, n.Estagio, domain.ErrEncerrado)
	}
	return domain.ErrNotFound
}

func (r *NegocioRepository) Ganhar(ctx context.Context, id domain.NegocioID, fechadoEm time.Time) (domain.Negocio, error) {
	var ganho domain.Negocio
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := buscarNegocio(tx, id)
		if err != nil {
			return err
		}
		if n.Estagio.Terminal() {
			return fmt.Errorf("negocio %s em %s: %w", id, n.Estagio, domain.ErrEncerrado)
		}

		res := tx.Model(&domain.Negocio{}).
			Where("id = ? AND estagio NOT IN ?", id, estagiosTerminais).
			Updates(map[string]any{
				"estagio":       domain.EstagioGanho,
				"motivo_perda":  "",
				"fechado_em":    fechadoEm,
				"atualizado_em": fechadoEm,
			})
		if res.Error != nil {
			return falha("negocio", "ganhar", res.Error)
		}
		if res.RowsAffected == 0 {
			return motivoSemEfeito(tx, id)
		}

		if n.ObraID != nil {
			// Só a obra ainda em rascunho é ativada; obras já em andamento ficam como estão.
			if err := tx.Model(&domain.Obra{}).
				Where("id = ? AND status = ?", *n.ObraID, domain.ObraRascunho).
				Updates(map[string]any{"status": domain.ObraAtiva, "atualizado_em": fechadoEm}).Error; err != nil {
				return falha("obra", "ativar", err)
			}
		}

		ganho, err = buscarNegocio(tx, id)
		return err
	})
	if err != nil {
		return domain.Negocio{}, err
	}
	return ganho, nil
}

func (r *NegocioRepository) CriarObraVinculada(ctx context.Context, id domain.NegocioID, obra domain.Obra) (domain.Negocio, error) {
	var vinculado domain.Negocio
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := buscarNegocio(tx, id); err != nil {
			return err
		}
		if err := tx.Create(&obra).Error; err != nil {
			return falha("obra", "inserir", err)
		}
		if err := tx.Model(&domain.Negocio{}).Where("id = ?", id).
			Updates(map[string]any{"obra_id": obra.ID, "atualizado_em": obra.CriadoEm}).Error; err != nil {
			return fmt.Errorf("gorm negocio: vincular obra: %w", err)
		}
		var err error
		vinculado, err = buscarNegocio(tx, id)
		return err
	})
	if err != nil {
		return domain.Negocio{}, err
	}
	return vinculado, nil
}

var _ domain.NegocioRepository = (*NegocioRepository)(nil)
