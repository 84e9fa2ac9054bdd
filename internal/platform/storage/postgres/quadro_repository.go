package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type ChecklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

func (r *ChecklistRepository) Create(ctx context.Context, item domain.ChecklistItem) error {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return falha("checklist", "inserir", err)
	}
	return nil
}

func (r *ChecklistRepository) FindByID(ctx context.Context, id domain.ChecklistItemID) (domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return domain.ChecklistItem{}, falha("checklist", "buscar id", err)
	}
	return item, nil
}

func (r *ChecklistRepository) Update(ctx context.Context, item domain.ChecklistItem) error {
	res := r.db.WithContext(ctx).Model(&domain.ChecklistItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{"titulo": item.Titulo, "concluido": item.Concluido, "ordem": item.Ordem})
	return exigirAfetado(res, "checklist", "atualizar")
}

func (r *ChecklistRepository) Delete(ctx context.Context, id domain.ChecklistItemID) error {
	res := r.db.WithContext(ctx).Delete(&domain.ChecklistItem{}, "id = ?", id)
	return exigirAfetado(res, "checklist", "excluir")
}

func (r *ChecklistRepository) ProximaOrdem(ctx context.Context, id domain.AtribuicaoID) (int, error) {
	var ultima int
	if err := r.db.WithContext(ctx).Model(&domain.ChecklistItem{}).
		Where("atribuicao_id = ?", id).
		Select("COALESCE(MAX(ordem), -1)").
		Scan(&ultima).Error; err != nil {
		return 0, falha("checklist", "proxima ordem", err)
	}
	return ultima + 1, nil
}

type AnexoRepository struct {
	db *gorm.DB
}

func NewAnexoRepository(db *gorm.DB) *AnexoRepository {
	return &AnexoRepository{db: db}
}

func (r *AnexoRepository) Create(ctx context.Context, a domain.Anexo) error {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return falha("anexo", "inserir", err)
	}
	return nil
}

func (r *AnexoRepository) FindByID(ctx context.Context, id domain.AnexoID) (domain.Anexo, error) {
	var a domain.Anexo
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return domain.Anexo{}, falha("anexo", "buscar id", err)
	}
	return a, nil
}

func (r *AnexoRepository) ListByAtribuicao(ctx context.Context, id domain.AtribuicaoID) ([]domain.Anexo, error) {
	var anexos []domain.Anexo
	if err := r.db.WithContext(ctx).Where("atribuicao_id = ?", id).Order("criado_em ASC").Find(&anexos).Error; err != nil {
		return nil, falha("anexo", "listar", err)
	}
	return anexos, nil
}

func (r *AnexoRepository) Delete(ctx context.Context, id domain.AnexoID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Anexo{}, "id = ?", id)
	return exigirAfetado(res, "anexo", "excluir")
}

// EtiquetaRepository mantém o catálogo global e a junção com atribuições.
type EtiquetaRepository struct {
	db *gorm.DB
}

func NewEtiquetaRepository(db *gorm.DB) *EtiquetaRepository {
	return &EtiquetaRepository{db: db}
}

func (r *EtiquetaRepository) Create(ctx context.Context, e domain.Etiqueta) error {
	if err := r.db.WithContext(ctx).Create(&e).Error; err != nil {
		return falha("etiqueta", "inserir", err)
	}
	return nil
}

func (r *EtiquetaRepository) FindByID(ctx context.Context, id domain.EtiquetaID) (domain.Etiqueta, error) {
	var e domain.Etiqueta
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return domain.Etiqueta{}, falha("etiqueta", "buscar id", err)
	}
	return e, nil
}

func (r *EtiquetaRepository) List(ctx context.Context) ([]domain.Etiqueta, error) {
	var etiquetas []domain.Etiqueta
	if err := r.db.WithContext(ctx).Order("nome ASC").Find(&etiquetas).Error; err != nil {
		return nil, falha("etiqueta", "listar", err)
	}
	return etiquetas, nil
}

func (r *EtiquetaRepository) Delete(ctx context.Context, id domain.EtiquetaID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("etiqueta_id = ?", id).Delete(&domain.AtribuicaoEtiqueta{}).Error; err != nil {
			return falha("etiqueta", "remover vinculos", err)
		}
		res := tx.Delete(&domain.Etiqueta{}, "id = ?", id)
		return exigirAfetado(res, "etiqueta", "excluir")
	})
}

func (r *EtiquetaRepository) Alternar(ctx context.Context, atribuicao domain.AtribuicaoID, etiqueta domain.EtiquetaID) (bool, error) {
	aplicada := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vinculo domain.AtribuicaoEtiqueta
		err := tx.Where("atribuicao_id = ? AND etiqueta_id = ?", atribuicao, etiqueta).First(&vinculo).Error
		switch {
		case err == nil:
			if err := tx.Where("atribuicao_id = ? AND etiqueta_id = ?", atribuicao, etiqueta).
				Delete(&domain.AtribuicaoEtiqueta{}).Error; err != nil {
				return falha("etiqueta", "remover vinculo", err)
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			vinculo = domain.AtribuicaoEtiqueta{AtribuicaoID: atribuicao, EtiquetaID: etiqueta}
			if err := tx.Create(&vinculo).Error; err != nil {
				return falha("etiqueta", "aplicar", err)
			}
			aplicada = true
			return nil
		default:
			return falha("etiqueta", "buscar vinculo", err)
		}
	})
	return aplicada, err
}

type CompraRepository struct {
	db *gorm.DB
}

func NewCompraRepository(db *gorm.DB) *CompraRepository {
	return &CompraRepository{db: db}
}

func (r *CompraRepository) Create(ctx context.Context, c domain.Compra) error {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return falha("compra", "inserir", err)
	}
	return nil
}

func (r *CompraRepository) FindByID(ctx context.Context, id domain.CompraID) (domain.Compra, error) {
	var c domain.Compra
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return domain.Compra{}, falha("compra", "buscar id", err)
	}
	return c, nil
}

func (r *CompraRepository) Update(ctx context.Context, c domain.Compra) error {
	res := r.db.WithContext(ctx).Model(&domain.Compra{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"material":      c.Material,
			"quantidade":    c.Quantidade,
			"unidade":       c.Unidade,
			"status":        c.Status,
			"observacoes":   c.Observacoes,
			"atualizado_em": c.AtualizadoEm,
		})
	return exigirAfetado(res, "compra", "atualizar")
}

func (r *CompraRepository) Delete(ctx context.Context, id domain.CompraID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Compra{}, "id = ?", id)
	return exigirAfetado(res, "compra", "excluir")
}

var (
	_ domain.ChecklistRepository = (*ChecklistRepository)(nil)
	_ domain.AnexoRepository     = (*AnexoRepository)(nil)
	_ domain.EtiquetaRepository  = (*EtiquetaRepository)(nil)
	_ domain.CompraRepository    = (*CompraRepository)(nil)
)
