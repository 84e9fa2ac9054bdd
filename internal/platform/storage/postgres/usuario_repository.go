package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/gestao-obras/internal/domain"
)

type UsuarioRepository struct {
	db *gorm.DB
}

func NewUsuarioRepository(db *gorm.DB) *UsuarioRepository {
	return &UsuarioRepository{db: db}
}

func (r *UsuarioRepository) Create(ctx context.Context, u domain.Usuario) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&u).Error; err != nil {
		return falha("usuario", "inserir", err)
	}
	return nil
}

func (r *UsuarioRepository) FindByID(ctx context.Context, id domain.UsuarioID) (domain.Usuario, error) {
	var u domain.Usuario
	if err := r.db.WithContext(ctx).Preload("Permissoes").First(&u, "id = ?", id).Error; err != nil {
		return domain.Usuario{}, falha("usuario", "buscar id", err)
	}
	return u, nil
}

func (r *UsuarioRepository) List(ctx context.Context) ([]domain.Usuario, error) {
	var lista []domain.Usuario
	if err := r.db.WithContext(ctx).Preload("Permissoes").Order("nome ASC").Find(&lista).Error; err != nil {
		return nil, falha("usuario", "listar", err)
	}
	return lista, nil
}

func (r *UsuarioRepository) DefinirPermissao(ctx context.Context, p domain.PermissaoPagina) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "usuario_id"}, {Name: "pagina"}},
		DoUpdates: clause.AssignmentColumns([]string{"nivel"}),
	}).Create(&p).Error; err != nil {
		return falha("usuario", "definir permissao", err)
	}
	return nil
}

func (r *UsuarioRepository) RemoverPermissao(ctx context.Context, usuario domain.UsuarioID, pagina domain.Pagina) error {
	res := r.db.WithContext(ctx).Delete(&domain.PermissaoPagina{}, "usuario_id = ? AND pagina = ?", usuario, pagina)
	return exigirAfetado(res, "usuario", "remover permissao")
}

var _ domain.UsuarioRepository = (*UsuarioRepository)(nil)
